package state

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestGetOrCreateReturnsDefaults(t *testing.T) {
	mgr := NewMemoryManager()
	if _, ok := mgr.Get(1); ok {
		t.Fatal("unexpected session before first contact")
	}
	sess := mgr.GetOrCreate(1)
	if sess != DefaultSession() {
		t.Fatalf("session = %+v, want defaults", sess)
	}
	if sess.Level != LevelB1 || sess.Topic != "Free chat" || sess.State != StateAwaitingLevel {
		t.Fatalf("unexpected defaults: %+v", sess)
	}
	if mgr.Len() != 1 {
		t.Fatalf("len = %d, want 1", mgr.Len())
	}
}

func TestUpdateRejectsUnknownValues(t *testing.T) {
	mgr := NewMemoryManager()
	mgr.GetOrCreate(7)

	_, err := mgr.Update(7, func(s *Session) { s.State = "sleeping" })
	if !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
	_, err = mgr.Update(7, func(s *Session) { s.Level = "D1" })
	if !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession for level, got %v", err)
	}

	got, _ := mgr.Get(7)
	if got != DefaultSession() {
		t.Fatalf("rejected mutation leaked into store: %+v", got)
	}
}

func TestUpdateReturnsCopy(t *testing.T) {
	mgr := NewMemoryManager()
	updated, err := mgr.Update(3, func(s *Session) {
		s.Level = LevelC1
		s.Topic = "space travel"
		s.State = StateChatting
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	updated.Topic = "mutated outside"
	got, _ := mgr.Get(3)
	if got.Topic != "space travel" || got.Level != LevelC1 || got.State != StateChatting {
		t.Fatalf("store affected by caller copy: %+v", got)
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	mgr := NewMemoryManager()
	if _, err := mgr.Update(5, func(s *Session) { s.State = StateDictionary; s.Level = LevelA2 }); err != nil {
		t.Fatalf("update: %v", err)
	}
	if sess := mgr.Reset(5); sess != DefaultSession() {
		t.Fatalf("reset = %+v", sess)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]bool{"A1": true, " C2 ": true, "b1": false, "B3": false, "": false}
	for in, want := range cases {
		if _, ok := ParseLevel(in); ok != want {
			t.Fatalf("ParseLevel(%q) ok = %v, want %v", in, ok, want)
		}
	}
}

func TestLockSerialisesSameUser(t *testing.T) {
	mgr := NewMemoryManager()
	unlock := mgr.Lock(9)

	acquired := make(chan struct{})
	go func() {
		release := mgr.Lock(9)
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first is held")
	case <-time.After(50 * time.Millisecond):
	}

	otherDone := make(chan struct{})
	go func() {
		release := mgr.Lock(10)
		release()
		close(otherDone)
	}()
	select {
	case <-otherDone:
	case <-time.After(time.Second):
		t.Fatal("lock for another user blocked")
	}

	unlock()
	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock not acquired after unlock")
	}
}

func TestConcurrentUpdatesKeepStateValid(t *testing.T) {
	mgr := NewMemoryManager()
	states := []State{StateChatting, StateDictionary, StateChangingTopic, StateChangingLevel}
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = mgr.Update(1, func(s *Session) { s.State = states[i%len(states)] })
			if sess, _ := mgr.Get(1); !sess.State.Valid() {
				t.Errorf("observed invalid state %q", sess.State)
			}
		}(i)
	}
	wg.Wait()
}

func TestLockGrantsTurnsInCallOrder(t *testing.T) {
	mgr := NewMemoryManager().(*memoryManager)
	unlock := mgr.Lock(5)

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			release := mgr.Lock(5)
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			release()
		}(i)
		waitForTickets(t, mgr, 5, uint64(i+2))
	}

	unlock()
	wg.Wait()
	for i, v := range order {
		if v != i {
			t.Fatalf("turns served out of order: %v", order)
		}
	}
}

func waitForTickets(t *testing.T, m *memoryManager, userID int64, want uint64) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		m.locksMu.Lock()
		l := m.locks[userID]
		m.locksMu.Unlock()
		l.mu.Lock()
		got := l.next
		l.mu.Unlock()
		if got >= want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("waiter did not queue for user %d", userID)
}
