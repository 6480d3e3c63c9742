package sender

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

func TestDispatcherPreservesOrderPerKey(t *testing.T) {
	d := NewDispatcher(Options{Workers: 4, QueueSize: 64})

	var (
		mu  sync.Mutex
		got = map[int64][]int{}
	)
	for i := 0; i < 20; i++ {
		for _, key := range []int64{101, 202, -303} {
			key, i := key, i
			err := d.Enqueue(context.Background(), key, "send.text", "sendMessage", func() error {
				if i%3 == 0 {
					time.Sleep(time.Millisecond)
				}
				mu.Lock()
				got[key] = append(got[key], i)
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Fatalf("enqueue: %v", err)
			}
		}
	}
	d.Close()

	for key, seq := range got {
		if len(seq) != 20 {
			t.Fatalf("key %d ran %d jobs, want 20", key, len(seq))
		}
		for i, v := range seq {
			if v != i {
				t.Fatalf("key %d out of order: %v", key, seq)
			}
		}
	}
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	d.Close()
	err := d.Enqueue(context.Background(), 1, "send.text", "sendMessage", func() error { return nil })
	if !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	var attempts int
	done := make(chan struct{})
	err := d.Enqueue(context.Background(), 7, "send.text", "sendMessage", func() error {
		attempts++
		if attempts < 3 {
			return &net.OpError{Op: "dial", Err: errors.New("connection refused")}
		}
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not succeed after retries")
	}
	d.Close()
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
	if d.ErrorCount() != 0 {
		t.Fatalf("error count = %d, want 0", d.ErrorCount())
	}
}

func TestDispatcherCountsPermanentFailures(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})
	var attempts int
	_ = d.Enqueue(context.Background(), 7, "send.text", "sendMessage", func() error {
		attempts++
		return fmt.Errorf("telegram: Bad Request: can't parse entities (400)")
	})
	d.Close()
	if attempts != 1 {
		t.Fatalf("permanent error retried: %d attempts", attempts)
	}
	if d.ErrorCount() != 1 {
		t.Fatalf("error count = %d, want 1", d.ErrorCount())
	}
}

func TestClassifyAndSanitize(t *testing.T) {
	if kind := classifyError(errors.New("telegram: Bad Request (400)")); kind != "http_4xx" {
		t.Fatalf("kind = %s, want http_4xx", kind)
	}
	if kind := classifyError(context.DeadlineExceeded); kind != "timeout" {
		t.Fatalf("kind = %s, want timeout", kind)
	}
	msg := sanitizeErrorMessage(errors.New(`Post "https://api.telegram.org/bot123:ABC-def/sendMessage": EOF`))
	if msg != `Post "https://api.telegram.org/bot<redacted>/sendMessage": EOF` {
		t.Fatalf("token not redacted: %s", msg)
	}
}

func TestDispatcherHonorsFloodWait(t *testing.T) {
	var results []string
	d := NewDispatcher(Options{
		Workers:     1,
		MaxRetries:  1,
		MaxDuration: 5 * time.Second,
		OnResult:    func(action, status string) { results = append(results, action+":"+status) },
	})
	var attempts int
	var gap time.Duration
	var first time.Time
	_ = d.Enqueue(context.Background(), 9, "send.text", "sendMessage", func() error {
		attempts++
		if attempts == 1 {
			first = time.Now()
			return tele.FloodError{RetryAfter: 1}
		}
		gap = time.Since(first)
		return nil
	})
	d.Close()
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}
	if gap < 900*time.Millisecond {
		t.Fatalf("retried after %s, want about 1s", gap)
	}
	if len(results) != 1 || results[0] != "send.text:ok" {
		t.Fatalf("results = %v", results)
	}
}

func TestRetryDelay(t *testing.T) {
	if _, retry := retryDelay(errors.New("telegram: Bad Request (400)"), 1, time.Second); retry {
		t.Fatal("bad request must not be retried")
	}
	delay, retry := retryDelay(&net.OpError{Op: "dial", Err: errors.New("refused")}, 3, time.Second)
	if !retry || delay != 3*time.Second {
		t.Fatalf("dial retry = %s %v", delay, retry)
	}
	if kind := classifyError(tele.FloodError{RetryAfter: 3}); kind != "flood" {
		t.Fatalf("kind = %s, want flood", kind)
	}
}
