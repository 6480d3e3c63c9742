package state

import "sync"

type memoryManager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session

	locksMu sync.Mutex
	locks   map[int64]*turnLock
}

// turnLock is a ticket lock: turns are granted in the order Lock was called.
type turnLock struct {
	mu      sync.Mutex
	cond    *sync.Cond
	next    uint64
	serving uint64
}

func newTurnLock() *turnLock {
	l := &turnLock{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

func (l *turnLock) acquire() {
	l.mu.Lock()
	ticket := l.next
	l.next++
	for l.serving != ticket {
		l.cond.Wait()
	}
	l.mu.Unlock()
}

func (l *turnLock) release() {
	l.mu.Lock()
	l.serving++
	l.cond.Broadcast()
	l.mu.Unlock()
}

// NewMemoryManager constructs the in-process Manager.
func NewMemoryManager() Manager {
	return &memoryManager{
		sessions: make(map[int64]*Session),
		locks:    make(map[int64]*turnLock),
	}
}

func (m *memoryManager) Get(userID int64) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sess, ok := m.sessions[userID]; ok {
		return *sess, true
	}
	return Session{}, false
}

func (m *memoryManager) GetOrCreate(userID int64) Session {
	if sess, ok := m.Get(userID); ok {
		return sess
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[userID]
	if !ok {
		fresh := DefaultSession()
		sess = &fresh
		m.sessions[userID] = sess
	}
	return *sess
}

func (m *memoryManager) Update(userID int64, fn func(*Session)) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := DefaultSession()
	if sess, ok := m.sessions[userID]; ok {
		current = *sess
	}
	next := current
	if fn != nil {
		fn(&next)
	}
	if err := next.validate(); err != nil {
		return current, err
	}
	m.sessions[userID] = &next
	return next, nil
}

func (m *memoryManager) Reset(userID int64) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	fresh := DefaultSession()
	m.sessions[userID] = &fresh
	return fresh
}

func (m *memoryManager) Lock(userID int64) func() {
	m.locksMu.Lock()
	l, ok := m.locks[userID]
	if !ok {
		l = newTurnLock()
		m.locks[userID] = l
	}
	m.locksMu.Unlock()

	l.acquire()
	var once sync.Once
	return func() { once.Do(l.release) }
}

func (m *memoryManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
