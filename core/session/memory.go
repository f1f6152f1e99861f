package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the default single-process Store: a mutex-guarded map with
// lazy idle expiry.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	maxAge   time.Duration

	// now is swappable for expiry tests.
	now func() time.Time
}

// NewMemoryStore creates an in-memory store. maxAge <= 0 selects the default.
func NewMemoryStore(maxAge time.Duration) *MemoryStore {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &MemoryStore{
		sessions: make(map[string]*Session),
		maxAge:   maxAge,
		now:      time.Now,
	}
}

// Get returns the session for id, or (nil, nil) when absent or idle-expired.
// An expired entry is deleted as a side effect of the read.
func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}

	if m.now().Sub(s.LastActiveAt) > m.maxAge {
		delete(m.sessions, id)
		return nil, nil
	}

	return s, nil
}

// Set upserts the session and refreshes its activity timestamp.
func (m *MemoryStore) Set(ctx context.Context, id string, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.LastActiveAt = m.now()
	m.sessions[id] = s
	return nil
}

// Delete removes the session if present.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

// Len reports the number of resident entries, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
