// ABOUTME: Mock Store implementation for testing.
// ABOUTME: Allows tests to run without SQLite or file I/O.

package store

import (
	"context"
	"sort"
	"sync"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{sessions: make(map[string]*Session)}
}

// GetSession retrieves a session by id.
func (m *MockStore) GetSession(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	s := *sess
	return &s, nil
}

// PutSession stores a session.
func (m *MockStore) PutSession(_ context.Context, sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Make a copy to avoid external modification
	s := *sess
	m.sessions[s.ID] = &s
	return nil
}

// DeleteSession removes a session.
func (m *MockStore) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// ListSessions returns all sessions ordered by creation time.
func (m *MockStore) ListSessions(_ context.Context) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		s := *sess
		sessions = append(sessions, &s)
	}
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].Created.Equal(sessions[j].Created) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].Created.Before(sessions[j].Created)
	})
	return sessions, nil
}

// Close is a no-op for the mock store.
func (m *MockStore) Close() error {
	return nil
}
