// ABOUTME: Whole-document JSON file implementation of the Store interface.
// ABOUTME: Reads the full session table per operation and rewrites it atomically.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// persistedSession is the on-disk shape of a session, keyed by id in the
// document root. Timestamps are epoch seconds.
type persistedSession struct {
	Created      int64 `json:"created"`
	LastActivity int64 `json:"lastActivity"`
}

// FileStore implements the Store interface with a single JSON document that
// is fully read and fully rewritten on every mutation. A mutex and an atomic
// rename close the torn-write race without changing the single-client
// contract.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a file-backed store at the given path. Parent
// directories are created if needed.
func NewFileStore(path string) (*FileStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// load reads the full session document. A missing file is an empty table.
func (f *FileStore) load() (map[string]persistedSession, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return map[string]persistedSession{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}

	sessions := map[string]persistedSession{}
	if len(data) == 0 {
		return sessions, nil
	}
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("decoding session file: %w", err)
	}
	return sessions, nil
}

// save rewrites the full session document via a temp file and rename.
func (f *FileStore) save(sessions map[string]persistedSession) error {
	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("encoding session file: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replacing session file: %w", err)
	}
	return nil
}

// GetSession returns the session with the given id.
func (f *FileStore) GetSession(_ context.Context, id string) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sessions, err := f.load()
	if err != nil {
		return nil, err
	}
	ps, ok := sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &Session{
		ID:           id,
		Created:      time.Unix(ps.Created, 0),
		LastActivity: time.Unix(ps.LastActivity, 0),
	}, nil
}

// PutSession inserts or replaces a session.
func (f *FileStore) PutSession(_ context.Context, sess *Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	sessions, err := f.load()
	if err != nil {
		return err
	}
	sessions[sess.ID] = persistedSession{
		Created:      sess.Created.Unix(),
		LastActivity: sess.LastActivity.Unix(),
	}
	return f.save(sessions)
}

// DeleteSession removes a session, returning ErrNotFound when absent.
func (f *FileStore) DeleteSession(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	sessions, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := sessions[id]; !ok {
		return ErrNotFound
	}
	delete(sessions, id)
	return f.save(sessions)
}

// ListSessions returns all sessions ordered by creation time.
func (f *FileStore) ListSessions(_ context.Context) ([]*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	persisted, err := f.load()
	if err != nil {
		return nil, err
	}

	sessions := make([]*Session, 0, len(persisted))
	for id, ps := range persisted {
		sessions = append(sessions, &Session{
			ID:           id,
			Created:      time.Unix(ps.Created, 0),
			LastActivity: time.Unix(ps.LastActivity, 0),
		})
	}
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].Created.Equal(sessions[j].Created) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].Created.Before(sessions[j].Created)
	})
	return sessions, nil
}

// Close is a no-op for the file store.
func (f *FileStore) Close() error {
	return nil
}
