// ABOUTME: Store interface and Session type for joke-gateway persistence.
// ABOUTME: Defines the durable session-id to session-metadata mapping contract.

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested session does not exist.
var ErrNotFound = errors.New("not found")

// Session tracks one protocol client. IDs are 256-bit cryptographically
// random hex strings; uniqueness comes from the randomness source and is not
// explicitly checked.
//
// LastActivity is set at creation and never refreshed on subsequent calls.
// No idle-timeout enforcement exists, so sessions persist until explicitly
// terminated.
type Session struct {
	ID           string
	Created      time.Time
	LastActivity time.Time
}

// Store defines the interface for session persistence. Implementations must
// be safe for concurrent use.
type Store interface {
	// GetSession returns the session with the given id, or ErrNotFound.
	GetSession(ctx context.Context, id string) (*Session, error)

	// PutSession inserts or replaces a session.
	PutSession(ctx context.Context, sess *Session) error

	// DeleteSession removes a session, returning ErrNotFound when absent.
	DeleteSession(ctx context.Context, id string) error

	// ListSessions returns all sessions ordered by creation time.
	ListSessions(ctx context.Context) ([]*Session, error)

	// Close releases any resources held by the store.
	Close() error
}
