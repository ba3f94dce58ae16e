// ABOUTME: Session minting for the MCP dispatcher.
// ABOUTME: Generates 256-bit random hex ids and persists them to the store.

package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/nicomartin/joke-gateway/internal/store"
)

// generateSessionID returns a 64-character hex string from 32 random bytes.
// Uniqueness rests on the randomness source; collisions are not checked.
func generateSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// mintSession creates and persists a new session. LastActivity is set once
// here and never refreshed by later calls.
func (s *Server) mintSession(ctx context.Context) (*store.Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sess := &store.Session{
		ID:           id,
		Created:      now,
		LastActivity: now,
	}
	if err := s.store.PutSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("persisting session: %w", err)
	}
	return sess, nil
}
