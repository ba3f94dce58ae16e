// ABOUTME: Tests for the SQLite session store.
// ABOUTME: Covers CRUD round-trips, missing sessions and list ordering.

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testSession(id string, created time.Time) *Session {
	return &Session{
		ID:           id,
		Created:      created,
		LastActivity: created,
	}
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	created := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.PutSession(ctx, testSession("abc", created)))

	got, err := s.GetSession(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", got.ID)
	assert.True(t, got.Created.Equal(created))
	assert.True(t, got.LastActivity.Equal(created))
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	s := newTestSQLiteStore(t)

	_, err := s.GetSession(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_PutReplaces(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	first := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.PutSession(ctx, testSession("abc", first)))

	second := first.Add(time.Hour)
	require.NoError(t, s.PutSession(ctx, testSession("abc", second)))

	got, err := s.GetSession(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, got.Created.Equal(second))
}

func TestSQLiteStore_Delete(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutSession(ctx, testSession("abc", time.Now())))
	require.NoError(t, s.DeleteSession(ctx, "abc"))

	_, err := s.GetSession(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting again reports absence
	assert.ErrorIs(t, s.DeleteSession(ctx, "abc"), ErrNotFound)
}

func TestSQLiteStore_ListOrdering(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.PutSession(ctx, testSession("newer", base.Add(time.Minute))))
	require.NoError(t, s.PutSession(ctx, testSession("older", base)))

	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "older", sessions[0].ID)
	assert.Equal(t, "newer", sessions[1].ID)
}

func TestSQLiteStore_ListEmpty(t *testing.T) {
	s := newTestSQLiteStore(t)

	sessions, err := s.ListSessions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
