// Package store provides durable session persistence for joke-gateway.
//
// The store is a key-value mapping from session id to session metadata
// (creation time, last-activity time), behind a small interface so the
// backend is swappable:
//
//   - SQLiteStore: default durable backend using modernc.org/sqlite
//   - FileStore: whole-document JSON file with atomic rewrite on mutation
//   - MockStore: in-memory implementation for tests
//
// All implementations return ErrNotFound for missing sessions and are safe
// for concurrent use. The FileStore preserves the original read-modify-write
// contract (the full table is loaded per operation and rewritten per
// mutation) while a mutex and rename-into-place close the torn-write race.
package store
