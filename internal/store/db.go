// Package store is the local SQLite mirror of the platform: sessions, chats,
// message history, the send outbox, and a full-text index over bodies. All
// ingestion paths are idempotent so replayed events and re-fetched pages are
// harmless.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// dsnOptions are applied on every open: WAL for concurrent readers under a
// single writer, a busy timeout instead of immediate SQLITE_BUSY, and
// enforced foreign keys.
const dsnOptions = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

// DB wraps the profile's cache database.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the cache database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping cache: %w", err)
	}
	return &DB{db}, nil
}
