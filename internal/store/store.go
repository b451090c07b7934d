// Package store persists orchestration state in sqlite: the event queue,
// pending actions, the decision audit log, trajectories, workflows, and
// autonomy settings. It is the only coordination point between invocations.
package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the steward database at dbPath and applies the schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open steward db: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	// Best-effort migrations for older databases (no-op when columns exist).
	_, _ = db.Exec(`ALTER TABLE events ADD COLUMN processed_at DATETIME`)
	_, _ = db.Exec(`ALTER TABLE trajectories ADD COLUMN intent_label TEXT DEFAULT ''`)
	_, _ = db.Exec(`ALTER TABLE workflows ADD COLUMN tenancy_id TEXT DEFAULT ''`)

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for collaborators that share the database
// (tool genome statistics).
func (s *Store) DB() *sql.DB {
	return s.db
}

// NewID returns a fresh row identifier.
func NewID() string {
	return uuid.NewString()
}
