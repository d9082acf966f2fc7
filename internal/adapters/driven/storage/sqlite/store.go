// Package sqlite persists scheduler state in a local SQLite database so
// refresh cadence survives daemon restarts.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/jbogarthyde/backstage/internal/core/ports/driven"
)

// schema creates the scheduler tables. Applied idempotently on open.
const schema = `
CREATE TABLE IF NOT EXISTS scheduled_tasks (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	interval_seconds INTEGER NOT NULL,
	last_run      TEXT,
	next_run      TEXT,
	last_error    TEXT,
	last_success  TEXT,
	enabled       INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS task_results (
	id            TEXT PRIMARY KEY,
	task_id       TEXT NOT NULL,
	started_at    TEXT NOT NULL,
	ended_at      TEXT NOT NULL,
	success       INTEGER NOT NULL,
	error         TEXT,
	items_processed INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_task_results_task
	ON task_results (task_id, started_at DESC);
`

// Store is a SQLite-backed storage for scheduler state.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.catalogsync/data/scheduler.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".catalogsync", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "scheduler.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SchedulerStore returns a SchedulerStore interface backed by this store.
func (s *Store) SchedulerStore() driven.SchedulerStore {
	return &schedulerStore{store: s}
}
