// Package sqlite is a storage.Store on a local SQLite file. Unlike bolt it
// lets a second process read the journal while the daemon has it open.
package sqlite

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/goodtune/nighttime/internal/storage"
	_ "modernc.org/sqlite"
)

// Store implements storage.Store on SQLite.
type Store struct {
	db *sql.DB
}

// Open opens the database at path and applies any pending migrations.
func Open(path string) (*Store, error) {
	if err := storage.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite limitation
	db.SetMaxIdleConns(1)

	store, err := newStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func newStore(db *sql.DB) (*Store, error) {
	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// State returns the scheduler state store.
func (s *Store) State() storage.StateStore { return &stateStore{db: s.db} }

// Transitions returns the transition journal.
func (s *Store) Transitions() storage.TransitionStore { return &transitionStore{db: s.db} }

// runMigrations applies all database migrations
func runMigrations(db *sql.DB) error {
	// Create migrations table
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			version INTEGER NOT NULL UNIQUE,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	// Apply migrations in order; version is the slice index plus one
	for i, migration := range migrations {
		version := i + 1
		if version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(migration); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO migrations (version) VALUES (?)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", version, err)
		}
	}

	return nil
}

var migrations = []string{
	migration001State,
	migration002Transitions,
}

const migration001State = `
CREATE TABLE IF NOT EXISTS state (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	restore_mode INTEGER NOT NULL,
	running INTEGER NOT NULL,
	updated_at INTEGER NOT NULL -- unix nanoseconds
);
`

const migration002Transitions = `
CREATE TABLE IF NOT EXISTS transitions (
	id TEXT PRIMARY KEY,
	timestamp INTEGER NOT NULL, -- unix nanoseconds
	source TEXT NOT NULL,
	from_mode INTEGER NOT NULL,
	to_mode INTEGER NOT NULL
);

CREATE INDEX idx_transitions_timestamp ON transitions(timestamp);
`
