// Package sqlite implements the persistence repositories over a SQLite
// database using the CGO-free modernc.org driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS appointments (
	id                 TEXT PRIMARY KEY,
	date               TEXT NOT NULL,
	start_time         TEXT NOT NULL,
	end_time           TEXT NOT NULL,
	is_event           INTEGER NOT NULL DEFAULT 0,
	broker_id          TEXT NOT NULL,
	reference          TEXT NOT NULL DEFAULT '',
	property_address   TEXT NOT NULL DEFAULT '',
	properties         TEXT NOT NULL DEFAULT '[]',
	clients            TEXT NOT NULL DEFAULT '[]',
	shared_with        TEXT NOT NULL DEFAULT '[]',
	status             TEXT NOT NULL DEFAULT 'agendada',
	status_observation TEXT NOT NULL DEFAULT '',
	event_comment      TEXT NOT NULL DEFAULT '',
	created_by         TEXT NOT NULL,
	created_by_name    TEXT NOT NULL DEFAULT '',
	created_at         TEXT NOT NULL,
	updated_at         TEXT NOT NULL DEFAULT '',
	updated_by         TEXT NOT NULL DEFAULT '',
	group_id           TEXT NOT NULL DEFAULT '',
	history            TEXT NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_appointments_broker_date ON appointments (broker_id, date);
CREATE INDEX IF NOT EXISTS idx_appointments_group ON appointments (group_id);

CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'consultant',
	password_hash TEXT NOT NULL DEFAULT '',
	disabled      INTEGER NOT NULL DEFAULT 0,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users (id),
	token      TEXT NOT NULL UNIQUE,
	expires_at TEXT NOT NULL,
	created_at TEXT NOT NULL,
	revoked_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_sessions_token ON sessions (token);
`

// Storage wraps the database handle and implements the persistence
// repository interfaces.
type Storage struct {
	db *sql.DB
}

// Open connects to the database identified by dsn.
func Open(dsn string) (*Storage, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", dsn, err)
	}
	// modernc.org/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY churn under concurrent handlers.
	db.SetMaxOpenConns(1)
	return &Storage{db: db}, nil
}

// DB exposes the underlying handle for tests.
func (s *Storage) DB() *sql.DB {
	return s.db
}

// Close releases the database handle.
func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Migrate applies the schema idempotently.
func (s *Storage) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// withTransaction runs fn inside a transaction, rolling back on error.
func (s *Storage) withTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("sqlite: transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit transaction: %w", err)
	}
	return nil
}
