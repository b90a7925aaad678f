// Package sqlite implements the repository interfaces on SQLite.
//
// SQLite is embedded (a single file, no server process), which covers a
// single-instance auth service comfortably. The modernc.org/sqlite driver
// is a pure-Go translation of the SQLite sources, so builds need no C
// toolchain and cross-compilation stays trivial.
//
// Concurrency control is delegated entirely to the engine: every handler
// performs at most one short read-modify-write and commits immediately, so
// WAL mode plus SQLite's own locking is all the coordination there is.
package sqlite

import (
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps the sql.DB pool and carries the repository methods.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at path and runs migrations.
// Use ":memory:" in tests.
func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight; the default
	// journal mode locks the whole file per write.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. The server defers this on shutdown so
// the WAL is flushed and the file lock released.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it
// idempotent across restarts.
//
// email is globally unique regardless of provider; provider_id is unique
// when present (SQLite treats NULLs as distinct, so local accounts don't
// collide on it). hashed_password defaults to '', the SSO-account shape.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			email           TEXT NOT NULL UNIQUE,
			hashed_password TEXT NOT NULL DEFAULT '',
			is_active       INTEGER NOT NULL DEFAULT 0,
			provider        TEXT,
			provider_id     TEXT UNIQUE,
			created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_users_provider_id ON users(provider_id);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	return nil
}
