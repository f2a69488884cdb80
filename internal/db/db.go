// Package db provides SQLite snapshot storage for voicesync.
package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite connection used for session snapshots.
type DB struct {
	conn *sql.DB
}

// Open opens (and migrates) the snapshot database at path. A busyTimeoutMs
// of zero uses the driver default.
func Open(path string, busyTimeoutMs int) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	if busyTimeoutMs > 0 {
		dsn += fmt.Sprintf("&_pragma=busy_timeout(%d)", busyTimeoutMs)
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite handles one writer at a time.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Transaction runs fn inside a transaction, rolling back on error.
func (db *DB) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	return tx.Commit()
}

func (db *DB) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL DEFAULT '',
	source      TEXT NOT NULL DEFAULT '',
	ordering_id TEXT NOT NULL DEFAULT '',
	is_active   INTEGER NOT NULL DEFAULT 0,
	to_finalize INTEGER NOT NULL DEFAULT 0,
	done_at     REAL NOT NULL DEFAULT 0,
	updated_at  REAL NOT NULL DEFAULT 0,
	saved_at    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS messages (
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	position   INTEGER NOT NULL,
	data       TEXT NOT NULL,
	PRIMARY KEY (session_id, position)
);
`
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
