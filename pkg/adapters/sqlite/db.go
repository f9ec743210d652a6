// Package sqlite reads decision tables from, and persists sessions in, a SQLite
// database file using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	state      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// DB is an open database handle shared by Source and Store.
type DB struct {
	sqlDB *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the sessions table.
func Open(ctx context.Context, path string) (*DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.ExecContext(ctx, schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &DB{sqlDB: sqlDB}, nil
}

// Close releases the connection pool.
func (d *DB) Close() error {
	if d == nil || d.sqlDB == nil {
		return nil
	}
	return d.sqlDB.Close()
}

// SQL exposes the underlying handle, e.g. for seeding tables.
func (d *DB) SQL() *sql.DB {
	return d.sqlDB
}

// Source returns a table source over this database.
func (d *DB) Source() *Source {
	return &Source{db: d.sqlDB}
}

// Store returns a session store over this database.
func (d *DB) Store() *Store {
	return &Store{db: d.sqlDB}
}
