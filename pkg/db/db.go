// Package db persists the trade journal to SQLite. Every executed order,
// simulated or real, leaves a row here.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Database wraps the SQL handle for easier swapping in tests.
type Database struct {
	DB *sql.DB
}

// New opens (and creates if needed) the SQLite database at path. Use
// ":memory:" for tests.
func New(path string) (*Database, error) {
	if path == "" {
		return nil, errors.New("database path is empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite prefers a single writer.
	db.SetConnMaxLifetime(time.Hour)

	return &Database{DB: db}, nil
}

// Close releases the underlying DB handle.
func (d *Database) Close() error {
	if d == nil || d.DB == nil {
		return nil
	}
	return d.DB.Close()
}

// ApplyMigrations creates the schema if it does not exist yet.
func ApplyMigrations(d *Database) error {
	_, err := d.DB.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			id         TEXT PRIMARY KEY,
			symbol     TEXT NOT NULL,
			side       TEXT NOT NULL,
			qty        REAL NOT NULL,
			price      REAL NOT NULL,
			fee        REAL NOT NULL,
			mode       TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
		CREATE INDEX IF NOT EXISTS idx_trades_created ON trades(created_at);
	`)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
