// Package store provides access to the relational database shared by every
// pipeline job: the item ledger, detection records, the policy-check audit
// log, calibration labels, and daily metrics snapshots.
//
// The default engine is a local SQLite file; a postgres:// DSN switches to
// PostgreSQL. All SQL is written to the common subset of both dialects
// ($N placeholders, TEXT timestamps in RFC 3339, ON CONFLICT upserts).
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx as database/sql driver
	_ "modernc.org/sqlite"             // cgo-free sqlite driver
)

//go:embed schema.sql
var schemaSQL string

// timeFormat is the storage representation of all timestamps. RFC 3339
// strings compare lexicographically in date order, which the label-window
// queries rely on.
const timeFormat = time.RFC3339

// Store wraps a database connection pool.
type Store struct {
	db *sql.DB
}

// Open connects to the database identified by dsn. A dsn beginning with
// postgres:// (or postgresql://) selects the pgx driver; anything else is
// treated as a SQLite file path, creating parent directories as needed.
func Open(dsn string) (*Store, error) {
	driver := "sqlite"
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver = "pgx"
	} else if dir := filepath.Dir(dsn); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("Open: %w", err)
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("Open: %w", err)
	}
	if driver == "sqlite" {
		// Single writer; avoids SQLITE_BUSY under the batch jobs.
		db.SetMaxOpenConns(1)
	}
	return &Store{db: db}, nil
}

// Migrate creates any missing tables and indexes. Safe to run on every
// invocation; all statements are IF NOT EXISTS.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("Migrate: %w", err)
		}
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
