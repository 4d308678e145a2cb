// Package store provides a SQLite-backed history of ingestion runs. Every
// completed run is appended with its source, target collection, and counts so
// operators can audit what was loaded into which vector store and when.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver

	"github.com/54b3r/ragbridge/internal/rag"
)

// RunStore persists and retrieves ingestion run history.
// Implementations must be safe for concurrent use.
type RunStore interface {
	// Append persists a single completed run.
	Append(ctx context.Context, run rag.IngestRun) error
	// Recent returns the most recent n runs, newest-first.
	// If fewer than n runs exist, all are returned.
	Recent(ctx context.Context, n int) ([]rag.IngestRun, error)
	// Close releases any resources held by the store.
	Close() error
}

// SQLiteStore is a RunStore backed by a local SQLite database.
type SQLiteStore struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// DefaultDBPath returns the default path for the run history database.
// It resolves to ~/.ragbridge/history.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".ragbridge")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("store: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "history.db"), nil
}

// Open opens (or creates) a SQLiteStore at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteStore, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS ingest_runs (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    source       TEXT    NOT NULL,
    vector_store TEXT    NOT NULL,
    collection   TEXT    NOT NULL,
    documents    INTEGER NOT NULL,
    vectors      INTEGER NOT NULL,
    outcome      TEXT    NOT NULL CHECK(outcome IN ('ok','empty')),
    created_at   INTEGER NOT NULL  -- Unix timestamp (seconds)
);
CREATE INDEX IF NOT EXISTS idx_ingest_runs_created
    ON ingest_runs (created_at);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Append persists a single completed run.
func (s *SQLiteStore) Append(ctx context.Context, run rag.IngestRun) error {
	const q = `INSERT INTO ingest_runs
(source, vector_store, collection, documents, vectors, outcome, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, q,
		run.Source, run.VectorStore, run.Collection,
		run.Documents, run.Vectors, run.Outcome, createdAt.Unix())
	if err != nil {
		return fmt.Errorf("store: append: %w", err)
	}
	return nil
}

// Recent returns the most recent n runs, newest-first.
func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]rag.IngestRun, error) {
	const q = `
SELECT source, vector_store, collection, documents, vectors, outcome, created_at
FROM   ingest_runs
ORDER  BY created_at DESC, id DESC
LIMIT  ?`

	rows, err := s.db.QueryContext(ctx, q, n)
	if err != nil {
		return nil, fmt.Errorf("store: recent: %w", err)
	}
	defer rows.Close()

	var runs []rag.IngestRun
	for rows.Next() {
		var run rag.IngestRun
		var ts int64
		if err := rows.Scan(&run.Source, &run.VectorStore, &run.Collection,
			&run.Documents, &run.Vectors, &run.Outcome, &ts); err != nil {
			return nil, fmt.Errorf("store: recent scan: %w", err)
		}
		run.CreatedAt = time.Unix(ts, 0)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: recent rows: %w", err)
	}
	return runs, nil
}

// Close releases the database connection pool.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}
