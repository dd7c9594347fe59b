// Package index maintains the inverted index and the derived session
// catalog over the archive. Everything here is a disposable cache: a
// rebuild from archive contents always reproduces the same index.
package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite database holding postings, the session catalog,
// and the cross-session pattern cache
type Store struct {
	conn *sql.DB
}

// Open creates the index database, initializing the schema if needed
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	// WAL lets a rebuild run concurrently with readers
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	conn.SetMaxOpenConns(1) // SQLite supports one writer
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	s := &Store{conn: conn}
	if err := s.initSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize index schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.conn.Close()
}
