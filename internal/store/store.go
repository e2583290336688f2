// Package store persists the blacklist phrase set in sqlite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store holds operator-maintained blacklist phrases. Phrases are only ever
// added; there is no remove operation.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the sqlite database at path and applies
// the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("path is required")
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := migrate(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// AddPhrase records a blacklist phrase. Adding an existing phrase is a no-op.
func (s *Store) AddPhrase(ctx context.Context, phrase string) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return errors.New("phrase is required")
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO blacklist(phrase, added_at) VALUES(?, ?)",
		phrase, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert phrase: %w", err)
	}
	return nil
}

// Phrases returns all blacklist phrases, lowercased, in insertion order.
func (s *Store) Phrases(ctx context.Context) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.db.QueryContext(ctx, "SELECT phrase FROM blacklist ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query phrases: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var phrases []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan phrase: %w", err)
		}
		phrases = append(phrases, strings.ToLower(p))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate phrases: %w", err)
	}

	return phrases, nil
}
