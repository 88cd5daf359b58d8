// Package store persists the site's operator data in SQLite: privacy-hashed
// visitor records, contact messages and hero stream sessions.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("store: not found")

// Retention is how long visitor records are kept.
const Retention = 365 * 24 * time.Hour

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and applies
// the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; keep the pool from fighting over it.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if err := s.closeOrphanedHeroSessions(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// closeOrphanedHeroSessions ends sessions left open by a previous process.
// No stream survives a restart, so none of them can still be live.
func (s *Store) closeOrphanedHeroSessions() error {
	_, err := s.db.Exec(`UPDATE hero_sessions SET ended_at = started_at WHERE ended_at IS NULL`)
	if err != nil {
		return fmt.Errorf("close orphaned hero sessions: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS visitors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			hashed_ip TEXT NOT NULL,
			user_agent TEXT,
			path TEXT,
			timestamp DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_visitors_timestamp ON visitors(timestamp)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			body TEXT NOT NULL,
			hashed_ip TEXT,
			delivered BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS hero_sessions (
			id TEXT PRIMARY KEY,
			transport TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			ticks INTEGER NOT NULL DEFAULT 0
		)`,
	}
	for _, q := range schemas {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}
