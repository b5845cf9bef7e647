package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonlwowski012/agentfactory/internal/config"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(cfg config.StoreConfig) (*Store, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Enable WAL mode for concurrent read/write access and set a busy
	// timeout so writers retry instead of immediately returning SQLITE_BUSY.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("exec %s: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS agents (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT,
			model       TEXT,
			file_path   TEXT,
			boundaries  TEXT,
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS workflow_runs (
			id            TEXT PRIMARY KEY,
			phases        TEXT NOT NULL,
			current_index INTEGER NOT NULL DEFAULT 0,
			status        TEXT NOT NULL DEFAULT 'running',
			created_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS workflow_phases (
			run_id       TEXT NOT NULL REFERENCES workflow_runs(id),
			idx          INTEGER NOT NULL,
			name         TEXT NOT NULL,
			status       TEXT NOT NULL,
			active_agent TEXT,
			updated_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (run_id, idx)
		)`,
		`CREATE TABLE IF NOT EXISTS handoffs (
			id            TEXT PRIMARY KEY,
			run_id        TEXT,
			source_agent  TEXT NOT NULL,
			target_agent  TEXT NOT NULL,
			label         TEXT,
			prompt        TEXT,
			status        TEXT NOT NULL DEFAULT 'pending',
			created_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
			dispatched_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_handoffs_run ON handoffs(run_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS model_credentials (
			model      TEXT PRIMARY KEY,
			sealed     BLOB NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}

	return nil
}
