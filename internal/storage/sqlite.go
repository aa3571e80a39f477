package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &SQLiteStorage{
		db:   db,
		path: dbPath,
	}, nil
}

// Initialize creates the database schema.
func (s *SQLiteStorage) Initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS knowledge_packs (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		fragments_json TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS agents (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		provider TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		pack_ids_json TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS matches (
		id TEXT PRIMARY KEY,
		topic TEXT NOT NULL,
		agent_a_id TEXT NOT NULL,
		agent_b_id TEXT NOT NULL,
		transcript_json TEXT NOT NULL,
		verdicts_json TEXT NOT NULL,
		score_a REAL NOT NULL,
		score_b REAL NOT NULL,
		winner_agent_id TEXT NOT NULL DEFAULT '',
		conclusion_text TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS arenas (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		topic TEXT NOT NULL,
		creator_id TEXT NOT NULL,
		joiner_id TEXT NOT NULL DEFAULT '',
		game_type TEXT NOT NULL,
		status TEXT NOT NULL,
		creator_ready INTEGER NOT NULL DEFAULT 0,
		joiner_ready INTEGER NOT NULL DEFAULT 0,
		creator_side TEXT NOT NULL DEFAULT '',
		joiner_side TEXT NOT NULL DEFAULT '',
		pros_agent_id TEXT NOT NULL DEFAULT '',
		cons_agent_id TEXT NOT NULL DEFAULT '',
		writing_minutes INTEGER NOT NULL DEFAULT 0,
		creator_authoring_json TEXT NOT NULL,
		joiner_authoring_json TEXT NOT NULL,
		match_id TEXT NOT NULL DEFAULT '',
		cancel_reason TEXT NOT NULL DEFAULT '',
		last_error TEXT NOT NULL DEFAULT '',
		version INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ratings (
		owner_id TEXT PRIMARY KEY,
		rating REAL NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_arenas_status ON arenas(status);
	CREATE INDEX IF NOT EXISTS idx_arenas_creator ON arenas(creator_id);
	CREATE INDEX IF NOT EXISTS idx_arenas_joiner ON arenas(joiner_id);
	CREATE INDEX IF NOT EXISTS idx_agents_owner ON agents(owner_id);
	CREATE INDEX IF NOT EXISTS idx_packs_owner ON knowledge_packs(owner_id);
	CREATE INDEX IF NOT EXISTS idx_matches_created_at ON matches(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_ratings_rating ON ratings(rating DESC);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// DefaultDBPath returns the default database path.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "debatearena.db"
	}
	return filepath.Join(home, ".debatearena", "debatearena.db")
}

func marshalColumn(v any, what string) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s: %w", what, err)
	}
	return string(data), nil
}

func unmarshalColumn(data string, v any, what string) error {
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", what, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}
