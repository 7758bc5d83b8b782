package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/oklog/ulid/v2"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateFeedback = errors.New("feedback already recorded")
	ErrLineReferenced    = errors.New("line is referenced by a template")
	ErrProtectedTemplate = errors.New("template is protected")
	ErrIntegrity         = errors.New("data integrity violation")
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	if !strings.Contains(dataSourceName, "?") {
		dataSourceName += "?_foreign_keys=on&_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is still reachable.
func (s *SQLiteStore) Ping() error {
	return s.db.Ping()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS lines (
        id TEXT PRIMARY KEY, -- ULID
        goal TEXT NOT NULL CHECK (goal IN ('sleep', 'calm', 'focus', 'abundance')),
        text TEXT NOT NULL,
        tags TEXT NOT NULL DEFAULT '[]', -- JSON array of theme tags
        emotion TEXT NOT NULL DEFAULT '',
        use_count INTEGER NOT NULL DEFAULT 0,
        avg_rating REAL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        UNIQUE (goal, text)
    );

    CREATE TABLE IF NOT EXISTS templates (
        id TEXT PRIMARY KEY, -- ULID
        title TEXT NOT NULL,
        goal TEXT NOT NULL CHECK (goal IN ('sleep', 'calm', 'focus', 'abundance')),
        intent TEXT NOT NULL,
        keywords TEXT NOT NULL DEFAULT '[]', -- JSON array derived from the intent
        use_count INTEGER NOT NULL DEFAULT 0,
        avg_rating REAL,
        is_protected BOOLEAN NOT NULL DEFAULT FALSE,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        UNIQUE (goal, title)
    );

    CREATE TABLE IF NOT EXISTS template_lines (
        template_id TEXT NOT NULL,
        line_id TEXT NOT NULL,
        position INTEGER NOT NULL,
        PRIMARY KEY (template_id, position),
        FOREIGN KEY (template_id) REFERENCES templates (id),
        FOREIGN KEY (line_id) REFERENCES lines (id)
    );

    CREATE TABLE IF NOT EXISTS resolution_records (
        id TEXT PRIMARY KEY, -- UUID
        tier TEXT NOT NULL CHECK (tier IN ('exact', 'pooled', 'generated', 'fallback')),
        cost REAL NOT NULL DEFAULT 0,
        confidence REAL NOT NULL DEFAULT 0,
        goal TEXT NOT NULL,
        intent TEXT NOT NULL,
        template_id TEXT,
        line_ids TEXT NOT NULL DEFAULT '[]', -- JSON array
        rating INTEGER CHECK (rating BETWEEN 1 AND 5),
        replayed BOOLEAN,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        feedback_at DATETIME
    );

    CREATE TABLE IF NOT EXISTS audio_cache (
        key TEXT PRIMARY KEY, -- content hash over (text, voice, pace)
        location TEXT NOT NULL,
        bytes INTEGER NOT NULL DEFAULT 0,
        voice TEXT NOT NULL,
        pace TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        last_access DATETIME DEFAULT CURRENT_TIMESTAMP,
        access_count INTEGER NOT NULL DEFAULT 0
    );

    CREATE INDEX IF NOT EXISTS idx_lines_goal ON lines (goal);
    CREATE INDEX IF NOT EXISTS idx_templates_goal ON templates (goal);
    CREATE INDEX IF NOT EXISTS idx_template_lines_line ON template_lines (line_id);
    CREATE INDEX IF NOT EXISTS idx_records_created ON resolution_records (created_at);
    CREATE INDEX IF NOT EXISTS idx_audio_cache_access ON audio_cache (last_access);
    `
	_, err := s.db.Exec(schema)
	return err
}

func newID() string {
	return ulid.Make().String()
}

func encodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to marshal string list: %w", err)
	}
	return string(b), nil
}

func decodeStrings(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("failed to unmarshal string list: %w", err)
	}
	return values, nil
}

// placeholders builds "?, ?, ?" for IN clauses.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
