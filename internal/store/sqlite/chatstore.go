// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

// Package sqlite implements store.ChatStore on a single SQLite database.
package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/anychat-dev/anychat/internal/store"
)

// Compile-time interface check.
var _ store.ChatStore = (*ChatStore)(nil)

// ChatStore implements store.ChatStore backed by a single SQLite database.
type ChatStore struct {
	db *sql.DB
}

// New opens (or creates) the chat database at dbPath, applies the schema,
// seeds the built-in providers, and runs the additive column migrations.
// Every step is idempotent; New is safe to call on an existing database.
func New(dbPath string) (*ChatStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening chat db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging chat db: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating chat db: %w", err)
	}

	if err := seedProviders(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seeding providers: %w", err)
	}

	if err := ensureMessageSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("upgrading message schema: %w", err)
	}

	return &ChatStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS providers (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	url             TEXT NOT NULL,
	icon            TEXT NOT NULL DEFAULT '',
	enabled         INTEGER NOT NULL DEFAULT 1,
	sort_order      INTEGER NOT NULL DEFAULT 0,
	selector_config TEXT NOT NULL DEFAULT '',
	created_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS chat_sessions (
	id            TEXT PRIMARY KEY,
	provider_id   TEXT NOT NULL REFERENCES providers(id),
	title         TEXT NOT NULL,
	message_count INTEGER NOT NULL DEFAULT 0,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_provider ON chat_sessions(provider_id);
CREATE INDEX IF NOT EXISTS idx_sessions_updated  ON chat_sessions(updated_at DESC);

CREATE TABLE IF NOT EXISTS chat_messages (
	id           TEXT PRIMARY KEY,
	session_id   TEXT NOT NULL REFERENCES chat_sessions(id) ON DELETE CASCADE,
	role         TEXT NOT NULL CHECK (role IN ('user', 'assistant', 'system')),
	content      TEXT NOT NULL,
	content_hash TEXT NOT NULL DEFAULT '',
	source       TEXT NOT NULL DEFAULT 'auto',
	external_id  TEXT,
	meta         TEXT,
	created_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_session ON chat_messages(session_id);
CREATE INDEX IF NOT EXISTS idx_messages_created ON chat_messages(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_messages_hash    ON chat_messages(content_hash);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`
	_, err := db.Exec(ddl)
	return err
}

// seedProviders inserts the built-in providers without touching rows the
// user has edited. INSERT OR IGNORE makes re-running a no-op.
func seedProviders(db *sql.DB) error {
	const q = `INSERT OR IGNORE INTO providers (id, name, url, sort_order, selector_config, created_at)
VALUES (?, ?, ?, ?, ?, ?)`

	now := formatTime(time.Now())
	seeds := []struct {
		id, name, url string
		sortOrder     int
		selectors     string
	}{
		{
			"chatgpt", "ChatGPT", "https://chatgpt.com", 1,
			`{"containerSelector":"main","messageSelector":"[data-message-id]","userSelector":"[data-message-author-role=\"user\"]","assistantSelector":"[data-message-author-role=\"assistant\"]","contentSelector":".markdown"}`,
		},
		{
			"gemini", "Gemini", "https://gemini.google.com/app", 2,
			`{"containerSelector":"main","messageSelector":"message-content","userSelector":".user-message","assistantSelector":".model-response","contentSelector":".message-text"}`,
		},
	}

	for _, s := range seeds {
		if _, err := db.Exec(q, s.id, s.name, s.url, s.sortOrder, s.selectors, now); err != nil {
			return fmt.Errorf("seeding provider %s: %w", s.id, err)
		}
	}
	return nil
}

// ensureMessageSchema adds optional chat_messages columns that predate-this-
// version databases lack. SQLite has no ADD COLUMN IF NOT EXISTS, so each
// column is probed via pragma_table_info first; the ALTERs are independent
// and idempotent, safe to run on every boot. The external_id index is only
// created once that column is confirmed present.
func ensureMessageSchema(db *sql.DB) error {
	migrations := []struct {
		column string
		apply  string
	}{
		{"external_id", `ALTER TABLE chat_messages ADD COLUMN external_id TEXT`},
		{"meta", `ALTER TABLE chat_messages ADD COLUMN meta TEXT`},
	}

	for _, m := range migrations {
		var exists int
		err := db.QueryRow(`SELECT 1 FROM pragma_table_info('chat_messages') WHERE name = ?`, m.column).Scan(&exists)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("probing column %s: %w", m.column, err)
		}
		if _, err := db.Exec(m.apply); err != nil {
			return fmt.Errorf("adding %s column to chat_messages: %w", m.column, err)
		}
		slog.Info("applied migration", "table", "chat_messages", "column", m.column)
	}

	var exists int
	if err := db.QueryRow(`SELECT 1 FROM pragma_table_info('chat_messages') WHERE name = 'external_id'`).Scan(&exists); err != nil {
		return fmt.Errorf("confirming external_id column: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_messages_external ON chat_messages(external_id)`); err != nil {
		return fmt.Errorf("creating external_id index: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (c *ChatStore) Close() error {
	return c.db.Close()
}

// formatTime serialises a time.Time to RFC3339 with nanosecond precision.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime deserialises a time string stored in the database.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
