// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/anychat-dev/anychat/internal/fingerprint"
	"github.com/anychat-dev/anychat/internal/store"
)

const messageColumns = `id, session_id, role, content, content_hash, source, external_id, meta, created_at`

func (c *ChatStore) ListMessages(ctx context.Context, sessionID string) ([]*store.Message, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM chat_messages WHERE session_id = ? ORDER BY created_at ASC`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing messages for session %s: %w", sessionID, err)
	}
	defer rows.Close() //nolint:errcheck // error on read-path close is not actionable

	return scanMessages(rows)
}

// InsertMessage inserts a message with fingerprint-based dedup. If a
// message with the same content fingerprint already exists in the session,
// the existing ID is returned and nothing is written. A successful insert
// and the session counter bump commit in one transaction.
func (c *ChatStore) InsertMessage(ctx context.Context, msg *store.Message) (string, error) {
	if msg.SessionID == "" {
		return "", fmt.Errorf("message requires a session id: %w", store.ErrInvalidInput)
	}
	if !msg.Role.Valid() {
		return "", fmt.Errorf("message role %q: %w", msg.Role, store.ErrInvalidInput)
	}

	hash := msg.Fingerprint
	if hash == "" {
		hash = fingerprint.Sum(msg.Content)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning tx for session %s: %w", msg.SessionID, err)
	}
	defer tx.Rollback() //nolint:errcheck

	var existingID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM chat_messages WHERE session_id = ? AND content_hash = ?`,
		msg.SessionID, hash,
	).Scan(&existingID)
	if err == nil {
		return existingID, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("checking fingerprint in session %s: %w", msg.SessionID, err)
	}

	id := msg.ID
	if id == "" {
		id = uuid.NewString()
	}
	source := msg.Source
	if source == "" {
		source = store.SourceAuto
	}
	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	const insert = `INSERT INTO chat_messages (id, session_id, role, content, content_hash, source, external_id, meta, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = tx.ExecContext(ctx, insert,
		id, msg.SessionID, string(msg.Role), msg.Content, hash, string(source),
		nullable(msg.ExternalID), nullable(msg.Meta), formatTime(createdAt),
	)
	if err != nil {
		return "", fmt.Errorf("inserting message into session %s: %w", msg.SessionID, err)
	}

	const bump = `UPDATE chat_sessions SET message_count = message_count + 1, updated_at = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, bump, formatTime(time.Now()), msg.SessionID); err != nil {
		return "", fmt.Errorf("bumping counters for session %s: %w", msg.SessionID, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing message insert for session %s: %w", msg.SessionID, err)
	}
	return id, nil
}

// SearchMessages does a substring match over message content, newest first.
// Results are capped at 100 rows.
func (c *ChatStore) SearchMessages(ctx context.Context, query string) ([]*store.Message, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM chat_messages WHERE content LIKE ? ORDER BY created_at DESC LIMIT 100`,
		"%"+query+"%")
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}
	defer rows.Close() //nolint:errcheck // error on read-path close is not actionable

	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]*store.Message, error) {
	var msgs []*store.Message
	for rows.Next() {
		var msg store.Message
		var externalID, meta sql.NullString
		var createdAt string
		if err := rows.Scan(
			&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &msg.Fingerprint,
			&msg.Source, &externalID, &meta, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		msg.ExternalID = externalID.String
		msg.Meta = meta.String
		msg.CreatedAt = parseTime(createdAt)
		msgs = append(msgs, &msg)
	}
	return msgs, rows.Err()
}

// nullable maps an empty string to NULL so optional columns stay NULL
// instead of collecting empty strings.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
