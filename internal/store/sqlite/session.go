// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/anychat-dev/anychat/internal/store"
)

const sessionColumns = `id, provider_id, title, message_count, created_at, updated_at`

func (c *ChatStore) ListSessions(ctx context.Context, providerID string) ([]*store.Session, error) {
	q := `SELECT ` + sessionColumns + ` FROM chat_sessions ORDER BY updated_at DESC`
	args := []any{}
	if providerID != "" {
		q = `SELECT ` + sessionColumns + ` FROM chat_sessions WHERE provider_id = ? ORDER BY updated_at DESC`
		args = append(args, providerID)
	}

	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close() //nolint:errcheck // error on read-path close is not actionable

	var sessions []*store.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (c *ChatStore) GetSession(ctx context.Context, id string) (*store.Session, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM chat_sessions WHERE id = ?`, id)

	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting session %s: %w", id, err)
	}
	return sess, nil
}

// CreateSession inserts an empty session for the provider and returns the
// generated session ID.
func (c *ChatStore) CreateSession(ctx context.Context, providerID, title string) (string, error) {
	if providerID == "" {
		return "", fmt.Errorf("session requires a provider id: %w", store.ErrInvalidInput)
	}

	id := uuid.NewString()
	now := formatTime(time.Now())

	const q = `INSERT INTO chat_sessions (id, provider_id, title, message_count, created_at, updated_at)
VALUES (?, ?, ?, 0, ?, ?)`

	if _, err := c.db.ExecContext(ctx, q, id, providerID, title, now, now); err != nil {
		return "", fmt.Errorf("creating session for provider %s: %w", providerID, err)
	}
	return id, nil
}

func (c *ChatStore) RenameSession(ctx context.Context, id, title string) error {
	result, err := c.db.ExecContext(ctx,
		`UPDATE chat_sessions SET title = ?, updated_at = ? WHERE id = ?`,
		title, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("renaming session %s: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows for session %s: %w", id, err)
	}
	if rows == 0 {
		return fmt.Errorf("session %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// DeleteSession removes the session; its messages go with it via the
// ON DELETE CASCADE foreign key.
func (c *ChatStore) DeleteSession(ctx context.Context, id string) error {
	result, err := c.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows for session %s: %w", id, err)
	}
	if rows == 0 {
		return fmt.Errorf("session %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func scanSession(s scanner) (*store.Session, error) {
	var sess store.Session
	var createdAt, updatedAt string
	if err := s.Scan(&sess.ID, &sess.ProviderID, &sess.Title, &sess.MessageCount, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	sess.CreatedAt = parseTime(createdAt)
	sess.UpdatedAt = parseTime(updatedAt)
	return &sess, nil
}
