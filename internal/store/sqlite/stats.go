// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/anychat-dev/anychat/internal/store"
)

func (c *ChatStore) Statistics(ctx context.Context) (*store.Stats, error) {
	var stats store.Stats

	if err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_sessions`).Scan(&stats.TotalSessions); err != nil {
		return nil, fmt.Errorf("counting sessions: %w", err)
	}

	if err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_messages`).Scan(&stats.TotalMessages); err != nil {
		return nil, fmt.Errorf("counting messages: %w", err)
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT provider_id, COUNT(*) FROM chat_sessions GROUP BY provider_id ORDER BY provider_id`)
	if err != nil {
		return nil, fmt.Errorf("counting sessions by provider: %w", err)
	}
	defer rows.Close() //nolint:errcheck // error on read-path close is not actionable

	for rows.Next() {
		var row store.ProviderSessionCount
		if err := rows.Scan(&row.ProviderID, &row.Count); err != nil {
			return nil, fmt.Errorf("scanning provider count row: %w", err)
		}
		stats.ByProvider = append(stats.ByProvider, row)
	}
	return &stats, rows.Err()
}

func (c *ChatStore) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := c.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("setting %s: %w", key, store.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("getting setting %s: %w", key, err)
	}
	return value, nil
}

func (c *ChatStore) SetSetting(ctx context.Context, key, value string) error {
	const q = `INSERT INTO settings (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`

	if _, err := c.db.ExecContext(ctx, q, key, value); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

// DumpAll reads every persisted collection in one pass for the backup
// exporter. Sessions come out most recently updated first and messages in
// creation order, matching the on-disk export document layout.
func (c *ChatStore) DumpAll(ctx context.Context) (*store.Dump, error) {
	providers, err := c.ListProviders(ctx)
	if err != nil {
		return nil, err
	}

	sessions, err := c.ListSessions(ctx, "")
	if err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM chat_messages ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("dumping messages: %w", err)
	}
	defer rows.Close() //nolint:errcheck // error on read-path close is not actionable

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}

	return &store.Dump{
		Providers: providers,
		Sessions:  sessions,
		Messages:  messages,
	}, nil
}
