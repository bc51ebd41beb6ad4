// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/anychat-dev/anychat/internal/store"
)

const providerColumns = `id, name, url, icon, enabled, sort_order, selector_config, created_at`

func (c *ChatStore) ListProviders(ctx context.Context) ([]*store.Provider, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT `+providerColumns+` FROM providers ORDER BY sort_order`)
	if err != nil {
		return nil, fmt.Errorf("listing providers: %w", err)
	}
	defer rows.Close() //nolint:errcheck // error on read-path close is not actionable

	var providers []*store.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning provider row: %w", err)
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}

func (c *ChatStore) GetProvider(ctx context.Context, id string) (*store.Provider, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT `+providerColumns+` FROM providers WHERE id = ?`, id)

	p, err := scanProvider(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("provider %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting provider %s: %w", id, err)
	}
	return p, nil
}

// SaveProvider inserts or updates a provider definition. User edits to
// seeded providers go through here as well, so the write is a full upsert.
func (c *ChatStore) SaveProvider(ctx context.Context, p *store.Provider) error {
	if p.ID == "" || p.Name == "" || p.URL == "" {
		return fmt.Errorf("provider requires id, name, and url: %w", store.ErrInvalidInput)
	}

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	const q = `INSERT INTO providers (id, name, url, icon, enabled, sort_order, selector_config, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	url = excluded.url,
	icon = excluded.icon,
	enabled = excluded.enabled,
	sort_order = excluded.sort_order,
	selector_config = excluded.selector_config`

	_, err := c.db.ExecContext(ctx, q,
		p.ID, p.Name, p.URL, p.Icon, boolToInt(p.Enabled), p.SortOrder,
		p.SelectorConfig, formatTime(createdAt),
	)
	if err != nil {
		return fmt.Errorf("saving provider %s: %w", p.ID, err)
	}
	return nil
}

func (c *ChatStore) SetProviderEnabled(ctx context.Context, id string, enabled bool) error {
	result, err := c.db.ExecContext(ctx,
		`UPDATE providers SET enabled = ? WHERE id = ?`, boolToInt(enabled), id)
	if err != nil {
		return fmt.Errorf("updating provider %s enabled: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows for provider %s: %w", id, err)
	}
	if rows == 0 {
		return fmt.Errorf("provider %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// ReorderProviders rewrites sort_order to match the given ID sequence.
// IDs not mentioned keep their current order after the listed ones.
func (c *ChatStore) ReorderProviders(ctx context.Context, orderedIDs []string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning reorder tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for i, id := range orderedIDs {
		if _, err := tx.ExecContext(ctx,
			`UPDATE providers SET sort_order = ? WHERE id = ?`, i+1, id); err != nil {
			return fmt.Errorf("reordering provider %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanProvider(s scanner) (*store.Provider, error) {
	var p store.Provider
	var enabled int
	var createdAt string
	if err := s.Scan(&p.ID, &p.Name, &p.URL, &p.Icon, &enabled, &p.SortOrder, &p.SelectorConfig, &createdAt); err != nil {
		return nil, err
	}
	p.Enabled = enabled != 0
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
