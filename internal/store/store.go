// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

// Package store defines the persistent chat store: providers, sessions,
// messages, and settings, plus the backend registry used to construct it.
package store

import "context"

// ChatStore is the durable store behind the capture pipeline, the importers,
// and the backup exporter.
type ChatStore interface {
	// Providers, ordered by sort order.
	ListProviders(ctx context.Context) ([]*Provider, error)
	GetProvider(ctx context.Context, id string) (*Provider, error)
	SaveProvider(ctx context.Context, p *Provider) error
	SetProviderEnabled(ctx context.Context, id string, enabled bool) error
	ReorderProviders(ctx context.Context, orderedIDs []string) error

	// Sessions. ListSessions with an empty providerID lists all sessions,
	// most recently updated first.
	ListSessions(ctx context.Context, providerID string) ([]*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	CreateSession(ctx context.Context, providerID, title string) (string, error)
	RenameSession(ctx context.Context, id, title string) error
	// DeleteSession cascades to the session's messages.
	DeleteSession(ctx context.Context, id string) error

	// Messages of a session, creation time ascending.
	ListMessages(ctx context.Context, sessionID string) ([]*Message, error)
	// InsertMessage deduplicates by content fingerprint within the session:
	// when a message with the same fingerprint already exists it returns the
	// existing message ID without inserting. A successful insert atomically
	// increments the session's message count and bumps its updated timestamp.
	InsertMessage(ctx context.Context, msg *Message) (string, error)

	// SearchMessages does a substring match over message content, newest
	// first, capped at 100 results.
	SearchMessages(ctx context.Context, query string) ([]*Message, error)

	Statistics(ctx context.Context) (*Stats, error)

	// Settings is a small key/value side table for UI state.
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// DumpAll reads every persisted collection for the backup exporter.
	DumpAll(ctx context.Context) (*Dump, error)

	Close() error
}
