// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

package store

import "time"

// --- Provider types ---

// Provider is a configured third-party chat service definition.
type Provider struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	URL            string `json:"url"`
	Icon           string `json:"icon,omitempty"`
	Enabled        bool   `json:"enabled"`
	SortOrder      int    `json:"sort_order"`
	// SelectorConfig is the JSON DOM-selector configuration consumed by the
	// in-page capture script. Opaque to the store.
	SelectorConfig string    `json:"selector_config,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// --- Session types ---

// Session is one captured or imported conversation thread with a provider.
type Session struct {
	ID           string    `json:"id"`
	ProviderID   string    `json:"provider_id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// --- Message types ---

// Role identifies the sender of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Source records how a message entered the store.
type Source string

const (
	SourceAuto   Source = "auto"
	SourceImport Source = "manual_import"
)

// Message is one conversation turn. Messages are immutable after creation
// and only removed by cascade when their session is deleted.
type Message struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Role        Role      `json:"role"`
	Content     string    `json:"content"`
	Fingerprint string    `json:"content_hash"`
	Source      Source    `json:"source"`
	ExternalID  string    `json:"external_id,omitempty"`
	Meta        string    `json:"meta,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// --- Statistics ---

// ProviderSessionCount is one row of the per-provider session breakdown.
type ProviderSessionCount struct {
	ProviderID string `json:"provider_id"`
	Count      int    `json:"count"`
}

// Stats aggregates store-wide counters.
type Stats struct {
	TotalSessions int                    `json:"total_sessions"`
	TotalMessages int                    `json:"total_messages"`
	ByProvider    []ProviderSessionCount `json:"by_provider"`
}

// --- Export ---

// Dump is a full point-in-time copy of the persisted collections, used by
// the backup exporter.
type Dump struct {
	Providers []*Provider `json:"providers"`
	Sessions  []*Session  `json:"sessions"`
	Messages  []*Message  `json:"messages"`
}
