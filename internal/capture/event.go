// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

// Package capture bridges scraped chat batches from the webview surfaces to
// the chat store, with role validation at the boundary and content-hash
// idempotency on every insert.
package capture

import (
	"strings"
	"time"

	"github.com/anychat-dev/anychat/internal/store"
	anyerr "github.com/anychat-dev/anychat/pkg/errors"
)

// RawMessage is one scraped conversation turn as the in-page capture script
// delivers it. Role is untrusted text until coerced.
type RawMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Index     int    `json:"index"`
	Timestamp int64  `json:"timestamp"` // milliseconds since epoch
}

// Event is one capture batch from a single provider's webview.
type Event struct {
	ProviderID string       `json:"serviceId"`
	URL        string       `json:"url,omitempty"`
	Messages   []RawMessage `json:"messages"`
}

// CoerceRole maps untrusted role text onto the closed role set. Unknown
// values are rejected rather than stored.
func CoerceRole(raw string) (store.Role, error) {
	role := store.Role(strings.ToLower(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", anyerr.Errorf(anyerr.CodeCaptureRoleInvalid, "unknown capture role %q", raw)
	}
	return role, nil
}

// messageTime converts the script's millisecond timestamp, falling back to
// now for batches that carry none.
func messageTime(ms int64) time.Time {
	if ms <= 0 {
		return time.Now()
	}
	return time.UnixMilli(ms)
}
