// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anychat-dev/anychat/internal/store"
	"github.com/anychat-dev/anychat/internal/store/sqlite"
)

// testStore opens a fresh chat store in a temp directory.
func testStore(t *testing.T) *sqlite.ChatStore {
	t.Helper()
	cs, err := sqlite.New(filepath.Join(t.TempDir(), "chatbox.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

// newSession creates a session on one of the seeded providers.
func newSession(t *testing.T, cs *sqlite.ChatStore, providerID, title string) string {
	t.Helper()
	id, err := cs.CreateSession(context.Background(), providerID, title)
	require.NoError(t, err)
	return id
}

// insertMsg inserts a message and returns its stored ID.
func insertMsg(t *testing.T, cs *sqlite.ChatStore, sessionID string, role store.Role, content string) string {
	t.Helper()
	id, err := cs.InsertMessage(context.Background(), &store.Message{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
	})
	require.NoError(t, err)
	return id
}
