// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anychat-dev/anychat/internal/store"
)

func TestStatistics(t *testing.T) {
	ctx := context.Background()
	cs := testStore(t)

	s1 := newSession(t, cs, "chatgpt", "a")
	s2 := newSession(t, cs, "chatgpt", "b")
	s3 := newSession(t, cs, "gemini", "c")
	insertMsg(t, cs, s1, store.RoleUser, "1")
	insertMsg(t, cs, s2, store.RoleUser, "2")
	insertMsg(t, cs, s3, store.RoleUser, "3")
	insertMsg(t, cs, s3, store.RoleAssistant, "4")

	stats, err := cs.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalSessions)
	assert.Equal(t, 4, stats.TotalMessages)
	require.Len(t, stats.ByProvider, 2)
	assert.Equal(t, store.ProviderSessionCount{ProviderID: "chatgpt", Count: 2}, stats.ByProvider[0])
	assert.Equal(t, store.ProviderSessionCount{ProviderID: "gemini", Count: 1}, stats.ByProvider[1])
}

func TestSettingsRoundTrip(t *testing.T) {
	ctx := context.Background()
	cs := testStore(t)

	_, err := cs.GetSetting(ctx, "theme")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, cs.SetSetting(ctx, "theme", "dark"))
	got, err := cs.GetSetting(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", got)

	// Overwrite.
	require.NoError(t, cs.SetSetting(ctx, "theme", "light"))
	got, err = cs.GetSetting(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "light", got)
}

func TestDumpAll(t *testing.T) {
	ctx := context.Background()
	cs := testStore(t)

	sessID := newSession(t, cs, "chatgpt", "dumped")
	insertMsg(t, cs, sessID, store.RoleUser, "hello")
	insertMsg(t, cs, sessID, store.RoleAssistant, "hi there")

	dump, err := cs.DumpAll(ctx)
	require.NoError(t, err)
	assert.Len(t, dump.Providers, 2)
	require.Len(t, dump.Sessions, 1)
	assert.Equal(t, sessID, dump.Sessions[0].ID)
	require.Len(t, dump.Messages, 2)
	assert.Equal(t, "hello", dump.Messages[0].Content)
}
