// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

package capture

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anychat-dev/anychat/internal/store"
	_ "github.com/anychat-dev/anychat/internal/store/sqlite"
	anyerr "github.com/anychat-dev/anychat/pkg/errors"
)

func testPipeline(t *testing.T) (*Pipeline, store.ChatStore) {
	t.Helper()
	cs, err := store.New(&store.StorageConfig{Backend: "sqlite"}, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return NewPipeline(cs, 8, slog.Default()), cs
}

func TestCoerceRole(t *testing.T) {
	role, err := CoerceRole("  Assistant ")
	require.NoError(t, err)
	assert.Equal(t, store.RoleAssistant, role)

	_, err = CoerceRole("robot")
	require.Error(t, err)
	assert.Equal(t, anyerr.CodeCaptureRoleInvalid, anyerr.CodeOf(err))
}

func TestApplyCreatesSessionAndInserts(t *testing.T) {
	p, cs := testPipeline(t)
	ctx := context.Background()

	res, err := p.Apply(ctx, Event{
		ProviderID: "chatgpt",
		Messages: []RawMessage{
			{Role: "user", Content: "hello", Timestamp: time.Now().UnixMilli()},
			{Role: "assistant", Content: "hi there"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	assert.Zero(t, res.Quarantined)

	sess, err := cs.GetSession(ctx, res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "chatgpt", sess.ProviderID)
	assert.Equal(t, 2, sess.MessageCount)
	assert.Contains(t, sess.Title, "chatgpt")
}

func TestApplyTwiceIsIdempotent(t *testing.T) {
	p, cs := testPipeline(t)
	ctx := context.Background()

	ev := Event{
		ProviderID: "gemini",
		Messages: []RawMessage{
			{Role: "user", Content: "what is the capital of peru"},
			{Role: "assistant", Content: "Lima."},
		},
	}

	first, err := p.Apply(ctx, ev)
	require.NoError(t, err)
	second, err := p.Apply(ctx, ev)
	require.NoError(t, err)

	assert.Equal(t, first.SessionID, second.SessionID)

	sessions, err := cs.ListSessions(ctx, "gemini")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 2, sessions[0].MessageCount)

	msgs, err := cs.ListMessages(ctx, first.SessionID)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestForgetIsSafeDuringApply(t *testing.T) {
	p, _ := testPipeline(t)
	ctx := context.Background()

	ev := Event{
		ProviderID: "chatgpt",
		Messages:   []RawMessage{{Role: "user", Content: "ping"}},
	}

	// Apply runs on the drain goroutine while Forget arrives from HTTP
	// handlers; the race detector flags any unguarded cache access.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_, err := p.Apply(ctx, ev)
			assert.NoError(t, err)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			p.Forget("chatgpt")
		}
	}()
	wg.Wait()
}

func TestApplyQuarantinesUnknownRoles(t *testing.T) {
	p, cs := testPipeline(t)
	ctx := context.Background()

	res, err := p.Apply(ctx, Event{
		ProviderID: "chatgpt",
		Messages: []RawMessage{
			{Role: "user", Content: "kept"},
			{Role: "moderator", Content: "dropped"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Quarantined)

	msgs, err := cs.ListMessages(ctx, res.SessionID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "kept", msgs[0].Content)
}

func TestApplyPartialFailure(t *testing.T) {
	p, cs := testPipeline(t)
	ctx := context.Background()

	res, err := p.Apply(ctx, Event{ProviderID: "chatgpt", Messages: []RawMessage{
		{Role: "user", Content: "before close"},
	}})
	require.NoError(t, err)

	// Deleting the session under the cache makes the next insert fail.
	require.NoError(t, cs.DeleteSession(ctx, res.SessionID))

	res, err = p.Apply(ctx, Event{ProviderID: "chatgpt", Messages: []RawMessage{
		{Role: "user", Content: "after delete"},
	}})
	require.Error(t, err)
	assert.Equal(t, anyerr.CodeCaptureBatchPartial, anyerr.CodeOf(err))
	require.NotNil(t, res)
	assert.Zero(t, res.Inserted)
	assert.Len(t, res.Errors, 1)

	// Forget clears the stale entry so the provider recovers.
	p.Forget("chatgpt")
	res, err = p.Apply(ctx, Event{ProviderID: "chatgpt", Messages: []RawMessage{
		{Role: "user", Content: "after forget"},
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
}

func TestApplyRejectsEmptyProvider(t *testing.T) {
	p, _ := testPipeline(t)
	_, err := p.Apply(context.Background(), Event{})
	require.Error(t, err)
	assert.Equal(t, anyerr.CodeCaptureSessionFailure, anyerr.CodeOf(err))
}

func TestRunDrainsEnqueuedEvents(t *testing.T) {
	p, cs := testPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.True(t, p.Enqueue(Event{ProviderID: "chatgpt", Messages: []RawMessage{
		{Role: "user", Content: "queued"},
	}}))

	require.Eventually(t, func() bool {
		sessions, err := cs.ListSessions(ctx, "chatgpt")
		return err == nil && len(sessions) == 1 && sessions[0].MessageCount == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
