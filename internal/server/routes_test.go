// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anychat-dev/anychat/internal/backup"
	"github.com/anychat-dev/anychat/internal/capture"
	"github.com/anychat-dev/anychat/internal/server"
	"github.com/anychat-dev/anychat/internal/store"
	_ "github.com/anychat-dev/anychat/internal/store/sqlite"
	anyerr "github.com/anychat-dev/anychat/pkg/errors"
)

// fakeDock records dock calls without a windowing system.
type fakeDock struct {
	mu        sync.Mutex
	active    string
	hidden    bool
	refreshed []string
}

func (d *fakeDock) ShowOnly(_ context.Context, activeID string, _ []*store.Provider) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active = activeID
	d.hidden = false
	return nil
}

func (d *fakeDock) DestroyDisabled(_ context.Context, _ []*store.Provider) {}

func (d *fakeDock) HideAll(_ context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hidden = true
}

func (d *fakeDock) Refresh(_ context.Context, providerID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if providerID == "missing" {
		return anyerr.New(anyerr.CodeDockWindowNotFound, "no docked window for provider")
	}
	d.refreshed = append(d.refreshed, providerID)
	return nil
}

type harness struct {
	srv      *server.Server
	store    store.ChatStore
	pipeline *capture.Pipeline
	dock     *fakeDock
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cs, err := store.New(&store.StorageConfig{Backend: "sqlite"}, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })

	pipeline := capture.NewPipeline(cs, 8, nil)
	backups := backup.NewManager(cs, t.TempDir(), nil)
	d := &fakeDock{}

	srv, err := server.New(server.Config{ListenAddr: "127.0.0.1:0"})
	require.NoError(t, err)
	srv.RegisterRoutes(&server.Deps{
		Store:    cs,
		Pipeline: pipeline,
		Backups:  backups,
		Dock:     d,
	})

	return &harness{srv: srv, store: cs, pipeline: pipeline, dock: d}
}

func (h *harness) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)
}

func TestCaptureEnqueuesAndPersists(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = h.pipeline.Run(ctx) }()

	w := h.do(t, http.MethodPost, "/capture",
		`{"serviceId": "chatgpt", "messages": [{"role": "user", "content": "hi", "index": 0}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"queued"`)

	require.Eventually(t, func() bool {
		sessions, err := h.store.ListSessions(ctx, "chatgpt")
		return err == nil && len(sessions) == 1 && sessions[0].MessageCount == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCaptureRejectsMissingServiceID(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodPost, "/capture", `{"serviceId": "", "messages": []}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSessionsEndpoints(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	sessID, err := h.store.CreateSession(ctx, "chatgpt", "rest test")
	require.NoError(t, err)
	_, err = h.store.InsertMessage(ctx, &store.Message{
		SessionID: sessID, Role: store.RoleUser, Content: "hello rest",
	})
	require.NoError(t, err)

	w := h.do(t, http.MethodGet, "/sessions?provider_id=chatgpt", "")
	require.Equal(t, http.StatusOK, w.Code)
	var sessBody struct {
		Sessions []*store.Session `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sessBody))
	require.Len(t, sessBody.Sessions, 1)
	assert.Equal(t, "rest test", sessBody.Sessions[0].Title)

	w = h.do(t, http.MethodGet, "/sessions/"+sessID+"/messages", "")
	require.Equal(t, http.StatusOK, w.Code)
	var msgBody struct {
		Messages []*store.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msgBody))
	require.Len(t, msgBody.Messages, 1)
	assert.Equal(t, "hello rest", msgBody.Messages[0].Content)

	w = h.do(t, http.MethodGet, "/sessions/nope/messages", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(t, http.MethodDelete, "/sessions/"+sessID, "")
	require.Equal(t, http.StatusOK, w.Code)
	w = h.do(t, http.MethodDelete, "/sessions/"+sessID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchAndStats(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	sessID, err := h.store.CreateSession(ctx, "gemini", "searchable")
	require.NoError(t, err)
	_, err = h.store.InsertMessage(ctx, &store.Message{
		SessionID: sessID, Role: store.RoleAssistant, Content: "the needle is here",
	})
	require.NoError(t, err)

	w := h.do(t, http.MethodGet, "/search?q=needle", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "needle")

	w = h.do(t, http.MethodGet, "/search?q=", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = h.do(t, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats store.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalSessions)
	assert.Equal(t, 1, stats.TotalMessages)
}

func TestBackupEndpoints(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/backups", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "backup-")

	w = h.do(t, http.MethodGet, "/backups", "")
	require.Equal(t, http.StatusOK, w.Code)
	var listBody struct {
		Snapshots []backup.Snapshot `json:"snapshots"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listBody))
	assert.Len(t, listBody.Snapshots, 1)
}

func TestDockEndpoints(t *testing.T) {
	h := newHarness(t)

	// chatgpt is seeded and enabled.
	w := h.do(t, http.MethodPost, "/dock/active", `{"provider_id": "chatgpt"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "chatgpt", h.dock.active)

	w = h.do(t, http.MethodPost, "/dock/active", `{"provider_id": "unknown"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(t, http.MethodPost, "/dock/hide", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, h.dock.hidden)

	w = h.do(t, http.MethodPost, "/dock/chatgpt/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"chatgpt"}, h.dock.refreshed)

	w = h.do(t, http.MethodPost, "/dock/missing/refresh", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDockUnavailableWithoutOrchestrator(t *testing.T) {
	cs, err := store.New(&store.StorageConfig{Backend: "sqlite"}, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })

	srv, err := server.New(server.Config{ListenAddr: "127.0.0.1:0"})
	require.NoError(t, err)
	srv.RegisterRoutes(&server.Deps{
		Store:    cs,
		Pipeline: capture.NewPipeline(cs, 1, nil),
		Backups:  backup.NewManager(cs, t.TempDir(), nil),
	})

	req := httptest.NewRequest(http.MethodPost, "/dock/hide", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
