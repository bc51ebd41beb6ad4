// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/anychat-dev/anychat/internal/store"
	anyerr "github.com/anychat-dev/anychat/pkg/errors"
)

// Result summarizes the application of one capture batch.
type Result struct {
	SessionID   string   `json:"session_id"`
	Inserted    int      `json:"inserted"`
	Quarantined int      `json:"quarantined"`
	Errors      []string `json:"errors,omitempty"`
}

// Pipeline applies capture events to the chat store. Per-provider session
// resolution is cached so repeated batches from the same surface land in the
// same session without a store round-trip. Apply runs on the drain
// goroutine, but Forget is called from HTTP handler goroutines when a
// session is deleted, so the cache is guarded by a mutex.
type Pipeline struct {
	store  store.ChatStore
	logger *slog.Logger
	events chan Event
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]string // provider id -> active session id
}

// NewPipeline builds a pipeline over cs with a buffered intake of the given
// size (minimum 1).
func NewPipeline(cs store.ChatStore, buffer int, logger *slog.Logger) *Pipeline {
	if buffer < 1 {
		buffer = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:    cs,
		logger:   logger,
		events:   make(chan Event, buffer),
		sessions: make(map[string]string),
		now:      time.Now,
	}
}

// Enqueue hands a batch to the drain loop without blocking. It reports false
// when the intake buffer is full; callers decide whether to drop or retry.
func (p *Pipeline) Enqueue(ev Event) bool {
	select {
	case p.events <- ev:
		return true
	default:
		return false
	}
}

// Run drains the intake until ctx is cancelled. Batch failures are logged
// and never stop the loop.
func (p *Pipeline) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-p.events:
			if _, err := p.Apply(ctx, ev); err != nil {
				p.logger.Error("capture batch failed",
					"provider_id", ev.ProviderID,
					"messages", len(ev.Messages),
					"error", err)
			}
		}
	}
}

// Apply resolves the provider's active session and inserts the batch in
// order. Messages with unknown roles are quarantined, duplicate content is
// absorbed by the store, and a partial failure surfaces as a batch-level
// error alongside the counts that did land.
func (p *Pipeline) Apply(ctx context.Context, ev Event) (*Result, error) {
	if ev.ProviderID == "" {
		return nil, anyerr.New(anyerr.CodeCaptureSessionFailure, "capture event has no provider id")
	}

	sessionID, err := p.resolveSession(ctx, ev.ProviderID)
	if err != nil {
		return nil, err
	}

	res := &Result{SessionID: sessionID}
	for i, raw := range ev.Messages {
		role, err := CoerceRole(raw.Role)
		if err != nil {
			res.Quarantined++
			p.logger.Warn("quarantined capture message",
				"provider_id", ev.ProviderID, "index", i, "role", raw.Role)
			continue
		}
		msg := &store.Message{
			SessionID: sessionID,
			Role:      role,
			Content:   raw.Content,
			Source:    store.SourceAuto,
			CreatedAt: messageTime(raw.Timestamp),
		}
		if _, err := p.store.InsertMessage(ctx, msg); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("message %d: %v", i, err))
			continue
		}
		res.Inserted++
	}

	if len(res.Errors) > 0 {
		return res, anyerr.New(anyerr.CodeCaptureBatchPartial,
			"capture batch applied partially",
			anyerr.FieldProviderID(ev.ProviderID),
			anyerr.Field("failed", len(res.Errors)))
	}
	return res, nil
}

// resolveSession returns the cached session for the provider, creating a
// fresh one titled with the provider and the current date on a miss.
func (p *Pipeline) resolveSession(ctx context.Context, providerID string) (string, error) {
	p.mu.Lock()
	id, ok := p.sessions[providerID]
	p.mu.Unlock()
	if ok {
		return id, nil
	}

	title := fmt.Sprintf("%s %s", providerID, p.now().Format("2006-01-02"))
	id, err := p.store.CreateSession(ctx, providerID, title)
	if err != nil {
		return "", anyerr.Wrap(err, anyerr.CodeCaptureSessionFailure, "create capture session",
			anyerr.FieldProviderID(providerID))
	}
	p.mu.Lock()
	p.sessions[providerID] = id
	p.mu.Unlock()
	p.logger.Info("created capture session", "provider_id", providerID, "session_id", id)
	return id, nil
}

// Forget drops the cached session for a provider, forcing the next batch to
// resolve again. Used when a session is deleted out from under the cache.
func (p *Pipeline) Forget(providerID string) {
	p.mu.Lock()
	delete(p.sessions, providerID)
	p.mu.Unlock()
}
