// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

package dock

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"github.com/anychat-dev/anychat/internal/store"
	anyerr "github.com/anychat-dev/anychat/pkg/errors"
)

// Orchestrator owns the provider-to-window map. It is the only component
// allowed to hold window handles; everything else addresses windows by
// provider id.
type Orchestrator struct {
	host   Host
	logger *slog.Logger

	mu      sync.Mutex
	windows map[string]Window
}

// NewOrchestrator builds an orchestrator over the given host.
func NewOrchestrator(host Host, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		host:    host,
		logger:  logger,
		windows: make(map[string]Window),
	}
}

// Tracked returns the provider ids with a live window.
func (o *Orchestrator) Tracked() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	ids := make([]string, 0, len(o.windows))
	for id := range o.windows {
		ids = append(ids, id)
	}
	return ids
}

// Ensure guarantees a live window for the provider: reuse the tracked
// handle, adopt a leftover registered under the canonical label, or create
// a fresh hidden surface at the provider's URL. Creation failures
// propagate; no broken handle is ever registered.
func (o *Orchestrator) Ensure(ctx context.Context, p *store.Provider) (Window, error) {
	o.mu.Lock()
	if w, ok := o.windows[p.ID]; ok {
		o.mu.Unlock()
		return w, nil
	}
	o.mu.Unlock()

	label := WindowLabel(p.ID)
	if w, ok := o.host.FindWindow(label); ok {
		o.logger.Info("adopted leftover window", "provider_id", p.ID, "label", label)
		return o.register(p.ID, w), nil
	}

	w, err := o.host.CreateWindow(ctx, WindowOptions{
		Label:       label,
		URL:         p.URL,
		Decorated:   false,
		Resizable:   false,
		Visible:     false,
		SkipTaskbar: true,
	})
	if err != nil {
		return nil, anyerr.Wrap(err, anyerr.CodeDockCreateFailure, "create docked window",
			anyerr.FieldProviderID(p.ID),
			anyerr.FieldWindowLabel(label))
	}
	o.logger.Info("created docked window", "provider_id", p.ID, "label", label)
	return o.register(p.ID, w), nil
}

// register tracks the window and wires the out-of-band teardown hook so a
// window closed by the OS never lingers as a stale handle. Two concurrent
// Ensure calls can both miss and create a window for the same provider; the
// re-check under the lock keeps the first handle and closes the loser so no
// live window escapes tracking.
func (o *Orchestrator) register(providerID string, w Window) Window {
	w.OnDestroyed(func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if o.windows[providerID] == w {
			delete(o.windows, providerID)
			o.logger.Info("deregistered destroyed window", "provider_id", providerID)
		}
	})
	o.mu.Lock()
	if existing, ok := o.windows[providerID]; ok && existing != w {
		o.mu.Unlock()
		if err := w.Close(); err != nil {
			o.logger.Warn("duplicate window close failed", "provider_id", providerID, "error", err)
		}
		o.logger.Info("closed duplicate window", "provider_id", providerID)
		return existing
	}
	o.windows[providerID] = w
	o.mu.Unlock()
	return w
}

// dockedBounds computes the logical rectangle beside the rail and below the
// title bar from the host's current geometry. The rectangle is anchored at
// the host window's screen position so docked surfaces track the host when
// it moves; the width clamps at zero for hosts narrower than the rail.
func (o *Orchestrator) dockedBounds() (Bounds, error) {
	outer, err := o.host.OuterSize()
	if err != nil {
		return Bounds{}, anyerr.Wrap(err, anyerr.CodeDockLayoutFailure, "read host outer size")
	}
	pos, err := o.host.OuterPosition()
	if err != nil {
		return Bounds{}, anyerr.Wrap(err, anyerr.CodeDockLayoutFailure, "read host outer position")
	}
	inner, err := o.host.InnerSize()
	if err != nil {
		return Bounds{}, anyerr.Wrap(err, anyerr.CodeDockLayoutFailure, "read host inner size")
	}
	scale, err := o.host.ScaleFactor()
	if err != nil {
		return Bounds{}, anyerr.Wrap(err, anyerr.CodeDockLayoutFailure, "read host scale factor")
	}
	if scale <= 0 {
		scale = 1
	}

	innerW := inner.Width / scale
	innerH := inner.Height / scale
	titleBar := (outer.Height - inner.Height) / scale

	return Bounds{
		X:      pos.X/scale + RailWidth,
		Y:      pos.Y/scale + titleBar,
		Width:  math.Max(0, innerW-RailWidth),
		Height: innerH,
	}, nil
}

// LayoutAll repositions every tracked window into the docked region. The
// per-window updates go out concurrently; individual failures are logged
// and do not disturb the other windows.
func (o *Orchestrator) LayoutAll(ctx context.Context) error {
	bounds, err := o.dockedBounds()
	if err != nil {
		return err
	}

	o.mu.Lock()
	tracked := make(map[string]Window, len(o.windows))
	for id, w := range o.windows {
		tracked[id] = w
	}
	o.mu.Unlock()

	var wg sync.WaitGroup
	for id, w := range tracked {
		wg.Add(1)
		go func(id string, w Window) {
			defer wg.Done()
			if err := w.SetBounds(bounds); err != nil {
				o.logger.Warn("window layout failed", "provider_id", id, "error", err)
			}
		}(id, w)
	}
	wg.Wait()
	return nil
}

// ShowOnly makes the active provider's window the single visible surface:
// ensure every enabled provider has a window, lay them out, then show and
// focus the active one while hiding the rest. The pass is idempotent;
// redundant shows and hides are harmless under interleaved invocations.
func (o *Orchestrator) ShowOnly(ctx context.Context, activeID string, enabled []*store.Provider) error {
	for _, p := range enabled {
		if _, err := o.Ensure(ctx, p); err != nil {
			return err
		}
	}
	if err := o.LayoutAll(ctx); err != nil {
		return err
	}

	o.mu.Lock()
	tracked := make(map[string]Window, len(o.windows))
	for id, w := range o.windows {
		tracked[id] = w
	}
	o.mu.Unlock()

	var wg sync.WaitGroup
	for id, w := range tracked {
		wg.Add(1)
		go func(id string, w Window) {
			defer wg.Done()
			if id == activeID {
				if err := w.Show(); err != nil {
					o.logger.Warn("window show failed", "provider_id", id, "error", err)
					return
				}
				if err := w.Focus(); err != nil {
					o.logger.Warn("window focus failed", "provider_id", id, "error", err)
				}
				return
			}
			if err := w.Hide(); err != nil {
				o.logger.Warn("window hide failed", "provider_id", id, "error", err)
			}
		}(id, w)
	}
	wg.Wait()
	return nil
}

// HideAll hides every tracked window without destroying any, for when a
// modal overlay needs visual precedence over the docked content.
func (o *Orchestrator) HideAll(ctx context.Context) {
	o.mu.Lock()
	tracked := make(map[string]Window, len(o.windows))
	for id, w := range o.windows {
		tracked[id] = w
	}
	o.mu.Unlock()

	var wg sync.WaitGroup
	for id, w := range tracked {
		wg.Add(1)
		go func(id string, w Window) {
			defer wg.Done()
			if err := w.Hide(); err != nil {
				o.logger.Warn("window hide failed", "provider_id", id, "error", err)
			}
		}(id, w)
	}
	wg.Wait()
}

// DestroyDisabled tears down windows whose providers are no longer enabled.
// Close errors are swallowed with a log since the window may already be
// gone; the registration is removed regardless.
func (o *Orchestrator) DestroyDisabled(ctx context.Context, enabled []*store.Provider) {
	keep := make(map[string]bool, len(enabled))
	for _, p := range enabled {
		keep[p.ID] = true
	}

	o.mu.Lock()
	doomed := make(map[string]Window)
	for id, w := range o.windows {
		if !keep[id] {
			doomed[id] = w
			delete(o.windows, id)
		}
	}
	o.mu.Unlock()

	for id, w := range doomed {
		if err := w.Close(); err != nil {
			o.logger.Warn("window close failed", "provider_id", id, "error", err)
		}
		o.logger.Info("destroyed disabled window", "provider_id", id)
	}
}

// Refresh destroys the provider's window so the next Ensure recreates it
// with a fresh page load.
func (o *Orchestrator) Refresh(ctx context.Context, providerID string) error {
	o.mu.Lock()
	w, ok := o.windows[providerID]
	if ok {
		delete(o.windows, providerID)
	}
	o.mu.Unlock()
	if !ok {
		return anyerr.New(anyerr.CodeDockWindowNotFound, "no docked window for provider",
			anyerr.FieldProviderID(providerID))
	}
	if err := w.Close(); err != nil {
		o.logger.Warn("window close failed during refresh", "provider_id", providerID, "error", err)
	}
	return nil
}
