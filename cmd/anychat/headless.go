// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

package main

import (
	"context"
	"sync"

	"github.com/anychat-dev/anychat/internal/dock"
)

// headlessHost satisfies dock.Host without a native windowing system. The
// desktop shell swaps in a real host; under the bare CLI the dock tracks
// window records with no visible surfaces, so the control routes behave the
// same in both builds.
type headlessHost struct {
	mu      sync.Mutex
	windows map[string]*headlessWindow
}

func newHeadlessHost() *headlessHost {
	return &headlessHost{windows: make(map[string]*headlessWindow)}
}

func (h *headlessHost) CreateWindow(_ context.Context, opts dock.WindowOptions) (dock.Window, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	w := &headlessWindow{host: h, label: opts.Label}
	h.windows[opts.Label] = w
	return w, nil
}

func (h *headlessHost) FindWindow(label string) (dock.Window, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.windows[label]
	if !ok {
		return nil, false
	}
	return w, true
}

func (h *headlessHost) OuterSize() (dock.Size, error) {
	return dock.Size{Width: 1280, Height: 800}, nil
}

func (h *headlessHost) OuterPosition() (dock.Position, error) {
	return dock.Position{}, nil
}

func (h *headlessHost) InnerSize() (dock.Size, error) {
	return dock.Size{Width: 1280, Height: 800}, nil
}

func (h *headlessHost) ScaleFactor() (float64, error) {
	return 1, nil
}

type headlessWindow struct {
	host      *headlessHost
	label     string
	destroyed func()
}

func (w *headlessWindow) Show() error { return nil }
func (w *headlessWindow) Hide() error { return nil }
func (w *headlessWindow) Focus() error { return nil }
func (w *headlessWindow) SetBounds(dock.Bounds) error { return nil }

func (w *headlessWindow) Close() error {
	w.host.mu.Lock()
	delete(w.host.windows, w.label)
	w.host.mu.Unlock()
	if w.destroyed != nil {
		w.destroyed()
	}
	return nil
}

func (w *headlessWindow) OnDestroyed(fn func()) { w.destroyed = fn }
