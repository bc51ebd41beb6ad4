// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

// Package dock multiplexes one native webview window per enabled provider
// into the region of the host window beside the navigation rail. The
// windowing system sits behind the Host and Window interfaces so the
// orchestration logic stays testable off the UI stack.
package dock

import "context"

// RailWidth is the logical width of the navigation rail, in pixels. Docked
// windows occupy the host content area to its right.
const RailWidth = 64.0

// Bounds is a logical-pixel rectangle relative to the host window.
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Size is a physical-pixel extent.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Position is a physical-pixel screen coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// WindowOptions describes a docked surface at creation time. Docked windows
// are chromeless satellites of the host: no decorations, no resize handles,
// hidden until the first show, absent from the task switcher.
type WindowOptions struct {
	Label       string
	URL         string
	Decorated   bool
	Resizable   bool
	Visible     bool
	SkipTaskbar bool
	Bounds      Bounds
}

// Window is a live webview surface. All operations are safe to repeat; a
// show on a shown window or a hide on a hidden one is a no-op.
type Window interface {
	Show() error
	Hide() error
	Focus() error
	SetBounds(Bounds) error
	Close() error
	// OnDestroyed registers fn to run when the window is torn down outside
	// the orchestrator's control. At most one callback is kept.
	OnDestroyed(fn func())
}

// Host is the windowing system: it creates docked surfaces and reports the
// geometry of the main application window.
type Host interface {
	// CreateWindow completes only once the window is usable or creation has
	// failed; a returned error means no window was registered.
	CreateWindow(ctx context.Context, opts WindowOptions) (Window, error)
	// FindWindow reports a window already registered under label, covering
	// surfaces left over from a previous session.
	FindWindow(label string) (Window, bool)

	OuterSize() (Size, error)
	OuterPosition() (Position, error)
	InnerSize() (Size, error)
	ScaleFactor() (float64, error)
}

// WindowLabel is the canonical label for a provider's docked window.
func WindowLabel(providerID string) string {
	return "svc_" + providerID
}
