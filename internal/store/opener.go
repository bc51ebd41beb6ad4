// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

package store

import (
	"context"
	"sync"
)

// Opener hands out a process-wide ChatStore handle. Concurrent callers
// arriving before the store is ready share a single in-flight open instead
// of racing schema setup; once open, the handle is cached for the process
// lifetime. A failed open is not cached, so the next caller retries.
type Opener struct {
	open func() (ChatStore, error)

	mu    sync.Mutex
	store ChatStore
	round *openRound // non-nil while an open is in flight
}

// openRound carries one open attempt's outcome to every caller waiting on it.
type openRound struct {
	done  chan struct{}
	store ChatStore
	err   error
}

// NewOpener wraps an open function, typically a closure over store.New.
func NewOpener(open func() (ChatStore, error)) *Opener {
	return &Opener{open: open}
}

// Get returns the cached store, joining or starting an open as needed.
func (o *Opener) Get(ctx context.Context) (ChatStore, error) {
	o.mu.Lock()
	if o.store != nil {
		s := o.store
		o.mu.Unlock()
		return s, nil
	}

	if r := o.round; r != nil {
		o.mu.Unlock()
		select {
		case <-r.done:
			return r.store, r.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	r := &openRound{done: make(chan struct{})}
	o.round = r
	o.mu.Unlock()

	r.store, r.err = o.open()

	o.mu.Lock()
	if r.err == nil {
		o.store = r.store
	}
	o.round = nil
	o.mu.Unlock()

	close(r.done)
	return r.store, r.err
}

// Close closes the cached store if one was opened.
func (o *Opener) Close() error {
	o.mu.Lock()
	s := o.store
	o.store = nil
	o.mu.Unlock()

	if s == nil {
		return nil
	}
	return s.Close()
}
