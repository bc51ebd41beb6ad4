// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

// Package backup exports periodic JSON snapshots of the chat store and
// prunes old ones so the backup directory never grows without bound.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anychat-dev/anychat/internal/store"
	anyerr "github.com/anychat-dev/anychat/pkg/errors"
)

const (
	// FormatVersion identifies the snapshot document layout.
	FormatVersion = "1.0"

	snapshotPrefix = "backup-"
	snapshotSuffix = ".json"

	defaultRetention = 24
	initialDelay     = 5 * time.Second
	defaultInterval  = time.Hour
)

// Document is the on-disk snapshot layout.
type Document struct {
	ExportedAt time.Time         `json:"exported_at"`
	Version    string            `json:"version"`
	Providers  []*store.Provider `json:"providers"`
	Sessions   []*store.Session  `json:"sessions"`
	Messages   []*store.Message  `json:"messages"`
}

// Snapshot describes one file in the backup directory.
type Snapshot struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Manager owns the backup directory and the snapshot schedule.
type Manager struct {
	store     store.ChatStore
	dir       string
	logger    *slog.Logger
	retention int
	interval  time.Duration
	now       func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option adjusts a Manager.
type Option func(*Manager)

// WithRetention overrides the number of snapshots kept on disk.
func WithRetention(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.retention = n
		}
	}
}

// WithInterval overrides the time between scheduled snapshots.
func WithInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.interval = d
		}
	}
}

// NewManager builds a manager writing snapshots under dir.
func NewManager(cs store.ChatStore, dir string, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		store:     cs,
		dir:       dir,
		logger:    logger,
		retention: defaultRetention,
		interval:  defaultInterval,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Export writes one snapshot and prunes the directory down to the retention
// ceiling. It returns the path of the new file.
func (m *Manager) Export(ctx context.Context) (string, error) {
	dump, err := m.store.DumpAll(ctx)
	if err != nil {
		return "", anyerr.Wrap(err, anyerr.CodeBackupExportFailure, "dump store for backup")
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", anyerr.Wrap(err, anyerr.CodeBackupWriteFailure, "create backup directory",
			anyerr.Field("dir", m.dir))
	}

	doc := Document{
		ExportedAt: m.now(),
		Version:    FormatVersion,
		Providers:  dump.Providers,
		Sessions:   dump.Sessions,
		Messages:   dump.Messages,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", anyerr.Wrap(err, anyerr.CodeBackupExportFailure, "encode backup document")
	}

	path := filepath.Join(m.dir, snapshotName(doc.ExportedAt))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", anyerr.Wrap(err, anyerr.CodeBackupWriteFailure, "write backup snapshot",
			anyerr.Field("path", path))
	}

	m.logger.Info("backup written", "path", path,
		"sessions", len(doc.Sessions), "messages", len(doc.Messages))
	m.prune()
	return path, nil
}

// ListSnapshots returns the snapshots on disk, newest first.
func (m *Manager) ListSnapshots() ([]Snapshot, error) {
	names, err := m.snapshotNames()
	if err != nil {
		return nil, err
	}
	out := make([]Snapshot, 0, len(names))
	for _, name := range names {
		info, err := os.Stat(filepath.Join(m.dir, name))
		if err != nil {
			continue
		}
		out = append(out, Snapshot{Name: name, Size: info.Size(), ModTime: info.ModTime()})
	}
	return out, nil
}

// Start launches the snapshot schedule: a short warm-up export followed by
// one per interval. Calling Start on a running manager is a no-op; once the
// worker exits, whether through Stop or the parent context, a later Start
// runs a fresh schedule.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done

	go func() {
		defer func() {
			close(done)
			m.mu.Lock()
			if m.done == done {
				m.cancel, m.done = nil, nil
			}
			m.mu.Unlock()
		}()
		timer := time.NewTimer(initialDelay)
		defer timer.Stop()
		select {
		case <-runCtx.Done():
			return
		case <-timer.C:
		}
		if _, err := m.Export(runCtx); err != nil {
			m.logger.Error("scheduled backup failed", "error", err)
		}

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				if _, err := m.Export(runCtx); err != nil {
					m.logger.Error("scheduled backup failed", "error", err)
				}
			}
		}
	}()
}

// Stop halts the schedule and waits for the worker to exit. Safe to call
// repeatedly and before Start.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// prune removes snapshots beyond the retention ceiling, oldest first.
// Failures are logged; a stuck file must not fail the export that
// triggered the prune.
func (m *Manager) prune() {
	names, err := m.snapshotNames()
	if err != nil {
		m.logger.Warn("backup prune skipped", "error", err)
		return
	}
	for _, name := range names[min(len(names), m.retention):] {
		path := filepath.Join(m.dir, name)
		if err := os.Remove(path); err != nil {
			m.logger.Warn("failed to remove old backup", "path", path, "error", err)
			continue
		}
		m.logger.Info("removed old backup", "path", path)
	}
}

// snapshotNames lists snapshot file names, newest first. Timestamps are
// zero-padded so lexical order matches chronological order.
func (m *Manager) snapshotNames() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, anyerr.Wrap(err, anyerr.CodeBackupListFailure, "read backup directory",
			anyerr.Field("dir", m.dir))
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotSuffix) {
			continue
		}
		names = append(names, name)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// snapshotName builds a file name from the export time, with characters
// that are unsafe on common filesystems replaced.
func snapshotName(ts time.Time) string {
	stamp := ts.UTC().Format("2006-01-02T15-04-05.000Z")
	stamp = strings.ReplaceAll(stamp, ".", "-")
	return fmt.Sprintf("%s%s%s", snapshotPrefix, stamp, snapshotSuffix)
}
