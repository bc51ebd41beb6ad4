// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

// Package importer loads chat archives exported by other tools into the
// store. Imports ride the same dedup insert path as live capture, so
// re-running an import never duplicates messages.
package importer

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/anychat-dev/anychat/internal/store"
	anyerr "github.com/anychat-dev/anychat/pkg/errors"
)

// Result counts what an import landed. Partial success is a valid outcome;
// Errors carries one entry per conversation that could not be applied.
type Result struct {
	SessionsImported int      `json:"sessions_imported"`
	MessagesImported int      `json:"messages_imported"`
	Errors           []string `json:"errors,omitempty"`
}

// Importer applies archive documents to a chat store.
type Importer struct {
	store  store.ChatStore
	logger *slog.Logger
}

// New builds an importer over cs.
func New(cs store.ChatStore, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: cs, logger: logger}
}

// ensureProvider makes sure a provider row exists so imported sessions have
// somewhere to hang. Providers created here start disabled; they exist for
// the archive, not for the dock.
func (im *Importer) ensureProvider(ctx context.Context, id string) error {
	_, err := im.store.GetProvider(ctx, id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return anyerr.Wrap(err, anyerr.CodeImportApplyFailure, "look up import provider",
			anyerr.FieldProviderID(id))
	}
	p := &store.Provider{
		ID:        id,
		Name:      titleCase(id),
		URL:       "about:blank",
		Enabled:   false,
		SortOrder: 999,
	}
	if err := im.store.SaveProvider(ctx, p); err != nil {
		return anyerr.Wrap(err, anyerr.CodeImportApplyFailure, "create import provider",
			anyerr.FieldProviderID(id))
	}
	im.logger.Info("created provider for import", "provider_id", id)
	return nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
