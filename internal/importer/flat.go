// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/anychat-dev/anychat/internal/store"
	anyerr "github.com/anychat-dev/anychat/pkg/errors"
)

const (
	defaultFlatProvider = "custom"
	defaultFlatTitle    = "Imported Session"
)

// flatDocument is the generic single-session archive format.
type flatDocument struct {
	Session  flatSession   `json:"session"`
	Messages []flatMessage `json:"messages"`
}

type flatSession struct {
	ProviderID string `json:"provider_id"`
	Title      string `json:"title"`
}

type flatMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"` // milliseconds since epoch, optional
}

// ImportFlat loads a generic flat archive: one session plus an ordered
// message list. Messages with unknown roles are recorded as errors and
// skipped; the rest of the document still applies.
func (im *Importer) ImportFlat(ctx context.Context, data []byte) (*Result, error) {
	var doc flatDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, anyerr.Wrap(err, anyerr.CodeImportParseInvalid, "parse flat export")
	}
	if len(doc.Messages) == 0 {
		return nil, anyerr.New(anyerr.CodeImportParseInvalid, "flat export has no messages")
	}

	providerID := doc.Session.ProviderID
	if providerID == "" {
		providerID = defaultFlatProvider
	}
	title := doc.Session.Title
	if title == "" {
		title = defaultFlatTitle
	}

	if err := im.ensureProvider(ctx, providerID); err != nil {
		return nil, err
	}
	sessionID, err := im.store.CreateSession(ctx, providerID, title)
	if err != nil {
		return nil, anyerr.Wrap(err, anyerr.CodeImportApplyFailure, "create import session",
			anyerr.FieldProviderID(providerID))
	}

	res := &Result{SessionsImported: 1}
	for i, fm := range doc.Messages {
		role := store.Role(fm.Role)
		if !role.Valid() {
			res.Errors = append(res.Errors, fmt.Sprintf("message %d: unknown role %q", i, fm.Role))
			continue
		}
		created := time.Now()
		if fm.Timestamp > 0 {
			created = time.UnixMilli(fm.Timestamp)
		}
		msg := &store.Message{
			SessionID: sessionID,
			Role:      role,
			Content:   fm.Content,
			Source:    store.SourceImport,
			CreatedAt: created,
		}
		if _, err := im.store.InsertMessage(ctx, msg); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("message %d: %v", i, err))
			continue
		}
		res.MessagesImported++
	}

	im.logger.Info("imported flat archive",
		"provider_id", providerID, "session_id", sessionID,
		"messages", res.MessagesImported, "errors", len(res.Errors))
	return res, nil
}
