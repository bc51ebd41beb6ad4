// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/anychat-dev/anychat/internal/backup"
	"github.com/anychat-dev/anychat/internal/capture"
	"github.com/anychat-dev/anychat/internal/store"
	anyerr "github.com/anychat-dev/anychat/pkg/errors"
)

// Dock is the window control surface the server drives. Satisfied by
// dock.Orchestrator; narrowed here so handlers stay testable without a
// windowing system.
type Dock interface {
	ShowOnly(ctx context.Context, activeID string, enabled []*store.Provider) error
	DestroyDisabled(ctx context.Context, enabled []*store.Provider)
	HideAll(ctx context.Context)
	Refresh(ctx context.Context, providerID string) error
}

// Deps are the collaborators behind the REST routes. Dock may be nil when
// running headless; dock routes then answer 503.
type Deps struct {
	Store    store.ChatStore
	Pipeline *capture.Pipeline
	Backups  *backup.Manager
	Dock     Dock
}

// RegisterRoutes sets the dependencies and registers the REST routes.
func (s *Server) RegisterRoutes(deps *Deps) {
	s.deps = deps

	// Capture endpoint
	huma.Register(s.api, huma.Operation{
		OperationID: "capture",
		Method:      http.MethodPost,
		Path:        "/capture",
		Summary:     "Enqueue a scraped message batch",
		Tags:        []string{"capture"},
	}, s.handleCapture)

	// Session endpoints
	huma.Register(s.api, huma.Operation{
		OperationID: "list-providers",
		Method:      http.MethodGet,
		Path:        "/providers",
		Summary:     "List providers",
		Tags:        []string{"providers"},
	}, s.handleListProviders)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-sessions",
		Method:      http.MethodGet,
		Path:        "/sessions",
		Summary:     "List sessions",
		Tags:        []string{"sessions"},
	}, s.handleListSessions)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-session-messages",
		Method:      http.MethodGet,
		Path:        "/sessions/{id}/messages",
		Summary:     "List messages of a session",
		Tags:        []string{"sessions"},
	}, s.handleListMessages)

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-session",
		Method:      http.MethodDelete,
		Path:        "/sessions/{id}",
		Summary:     "Delete a session and its messages",
		Tags:        []string{"sessions"},
	}, s.handleDeleteSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "search-messages",
		Method:      http.MethodGet,
		Path:        "/search",
		Summary:     "Search message content",
		Tags:        []string{"sessions"},
	}, s.handleSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "stats",
		Method:      http.MethodGet,
		Path:        "/stats",
		Summary:     "Store statistics",
		Tags:        []string{"system"},
	}, s.handleStats)

	// Backup endpoints
	huma.Register(s.api, huma.Operation{
		OperationID: "create-backup",
		Method:      http.MethodPost,
		Path:        "/backups",
		Summary:     "Write a backup snapshot now",
		Tags:        []string{"backups"},
	}, s.handleCreateBackup)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-backups",
		Method:      http.MethodGet,
		Path:        "/backups",
		Summary:     "List backup snapshots",
		Tags:        []string{"backups"},
	}, s.handleListBackups)

	// Dock endpoints
	huma.Register(s.api, huma.Operation{
		OperationID: "dock-activate",
		Method:      http.MethodPost,
		Path:        "/dock/active",
		Summary:     "Show one provider's docked window",
		Tags:        []string{"dock"},
	}, s.handleDockActivate)

	huma.Register(s.api, huma.Operation{
		OperationID: "dock-hide",
		Method:      http.MethodPost,
		Path:        "/dock/hide",
		Summary:     "Hide all docked windows",
		Tags:        []string{"dock"},
	}, s.handleDockHide)

	huma.Register(s.api, huma.Operation{
		OperationID: "dock-refresh",
		Method:      http.MethodPost,
		Path:        "/dock/{providerId}/refresh",
		Summary:     "Recreate a provider's docked window",
		Tags:        []string{"dock"},
	}, s.handleDockRefresh)
}

// --- Request/Response types for huma ---

type captureInput struct {
	Body struct {
		ServiceID string               `json:"serviceId" minLength:"1" doc:"Provider identifier"`
		URL       string               `json:"url,omitempty" doc:"Page URL at capture time"`
		Messages  []capture.RawMessage `json:"messages" doc:"Scraped turns, in page order"`
	}
}
type captureOutput struct {
	Body struct {
		Status string `json:"status" example:"queued"`
	}
}

type listProvidersOutput struct {
	Body struct {
		Providers []*store.Provider `json:"providers"`
	}
}

type listSessionsInput struct {
	ProviderID string `query:"provider_id" doc:"Filter by provider"`
}
type listSessionsOutput struct {
	Body struct {
		Sessions []*store.Session `json:"sessions"`
	}
}

type sessionIDInput struct {
	ID string `path:"id"`
}
type listMessagesOutput struct {
	Body struct {
		Messages []*store.Message `json:"messages"`
	}
}

type deleteSessionOutput struct {
	Body struct {
		Status string `json:"status" example:"deleted"`
	}
}

type searchInput struct {
	Query string `query:"q" minLength:"1" doc:"Substring to search for"`
}
type searchOutput struct {
	Body struct {
		Messages []*store.Message `json:"messages"`
	}
}

type statsOutput struct {
	Body store.Stats
}

type createBackupOutput struct {
	Body struct {
		Path string `json:"path" doc:"Snapshot file written"`
	}
}

type listBackupsOutput struct {
	Body struct {
		Snapshots []backup.Snapshot `json:"snapshots"`
	}
}

type dockActivateInput struct {
	Body struct {
		ProviderID string `json:"provider_id" minLength:"1" doc:"Provider to show"`
	}
}
type dockStatusOutput struct {
	Body struct {
		Status string `json:"status" example:"ok"`
	}
}

type dockRefreshInput struct {
	ProviderID string `path:"providerId"`
}

// --- Handlers ---

func (s *Server) handleCapture(_ context.Context, input *captureInput) (*captureOutput, error) {
	ev := capture.Event{
		ProviderID: input.Body.ServiceID,
		URL:        input.Body.URL,
		Messages:   input.Body.Messages,
	}
	if !s.deps.Pipeline.Enqueue(ev) {
		return nil, huma.Error503ServiceUnavailable("capture queue full")
	}
	out := &captureOutput{}
	out.Body.Status = "queued"
	return out, nil
}

func (s *Server) handleListProviders(ctx context.Context, _ *struct{}) (*listProvidersOutput, error) {
	providers, err := s.deps.Store.ListProviders(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing providers", err)
	}
	out := &listProvidersOutput{}
	out.Body.Providers = providers
	return out, nil
}

func (s *Server) handleListSessions(ctx context.Context, input *listSessionsInput) (*listSessionsOutput, error) {
	sessions, err := s.deps.Store.ListSessions(ctx, input.ProviderID)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing sessions", err)
	}
	out := &listSessionsOutput{}
	out.Body.Sessions = sessions
	return out, nil
}

func (s *Server) handleListMessages(ctx context.Context, input *sessionIDInput) (*listMessagesOutput, error) {
	if _, err := s.deps.Store.GetSession(ctx, input.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound(fmt.Sprintf("session %q not found", input.ID))
		}
		return nil, huma.Error500InternalServerError("loading session", err)
	}
	msgs, err := s.deps.Store.ListMessages(ctx, input.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing messages", err)
	}
	out := &listMessagesOutput{}
	out.Body.Messages = msgs
	return out, nil
}

func (s *Server) handleDeleteSession(ctx context.Context, input *sessionIDInput) (*deleteSessionOutput, error) {
	sess, err := s.deps.Store.GetSession(ctx, input.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound(fmt.Sprintf("session %q not found", input.ID))
		}
		return nil, huma.Error500InternalServerError("loading session", err)
	}
	if err := s.deps.Store.DeleteSession(ctx, input.ID); err != nil {
		return nil, huma.Error500InternalServerError("deleting session", err)
	}
	// The pipeline may hold this session as the provider's active one.
	if s.deps.Pipeline != nil {
		s.deps.Pipeline.Forget(sess.ProviderID)
	}
	out := &deleteSessionOutput{}
	out.Body.Status = "deleted"
	return out, nil
}

func (s *Server) handleSearch(ctx context.Context, input *searchInput) (*searchOutput, error) {
	msgs, err := s.deps.Store.SearchMessages(ctx, input.Query)
	if err != nil {
		return nil, huma.Error500InternalServerError("searching messages", err)
	}
	out := &searchOutput{}
	out.Body.Messages = msgs
	return out, nil
}

func (s *Server) handleStats(ctx context.Context, _ *struct{}) (*statsOutput, error) {
	stats, err := s.deps.Store.Statistics(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("computing statistics", err)
	}
	return &statsOutput{Body: *stats}, nil
}

func (s *Server) handleCreateBackup(ctx context.Context, _ *struct{}) (*createBackupOutput, error) {
	path, err := s.deps.Backups.Export(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("writing backup", err)
	}
	out := &createBackupOutput{}
	out.Body.Path = path
	return out, nil
}

func (s *Server) handleListBackups(_ context.Context, _ *struct{}) (*listBackupsOutput, error) {
	snaps, err := s.deps.Backups.ListSnapshots()
	if err != nil {
		return nil, huma.Error500InternalServerError("listing backups", err)
	}
	out := &listBackupsOutput{}
	out.Body.Snapshots = snaps
	return out, nil
}

// enabledProviders filters the provider set down to the ones the dock
// should host.
func (s *Server) enabledProviders(ctx context.Context) ([]*store.Provider, error) {
	providers, err := s.deps.Store.ListProviders(ctx)
	if err != nil {
		return nil, err
	}
	enabled := make([]*store.Provider, 0, len(providers))
	for _, p := range providers {
		if p.Enabled {
			enabled = append(enabled, p)
		}
	}
	return enabled, nil
}

func (s *Server) handleDockActivate(ctx context.Context, input *dockActivateInput) (*dockStatusOutput, error) {
	if s.deps.Dock == nil {
		return nil, huma.Error503ServiceUnavailable("dock not available")
	}
	enabled, err := s.enabledProviders(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing providers", err)
	}

	active := input.Body.ProviderID
	found := false
	for _, p := range enabled {
		if p.ID == active {
			found = true
			break
		}
	}
	if !found {
		return nil, huma.Error404NotFound(fmt.Sprintf("provider %q is not enabled", active))
	}

	// Windows for disabled providers are torn down before the switch.
	s.deps.Dock.DestroyDisabled(ctx, enabled)
	if err := s.deps.Dock.ShowOnly(ctx, active, enabled); err != nil {
		return nil, huma.Error500InternalServerError("switching docked window", err)
	}
	out := &dockStatusOutput{}
	out.Body.Status = "ok"
	return out, nil
}

func (s *Server) handleDockHide(ctx context.Context, _ *struct{}) (*dockStatusOutput, error) {
	if s.deps.Dock == nil {
		return nil, huma.Error503ServiceUnavailable("dock not available")
	}
	s.deps.Dock.HideAll(ctx)
	out := &dockStatusOutput{}
	out.Body.Status = "ok"
	return out, nil
}

func (s *Server) handleDockRefresh(ctx context.Context, input *dockRefreshInput) (*dockStatusOutput, error) {
	if s.deps.Dock == nil {
		return nil, huma.Error503ServiceUnavailable("dock not available")
	}
	if err := s.deps.Dock.Refresh(ctx, input.ProviderID); err != nil {
		if anyerr.HasCode(err, anyerr.CodeDockWindowNotFound) {
			return nil, huma.Error404NotFound(fmt.Sprintf("no docked window for provider %q", input.ProviderID))
		}
		return nil, huma.Error500InternalServerError("refreshing docked window", err)
	}
	out := &dockStatusOutput{}
	out.Body.Status = "ok"
	return out, nil
}
