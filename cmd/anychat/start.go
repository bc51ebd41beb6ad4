// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/anychat-dev/anychat/internal/backup"
	"github.com/anychat-dev/anychat/internal/capture"
	"github.com/anychat-dev/anychat/internal/dock"
	"github.com/anychat-dev/anychat/internal/server"
	"github.com/anychat-dev/anychat/internal/store"
	_ "github.com/anychat-dev/anychat/internal/store/sqlite"
)

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the anychat control service",
		Long:  "Load configuration, open the store, and run the capture pipeline, backup scheduler, and local control surface until interrupted.",
		RunE:  runStart,
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")

	return cmd
}

func runStart(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Server.Listen = listen
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opener := store.NewOpener(func() (store.ChatStore, error) {
		return store.New(&store.StorageConfig{Backend: cfg.Storage.Backend}, cfg.Storage.DataDir)
	})
	defer func() {
		if err := opener.Close(); err != nil {
			slog.Error("closing store", "error", err)
		}
	}()

	cs, err := opener.Get(ctx)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	pipeline := capture.NewPipeline(cs, cfg.Capture.Buffer, slog.Default())
	go func() {
		if err := pipeline.Run(ctx); err != nil && ctx.Err() == nil {
			slog.Error("capture pipeline stopped", "error", err)
		}
	}()

	backups := backup.NewManager(cs, cfg.Backup.Dir, slog.Default(),
		backup.WithRetention(cfg.Backup.Retention),
		backup.WithInterval(cfg.Backup.Interval),
	)
	backups.Start(ctx)
	defer backups.Stop()

	// The CLI build has no webview stack; the dock runs against a headless
	// host so the control routes stay exercisable.
	orchestrator := dock.NewOrchestrator(newHeadlessHost(), slog.Default())

	srv, err := server.New(server.Config{ListenAddr: cfg.Server.Listen})
	if err != nil {
		return fmt.Errorf("building server: %w", err)
	}
	srv.RegisterRoutes(&server.Deps{
		Store:    cs,
		Pipeline: pipeline,
		Backups:  backups,
		Dock:     orchestrator,
	})

	slog.Info("anychat started",
		"listen", cfg.Server.Listen,
		"data_dir", cfg.Storage.DataDir,
		"backup_dir", cfg.Backup.Dir)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("running server: %w", err)
	}
	return nil
}
