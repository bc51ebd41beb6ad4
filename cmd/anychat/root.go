// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/anychat-dev/anychat/internal/config"
)

// NewRootCmd creates the root anychat command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "anychat",
		Short:         "AnyChat — desktop shell for web chat services",
		Long:          "AnyChat hosts web chat services in docked webviews and persists every captured conversation locally.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().String("data-dir", "", "path to data directory")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newStartCmd(),
		newVersionCmd(),
		newBackupCmd(),
		newImportCmd(),
		newSessionsCmd(),
		newSearchCmd(),
		newStatsCmd(),
	)

	return root
}

// loadConfig resolves the effective configuration for a command: the
// --config flag wins, otherwise the default path is used (bootstrapping a
// commented config file on first run), and --data-dir overrides whatever
// the file said.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	if cfgPath == "" {
		if defaultPath, err := config.DefaultConfigPath(); err == nil {
			if _, statErr := os.Stat(defaultPath); statErr == nil {
				cfgPath = defaultPath
			} else if path := config.BootstrapConfig(); path != "" {
				cfgPath = path
			}
		}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	// --data-dir relocates everything, including the backup directory.
	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.Storage.DataDir = dataDir
		cfg.Backup.Dir = filepath.Join(dataDir, "backups")
	}
	return cfg, nil
}

// setupLogging installs the process-wide slog handler.
func setupLogging(cmd *cobra.Command) {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
