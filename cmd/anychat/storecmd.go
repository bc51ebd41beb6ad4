// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anychat-dev/anychat/internal/config"
	"github.com/anychat-dev/anychat/internal/store"
	_ "github.com/anychat-dev/anychat/internal/store/sqlite"
)

// openStore loads configuration and opens the chat store for one-shot
// commands. The caller must Close the returned store.
func openStore(cmd *cobra.Command) (*config.Config, store.ChatStore, error) {
	setupLogging(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	cs, err := store.New(&store.StorageConfig{Backend: cfg.Storage.Backend}, cfg.Storage.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	return cfg, cs, nil
}
