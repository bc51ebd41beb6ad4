// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

package sqlite

import (
	"path/filepath"

	"github.com/anychat-dev/anychat/internal/store"
)

func init() {
	store.RegisterBackend("sqlite", newChatStore)
}

func newChatStore(dataDir string) (store.ChatStore, error) {
	return New(filepath.Join(dataDir, "chatbox.db"))
}
