// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	anyerr "github.com/anychat-dev/anychat/pkg/errors"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:33445", cfg.Server.Listen)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.NotEmpty(t, cfg.Storage.DataDir)
	assert.Equal(t, filepath.Join(cfg.Storage.DataDir, "backups"), cfg.Backup.Dir)
	assert.Equal(t, 24, cfg.Backup.Retention)
	assert.Equal(t, time.Hour, cfg.Backup.Interval)
	assert.Equal(t, 64, cfg.Capture.Buffer)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anychat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  listen: "127.0.0.1:40000"
storage:
  backend: sqlite
  data_dir: /tmp/anychat-test
backup:
  retention: 5
  interval: 30m
capture:
  buffer: 8
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:40000", cfg.Server.Listen)
	assert.Equal(t, "/tmp/anychat-test", cfg.Storage.DataDir)
	assert.Equal(t, filepath.Join("/tmp/anychat-test", "backups"), cfg.Backup.Dir)
	assert.Equal(t, 5, cfg.Backup.Retention)
	assert.Equal(t, 30*time.Minute, cfg.Backup.Interval)
	assert.Equal(t, 8, cfg.Capture.Buffer)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, anyerr.CodeConfigLoadReadFailure, anyerr.CodeOf(err))
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ANYCHAT_SERVER_LISTEN", "127.0.0.1:41000")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:41000", cfg.Server.Listen)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Listen: "0.0.0.0:notaport"},
		Storage: StorageConfig{Backend: "postgres"},
		Backup:  BackupConfig{Retention: 0, Interval: time.Second},
		Capture: CaptureConfig{Buffer: 0},
	}

	errs := cfg.Validate()
	assert.GreaterOrEqual(t, len(errs), 5)
}

func TestValidateRejectsNonLoopbackListen(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Listen: "0.0.0.0:33445"},
		Storage: StorageConfig{Backend: "sqlite"},
		Backup:  BackupConfig{Retention: 24, Interval: time.Hour},
		Capture: CaptureConfig{Buffer: 64},
	}

	errs := cfg.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "loopback")
}

func TestDefaultConfigParsesAndValidates(t *testing.T) {
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(DefaultConfigYAML, &doc))
	assert.Contains(t, doc, "server")
	assert.Contains(t, doc, "storage")
	assert.Contains(t, doc, "backup")
	assert.Contains(t, doc, "capture")

	path := filepath.Join(t.TempDir(), "anychat.yaml")
	require.NoError(t, os.WriteFile(path, DefaultConfigYAML, 0o600))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:33445", cfg.Server.Listen)
}
