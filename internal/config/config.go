// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

package config

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	anyerr "github.com/anychat-dev/anychat/pkg/errors"
)

// Config is the top-level AnyChat configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Backup  BackupConfig  `mapstructure:"backup"`
	Capture CaptureConfig `mapstructure:"capture"`
}

// ServerConfig controls the local control surface.
type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

// StorageConfig selects the storage backend and its data directory.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	DataDir string `mapstructure:"data_dir"`
}

// BackupConfig controls snapshot rotation.
type BackupConfig struct {
	Dir       string        `mapstructure:"dir"`
	Retention int           `mapstructure:"retention"`
	Interval  time.Duration `mapstructure:"interval"`
}

// CaptureConfig controls the capture intake.
type CaptureConfig struct {
	Buffer int `mapstructure:"buffer"`
}

// DefaultDataDir returns ~/.local/share/anychat (or the platform
// equivalent reported by the OS).
func DefaultDataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", anyerr.Errorf(anyerr.CodeConfigLoadReadFailure, "resolving user config directory: %w", err)
	}
	return filepath.Join(base, "anychat"), nil
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix ANYCHAT_).
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.listen", "127.0.0.1:33445")
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("backup.retention", 24)
	v.SetDefault("backup.interval", time.Hour)
	v.SetDefault("capture.buffer", 64)

	// Environment
	v.SetEnvPrefix("ANYCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// File
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, anyerr.Errorf(anyerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, anyerr.Errorf(anyerr.CodeConfigValidateInvalidValue, "unmarshalling config: %w", err)
	}

	if cfg.Storage.DataDir == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return nil, err
		}
		cfg.Storage.DataDir = dir
	}
	if cfg.Backup.Dir == "" {
		cfg.Backup.Dir = filepath.Join(cfg.Storage.DataDir, "backups")
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, anyerr.Errorf(anyerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors. It returns a slice
// of all validation errors found, collecting all issues rather than
// stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validateBackup()...)
	errs = append(errs, c.validateCapture()...)

	return errs
}

func (c *Config) validateServer() []error {
	var errs []error

	if c.Server.Listen == "" {
		errs = append(errs, anyerr.Errorf(anyerr.CodeConfigValidateInvalidValue, "config: server.listen must not be empty"))
		return errs
	}

	host, portStr, err := net.SplitHostPort(c.Server.Listen)
	if err != nil {
		errs = append(errs, anyerr.Errorf(anyerr.CodeConfigValidateInvalidValue,
			"config: server.listen must be a valid host:port address, got %q: %w",
			c.Server.Listen, err,
		))
		return errs
	}

	// The control surface carries captured chat text and must stay local.
	if host != "127.0.0.1" && host != "localhost" && host != "::1" {
		errs = append(errs, anyerr.Errorf(anyerr.CodeConfigValidateInvalidValue,
			"config: server.listen must bind a loopback host, got %q",
			host,
		))
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		errs = append(errs, anyerr.Errorf(anyerr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be a number, got %q",
			portStr,
		))
	} else if port < 1 || port > 65535 {
		errs = append(errs, anyerr.Errorf(anyerr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be between 1 and 65535, got %d",
			port,
		))
	}

	return errs
}

func (c *Config) validateStorage() []error {
	var errs []error

	validBackends := map[string]bool{"sqlite": true}
	if !validBackends[c.Storage.Backend] {
		errs = append(errs, anyerr.Errorf(anyerr.CodeConfigValidateInvalidValue,
			"config: storage.backend must be one of [sqlite], got %q",
			c.Storage.Backend,
		))
	}

	return errs
}

func (c *Config) validateBackup() []error {
	var errs []error

	if c.Backup.Retention <= 0 {
		errs = append(errs, anyerr.Errorf(anyerr.CodeConfigValidateInvalidValue,
			"config: backup.retention must be greater than 0, got %d",
			c.Backup.Retention,
		))
	}

	if c.Backup.Interval < time.Minute {
		errs = append(errs, anyerr.Errorf(anyerr.CodeConfigValidateInvalidValue,
			"config: backup.interval must be at least 1m, got %s",
			c.Backup.Interval,
		))
	}

	return errs
}

func (c *Config) validateCapture() []error {
	var errs []error

	if c.Capture.Buffer <= 0 {
		errs = append(errs, anyerr.Errorf(anyerr.CodeConfigValidateInvalidValue,
			"config: capture.buffer must be greater than 0, got %d",
			c.Capture.Buffer,
		))
	}

	return errs
}
