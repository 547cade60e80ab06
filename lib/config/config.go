// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the config file when --config is not
// given.
const EnvironmentVariable = "BUREAU_CONSOLE_CONFIG"

// Config is the console configuration.
type Config struct {
	// Server locates the agent service.
	Server ServerConfig `yaml:"server" json:"server"`

	// Sync tunes the sync engine.
	Sync SyncConfig `yaml:"sync" json:"sync"`

	// Log configures the console's own logging.
	Log LogConfig `yaml:"log" json:"log"`

	// Snapshot configures store snapshots written by watch.
	Snapshot SnapshotConfig `yaml:"snapshot" json:"snapshot"`
}

// ServerConfig locates the agent service.
type ServerConfig struct {
	// URL is the base URL of the service.
	// Default: http://127.0.0.1:4096
	URL string `yaml:"url" json:"url"`

	// Directory is sent with every request to scope the service to a
	// project. Empty means the console's working directory.
	Directory string `yaml:"directory" json:"directory"`

	// RequestTimeout bounds each RPC. Default: 30s
	RequestTimeout string `yaml:"request_timeout" json:"request_timeout"`
}

// SyncConfig tunes the sync engine. Empty durations and a zero
// capacity fall back to the engine defaults.
type SyncConfig struct {
	FlushInterval   string `yaml:"flush_interval" json:"flush_interval"`
	LSPDebounce     string `yaml:"lsp_debounce" json:"lsp_debounce"`
	MaxBackoff      string `yaml:"max_backoff" json:"max_backoff"`
	MessageCapacity int    `yaml:"message_capacity" json:"message_capacity"`
	OrphanPartTTL   string `yaml:"orphan_part_ttl" json:"orphan_part_ttl"`
	SessionWindow   string `yaml:"session_window" json:"session_window"`

	// ContinueLastSession makes the session list a blocking bootstrap
	// fetch, for clients that open the most recent session at start.
	ContinueLastSession bool `yaml:"continue_last_session" json:"continue_last_session"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Default: info
	Level string `yaml:"level" json:"level"`

	// File receives JSON logs in addition to stderr. The viewer logs
	// only here, since stderr belongs to the terminal UI.
	File string `yaml:"file" json:"file"`
}

// SnapshotConfig configures store snapshots.
type SnapshotConfig struct {
	// Path is where watch writes a snapshot on exit. Empty disables
	// snapshots unless --snapshot is given.
	Path string `yaml:"path" json:"path"`

	// Compression is one of none, lz4, zstd. Default: zstd
	Compression string `yaml:"compression" json:"compression"`
}

// Default returns the configuration used when no file is given, and
// the base every loaded file is merged into.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:            "http://127.0.0.1:4096",
			RequestTimeout: "30s",
		},
		Log: LogConfig{
			Level: "info",
		},
		Snapshot: SnapshotConfig{
			Compression: "zstd",
		},
	}
}

// Load resolves the configuration for a command. An explicit path
// (the --config flag) wins, then BUREAU_CONSOLE_CONFIG. With neither,
// the defaults are used; unlike a config search, that is always the
// same answer for the same invocation.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvironmentVariable)
	}
	if path == "" {
		cfg := Default()
		cfg.expandVariables()
		return cfg, nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file. Files ending in
// .json or .jsonc are read as JSON with comments and trailing commas;
// everything else is YAML.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), c); err != nil {
			return fmt.Errorf("config: parsing %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} in path fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Server.Directory = expandVars(c.Server.Directory, vars)
	c.Log.File = expandVars(c.Log.File, vars)
	c.Snapshot.Path = expandVars(c.Snapshot.Path, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

var (
	logLevels    = []string{"debug", "info", "warn", "error"}
	compressions = []string{"none", "lz4", "zstd"}
)

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.URL == "" {
		errs = append(errs, fmt.Errorf("server.url is required"))
	} else if parsed, err := url.Parse(c.Server.URL); err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("server.url must be an http or https URL, got %q", c.Server.URL))
	}

	durations := []struct {
		field string
		value string
	}{
		{"server.request_timeout", c.Server.RequestTimeout},
		{"sync.flush_interval", c.Sync.FlushInterval},
		{"sync.lsp_debounce", c.Sync.LSPDebounce},
		{"sync.max_backoff", c.Sync.MaxBackoff},
		{"sync.orphan_part_ttl", c.Sync.OrphanPartTTL},
		{"sync.session_window", c.Sync.SessionWindow},
	}
	for _, duration := range durations {
		if duration.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(duration.value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", duration.field, err))
		} else if parsed <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", duration.field, duration.value))
		}
	}

	if c.Sync.MessageCapacity < 0 {
		errs = append(errs, fmt.Errorf("sync.message_capacity must not be negative, got %d", c.Sync.MessageCapacity))
	}
	if !slices.Contains(logLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", logLevels))
	}
	if !slices.Contains(compressions, c.Snapshot.Compression) {
		errs = append(errs, fmt.Errorf("snapshot.compression must be one of: %v", compressions))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// parseDuration reads a validated duration field. Empty or invalid
// values read as zero, which the consumers treat as their default.
func parseDuration(value string) time.Duration {
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}

// Timeout returns RequestTimeout as a duration.
func (s ServerConfig) Timeout() time.Duration { return parseDuration(s.RequestTimeout) }

// Flush returns FlushInterval as a duration.
func (s SyncConfig) Flush() time.Duration { return parseDuration(s.FlushInterval) }

// Debounce returns LSPDebounce as a duration.
func (s SyncConfig) Debounce() time.Duration { return parseDuration(s.LSPDebounce) }

// Backoff returns MaxBackoff as a duration.
func (s SyncConfig) Backoff() time.Duration { return parseDuration(s.MaxBackoff) }

// OrphanTTL returns OrphanPartTTL as a duration.
func (s SyncConfig) OrphanTTL() time.Duration { return parseDuration(s.OrphanPartTTL) }

// Window returns SessionWindow as a duration.
func (s SyncConfig) Window() time.Duration { return parseDuration(s.SessionWindow) }

// SlogLevel returns Level as a slog.Level. Unknown values read as
// info.
func (l LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}
