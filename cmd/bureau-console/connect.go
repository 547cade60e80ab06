// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"

	"github.com/bureau-foundation/console/lib/agentclient"
	"github.com/bureau-foundation/console/lib/config"
	"github.com/bureau-foundation/console/lib/syncengine"
)

// loadConfig resolves the configuration and applies the global flag
// overrides.
func (inv *invocation) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(inv.globals.configPath)
	if err != nil {
		return nil, Validation("loading configuration: %w", err).
			WithHint("Check the file named by --config or " + config.EnvironmentVariable + ".")
	}
	if inv.globals.server != "" {
		cfg.Server.URL = inv.globals.server
	}
	if inv.globals.directory != "" {
		cfg.Server.Directory = inv.globals.directory
	}
	if inv.globals.logLevel != "" {
		cfg.Log.Level = inv.globals.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, Validation("invalid configuration:\n%w", err)
	}
	if cfg.Server.Directory == "" {
		if workingDirectory, err := os.Getwd(); err == nil {
			cfg.Server.Directory = workingDirectory
		}
	}
	return cfg, nil
}

// environment is everything a command that talks to the service
// needs.
type environment struct {
	config *config.Config
	logger *slog.Logger
	client *agentclient.Client
	close  func()
}

// connect loads configuration and builds the logger and client. Logs
// go to logOutput (and the configured log file).
func (inv *invocation) connect(logOutput io.Writer) (*environment, error) {
	return inv.connectWith(func(level slog.Level) slog.Handler {
		return consoleHandler(logOutput, level)
	})
}

// connectWith is connect with a caller-built console log handler.
func (inv *invocation) connectWith(console func(level slog.Level) slog.Handler) (*environment, error) {
	cfg, err := inv.loadConfig()
	if err != nil {
		return nil, err
	}
	logger, closeLog, err := newLogger(console(cfg.Log.SlogLevel()), cfg.Log.File)
	if err != nil {
		return nil, Validation("opening log file %s: %w", cfg.Log.File, err)
	}

	client, err := agentclient.New(agentclient.Config{
		ServerURL:      cfg.Server.URL,
		Directory:      cfg.Server.Directory,
		RequestTimeout: cfg.Server.Timeout(),
		// A private transport, so dropping idle connections after a
		// stream failure does not touch anyone else's pool.
		HTTPClient: &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()},
		Logger:     logger,
	})
	if err != nil {
		closeLog()
		return nil, Validation("%w", err)
	}
	return &environment{
		config: cfg,
		logger: logger,
		client: client,
		close: func() {
			client.CloseIdleConnections()
			closeLog()
		},
	}, nil
}

// newEngine builds a sync engine over the environment's client.
func (env *environment) newEngine(configure func(*syncengine.Config)) (*syncengine.Engine, error) {
	tuning := env.config.Sync
	engineConfig := syncengine.Config{
		RPC: env.client,
		Events: syncengine.EventSourceFunc(func(ctx context.Context) (syncengine.EventStream, error) {
			stream, err := env.client.Subscribe(ctx)
			if err != nil {
				return nil, err
			}
			return stream, nil
		}),
		Logger:              env.logger,
		MessageCapacity:     tuning.MessageCapacity,
		FlushInterval:       tuning.Flush(),
		LSPDebounce:         tuning.Debounce(),
		MaxBackoff:          tuning.Backoff(),
		OrphanPartTTL:       tuning.OrphanTTL(),
		SessionWindow:       tuning.Window(),
		ContinueLastSession: tuning.ContinueLastSession,
		OnDisconnect:        env.client.CloseIdleConnections,
	}
	if configure != nil {
		configure(&engineConfig)
	}
	engine, err := syncengine.New(engineConfig)
	if err != nil {
		return nil, Internal("%w", err)
	}
	return engine, nil
}

// serviceError categorizes a failed call to the service.
func (env *environment) serviceError(action string, err error) error {
	var apiError *agentclient.APIError
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case agentclient.IsNotFound(err):
		return NotFound("%s: %w", action, err)
	case errors.As(err, &apiError):
		return Internal("%s: %w", action, err)
	}
	var netError net.Error
	if errors.As(err, &netError) || errors.Is(err, context.DeadlineExceeded) {
		return Transient("%s: %w", action, err).
			WithHint("Is the agent service running at " + env.config.Server.URL + "? Set --server or server.url to point elsewhere.")
	}
	return Internal("%s: %w", action, err)
}
