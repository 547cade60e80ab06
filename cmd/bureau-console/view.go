// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/console/lib/consoleui"
)

// runView runs the interactive browser. Bootstrap happens behind the
// UI, which shows the store's loading status until it completes.
// Logging goes to the status bar and the configured log file, never
// to the terminal the UI owns.
func runView(ctx context.Context, inv *invocation, args []string) error {
	flagSet := pflag.NewFlagSet("view", pflag.ContinueOnError)
	if handled, err := parseCommandFlags(inv, flagSet, "bureau-console view", args); handled || err != nil {
		return err
	}
	if flagSet.NArg() > 0 {
		return Validation("view: unexpected argument %q", flagSet.Arg(0))
	}

	var statusHandler *consoleui.LogHandler
	env, err := inv.connectWith(func(level slog.Level) slog.Handler {
		statusHandler = consoleui.NewLogHandler(max(level, slog.LevelInfo))
		return statusHandler
	})
	if err != nil {
		return err
	}
	defer env.close()

	engine, err := env.newEngine(nil)
	if err != nil {
		return err
	}
	defer engine.Dispose()

	model := consoleui.NewModel(consoleui.Config{
		Store:       engine.Store(),
		SyncSession: engine.SyncSession,
		Connection:  func() string { return string(engine.ConnectionState()) },
		Context:     ctx,
	})
	defer model.Close()

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	statusHandler.SetProgram(program)

	bootstrapDone := make(chan error, 1)
	go func() {
		err := engine.Bootstrap(ctx)
		if err == nil {
			err = engine.StartEventLoop()
		}
		bootstrapDone <- err
		if err != nil {
			program.Quit()
		}
	}()

	_, runErr := program.Run()
	engine.Dispose()

	select {
	case err := <-bootstrapDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			return env.serviceError("bootstrap", err)
		}
	default:
	}
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) && !errors.Is(runErr, context.Canceled) {
		return Internal("running the viewer: %w", runErr)
	}
	return nil
}
