// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/console/lib/snapshot"
	"github.com/bureau-foundation/console/lib/syncengine"
	"github.com/bureau-foundation/console/lib/syncstate"
	"github.com/bureau-foundation/console/lib/version"
)

func runWatch(ctx context.Context, inv *invocation, args []string) error {
	var (
		sessionIDs   []string
		snapshotPath string
		compression  string
	)
	flagSet := pflag.NewFlagSet("watch", pflag.ContinueOnError)
	flagSet.StringArrayVar(&sessionIDs, "session", nil, "sync this session's history (repeatable)")
	flagSet.StringVar(&snapshotPath, "snapshot", "", "write a store snapshot here on exit, overriding snapshot.path")
	flagSet.StringVar(&compression, "compression", "", "snapshot compression: none, lz4 or zstd, overriding snapshot.compression")
	if handled, err := parseCommandFlags(inv, flagSet, "bureau-console watch [--session ID]... [--snapshot PATH]", args); handled || err != nil {
		return err
	}
	if flagSet.NArg() > 0 {
		return Validation("watch: unexpected argument %q", flagSet.Arg(0))
	}

	env, err := inv.connect(inv.stderr)
	if err != nil {
		return err
	}
	defer env.close()

	if snapshotPath == "" {
		snapshotPath = env.config.Snapshot.Path
	}
	if compression == "" {
		compression = env.config.Snapshot.Compression
	}
	snapshotCompression, err := snapshot.ParseCompression(compression)
	if err != nil {
		return Validation("watch: %w", err)
	}

	engine, err := env.newEngine(nil)
	if err != nil {
		return err
	}
	defer engine.Dispose()

	if err := engine.Bootstrap(ctx); err != nil {
		return env.serviceError("bootstrap", err)
	}
	for _, sessionID := range sessionIDs {
		if err := engine.SyncSession(ctx, sessionID); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return env.serviceError("syncing session "+sessionID, err)
		}
	}
	if err := engine.StartEventLoop(); err != nil {
		return Internal("%w", err)
	}

	store := engine.Store()
	changes, unsubscribe := store.Subscribe()
	defer unsubscribe()

	env.logger.Info("watching",
		"server", env.config.Server.URL,
		"sessions", len(sessionIDs),
		"build", version.Info(),
	)
	logChange(env, engine, sessionIDs)
	for {
		select {
		case <-ctx.Done():
			engine.Dispose()
			return writeSnapshot(env, store, snapshotPath, snapshotCompression)
		case <-changes:
			logChange(env, engine, sessionIDs)
		}
	}
}

// logChange logs one summary line for the current store contents.
func logChange(env *environment, engine *syncengine.Engine, sessionIDs []string) {
	attributes := []any{"connection", string(engine.ConnectionState())}
	engine.Store().View(func(state *syncstate.State) {
		attributes = append(attributes,
			"status", string(state.Status()),
			"sessions", len(state.Sessions()),
		)
		for _, sessionID := range sessionIDs {
			attributes = append(attributes, sessionID, state.SessionTokens(sessionID))
		}
	})
	env.logger.Info("store changed", append([]any{"version", engine.Store().Version()}, attributes...)...)
}

func writeSnapshot(env *environment, store *syncstate.Store, path string, compression snapshot.Compression) error {
	if path == "" {
		return nil
	}
	header, err := snapshot.WriteFile(path, store.Export(), compression)
	if err != nil {
		return Internal("writing snapshot: %w", err)
	}
	env.logger.Info("snapshot written",
		"path", path,
		"bytes", header.Size,
		"compression", header.Compression.String(),
	)
	return nil
}
