// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/console/lib/agentapi"
	"github.com/bureau-foundation/console/lib/sessionfilter"
	"github.com/bureau-foundation/console/lib/syncengine"
	"github.com/bureau-foundation/console/lib/syncstate"
)

// sessionRow is one line of sessions output.
type sessionRow struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Updated  int64  `json:"updated"`
	Status   string `json:"status,omitempty"`
	Messages int    `json:"messages"`
	Tokens   int    `json:"tokens"`
	Synced   bool   `json:"synced"`
}

func runSessions(ctx context.Context, inv *invocation, args []string) error {
	var (
		query      string
		jsonOutput bool
		withTokens bool
		limit      int
	)
	flagSet := pflag.NewFlagSet("sessions", pflag.ContinueOnError)
	flagSet.StringVar(&query, "filter", "", "fuzzy filter on title and id")
	flagSet.BoolVar(&jsonOutput, "json", false, "print JSON instead of a table")
	flagSet.BoolVar(&withTokens, "tokens", false, "fetch each listed session's history to count tokens")
	flagSet.IntVar(&limit, "limit", 0, "list at most this many sessions (0 for all)")
	if handled, err := parseCommandFlags(inv, flagSet, "bureau-console sessions [--filter QUERY] [--tokens] [--json]", args); handled || err != nil {
		return err
	}
	if flagSet.NArg() > 0 {
		return Validation("sessions: unexpected argument %q", flagSet.Arg(0))
	}

	env, err := inv.connect(inv.stderr)
	if err != nil {
		return err
	}
	defer env.close()

	engine, err := env.newEngine(func(config *syncengine.Config) {
		// The listing is the whole point here.
		config.ContinueLastSession = true
	})
	if err != nil {
		return err
	}
	defer engine.Dispose()

	if err := engine.Bootstrap(ctx); err != nil {
		return env.serviceError("loading sessions", err)
	}

	store := engine.Store()
	// Session run states arrive with the secondary fetches.
	if err := waitForComplete(ctx, store); err != nil {
		return err
	}
	sessions := sessionfilter.New().Sessions(store.Sessions(), query)
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}

	if withTokens {
		for _, session := range sessions {
			if err := engine.SyncSession(ctx, session.ID); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				env.logger.Warn("fetching session history failed", "session", session.ID, "error", err)
			}
		}
	}

	rows := sessionRows(store, sessions, withTokens)
	if jsonOutput {
		encoder := json.NewEncoder(inv.stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(rows)
	}
	if len(rows) == 0 {
		if query != "" {
			fmt.Fprintf(inv.stdout, "No sessions match %q.\n", query)
		} else {
			fmt.Fprintln(inv.stdout, "No sessions.")
		}
		return nil
	}
	fmt.Fprint(inv.stdout, renderSessionTable(newRenderer(inv.stdout), rows, terminalWidth(inv.stdout)))
	return nil
}

func sessionRows(store *syncstate.Store, sessions []agentapi.Session, synced bool) []sessionRow {
	rows := make([]sessionRow, 0, len(sessions))
	store.View(func(state *syncstate.State) {
		for _, session := range sessions {
			row := sessionRow{
				ID:      session.ID,
				Title:   session.Title,
				Updated: session.Time.Updated,
				Synced:  synced,
			}
			if status, ok := state.SessionStatus(session.ID); ok {
				row.Status = status.Type
			}
			if synced {
				row.Messages = len(state.Messages(session.ID))
				row.Tokens = state.SessionTokens(session.ID)
			}
			rows = append(rows, row)
		}
	})
	return rows
}

// waitForComplete blocks until every bootstrap fetch has finished.
func waitForComplete(ctx context.Context, store *syncstate.Store) error {
	changes, unsubscribe := store.Subscribe()
	defer unsubscribe()
	for store.Status() != syncstate.StatusComplete {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changes:
		}
	}
	return nil
}
