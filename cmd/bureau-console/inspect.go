// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/console/lib/consoleui"
	"github.com/bureau-foundation/console/lib/snapshot"
	"github.com/bureau-foundation/console/lib/syncstate"
)

type snapshotSummary struct {
	Version     uint8            `json:"version"`
	Compression string           `json:"compression"`
	Size        uint64           `json:"size"`
	Checksum    string           `json:"checksum"`
	Status      string           `json:"status"`
	Sessions    []sessionSummary `json:"sessions"`
	Agents      int              `json:"agents"`
	Commands    int              `json:"commands"`
	Providers   int              `json:"providers"`
	Branch      string           `json:"branch,omitempty"`
	Teams       int              `json:"teams"`
}

type sessionSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Status      string `json:"status,omitempty"`
	Messages    int    `json:"messages"`
	Parts       int    `json:"parts"`
	Tokens      int    `json:"tokens"`
	Permissions int    `json:"permissions"`
	Questions   int    `json:"questions"`
	Todos       int    `json:"todos"`
}

func runInspect(_ context.Context, inv *invocation, args []string) error {
	var jsonOutput bool
	flagSet := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
	flagSet.BoolVar(&jsonOutput, "json", false, "print the summary as JSON")
	if handled, err := parseCommandFlags(inv, flagSet, "bureau-console inspect [--json] PATH", args); handled || err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return Validation("inspect: expected exactly one snapshot path, got %d arguments", flagSet.NArg())
	}
	path := flagSet.Arg(0)

	store, header, err := snapshot.Restore(path, syncstate.Options{})
	if errors.Is(err, fs.ErrNotExist) {
		return NotFound("snapshot %s does not exist", path)
	}
	if errors.Is(err, snapshot.ErrNotSnapshot) || errors.Is(err, snapshot.ErrChecksum) {
		return Validation("%w", err).WithHint("The file is not a bureau-console snapshot, or it was truncated or modified after it was written.")
	}
	if err != nil {
		return Internal("reading snapshot: %w", err)
	}

	summary := summarizeSnapshot(store, header)
	if jsonOutput {
		encoder := json.NewEncoder(inv.stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(summary)
	}
	printSnapshotSummary(inv, summary)
	return nil
}

func summarizeSnapshot(store *syncstate.Store, header snapshot.Header) snapshotSummary {
	summary := snapshotSummary{
		Version:     header.Version,
		Compression: header.Compression.String(),
		Size:        header.Size,
		Checksum:    hex.EncodeToString(header.Checksum[:]),
		Sessions:    []sessionSummary{},
	}
	store.View(func(state *syncstate.State) {
		summary.Status = string(state.Status())
		metadata := state.Metadata()
		summary.Agents = len(metadata.Agents)
		summary.Commands = len(metadata.Commands)
		summary.Providers = len(metadata.Catalog.All)
		summary.Branch = metadata.VCS.Branch
		summary.Teams = len(state.Teams())

		for _, session := range state.Sessions() {
			row := sessionSummary{
				ID:          session.ID,
				Title:       session.Title,
				Tokens:      state.SessionTokens(session.ID),
				Permissions: len(state.Permissions(session.ID)),
				Questions:   len(state.Questions(session.ID)),
				Todos:       len(state.Todos(session.ID)),
			}
			if status, ok := state.SessionStatus(session.ID); ok {
				row.Status = status.Type
			}
			messages := state.Messages(session.ID)
			row.Messages = len(messages)
			for _, message := range messages {
				row.Parts += len(state.Parts(message.ID))
			}
			summary.Sessions = append(summary.Sessions, row)
		}
	})
	return summary
}

func printSnapshotSummary(inv *invocation, summary snapshotSummary) {
	out := inv.stdout
	fmt.Fprintf(out, "Snapshot v%d, %s, %d bytes, blake3 %s\n",
		summary.Version, summary.Compression, summary.Size, summary.Checksum[:16])
	fmt.Fprintf(out, "Status:    %s\n", summary.Status)
	if summary.Branch != "" {
		fmt.Fprintf(out, "Branch:    %s\n", summary.Branch)
	}
	fmt.Fprintf(out, "Providers: %d  Agents: %d  Commands: %d  Teams: %d\n",
		summary.Providers, summary.Agents, summary.Commands, summary.Teams)
	fmt.Fprintf(out, "Sessions:  %d\n", len(summary.Sessions))

	for _, session := range summary.Sessions {
		fmt.Fprintln(out)
		title := session.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(out, "  %s  %s\n", session.ID, title)
		details := []string{
			fmt.Sprintf("%d messages", session.Messages),
			fmt.Sprintf("%d parts", session.Parts),
			fmt.Sprintf("%s tokens", consoleui.FormatTokens(session.Tokens)),
		}
		if session.Status != "" {
			details = append(details, session.Status)
		}
		if session.Permissions > 0 {
			details = append(details, fmt.Sprintf("%d pending permissions", session.Permissions))
		}
		if session.Questions > 0 {
			details = append(details, fmt.Sprintf("%d pending questions", session.Questions))
		}
		if session.Todos > 0 {
			details = append(details, fmt.Sprintf("%d todos", session.Todos))
		}
		fmt.Fprintf(out, "    %s\n", strings.Join(details, ", "))
	}
}
