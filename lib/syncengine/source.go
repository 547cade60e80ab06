// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncengine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bureau-foundation/console/lib/agentapi"
)

// RPC is the request/response half of the agent server API the engine
// reads from. agentclient.Client implements it.
type RPC interface {
	ListSessions(ctx context.Context, start time.Time) ([]agentapi.Session, error)
	GetSession(ctx context.Context, sessionID string) (agentapi.Session, error)
	SessionMessages(ctx context.Context, sessionID string, limit int) ([]agentapi.MessageWithParts, error)
	SessionTodos(ctx context.Context, sessionID string) ([]agentapi.Todo, error)
	SessionDiff(ctx context.Context, sessionID string) ([]agentapi.FileDiff, error)
	SessionStatuses(ctx context.Context) (map[string]agentapi.SessionStatus, error)

	ConfigProviders(ctx context.Context) (agentapi.ConfigProviders, error)
	ListProviders(ctx context.Context) (agentapi.ProviderCatalog, error)
	ProviderAuth(ctx context.Context) (map[string][]agentapi.ProviderAuthMethod, error)
	ListAgents(ctx context.Context) ([]agentapi.Agent, error)
	GetConfig(ctx context.Context) (json.RawMessage, error)
	ListCommands(ctx context.Context) ([]agentapi.Command, error)

	LSPStatus(ctx context.Context) ([]agentapi.LSPStatus, error)
	MCPStatus(ctx context.Context) (map[string]agentapi.MCPStatus, error)
	FormatterStatus(ctx context.Context) ([]agentapi.FormatterStatus, error)
	VCS(ctx context.Context) (agentapi.VCSInfo, error)
	Path(ctx context.Context) (agentapi.PathInfo, error)

	ListTeams(ctx context.Context) ([]agentapi.Team, error)
	ListTeamTasks(ctx context.Context) ([]agentapi.TeamTask, error)
}

// EventStream yields server events until it fails or is closed.
type EventStream interface {
	Next() (agentapi.Event, error)
	Close() error
}

// EventSource opens event streams.
type EventSource interface {
	Subscribe(ctx context.Context) (EventStream, error)
}

// EventSourceFunc adapts a function to EventSource.
type EventSourceFunc func(ctx context.Context) (EventStream, error)

func (f EventSourceFunc) Subscribe(ctx context.Context) (EventStream, error) { return f(ctx) }
