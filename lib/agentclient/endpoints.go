// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package agentclient

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"github.com/bureau-foundation/console/lib/agentapi"
)

// ListSessions returns sessions updated at or after start. A zero
// start lists every session.
func (c *Client) ListSessions(ctx context.Context, start time.Time) ([]agentapi.Session, error) {
	var query url.Values
	if !start.IsZero() {
		query = url.Values{"start": {strconv.FormatInt(start.UnixMilli(), 10)}}
	}
	var sessions []agentapi.Session
	err := c.get(ctx, "/session", query, &sessions)
	return sessions, err
}

// GetSession returns one session.
func (c *Client) GetSession(ctx context.Context, sessionID string) (agentapi.Session, error) {
	var session agentapi.Session
	err := c.get(ctx, sessionPath(sessionID, ""), nil, &session)
	return session, err
}

// SessionMessages returns the newest limit messages of a session with
// their parts. A limit of zero or less lets the server decide.
func (c *Client) SessionMessages(ctx context.Context, sessionID string, limit int) ([]agentapi.MessageWithParts, error) {
	var query url.Values
	if limit > 0 {
		query = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	var messages []agentapi.MessageWithParts
	err := c.get(ctx, sessionPath(sessionID, "/message"), query, &messages)
	return messages, err
}

// SessionTodos returns a session's todo list.
func (c *Client) SessionTodos(ctx context.Context, sessionID string) ([]agentapi.Todo, error) {
	var todos []agentapi.Todo
	err := c.get(ctx, sessionPath(sessionID, "/todo"), nil, &todos)
	return todos, err
}

// SessionDiff returns a session's file diff summary.
func (c *Client) SessionDiff(ctx context.Context, sessionID string) ([]agentapi.FileDiff, error) {
	var diff []agentapi.FileDiff
	err := c.get(ctx, sessionPath(sessionID, "/diff"), nil, &diff)
	return diff, err
}

// SessionStatuses returns the run state of every active session.
func (c *Client) SessionStatuses(ctx context.Context) (map[string]agentapi.SessionStatus, error) {
	var statuses map[string]agentapi.SessionStatus
	err := c.get(ctx, "/session/status", nil, &statuses)
	return statuses, err
}

func (c *Client) ConfigProviders(ctx context.Context) (agentapi.ConfigProviders, error) {
	var providers agentapi.ConfigProviders
	err := c.get(ctx, "/config/providers", nil, &providers)
	return providers, err
}

func (c *Client) ListProviders(ctx context.Context) (agentapi.ProviderCatalog, error) {
	var catalog agentapi.ProviderCatalog
	err := c.get(ctx, "/provider", nil, &catalog)
	return catalog, err
}

func (c *Client) ProviderAuth(ctx context.Context) (map[string][]agentapi.ProviderAuthMethod, error) {
	var methods map[string][]agentapi.ProviderAuthMethod
	err := c.get(ctx, "/provider/auth", nil, &methods)
	return methods, err
}

func (c *Client) ListAgents(ctx context.Context) ([]agentapi.Agent, error) {
	var agents []agentapi.Agent
	err := c.get(ctx, "/agent", nil, &agents)
	return agents, err
}

// GetConfig returns the server's resolved configuration unparsed.
func (c *Client) GetConfig(ctx context.Context) (json.RawMessage, error) {
	var config json.RawMessage
	err := c.get(ctx, "/config", nil, &config)
	return config, err
}

func (c *Client) ListCommands(ctx context.Context) ([]agentapi.Command, error) {
	var commands []agentapi.Command
	err := c.get(ctx, "/command", nil, &commands)
	return commands, err
}

func (c *Client) LSPStatus(ctx context.Context) ([]agentapi.LSPStatus, error) {
	var servers []agentapi.LSPStatus
	err := c.get(ctx, "/lsp", nil, &servers)
	return servers, err
}

func (c *Client) MCPStatus(ctx context.Context) (map[string]agentapi.MCPStatus, error) {
	var servers map[string]agentapi.MCPStatus
	err := c.get(ctx, "/mcp", nil, &servers)
	return servers, err
}

func (c *Client) FormatterStatus(ctx context.Context) ([]agentapi.FormatterStatus, error) {
	var formatters []agentapi.FormatterStatus
	err := c.get(ctx, "/formatter", nil, &formatters)
	return formatters, err
}

func (c *Client) VCS(ctx context.Context) (agentapi.VCSInfo, error) {
	var info agentapi.VCSInfo
	err := c.get(ctx, "/vcs", nil, &info)
	return info, err
}

func (c *Client) Path(ctx context.Context) (agentapi.PathInfo, error) {
	var path agentapi.PathInfo
	err := c.get(ctx, "/path", nil, &path)
	return path, err
}

func (c *Client) ListTeams(ctx context.Context) ([]agentapi.Team, error) {
	var teams []agentapi.Team
	err := c.get(ctx, "/team", nil, &teams)
	return teams, err
}

// ListTeamTasks returns the tasks of every team.
func (c *Client) ListTeamTasks(ctx context.Context) ([]agentapi.TeamTask, error) {
	var tasks []agentapi.TeamTask
	err := c.get(ctx, "/team/task", nil, &tasks)
	return tasks, err
}
