// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncstate

import (
	"maps"
	"slices"

	"github.com/bureau-foundation/console/lib/agentapi"
)

// Snapshot is the primary content of a State. Derived indices are not
// part of it: Import rebuilds them by replaying the setters.
type Snapshot struct {
	Status        Status                                  `json:"status"`
	Sessions      []agentapi.Session                      `json:"sessions,omitempty"`
	Messages      map[string][]agentapi.Message           `json:"messages,omitempty"`
	Parts         map[string][]agentapi.Part              `json:"parts,omitempty"`
	Permissions   map[string][]agentapi.PermissionRequest `json:"permissions,omitempty"`
	Questions     map[string][]agentapi.QuestionRequest   `json:"questions,omitempty"`
	Todos         map[string][]agentapi.Todo              `json:"todos,omitempty"`
	Diffs         map[string][]agentapi.FileDiff          `json:"diffs,omitempty"`
	SessionStatus map[string]agentapi.SessionStatus       `json:"sessionStatus,omitempty"`
	Teams         []agentapi.Team                         `json:"teams,omitempty"`
	TeamTasks     map[string][]agentapi.TeamTask          `json:"teamTasks,omitempty"`
	Metadata      Metadata                                `json:"metadata"`
}

// Export copies the primary content out of the state.
func (s *State) Export() Snapshot {
	return Snapshot{
		Status:        s.status,
		Sessions:      slices.Clone(s.sessions),
		Messages:      cloneLists(s.messages),
		Parts:         cloneLists(s.parts),
		Permissions:   cloneLists(s.permissions),
		Questions:     cloneLists(s.questions),
		Todos:         cloneLists(s.todos),
		Diffs:         cloneLists(s.diffs),
		SessionStatus: maps.Clone(s.sessionStatus),
		Teams:         slices.Clone(s.teams),
		TeamTasks:     cloneLists(s.teamTasks),
		Metadata:      s.metadata,
	}
}

// Import merges a snapshot into the state through the ordinary
// setters, so every invariant holds afterwards. Sessions are set
// first, then messages, then parts, so parts join their messages
// instead of being parked.
func (s *State) Import(snapshot Snapshot) bool {
	changed := s.SetSessions(snapshot.Sessions)
	for _, sessionID := range slices.Sorted(maps.Keys(snapshot.Messages)) {
		changed = s.SetMessages(sessionID, snapshot.Messages[sessionID]) || changed
	}
	for _, messageID := range slices.Sorted(maps.Keys(snapshot.Parts)) {
		changed = s.SetParts(messageID, snapshot.Parts[messageID]) || changed
	}
	for _, requests := range snapshot.Permissions {
		for _, request := range requests {
			changed = s.UpsertPermission(request) || changed
		}
	}
	for _, requests := range snapshot.Questions {
		for _, request := range requests {
			changed = s.UpsertQuestion(request) || changed
		}
	}
	for sessionID, todos := range snapshot.Todos {
		changed = s.SetTodos(sessionID, todos) || changed
	}
	for sessionID, diff := range snapshot.Diffs {
		changed = s.SetDiff(sessionID, diff) || changed
	}
	changed = s.SetSessionStatuses(snapshot.SessionStatus) || changed

	var tasks []agentapi.TeamTask
	for _, board := range snapshot.TeamTasks {
		tasks = append(tasks, board...)
	}
	changed = s.SetTeams(snapshot.Teams, tasks) || changed

	metadata := snapshot.Metadata
	changed = s.SetConfigProviders(metadata.Providers) || changed
	changed = s.SetProviderCatalog(metadata.Catalog) || changed
	changed = s.SetAgents(metadata.Agents) || changed
	changed = s.SetConfig(metadata.Config) || changed
	changed = s.SetCommands(metadata.Commands) || changed
	changed = s.SetLSP(metadata.LSP) || changed
	changed = s.SetMCP(metadata.MCP) || changed
	changed = s.SetFormatters(metadata.Formatters) || changed
	changed = s.SetProviderAuth(metadata.ProviderAuth) || changed
	changed = s.SetVCS(metadata.VCS) || changed
	changed = s.SetPath(metadata.Path) || changed

	if snapshot.Status != "" {
		changed = s.SetStatus(snapshot.Status) || changed
	}
	return changed
}

func cloneLists[T any](collection map[string][]T) map[string][]T {
	if len(collection) == 0 {
		return nil
	}
	result := make(map[string][]T, len(collection))
	for key, items := range collection {
		result[key] = slices.Clone(items)
	}
	return result
}
