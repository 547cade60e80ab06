// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncstate

import (
	"slices"

	"github.com/bureau-foundation/console/lib/agentapi"
	"github.com/bureau-foundation/console/lib/ordered"
)

// UpsertTeam inserts or replaces a team.
func (s *State) UpsertTeam(team agentapi.Team) bool {
	var outcome ordered.Outcome
	s.teams, outcome, _ = ordered.Upsert(s.teams, team)
	return outcome.Changed()
}

// RemoveTeam deletes a team and its task board.
func (s *State) RemoveTeam(name string) bool {
	var removed bool
	s.teams, _, removed = ordered.Remove(s.teams, name)
	return deleteKey(s.teamTasks, name) || removed
}

// UpsertTeamTask inserts or replaces a task on its team's board.
func (s *State) UpsertTeamTask(task agentapi.TeamTask) bool {
	return upsertIn(s.teamTasks, task.Team, task)
}

// RemoveTeamTask deletes one task.
func (s *State) RemoveTeamTask(team, taskID string) bool {
	return removeIn(s.teamTasks, team, taskID)
}

// SetTeams replaces every team and task board.
func (s *State) SetTeams(teams []agentapi.Team, tasks []agentapi.TeamTask) bool {
	incomingTeams := ordered.Normalize(teams)
	grouped := make(map[string][]agentapi.TeamTask)
	for _, task := range tasks {
		grouped[task.Team] = append(grouped[task.Team], task)
	}
	for team, board := range grouped {
		grouped[team] = ordered.Normalize(board)
	}

	changed := !ordered.Equal(s.teams, incomingTeams) || len(grouped) != len(s.teamTasks)
	if !changed {
		for team, board := range grouped {
			if !ordered.Equal(s.teamTasks[team], board) {
				changed = true
				break
			}
		}
	}
	if !changed {
		return false
	}
	s.teams = incomingTeams
	s.teamTasks = grouped
	return true
}

// Teams returns every team in name order.
func (s *State) Teams() []agentapi.Team { return slices.Clone(s.teams) }

// TeamTasks returns one team's task board in id order.
func (s *State) TeamTasks(team string) []agentapi.TeamTask {
	return slices.Clone(s.teamTasks[team])
}
