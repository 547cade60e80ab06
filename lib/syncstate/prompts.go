// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncstate

import (
	"maps"
	"reflect"
	"slices"

	"github.com/bureau-foundation/console/lib/agentapi"
)

// UpsertPermission records a pending permission request.
func (s *State) UpsertPermission(request agentapi.PermissionRequest) bool {
	return upsertIn(s.permissions, request.SessionID, request)
}

// RemovePermission drops a permission request once it is answered.
func (s *State) RemovePermission(sessionID, requestID string) bool {
	return removeIn(s.permissions, sessionID, requestID)
}

// Permissions returns the pending permission requests of a session.
func (s *State) Permissions(sessionID string) []agentapi.PermissionRequest {
	return slices.Clone(s.permissions[sessionID])
}

// UpsertQuestion records a pending question.
func (s *State) UpsertQuestion(request agentapi.QuestionRequest) bool {
	return upsertIn(s.questions, request.SessionID, request)
}

// RemoveQuestion drops a question once it is answered or rejected.
func (s *State) RemoveQuestion(sessionID, requestID string) bool {
	return removeIn(s.questions, sessionID, requestID)
}

// Questions returns the pending questions of a session.
func (s *State) Questions(sessionID string) []agentapi.QuestionRequest {
	return slices.Clone(s.questions[sessionID])
}

// SetTodos replaces a session's todo list. An empty list clears it.
func (s *State) SetTodos(sessionID string, todos []agentapi.Todo) bool {
	return setList(s.todos, sessionID, todos)
}

// Todos returns a session's todo list.
func (s *State) Todos(sessionID string) []agentapi.Todo {
	return slices.Clone(s.todos[sessionID])
}

// SetDiff replaces a session's file diff summary.
func (s *State) SetDiff(sessionID string, diff []agentapi.FileDiff) bool {
	return setList(s.diffs, sessionID, diff)
}

// Diff returns a session's file diff summary.
func (s *State) Diff(sessionID string) []agentapi.FileDiff {
	return slices.Clone(s.diffs[sessionID])
}

// SetSessionStatus records the run state of one session.
func (s *State) SetSessionStatus(sessionID string, status agentapi.SessionStatus) bool {
	if current, ok := s.sessionStatus[sessionID]; ok && current == status {
		return false
	}
	s.sessionStatus[sessionID] = status
	return true
}

// SetSessionStatuses replaces every session's run state.
func (s *State) SetSessionStatuses(statuses map[string]agentapi.SessionStatus) bool {
	if maps.Equal(s.sessionStatus, statuses) {
		return false
	}
	s.sessionStatus = maps.Clone(statuses)
	if s.sessionStatus == nil {
		s.sessionStatus = make(map[string]agentapi.SessionStatus)
	}
	return true
}

// SessionStatus returns the run state of one session.
func (s *State) SessionStatus(sessionID string) (agentapi.SessionStatus, bool) {
	status, ok := s.sessionStatus[sessionID]
	return status, ok
}

func setList[T any](collection map[string][]T, owner string, items []T) bool {
	if len(items) == 0 {
		return deleteKey(collection, owner)
	}
	if reflect.DeepEqual(collection[owner], items) {
		return false
	}
	collection[owner] = slices.Clone(items)
	return true
}
