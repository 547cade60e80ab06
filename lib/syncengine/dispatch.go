// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncengine

import (
	"encoding/json"
	"log/slog"

	"github.com/bureau-foundation/console/lib/agentapi"
	"github.com/bureau-foundation/console/lib/syncstate"
)

// effects collects what a batch needs done outside the store lock.
type effects struct {
	refreshLSP  bool
	rebootstrap bool
	forget      []string
}

// applyBatch applies a batch of events in one store update, sweeps
// expired orphan parts, then runs the side effects the batch asked for.
func (e *Engine) applyBatch(events []agentapi.Event) {
	var pending effects
	e.store.Update(func(state *syncstate.State) bool {
		changed := false
		for _, event := range events {
			changed = e.dispatch(state, event, &pending) || changed
		}
		return state.SweepOrphans(e.config.OrphanPartTTL) || changed
	})

	for _, sessionID := range pending.forget {
		e.forgetSession(sessionID)
	}
	if pending.refreshLSP {
		e.refresher.Trigger()
	}
	if pending.rebootstrap {
		e.rebootstrap()
	}
}

// dispatch applies one event to state and reports whether it changed
// anything. Unknown event types and payloads that do not decode are
// ignored.
func (e *Engine) dispatch(state *syncstate.State, event agentapi.Event, pending *effects) bool {
	switch event.Type {
	case agentapi.EventSessionUpdated:
		if payload, ok := decode[agentapi.SessionInfo](e.logger, event); ok {
			return state.UpsertSession(payload.Info)
		}
	case agentapi.EventSessionDeleted:
		if payload, ok := decode[agentapi.SessionInfo](e.logger, event); ok {
			e.deletions.record(payload.Info.ID)
			pending.forget = append(pending.forget, payload.Info.ID)
			return state.RemoveSession(payload.Info.ID)
		}
	case agentapi.EventSessionStatus:
		if payload, ok := decode[agentapi.SessionStatusProperties](e.logger, event); ok {
			return state.SetSessionStatus(payload.SessionID, payload.Status)
		}
	case agentapi.EventSessionDiff:
		if payload, ok := decode[agentapi.SessionDiffProperties](e.logger, event); ok {
			return state.SetDiff(payload.SessionID, payload.Diff)
		}
	case agentapi.EventTodoUpdated:
		if payload, ok := decode[agentapi.TodoProperties](e.logger, event); ok {
			return state.SetTodos(payload.SessionID, payload.Todos)
		}

	case agentapi.EventMessageUpdated:
		if payload, ok := decode[agentapi.MessageInfo](e.logger, event); ok {
			return state.UpsertMessage(payload.Info)
		}
	case agentapi.EventMessageRemoved:
		if payload, ok := decode[agentapi.MessageRemovedProperties](e.logger, event); ok {
			return state.RemoveMessage(payload.SessionID, payload.MessageID)
		}
	case agentapi.EventMessagePartUpdated:
		if payload, ok := decode[agentapi.PartInfo](e.logger, event); ok {
			return state.UpsertPart(payload.Part)
		}
	case agentapi.EventMessagePartRemoved:
		if payload, ok := decode[agentapi.PartRemovedProperties](e.logger, event); ok {
			return state.RemovePart(payload.MessageID, payload.PartID)
		}

	case agentapi.EventPermissionAsked:
		if payload, ok := decode[agentapi.PermissionRequest](e.logger, event); ok {
			return state.UpsertPermission(payload)
		}
	case agentapi.EventPermissionReplied:
		if payload, ok := decode[agentapi.ReplyProperties](e.logger, event); ok {
			return state.RemovePermission(payload.SessionID, payload.RequestID)
		}
	case agentapi.EventQuestionAsked:
		if payload, ok := decode[agentapi.QuestionRequest](e.logger, event); ok {
			return state.UpsertQuestion(payload)
		}
	case agentapi.EventQuestionReplied, agentapi.EventQuestionRejected:
		if payload, ok := decode[agentapi.ReplyProperties](e.logger, event); ok {
			return state.RemoveQuestion(payload.SessionID, payload.RequestID)
		}

	case agentapi.EventTeamUpdated:
		if payload, ok := decode[agentapi.TeamInfo](e.logger, event); ok {
			return state.UpsertTeam(payload.Info)
		}
	case agentapi.EventTeamDeleted:
		if payload, ok := decode[agentapi.TeamDeletedProperties](e.logger, event); ok {
			return state.RemoveTeam(payload.Name)
		}
	case agentapi.EventTeamTaskUpdated:
		if payload, ok := decode[agentapi.TeamTaskInfo](e.logger, event); ok {
			return state.UpsertTeamTask(payload.Task)
		}
	case agentapi.EventTeamTaskDeleted:
		if payload, ok := decode[agentapi.TeamTaskDeletedProperties](e.logger, event); ok {
			return state.RemoveTeamTask(payload.Team, payload.TaskID)
		}

	case agentapi.EventVCSBranchUpdated:
		if payload, ok := decode[agentapi.VCSBranchProperties](e.logger, event); ok {
			return state.SetVCSBranch(payload.Branch)
		}
	case agentapi.EventLSPUpdated:
		pending.refreshLSP = true
	case agentapi.EventServerInstanceDisposed:
		pending.rebootstrap = true
	case agentapi.EventServerConnected:
	default:
		e.logger.Debug("ignoring unknown event", "type", event.Type)
	}
	return false
}

func decode[T any](logger *slog.Logger, event agentapi.Event) (T, bool) {
	var payload T
	if err := json.Unmarshal(event.Properties, &payload); err != nil {
		logger.Debug("ignoring malformed event", "type", event.Type, "error", err)
		return payload, false
	}
	return payload, true
}
