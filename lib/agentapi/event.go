// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package agentapi

import "encoding/json"

// Event is one record of the /event stream.
type Event struct {
	Type       string          `json:"type"`
	Properties json.RawMessage `json:"properties,omitempty"`
}

// Event types understood by the client. Anything else is ignored.
const (
	EventServerConnected        = "server.connected"
	EventServerInstanceDisposed = "server.instance.disposed"

	EventSessionUpdated = "session.updated"
	EventSessionDeleted = "session.deleted"
	EventSessionStatus  = "session.status"
	EventSessionDiff    = "session.diff"
	EventTodoUpdated    = "todo.updated"

	EventMessageUpdated     = "message.updated"
	EventMessageRemoved     = "message.removed"
	EventMessagePartUpdated = "message.part.updated"
	EventMessagePartRemoved = "message.part.removed"

	EventPermissionAsked   = "permission.asked"
	EventPermissionReplied = "permission.replied"
	EventQuestionAsked     = "question.asked"
	EventQuestionReplied   = "question.replied"
	EventQuestionRejected  = "question.rejected"

	EventTeamUpdated     = "team.updated"
	EventTeamDeleted     = "team.deleted"
	EventTeamTaskUpdated = "team.task.updated"
	EventTeamTaskDeleted = "team.task.deleted"

	EventLSPUpdated       = "lsp.updated"
	EventVCSBranchUpdated = "vcs.branch.updated"
)

// SessionInfo is the payload of session.updated and session.deleted.
type SessionInfo struct {
	Info Session `json:"info"`
}

// SessionStatusProperties is the payload of session.status.
type SessionStatusProperties struct {
	SessionID string        `json:"sessionID"`
	Status    SessionStatus `json:"status"`
}

// SessionDiffProperties is the payload of session.diff.
type SessionDiffProperties struct {
	SessionID string     `json:"sessionID"`
	Diff      []FileDiff `json:"diff"`
}

// TodoProperties is the payload of todo.updated.
type TodoProperties struct {
	SessionID string `json:"sessionID"`
	Todos     []Todo `json:"todos"`
}

// MessageInfo is the payload of message.updated.
type MessageInfo struct {
	Info Message `json:"info"`
}

// MessageRemovedProperties is the payload of message.removed.
type MessageRemovedProperties struct {
	SessionID string `json:"sessionID"`
	MessageID string `json:"messageID"`
}

// PartInfo is the payload of message.part.updated. Delta carries the
// text appended since the previous update of a streaming part; the
// part itself already contains the full text.
type PartInfo struct {
	Part  Part   `json:"part"`
	Delta string `json:"delta,omitempty"`
}

// PartRemovedProperties is the payload of message.part.removed.
type PartRemovedProperties struct {
	SessionID string `json:"sessionID"`
	MessageID string `json:"messageID"`
	PartID    string `json:"partID"`
}

// ReplyProperties is the payload of permission.replied,
// question.replied and question.rejected.
type ReplyProperties struct {
	SessionID string `json:"sessionID"`
	RequestID string `json:"requestID"`
	Reply     string `json:"reply,omitempty"`
}

// TeamInfo is the payload of team.updated.
type TeamInfo struct {
	Info Team `json:"info"`
}

// TeamDeletedProperties is the payload of team.deleted.
type TeamDeletedProperties struct {
	Name string `json:"name"`
}

// TeamTaskInfo is the payload of team.task.updated.
type TeamTaskInfo struct {
	Task TeamTask `json:"task"`
}

// TeamTaskDeletedProperties is the payload of team.task.deleted.
type TeamTaskDeletedProperties struct {
	Team   string `json:"team"`
	TaskID string `json:"taskID"`
}

// VCSBranchProperties is the payload of vcs.branch.updated.
type VCSBranchProperties struct {
	Branch string `json:"branch"`
}
