// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package agentapi

import (
	"bytes"
	"encoding/json"
	"reflect"
	"slices"
)

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Part types. The server may send others; unknown types are stored
// like any other part and count zero tokens.
const (
	PartText       = "text"
	PartTool       = "tool"
	PartReasoning  = "reasoning"
	PartStepStart  = "step-start"
	PartStepFinish = "step-finish"
	PartFile       = "file"
)

// SessionTime holds session timestamps in Unix milliseconds.
type SessionTime struct {
	Created int64 `json:"created"`
	Updated int64 `json:"updated"`
}

// Session is a top-level conversation.
type Session struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	ParentID  string      `json:"parentID,omitempty"`
	Directory string      `json:"directory,omitempty"`
	Version   string      `json:"version,omitempty"`
	Time      SessionTime `json:"time"`
}

func (s Session) Key() string { return s.ID }

func (s Session) Equal(other Session) bool { return s == other }

// MessageTime holds message timestamps in Unix milliseconds.
// Completed is zero while an assistant message is still streaming.
type MessageTime struct {
	Created   int64 `json:"created"`
	Completed int64 `json:"completed,omitempty"`
}

// CacheTokens is the prompt-cache portion of a token usage report.
type CacheTokens struct {
	Read  int64 `json:"read"`
	Write int64 `json:"write"`
}

// TokenUsage is the provider-reported token usage of an assistant
// message.
type TokenUsage struct {
	Input     int64       `json:"input"`
	Output    int64       `json:"output"`
	Reasoning int64       `json:"reasoning"`
	Cache     CacheTokens `json:"cache"`
}

// Message is one turn in a session. Its content lives in parts.
type Message struct {
	ID         string          `json:"id"`
	SessionID  string          `json:"sessionID"`
	Role       Role            `json:"role"`
	Time       MessageTime     `json:"time"`
	Cost       float64         `json:"cost,omitempty"`
	Tokens     TokenUsage      `json:"tokens"`
	ProviderID string          `json:"providerID,omitempty"`
	ModelID    string          `json:"modelID,omitempty"`
	Agent      string          `json:"agent,omitempty"`
	Error      json.RawMessage `json:"error,omitempty"`
}

func (m Message) Key() string { return m.ID }

func (m Message) Equal(other Message) bool {
	return m.ID == other.ID &&
		m.SessionID == other.SessionID &&
		m.Role == other.Role &&
		m.Time == other.Time &&
		m.Cost == other.Cost &&
		m.Tokens == other.Tokens &&
		m.ProviderID == other.ProviderID &&
		m.ModelID == other.ModelID &&
		m.Agent == other.Agent &&
		bytes.Equal(m.Error, other.Error)
}

// PartTime holds part timestamps in Unix milliseconds.
type PartTime struct {
	Start int64 `json:"start,omitempty"`
	End   int64 `json:"end,omitempty"`
}

// Part is a unit of message content: a text span, a tool call, a
// reasoning trace, a step marker. Type-specific payload beyond the
// common fields is kept raw in State and Metadata.
type Part struct {
	ID        string          `json:"id"`
	SessionID string          `json:"sessionID"`
	MessageID string          `json:"messageID"`
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	Synthetic bool            `json:"synthetic,omitempty"`
	Tool      string          `json:"tool,omitempty"`
	CallID    string          `json:"callID,omitempty"`
	State     json.RawMessage `json:"state,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	Time      PartTime        `json:"time"`
}

func (p Part) Key() string { return p.ID }

func (p Part) Equal(other Part) bool {
	return p.ID == other.ID &&
		p.SessionID == other.SessionID &&
		p.MessageID == other.MessageID &&
		p.Type == other.Type &&
		p.Text == other.Text &&
		p.Synthetic == other.Synthetic &&
		p.Tool == other.Tool &&
		p.CallID == other.CallID &&
		p.Time == other.Time &&
		bytes.Equal(p.State, other.State) &&
		bytes.Equal(p.Metadata, other.Metadata)
}

// MessageWithParts is one entry of a session history response.
type MessageWithParts struct {
	Info  Message `json:"info"`
	Parts []Part  `json:"parts"`
}

// ToolRef points a prompt at the tool call that raised it.
type ToolRef struct {
	MessageID string `json:"messageID"`
	CallID    string `json:"callID"`
}

// PermissionRequest asks the user to allow a tool action.
type PermissionRequest struct {
	ID         string          `json:"id"`
	SessionID  string          `json:"sessionID"`
	Permission string          `json:"permission"`
	Patterns   []string        `json:"patterns,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	Tool       *ToolRef        `json:"tool,omitempty"`
}

func (p PermissionRequest) Key() string { return p.ID }

func (p PermissionRequest) Equal(other PermissionRequest) bool {
	return reflect.DeepEqual(p, other)
}

// QuestionRequest asks the user to answer one or more questions on
// behalf of the agent.
type QuestionRequest struct {
	ID        string          `json:"id"`
	SessionID string          `json:"sessionID"`
	Questions json.RawMessage `json:"questions,omitempty"`
	Tool      *ToolRef        `json:"tool,omitempty"`
}

func (q QuestionRequest) Key() string { return q.ID }

func (q QuestionRequest) Equal(other QuestionRequest) bool {
	return reflect.DeepEqual(q, other)
}

// Todo is one entry of a session's todo list.
type Todo struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	Status   string `json:"status"`
	Priority string `json:"priority,omitempty"`
}

// FileDiff summarizes the change a session made to one file.
type FileDiff struct {
	File      string `json:"file"`
	Before    string `json:"before,omitempty"`
	After     string `json:"after,omitempty"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// Session status types.
const (
	SessionIdle  = "idle"
	SessionBusy  = "busy"
	SessionRetry = "retry"
)

// SessionStatus is the server's run state for a session.
type SessionStatus struct {
	Type    string `json:"type"`
	Attempt int    `json:"attempt,omitempty"`
	Message string `json:"message,omitempty"`
	Next    int64  `json:"next,omitempty"`
}

// Team is a named group of agents sharing a task board.
type Team struct {
	Name    string      `json:"name"`
	Members []string    `json:"members,omitempty"`
	Time    SessionTime `json:"time"`
}

func (t Team) Key() string { return t.Name }

func (t Team) Equal(other Team) bool {
	return t.Name == other.Name && t.Time == other.Time && slices.Equal(t.Members, other.Members)
}

// Team task statuses.
const (
	TaskPending    = "pending"
	TaskInProgress = "in_progress"
	TaskCompleted  = "completed"
	TaskBlocked    = "blocked"
)

// TeamTask is an item on a team's task board. BlockedBy lists the
// ids of tasks that must complete first.
type TeamTask struct {
	ID        string   `json:"id"`
	Team      string   `json:"team"`
	Title     string   `json:"title"`
	Status    string   `json:"status"`
	Owner     string   `json:"owner,omitempty"`
	BlockedBy []string `json:"blockedBy,omitempty"`
}

func (t TeamTask) Key() string { return t.ID }

func (t TeamTask) Equal(other TeamTask) bool {
	return t.ID == other.ID &&
		t.Team == other.Team &&
		t.Title == other.Title &&
		t.Status == other.Status &&
		t.Owner == other.Owner &&
		slices.Equal(t.BlockedBy, other.BlockedBy)
}
