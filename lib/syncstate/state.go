// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncstate

import (
	"encoding/json"
	"maps"
	"reflect"
	"slices"
	"time"

	"github.com/bureau-foundation/console/lib/agentapi"
	"github.com/bureau-foundation/console/lib/ordered"
)

// DefaultMessageCapacity is the per-session message buffer size.
const DefaultMessageCapacity = 100

// Status is the coarse readiness of the cache.
type Status string

const (
	// StatusLoading means the blocking bootstrap fetches are
	// outstanding and nothing should be rendered yet.
	StatusLoading Status = "loading"
	// StatusPartial means blocking data is present and secondary
	// fetches are still running.
	StatusPartial Status = "partial"
	// StatusComplete means every bootstrap fetch has finished.
	StatusComplete Status = "complete"
)

// Options configures a State.
type Options struct {
	// MessageCapacity bounds each session's message buffer. Zero
	// means DefaultMessageCapacity.
	MessageCapacity int

	// Now stamps parked orphan parts. Nil means time.Now.
	Now func() time.Time
}

// Metadata is the bootstrap data that is replaced wholesale rather
// than merged. Slices and maps in a Metadata value are never mutated
// in place by State, so copies returned to readers may share them.
type Metadata struct {
	Providers    agentapi.ConfigProviders                 `json:"providers"`
	Catalog      agentapi.ProviderCatalog                 `json:"catalog"`
	Agents       []agentapi.Agent                         `json:"agents,omitempty"`
	Config       json.RawMessage                          `json:"config,omitempty"`
	Commands     []agentapi.Command                       `json:"commands,omitempty"`
	LSP          []agentapi.LSPStatus                     `json:"lsp,omitempty"`
	MCP          map[string]agentapi.MCPStatus            `json:"mcp,omitempty"`
	Formatters   []agentapi.FormatterStatus               `json:"formatters,omitempty"`
	ProviderAuth map[string][]agentapi.ProviderAuthMethod `json:"providerAuth,omitempty"`
	VCS          agentapi.VCSInfo                         `json:"vcs"`
	Path         agentapi.PathInfo                        `json:"path"`
}

// State is the cache. The zero value is not usable; call NewState.
type State struct {
	capacity int
	now      func() time.Time
	status   Status

	sessions []agentapi.Session
	messages map[string][]agentapi.Message
	parts    map[string][]agentapi.Part

	messageOwner  map[string]string
	sessionParts  map[string]map[string][]agentapi.Part
	messageTokens map[string]int
	sessionTokens map[string]int
	orphanSince   map[string]time.Time

	permissions   map[string][]agentapi.PermissionRequest
	questions     map[string][]agentapi.QuestionRequest
	todos         map[string][]agentapi.Todo
	diffs         map[string][]agentapi.FileDiff
	sessionStatus map[string]agentapi.SessionStatus

	teams     []agentapi.Team
	teamTasks map[string][]agentapi.TeamTask

	metadata Metadata
}

// NewState returns an empty cache in StatusLoading.
func NewState(options Options) *State {
	capacity := options.MessageCapacity
	if capacity <= 0 {
		capacity = DefaultMessageCapacity
	}
	now := options.Now
	if now == nil {
		now = time.Now
	}
	return &State{
		capacity:      capacity,
		now:           now,
		status:        StatusLoading,
		messages:      make(map[string][]agentapi.Message),
		parts:         make(map[string][]agentapi.Part),
		messageOwner:  make(map[string]string),
		sessionParts:  make(map[string]map[string][]agentapi.Part),
		messageTokens: make(map[string]int),
		sessionTokens: make(map[string]int),
		orphanSince:   make(map[string]time.Time),
		permissions:   make(map[string][]agentapi.PermissionRequest),
		questions:     make(map[string][]agentapi.QuestionRequest),
		todos:         make(map[string][]agentapi.Todo),
		diffs:         make(map[string][]agentapi.FileDiff),
		sessionStatus: make(map[string]agentapi.SessionStatus),
		teamTasks:     make(map[string][]agentapi.TeamTask),
	}
}

// MessageCapacity returns the per-session message bound.
func (s *State) MessageCapacity() int { return s.capacity }

// Status returns the bootstrap readiness.
func (s *State) Status() Status { return s.status }

// SetStatus records the bootstrap readiness.
func (s *State) SetStatus(status Status) bool {
	if s.status == status {
		return false
	}
	s.status = status
	return true
}

// --- sessions ---

// UpsertSession inserts or replaces a session.
func (s *State) UpsertSession(session agentapi.Session) bool {
	var outcome ordered.Outcome
	s.sessions, outcome, _ = ordered.Upsert(s.sessions, session)
	return outcome.Changed()
}

// RemoveSession deletes a session and everything it owns: messages,
// their parts, every derived entry, prompts, todos, diff and status.
func (s *State) RemoveSession(sessionID string) bool {
	var changed bool
	s.sessions, _, changed = ordered.Remove(s.sessions, sessionID)

	for _, message := range s.messages[sessionID] {
		s.dropMessage(sessionID, message.ID)
		changed = true
	}
	delete(s.messages, sessionID)

	// Dropping every message already emptied these; a session with
	// joined parts but no messages cannot exist, but clear defensively
	// so no key outlives the session.
	delete(s.sessionParts, sessionID)
	delete(s.sessionTokens, sessionID)

	changed = deleteKey(s.permissions, sessionID) || changed
	changed = deleteKey(s.questions, sessionID) || changed
	changed = deleteKey(s.todos, sessionID) || changed
	changed = deleteKey(s.diffs, sessionID) || changed
	changed = deleteKey(s.sessionStatus, sessionID) || changed
	return changed
}

// SetSessions replaces the session list. It never destroys session
// content: an unlisted session that still holds messages stays listed,
// and the prompts, todos, diff and status of unlisted sessions are
// kept. Only RemoveSession deletes a session's content.
func (s *State) SetSessions(sessions []agentapi.Session) bool {
	incoming := ordered.Normalize(sessions)
	for _, session := range s.sessions {
		if _, listed := ordered.Find(incoming, session.ID); !listed && len(s.messages[session.ID]) > 0 {
			incoming, _, _ = ordered.Upsert(incoming, session)
		}
	}
	if ordered.Equal(s.sessions, incoming) {
		return false
	}
	s.sessions = incoming
	return true
}

// Sessions returns a copy of the session list in id order.
func (s *State) Sessions() []agentapi.Session { return slices.Clone(s.sessions) }

// Session returns one session.
func (s *State) Session(sessionID string) (agentapi.Session, bool) {
	return ordered.Find(s.sessions, sessionID)
}

// --- read side for messages and parts ---

// Messages returns a copy of a session's message buffer.
func (s *State) Messages(sessionID string) []agentapi.Message {
	return slices.Clone(s.messages[sessionID])
}

// Parts returns a copy of a message's part buffer, including parts
// parked while the message is unknown.
func (s *State) Parts(messageID string) []agentapi.Part {
	return slices.Clone(s.parts[messageID])
}

// SessionParts returns a copy of the session's message-to-parts join.
func (s *State) SessionParts(sessionID string) map[string][]agentapi.Part {
	byMessage := s.sessionParts[sessionID]
	if byMessage == nil {
		return nil
	}
	result := make(map[string][]agentapi.Part, len(byMessage))
	for messageID, parts := range byMessage {
		result[messageID] = slices.Clone(parts)
	}
	return result
}

// MessageOwner returns the session that owns a message.
func (s *State) MessageOwner(messageID string) (string, bool) {
	sessionID, ok := s.messageOwner[messageID]
	return sessionID, ok
}

// MessageTokens returns the token estimate of one message.
func (s *State) MessageTokens(messageID string) int { return s.messageTokens[messageID] }

// SessionTokens returns the token estimate of a whole session.
func (s *State) SessionTokens(sessionID string) int { return s.sessionTokens[sessionID] }

// OrphanedMessages returns the ids of messages that have parked parts
// but have not arrived themselves, sorted.
func (s *State) OrphanedMessages() []string {
	return slices.Sorted(maps.Keys(s.orphanSince))
}

// --- helpers ---

func deleteKey[V any](m map[string]V, key string) bool {
	if _, ok := m[key]; !ok {
		return false
	}
	delete(m, key)
	return true
}

// assign stores value into target unless they are already deeply
// equal.
func assign[T any](target *T, value T) bool {
	if reflect.DeepEqual(*target, value) {
		return false
	}
	*target = value
	return true
}

func upsertIn[T ordered.Item[T]](collection map[string][]T, owner string, item T) bool {
	buffer, outcome, _ := ordered.Upsert(collection[owner], item)
	if !outcome.Changed() {
		return false
	}
	collection[owner] = buffer
	return true
}

func removeIn[T ordered.Item[T]](collection map[string][]T, owner, key string) bool {
	buffer, _, removed := ordered.Remove(collection[owner], key)
	if !removed {
		return false
	}
	if len(buffer) == 0 {
		delete(collection, owner)
	} else {
		collection[owner] = buffer
	}
	return true
}
