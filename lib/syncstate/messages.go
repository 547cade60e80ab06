// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncstate

import (
	"slices"
	"time"

	"github.com/bureau-foundation/console/lib/agentapi"
	"github.com/bureau-foundation/console/lib/ordered"
)

// UpsertMessage inserts or replaces a message in its session's buffer.
//
// When the insert pushes the buffer past capacity the lowest id is
// evicted, and the evicted message loses its owner entry, its parts,
// its join entry and its token contribution. If the message was
// previously owned by a different session it is detached from that
// session first. If parts for the message were parked before it
// arrived they are joined and counted now.
func (s *State) UpsertMessage(message agentapi.Message) bool {
	sessionID := message.SessionID
	buffer, outcome, _ := ordered.Upsert(s.messages[sessionID], message)
	if !outcome.Changed() {
		return false
	}

	var evicted string
	if len(buffer) > s.capacity {
		evicted = buffer[0].ID
		buffer = slices.Delete(buffer, 0, 1)
	}
	s.messages[sessionID] = buffer

	owner, owned := s.messageOwner[message.ID]
	moved := owned && owner != sessionID
	if moved {
		s.detach(owner, message.ID)
		owned = false
	}
	_, hadParts := s.parts[message.ID]
	if !owned {
		s.messageOwner[message.ID] = sessionID
		if hadParts {
			s.join(sessionID, message.ID)
		}
	}

	if evicted != "" {
		s.dropMessage(sessionID, evicted)
	}
	// A message inserted below a full buffer evicts itself. That only
	// changes anything if it took parked parts or an old owner with it.
	return evicted != message.ID || hadParts || moved
}

// RemoveMessage deletes a message and everything derived from it.
func (s *State) RemoveMessage(sessionID, messageID string) bool {
	buffer, _, removed := ordered.Remove(s.messages[sessionID], messageID)
	if !removed {
		return false
	}
	s.setMessageBuffer(sessionID, buffer)
	s.dropMessage(sessionID, messageID)
	return true
}

// SetMessages replaces a session's message buffer with a fetched
// history. The result is the same as removing every previously held
// message that is not in messages and then upserting each of
// messages in turn: when messages exceeds capacity only the highest
// ids are kept and the rest get the eviction cascade.
func (s *State) SetMessages(sessionID string, messages []agentapi.Message) bool {
	incoming := ordered.Normalize(messages)
	var overflow []agentapi.Message
	if excess := len(incoming) - s.capacity; excess > 0 {
		overflow = incoming[:excess]
		incoming = slices.Clone(incoming[excess:])
	}

	changed := !ordered.Equal(s.messages[sessionID], incoming)

	kept := make(map[string]bool, len(incoming))
	for _, message := range incoming {
		kept[message.ID] = true
	}
	for _, message := range s.messages[sessionID] {
		if !kept[message.ID] {
			s.dropMessage(sessionID, message.ID)
		}
	}

	for _, message := range overflow {
		if owner, owned := s.messageOwner[message.ID]; owned && owner != sessionID {
			s.detach(owner, message.ID)
			changed = true
		}
		if _, hasParts := s.parts[message.ID]; hasParts {
			changed = true
		}
		s.dropMessage(sessionID, message.ID)
	}

	s.setMessageBuffer(sessionID, incoming)
	for _, message := range incoming {
		owner, owned := s.messageOwner[message.ID]
		if owned && owner == sessionID {
			continue
		}
		if owned {
			s.detach(owner, message.ID)
		}
		s.messageOwner[message.ID] = sessionID
		if _, hasParts := s.parts[message.ID]; hasParts {
			s.join(sessionID, message.ID)
		}
		changed = true
	}
	return changed
}

// UpsertPart inserts or replaces a part in its message's buffer.
//
// If the owning message is known the part is mirrored into the
// session join and the token counts move by the difference between
// the new and the replaced part. Otherwise the part is parked and the
// message is stamped as orphaned.
func (s *State) UpsertPart(part agentapi.Part) bool {
	messageID := part.MessageID
	buffer, outcome, previous := ordered.Upsert(s.parts[messageID], part)
	if !outcome.Changed() {
		return false
	}
	s.parts[messageID] = buffer

	sessionID, owned := s.messageOwner[messageID]
	if !owned {
		s.park(messageID)
		return true
	}

	byMessage := s.sessionParts[sessionID]
	if _, joined := byMessage[messageID]; !joined {
		s.join(sessionID, messageID)
		return true
	}
	byMessage[messageID] = buffer

	delta := PartTokens(part)
	if outcome == ordered.Replaced {
		delta -= PartTokens(previous)
	}
	s.addMessageTokens(sessionID, messageID, delta)
	return true
}

// RemovePart deletes one part.
func (s *State) RemovePart(messageID, partID string) bool {
	buffer, removed, ok := ordered.Remove(s.parts[messageID], partID)
	if !ok {
		return false
	}
	sessionID, owned := s.messageOwner[messageID]

	if len(buffer) == 0 {
		delete(s.parts, messageID)
		delete(s.orphanSince, messageID)
		if owned {
			s.unjoin(sessionID, messageID)
		}
		return true
	}

	s.parts[messageID] = buffer
	if owned {
		if byMessage, joined := s.sessionParts[sessionID]; joined {
			byMessage[messageID] = buffer
		}
		s.addMessageTokens(sessionID, messageID, -PartTokens(removed))
	}
	return true
}

// SetParts replaces a message's part buffer and recomputes the
// message's tokens once for the whole batch.
func (s *State) SetParts(messageID string, parts []agentapi.Part) bool {
	incoming := ordered.Normalize(parts)
	previous, had := s.parts[messageID]
	if had && ordered.Equal(previous, incoming) {
		return false
	}
	sessionID, owned := s.messageOwner[messageID]

	if len(incoming) == 0 {
		if !had {
			return false
		}
		delete(s.parts, messageID)
		delete(s.orphanSince, messageID)
		if owned {
			s.unjoin(sessionID, messageID)
		}
		return true
	}

	s.parts[messageID] = incoming
	if owned {
		s.join(sessionID, messageID)
	} else {
		s.park(messageID)
	}
	return true
}

// SweepOrphans drops parked parts whose message has not arrived
// within ttl. It returns whether anything was dropped.
func (s *State) SweepOrphans(ttl time.Duration) bool {
	cutoff := s.now().Add(-ttl)
	swept := false
	for messageID, since := range s.orphanSince {
		if since.After(cutoff) {
			continue
		}
		delete(s.orphanSince, messageID)
		delete(s.parts, messageID)
		swept = true
	}
	return swept
}

func (s *State) setMessageBuffer(sessionID string, buffer []agentapi.Message) {
	if len(buffer) == 0 {
		delete(s.messages, sessionID)
		return
	}
	s.messages[sessionID] = buffer
}

// park stamps a message whose parts arrived first. The first stamp
// wins so a steady stream of parts cannot keep an orphan alive.
func (s *State) park(messageID string) {
	if _, parked := s.orphanSince[messageID]; !parked {
		s.orphanSince[messageID] = s.now()
	}
}

// join mirrors a message's part buffer into its session and sets the
// message's token estimate from the whole buffer.
func (s *State) join(sessionID, messageID string) {
	buffer := s.parts[messageID]
	byMessage := s.sessionParts[sessionID]
	if byMessage == nil {
		byMessage = make(map[string][]agentapi.Part)
		s.sessionParts[sessionID] = byMessage
	}
	byMessage[messageID] = buffer
	delete(s.orphanSince, messageID)
	s.setMessageTokens(sessionID, messageID, EstimateTokens(buffer))
}

// unjoin removes a message from its session's join and takes its
// tokens out of the session total.
func (s *State) unjoin(sessionID, messageID string) {
	s.clearMessageTokens(sessionID, messageID)
	byMessage, ok := s.sessionParts[sessionID]
	if !ok {
		return
	}
	delete(byMessage, messageID)
	if len(byMessage) == 0 {
		delete(s.sessionParts, sessionID)
		delete(s.sessionTokens, sessionID)
	}
}

// detach moves a message out of a session it no longer belongs to.
// Its parts stay in the primary buffer for the new owner to join.
func (s *State) detach(sessionID, messageID string) {
	buffer, _, removed := ordered.Remove(s.messages[sessionID], messageID)
	if removed {
		s.setMessageBuffer(sessionID, buffer)
	}
	s.unjoin(sessionID, messageID)
	delete(s.messageOwner, messageID)
}

// dropMessage is the eviction cascade. The caller has already taken
// the message out of the session's buffer.
func (s *State) dropMessage(sessionID, messageID string) {
	s.unjoin(sessionID, messageID)
	delete(s.messageOwner, messageID)
	delete(s.parts, messageID)
	delete(s.orphanSince, messageID)
}
