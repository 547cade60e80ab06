// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncstate

import (
	"unicode/utf8"

	"github.com/bureau-foundation/console/lib/agentapi"
)

// PartTokens estimates the tokens of one part: a quarter of the
// character count of text parts, rounded up. Other part types count
// zero.
func PartTokens(part agentapi.Part) int {
	if part.Type != agentapi.PartText {
		return 0
	}
	return (utf8.RuneCountInString(part.Text) + 3) / 4
}

// EstimateTokens sums PartTokens over a buffer.
func EstimateTokens(parts []agentapi.Part) int {
	total := 0
	for _, part := range parts {
		total += PartTokens(part)
	}
	return total
}

func (s *State) setMessageTokens(sessionID, messageID string, value int) {
	previous := s.messageTokens[messageID]
	s.messageTokens[messageID] = value
	s.applySessionDelta(sessionID, value-previous)
}

func (s *State) addMessageTokens(sessionID, messageID string, delta int) {
	s.messageTokens[messageID] += delta
	s.applySessionDelta(sessionID, delta)
}

func (s *State) clearMessageTokens(sessionID, messageID string) {
	previous, ok := s.messageTokens[messageID]
	if !ok {
		return
	}
	delete(s.messageTokens, messageID)
	s.applySessionDelta(sessionID, -previous)
}

// applySessionDelta moves the session total, clamped at zero.
func (s *State) applySessionDelta(sessionID string, delta int) {
	total := s.sessionTokens[sessionID] + delta
	if total < 0 {
		total = 0
	}
	s.sessionTokens[sessionID] = total
}
