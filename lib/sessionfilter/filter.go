// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sessionfilter ranks sessions against a typed query with
// fzf's matching algorithm.
//
// A query is split on whitespace into terms. A session matches when
// every term fuzzy-matches its title or its id; its score is the sum
// of the best per-term scores. Matching is case-insensitive unless a
// term contains an upper-case letter (fzf's "smart case").
package sessionfilter

import (
	"cmp"
	"slices"
	"strings"
	"unicode"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"

	"github.com/bureau-foundation/console/lib/agentapi"
)

func init() {
	algo.Init("default")
}

// Slab sizes match fzf's own defaults.
const (
	slab16Size = 100 * 1024
	slab32Size = 2048
)

// Match is one ranked session.
type Match struct {
	Session agentapi.Session
	Score   int
}

// Filter holds the scratch memory fzf matches in. A Filter is not
// safe for concurrent use.
type Filter struct {
	slab *util.Slab
}

// New returns a Filter.
func New() *Filter {
	return &Filter{slab: util.MakeSlab(slab16Size, slab32Size)}
}

type term struct {
	pattern       []rune
	caseSensitive bool
}

func parseQuery(query string) []term {
	var terms []term
	for _, field := range strings.Fields(query) {
		caseSensitive := strings.IndexFunc(field, unicode.IsUpper) >= 0
		if !caseSensitive {
			field = strings.ToLower(field)
		}
		terms = append(terms, term{pattern: []rune(field), caseSensitive: caseSensitive})
	}
	return terms
}

// Rank returns the sessions matching query, best first. Ties go to
// the most recently updated session. An empty query matches every
// session, ordered by recency.
func (f *Filter) Rank(sessions []agentapi.Session, query string) []Match {
	terms := parseQuery(query)
	matches := make([]Match, 0, len(sessions))
	for _, session := range sessions {
		score, ok := f.score(session, terms)
		if ok {
			matches = append(matches, Match{Session: session, Score: score})
		}
	}
	slices.SortStableFunc(matches, func(a, b Match) int {
		if order := cmp.Compare(b.Score, a.Score); order != 0 {
			return order
		}
		if order := cmp.Compare(b.Session.Time.Updated, a.Session.Time.Updated); order != 0 {
			return order
		}
		return cmp.Compare(a.Session.ID, b.Session.ID)
	})
	return matches
}

// Sessions is Rank without the scores.
func (f *Filter) Sessions(sessions []agentapi.Session, query string) []agentapi.Session {
	matches := f.Rank(sessions, query)
	result := make([]agentapi.Session, len(matches))
	for i, match := range matches {
		result[i] = match.Session
	}
	return result
}

func (f *Filter) score(session agentapi.Session, terms []term) (int, bool) {
	total := 0
	for _, term := range terms {
		best := 0
		for _, field := range []string{session.Title, session.ID} {
			if field == "" {
				continue
			}
			chars := util.ToChars([]byte(field))
			result, _ := algo.FuzzyMatchV2(term.caseSensitive, true, true, &chars, term.pattern, false, f.slab)
			if result.Start >= 0 && result.Score > best {
				best = result.Score
			}
		}
		if best == 0 {
			return 0, false
		}
		total += best
	}
	return total, true
}
