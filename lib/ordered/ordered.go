// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ordered maintains slices sorted ascending by a string key.
//
// Entity identifiers issued by the agent server sort lexicographically
// in creation order, so most traffic arrives with a key greater than
// every key already present. [Upsert] appends in that case and falls
// back to binary search otherwise. Every mutation reports whether it
// changed anything so callers can skip cascading work when a resend
// delivers an identical value.
package ordered

import (
	"slices"
	"strings"
)

// Item is an element that can live in an ordered slice. Key is the
// sort key; Equal reports whether replacing the receiver with other
// would be a no-op.
type Item[T any] interface {
	Key() string
	Equal(other T) bool
}

// Outcome describes what Upsert did.
type Outcome int

const (
	// Unchanged means an equal item with the same key was present.
	Unchanged Outcome = iota
	// Inserted means the key was new.
	Inserted
	// Replaced means an item with the same key was overwritten.
	Replaced
)

// Changed reports whether the slice was modified.
func (o Outcome) Changed() bool { return o != Unchanged }

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Replaced:
		return "replaced"
	default:
		return "unchanged"
	}
}

// Search returns the index of key in items, or the index at which it
// would be inserted, and whether it was found.
func Search[T Item[T]](items []T, key string) (int, bool) {
	return slices.BinarySearchFunc(items, key, func(item T, target string) int {
		return strings.Compare(item.Key(), target)
	})
}

// Find returns the item with the given key.
func Find[T Item[T]](items []T, key string) (T, bool) {
	index, found := Search(items, key)
	if !found {
		var zero T
		return zero, false
	}
	return items[index], true
}

// Upsert inserts item in key order or replaces the item with the same
// key. It returns the updated slice, the outcome, and the previous
// value when the outcome is Replaced or Unchanged.
func Upsert[T Item[T]](items []T, item T) ([]T, Outcome, T) {
	var previous T
	key := item.Key()
	if len(items) == 0 || items[len(items)-1].Key() < key {
		return append(items, item), Inserted, previous
	}

	index, found := Search(items, key)
	if found {
		previous = items[index]
		if previous.Equal(item) {
			return items, Unchanged, previous
		}
		items[index] = item
		return items, Replaced, previous
	}
	return slices.Insert(items, index, item), Inserted, previous
}

// Remove deletes the item with the given key. Absent keys are a no-op.
func Remove[T Item[T]](items []T, key string) ([]T, T, bool) {
	index, found := Search(items, key)
	if !found {
		var zero T
		return items, zero, false
	}
	removed := items[index]
	return slices.Delete(items, index, index+1), removed, true
}

// Normalize returns a sorted copy of items with duplicate keys
// collapsed. The last occurrence of a key wins, matching what a
// sequence of Upsert calls in slice order would produce.
func Normalize[T Item[T]](items []T) []T {
	result := make([]T, 0, len(items))
	for _, item := range items {
		result, _, _ = Upsert(result, item)
	}
	return result
}

// Equal reports whether two ordered slices hold equal items in the
// same order.
func Equal[T Item[T]](a, b []T) bool {
	return slices.EqualFunc(a, b, func(x, y T) bool {
		return x.Key() == y.Key() && x.Equal(y)
	})
}
