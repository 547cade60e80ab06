// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ordered

import (
	"math/rand"
	"slices"
	"testing"
)

type entry struct {
	id    string
	value int
}

func (e entry) Key() string { return e.id }
func (e entry) Equal(other entry) bool { return e == other }

func keys(items []entry) []string {
	result := make([]string, len(items))
	for index, item := range items {
		result[index] = item.id
	}
	return result
}

func TestUpsertAppendFastPath(t *testing.T) {
	var items []entry
	var outcome Outcome
	for _, id := range []string{"a", "b", "c"} {
		items, outcome, _ = Upsert(items, entry{id: id})
		if outcome != Inserted {
			t.Fatalf("Upsert(%q) outcome = %v, want inserted", id, outcome)
		}
	}
	if got := keys(items); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("keys = %v", got)
	}
}

func TestUpsertOutOfOrderInsert(t *testing.T) {
	items := []entry{{id: "a"}, {id: "c"}, {id: "e"}}
	items, outcome, _ := Upsert(items, entry{id: "d"})
	if outcome != Inserted {
		t.Fatalf("outcome = %v, want inserted", outcome)
	}
	items, _, _ = Upsert(items, entry{id: "0"})
	if got := keys(items); !slices.Equal(got, []string{"0", "a", "c", "d", "e"}) {
		t.Fatalf("keys = %v", got)
	}
}

func TestUpsertReplaceAndNoop(t *testing.T) {
	items := []entry{{id: "a", value: 1}, {id: "b", value: 1}}

	items, outcome, previous := Upsert(items, entry{id: "a", value: 2})
	if outcome != Replaced {
		t.Fatalf("outcome = %v, want replaced", outcome)
	}
	if previous.value != 1 {
		t.Fatalf("previous.value = %d, want 1", previous.value)
	}
	if items[0].value != 2 {
		t.Fatalf("items[0].value = %d, want 2", items[0].value)
	}

	_, outcome, _ = Upsert(items, entry{id: "a", value: 2})
	if outcome != Unchanged || outcome.Changed() {
		t.Fatalf("identical resend outcome = %v, want unchanged", outcome)
	}

	// The last element is also reachable through the search path.
	_, outcome, _ = Upsert(items, entry{id: "b", value: 1})
	if outcome != Unchanged {
		t.Fatalf("resend of last element outcome = %v, want unchanged", outcome)
	}
}

func TestRemove(t *testing.T) {
	items := []entry{{id: "a"}, {id: "b"}, {id: "c"}}

	items, removed, ok := Remove(items, "b")
	if !ok || removed.id != "b" {
		t.Fatalf("Remove(b) = %v, %v", removed, ok)
	}
	if got := keys(items); !slices.Equal(got, []string{"a", "c"}) {
		t.Fatalf("keys = %v", got)
	}

	items, _, ok = Remove(items, "zzz")
	if ok {
		t.Fatal("Remove of an absent key reported a change")
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
}

func TestNormalizeLastWins(t *testing.T) {
	items := Normalize([]entry{{id: "b", value: 1}, {id: "a"}, {id: "b", value: 2}})
	if got := keys(items); !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("keys = %v", got)
	}
	if items[1].value != 2 {
		t.Fatalf("duplicate resolution kept value %d, want 2", items[1].value)
	}
}

func TestUpsertRandomSequencesStaySorted(t *testing.T) {
	random := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		var items []entry
		for step := 0; step < 200; step++ {
			id := string(rune('a' + random.Intn(26)))
			id += string(rune('a' + random.Intn(26)))
			if random.Intn(4) == 0 {
				items, _, _ = Remove(items, id)
			} else {
				items, _, _ = Upsert(items, entry{id: id, value: step})
			}
			for index := 1; index < len(items); index++ {
				if items[index-1].id >= items[index].id {
					t.Fatalf("round %d step %d: not strictly sorted at %d: %v", round, step, index, keys(items))
				}
			}
		}
	}
}
