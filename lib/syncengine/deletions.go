// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncengine

import "sync"

// deletionLog remembers which sessions were deleted while fetches were
// in flight, so a fetch that started before a session.deleted event
// does not write the session back when it lands.
//
// A fetch calls begin before its first request and end after its
// result is applied. record is called from inside the store update
// that removes the session, and deletedSince from inside the update
// that applies a fetch result; the store lock orders the two. Entries
// are only kept while at least one fetch is open.
type deletionLog struct {
	mutex   sync.Mutex
	seq     uint64
	open    int
	deleted map[string]uint64
}

// begin opens a fetch window and returns its mark.
func (d *deletionLog) begin() uint64 {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.open++
	return d.seq
}

// end closes a window opened by begin.
func (d *deletionLog) end() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.open--
	if d.open == 0 {
		clear(d.deleted)
	}
}

// record notes that sessionID was deleted.
func (d *deletionLog) record(sessionID string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.open == 0 {
		return
	}
	if d.deleted == nil {
		d.deleted = make(map[string]uint64)
	}
	d.seq++
	d.deleted[sessionID] = d.seq
}

// deletedSince reports whether sessionID was deleted after the window
// with the given mark was opened.
func (d *deletionLog) deletedSince(sessionID string, mark uint64) bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.deleted[sessionID] > mark
}

// pending reports how many entries are held. Tests use it to check
// that closed windows release their entries.
func (d *deletionLog) pending() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return len(d.deleted)
}
