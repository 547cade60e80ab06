// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncstate

import (
	"sync"

	"github.com/bureau-foundation/console/lib/agentapi"
)

// Change tells a subscriber that the store moved to Version. It
// carries no payload: subscribers re-read what they render.
type Change struct {
	Version uint64
}

// Store is the concurrency-safe wrapper around State shared by the
// sync engine (the only writer) and any number of readers.
//
// Every Update that reports a change bumps the version and notifies
// subscribers. Notification never blocks the writer: each subscriber
// channel holds one pending Change and a newer one replaces an unread
// older one, so a slow reader sees the latest version and never a
// backlog.
type Store struct {
	mutex   sync.RWMutex
	state   *State
	version uint64

	subscribers      map[int]chan Change
	nextSubscriberID int
}

// NewStore returns a Store around an empty State.
func NewStore(options Options) *Store {
	return &Store{
		state:       NewState(options),
		subscribers: make(map[int]chan Change),
	}
}

// Update runs mutate under the write lock. mutate returns whether it
// changed anything; if so the version is bumped and subscribers are
// notified. Update returns mutate's result.
func (store *Store) Update(mutate func(*State) bool) bool {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	if !mutate(store.state) {
		return false
	}
	store.version++
	change := Change{Version: store.version}
	for _, channel := range store.subscribers {
		select {
		case channel <- change:
		default:
			select {
			case <-channel:
			default:
			}
			select {
			case channel <- change:
			default:
			}
		}
	}
	return true
}

// View runs read under the read lock. read must not retain references
// into the state past its return.
func (store *Store) View(read func(*State)) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	read(store.state)
}

// Version returns the number of changing updates applied so far.
func (store *Store) Version() uint64 {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	return store.version
}

// Subscribe returns a channel that receives a Change after every
// changing Update, and a function that unsubscribes and closes the
// channel.
func (store *Store) Subscribe() (<-chan Change, func()) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	id := store.nextSubscriberID
	store.nextSubscriberID++
	channel := make(chan Change, 1)
	store.subscribers[id] = channel

	var once sync.Once
	return channel, func() {
		once.Do(func() {
			store.mutex.Lock()
			defer store.mutex.Unlock()
			delete(store.subscribers, id)
			close(channel)
		})
	}
}

// Status returns the bootstrap readiness.
func (store *Store) Status() Status {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	return store.state.Status()
}

// Sessions returns a copy of the session list.
func (store *Store) Sessions() []agentapi.Session {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	return store.state.Sessions()
}

// Session returns one session.
func (store *Store) Session(sessionID string) (agentapi.Session, bool) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	return store.state.Session(sessionID)
}

// Messages returns a copy of a session's message buffer.
func (store *Store) Messages(sessionID string) []agentapi.Message {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	return store.state.Messages(sessionID)
}

// Parts returns a copy of a message's part buffer.
func (store *Store) Parts(messageID string) []agentapi.Part {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	return store.state.Parts(messageID)
}

// SessionTokens returns the token estimate of a session.
func (store *Store) SessionTokens(sessionID string) int {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	return store.state.SessionTokens(sessionID)
}

// Metadata returns the bootstrap metadata.
func (store *Store) Metadata() Metadata {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	return store.state.Metadata()
}

// Export copies the primary content out of the store.
func (store *Store) Export() Snapshot {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	return store.state.Export()
}
