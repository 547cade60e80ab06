// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncengine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bureau-foundation/console/lib/agentapi"
	"github.com/bureau-foundation/console/lib/syncstate"
)

// syncCall is one in-flight SyncSession fetch shared by every caller
// for the same session.
type syncCall struct {
	done chan struct{}
	err  error
}

// SyncSession loads a session's metadata, its newest messages with
// parts, its todo list and its diff, and applies them in one update.
//
// Once a session has synced, later calls return immediately: the
// event stream keeps it current. Concurrent calls for the same session
// share one fetch. A session is synced again after it is deleted or
// the server instance is disposed. A session deleted while its fetch
// is in flight stays deleted.
func (e *Engine) SyncSession(ctx context.Context, sessionID string) error {
	e.syncMutex.Lock()
	if e.synced[sessionID] {
		e.syncMutex.Unlock()
		return nil
	}
	if call, ok := e.syncing[sessionID]; ok {
		e.syncMutex.Unlock()
		select {
		case <-call.done:
			return call.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	call := &syncCall{done: make(chan struct{})}
	e.syncing[sessionID] = call
	generation := e.syncGeneration
	e.syncMutex.Unlock()

	mark := e.deletions.begin()
	call.err = e.fetchSession(ctx, sessionID, mark)

	e.syncMutex.Lock()
	delete(e.syncing, sessionID)
	if call.err == nil && generation == e.syncGeneration && !e.deletions.deletedSince(sessionID, mark) {
		e.synced[sessionID] = true
	}
	e.syncMutex.Unlock()
	e.deletions.end()
	close(call.done)
	return call.err
}

// fetchSession fetches and applies one session. A session deleted
// after mark is left deleted: the fetched result is dropped.
func (e *Engine) fetchSession(ctx context.Context, sessionID string, mark uint64) error {
	var (
		wg      sync.WaitGroup
		session agentapi.Session
		history []agentapi.MessageWithParts
		todos   []agentapi.Todo
		diff    []agentapi.FileDiff
		errs    [4]error
	)
	wg.Add(4)
	go func() {
		defer wg.Done()
		session, errs[0] = e.rpc.GetSession(ctx, sessionID)
	}()
	go func() {
		defer wg.Done()
		history, errs[1] = e.rpc.SessionMessages(ctx, sessionID, e.config.MessageCapacity)
	}()
	go func() {
		defer wg.Done()
		todos, errs[2] = e.rpc.SessionTodos(ctx, sessionID)
	}()
	go func() {
		defer wg.Done()
		diff, errs[3] = e.rpc.SessionDiff(ctx, sessionID)
	}()
	wg.Wait()
	if err := errors.Join(errs[:]...); err != nil {
		return fmt.Errorf("syncengine: syncing session %s: %w", sessionID, err)
	}

	messages := make([]agentapi.Message, len(history))
	for i, entry := range history {
		messages[i] = entry.Info
		if messages[i].SessionID == "" {
			messages[i].SessionID = sessionID
		}
	}

	e.store.Update(func(state *syncstate.State) bool {
		if e.deletions.deletedSince(sessionID, mark) {
			e.logger.Debug("dropping history of session deleted during sync", "session", sessionID)
			return false
		}
		changed := state.UpsertSession(session)
		changed = state.SetMessages(sessionID, messages) || changed
		for _, entry := range history {
			// Messages trimmed to capacity are not owned; their parts
			// would only be parked and swept.
			if owner, ok := state.MessageOwner(entry.Info.ID); !ok || owner != sessionID {
				continue
			}
			changed = state.SetParts(entry.Info.ID, entry.Parts) || changed
		}
		changed = state.SetTodos(sessionID, todos) || changed
		changed = state.SetDiff(sessionID, diff) || changed
		return changed
	})
	return nil
}

// forgetSession makes the next SyncSession for sessionID fetch again.
func (e *Engine) forgetSession(sessionID string) {
	e.syncMutex.Lock()
	defer e.syncMutex.Unlock()
	delete(e.synced, sessionID)
}

func (e *Engine) forgetAllSessions() {
	e.syncMutex.Lock()
	defer e.syncMutex.Unlock()
	clear(e.synced)
	e.syncGeneration++
}
