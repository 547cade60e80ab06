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

// applier writes one fetch result into the state.
type applier func(*syncstate.State) bool

type fetch struct {
	name string
	run  func(ctx context.Context) (applier, error)
}

func fetchInto[T any](name string, get func(context.Context) (T, error), set func(*syncstate.State, T) bool) fetch {
	return fetch{name: name, run: func(ctx context.Context) (applier, error) {
		value, err := get(ctx)
		if err != nil {
			return nil, fmt.Errorf("syncengine: fetching %s: %w", name, err)
		}
		return func(state *syncstate.State) bool { return set(state, value) }, nil
	}}
}

// runFetches runs fetches in parallel and returns the successful
// appliers in fetch order, plus the errors of the failed ones.
func runFetches(ctx context.Context, fetches []fetch) ([]applier, []error) {
	appliers := make([]applier, len(fetches))
	errs := make([]error, len(fetches))
	var wg sync.WaitGroup
	for i, f := range fetches {
		wg.Add(1)
		go func() {
			defer wg.Done()
			appliers[i], errs[i] = f.run(ctx)
		}()
	}
	wg.Wait()

	var succeeded []applier
	var failed []error
	for i := range fetches {
		if errs[i] != nil {
			failed = append(failed, errs[i])
			continue
		}
		succeeded = append(succeeded, appliers[i])
	}
	return succeeded, failed
}

func applyAll(appliers []applier) applier {
	return func(state *syncstate.State) bool {
		changed := false
		for _, apply := range appliers {
			changed = apply(state) || changed
		}
		return changed
	}
}

// sessionsFetch fetches the windowed session list. Events keep being
// applied while the request is in flight, so the result is merged with
// what they did rather than replacing the list outright.
func (e *Engine) sessionsFetch(mark uint64) fetch {
	return fetch{name: "sessions", run: func(ctx context.Context) (applier, error) {
		var known map[string]bool
		e.store.View(func(state *syncstate.State) {
			sessions := state.Sessions()
			known = make(map[string]bool, len(sessions))
			for _, session := range sessions {
				known[session.ID] = true
			}
		})
		fetched, err := e.rpc.ListSessions(ctx, e.clock.Now().Add(-e.config.SessionWindow))
		if err != nil {
			return nil, fmt.Errorf("syncengine: fetching sessions: %w", err)
		}
		return func(state *syncstate.State) bool {
			return state.SetSessions(e.mergeSessions(state, fetched, known, mark))
		}, nil
	}}
}

// mergeSessions reconciles a fetched session list with the events
// applied since the fetch started. Sessions deleted since mark are left
// out, sessions that appeared since the fetch started are kept, and a
// session updated by an event keeps the newer of the two versions.
func (e *Engine) mergeSessions(state *syncstate.State, fetched []agentapi.Session, known map[string]bool, mark uint64) []agentapi.Session {
	merged := make([]agentapi.Session, 0, len(fetched))
	listed := make(map[string]bool, len(fetched))
	for _, session := range fetched {
		if e.deletions.deletedSince(session.ID, mark) {
			continue
		}
		if current, ok := state.Session(session.ID); ok && current.Time.Updated > session.Time.Updated {
			session = current
		}
		merged = append(merged, session)
		listed[session.ID] = true
	}
	for _, session := range state.Sessions() {
		if !known[session.ID] && !listed[session.ID] {
			merged = append(merged, session)
		}
	}
	return merged
}

func (e *Engine) blockingFetches(mark uint64) []fetch {
	fetches := []fetch{
		fetchInto("config providers", e.rpc.ConfigProviders, (*syncstate.State).SetConfigProviders),
		fetchInto("providers", e.rpc.ListProviders, (*syncstate.State).SetProviderCatalog),
		fetchInto("agents", e.rpc.ListAgents, (*syncstate.State).SetAgents),
		fetchInto("config", e.rpc.GetConfig, (*syncstate.State).SetConfig),
	}
	if e.config.ContinueLastSession {
		fetches = append(fetches, e.sessionsFetch(mark))
	}
	return fetches
}

func (e *Engine) secondaryFetches(mark uint64) []fetch {
	fetches := []fetch{
		fetchInto("commands", e.rpc.ListCommands, (*syncstate.State).SetCommands),
		fetchInto("lsp status", e.rpc.LSPStatus, (*syncstate.State).SetLSP),
		fetchInto("mcp status", e.rpc.MCPStatus, (*syncstate.State).SetMCP),
		fetchInto("formatter status", e.rpc.FormatterStatus, (*syncstate.State).SetFormatters),
		fetchInto("session status", e.rpc.SessionStatuses, (*syncstate.State).SetSessionStatuses),
		fetchInto("provider auth", e.rpc.ProviderAuth, (*syncstate.State).SetProviderAuth),
		fetchInto("vcs", e.rpc.VCS, (*syncstate.State).SetVCS),
		fetchInto("path", e.rpc.Path, (*syncstate.State).SetPath),
		{name: "teams", run: e.fetchTeams},
	}
	if !e.config.ContinueLastSession {
		fetches = append(fetches, e.sessionsFetch(mark))
	}
	return fetches
}

func (e *Engine) fetchTeams(ctx context.Context) (applier, error) {
	teams, err := e.rpc.ListTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("syncengine: fetching teams: %w", err)
	}
	tasks, err := e.rpc.ListTeamTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("syncengine: fetching team tasks: %w", err)
	}
	return func(state *syncstate.State) bool { return state.SetTeams(teams, tasks) }, nil
}

// Bootstrap loads the initial state. It returns once the blocking
// fetches are applied and the store is at least partial; the remaining
// fetches continue in the background and mark the store complete when
// they finish, whether or not they succeed.
//
// A blocking fetch failure is reported to Config.OnFatal and returned;
// the store stays as it was.
func (e *Engine) Bootstrap(ctx context.Context) error {
	return e.bootstrap(ctx, true)
}

func (e *Engine) bootstrap(ctx context.Context, fatal bool) error {
	mark := e.deletions.begin()
	defer e.deletions.end()
	appliers, failures := runFetches(ctx, e.blockingFetches(mark))
	if err := errors.Join(failures...); err != nil {
		if fatal {
			e.logger.Error("bootstrap failed", "error", err)
			if e.config.OnFatal != nil {
				e.config.OnFatal(err)
			}
		}
		return err
	}

	apply := applyAll(appliers)
	e.store.Update(func(state *syncstate.State) bool {
		changed := apply(state)
		if state.Status() != syncstate.StatusComplete {
			changed = state.SetStatus(syncstate.StatusPartial) || changed
		}
		return changed
	})

	e.spawn(func() {
		mark := e.deletions.begin()
		defer e.deletions.end()
		appliers, failures := runFetches(e.ctx, e.secondaryFetches(mark))
		for _, err := range failures {
			e.logger.Debug("secondary bootstrap fetch failed", "error", err)
		}
		if e.ctx.Err() != nil {
			return
		}
		apply := applyAll(appliers)
		e.store.Update(func(state *syncstate.State) bool {
			changed := apply(state)
			return state.SetStatus(syncstate.StatusComplete) || changed
		})
	})
	return nil
}

// rebootstrap runs after the server discards its instance state.
// Failures are logged: the event loop keeps running and the next
// disposal or restart tries again.
func (e *Engine) rebootstrap() {
	e.forgetAllSessions()
	e.spawn(func() {
		if err := e.bootstrap(e.ctx, false); err != nil && e.ctx.Err() == nil {
			e.logger.Warn("re-bootstrap after instance disposal failed", "error", err)
		}
	})
}
