// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncengine

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/console/lib/agentapi"
	"github.com/bureau-foundation/console/lib/syncstate"
	"github.com/bureau-foundation/console/lib/testutil"
)

func TestNewRequiresRPC(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error without RPC")
	}
}

func TestBootstrapBlockingThenSecondary(t *testing.T) {
	fixture := newEngineFixture(t, nil)
	fixture.rpc.sessions = []agentapi.Session{{ID: "ses_1"}, {ID: "ses_2"}}
	fixture.rpc.teams = []agentapi.Team{{Name: "core"}}
	fixture.rpc.tasks = []agentapi.TeamTask{{ID: "task_1", Team: "core", Status: agentapi.TaskPending}}
	release := fixture.rpc.gate("ListCommands")
	store := fixture.engine.Store()

	if err := fixture.engine.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	if got := store.Status(); got != syncstate.StatusPartial {
		t.Fatalf("Status after blocking tier = %q, want partial", got)
	}
	metadata := store.Metadata()
	if len(metadata.Agents) != 2 || metadata.Providers.Default["anthropic"] != "claude" ||
		len(metadata.Catalog.Connected) != 1 || string(metadata.Config) != `{"theme":"dark"}` {
		t.Fatalf("blocking metadata not applied: %+v", metadata)
	}

	close(release)
	waitFor(t, store, "bootstrap complete", func(state *syncstate.State) bool {
		return state.Status() == syncstate.StatusComplete
	})

	store.View(func(state *syncstate.State) {
		metadata := state.Metadata()
		if len(metadata.Commands) != 1 || metadata.VCS.Branch != "main" || metadata.Path.Directory != "/work" ||
			metadata.MCP["files"].Status != "connected" || len(metadata.Formatters) != 1 || len(metadata.ProviderAuth) != 1 {
			t.Fatalf("secondary metadata not applied: %+v", metadata)
		}
		if got := len(state.Sessions()); got != 2 {
			t.Fatalf("Sessions = %d, want 2", got)
		}
		if got := state.TeamTasks("core"); len(got) != 1 {
			t.Fatalf("TeamTasks = %v", got)
		}
		if _, ok := state.SessionStatus("ses_1"); !ok {
			t.Fatal("session status not applied")
		}
	})

	wantStart := testEpoch.Add(-DefaultSessionWindow)
	fixture.rpc.mutex.Lock()
	start := fixture.rpc.sessionsStart
	fixture.rpc.mutex.Unlock()
	if !start.Equal(wantStart) {
		t.Fatalf("session window start = %v, want %v", start, wantStart)
	}
}

func TestBootstrapContinueLastSessionBlocksOnSessions(t *testing.T) {
	fixture := newEngineFixture(t, func(config *Config) {
		config.ContinueLastSession = true
	})
	fixture.rpc.sessions = []agentapi.Session{{ID: "ses_1"}}
	release := fixture.rpc.gate("ListCommands")
	defer close(release)

	if err := fixture.engine.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	if got := len(fixture.engine.Store().Sessions()); got != 1 {
		t.Fatalf("sessions not loaded by the blocking tier: %d", got)
	}
	if got := fixture.rpc.count("ListSessions"); got != 1 {
		t.Fatalf("ListSessions called %d times", got)
	}
}

func TestBootstrapMergesSessionListWithEvents(t *testing.T) {
	fixture := newEngineFixture(t, nil)
	engine := fixture.engine
	store := engine.Store()
	fixture.rpc.sessions = []agentapi.Session{
		{ID: "ses_deleted", Time: agentapi.SessionTime{Updated: 100}},
		{ID: "ses_old", Title: "listed", Time: agentapi.SessionTime{Updated: 100}},
	}
	engine.applyBatch([]agentapi.Event{
		makeEvent(t, agentapi.EventSessionUpdated, agentapi.SessionInfo{Info: agentapi.Session{ID: "ses_deleted"}}),
		makeEvent(t, agentapi.EventSessionUpdated, agentapi.SessionInfo{Info: agentapi.Session{ID: "ses_stale"}}),
	})
	release := fixture.rpc.gate("ListSessions")

	if err := engine.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	waitUntil(t, "session list fetch in flight", func() bool { return fixture.rpc.count("ListSessions") == 1 })

	engine.applyBatch([]agentapi.Event{
		makeEvent(t, agentapi.EventSessionUpdated, agentapi.SessionInfo{Info: agentapi.Session{ID: "ses_new", Time: agentapi.SessionTime{Updated: 500}}}),
		makeEvent(t, agentapi.EventMessageUpdated, agentapi.MessageInfo{Info: agentapi.Message{ID: "msg_1", SessionID: "ses_new"}}),
		makeEvent(t, agentapi.EventMessagePartUpdated, agentapi.PartInfo{Part: agentapi.Part{
			ID: "prt_1", MessageID: "msg_1", SessionID: "ses_new", Type: agentapi.PartText, Text: "abcdefgh",
		}}),
		makeEvent(t, agentapi.EventSessionUpdated, agentapi.SessionInfo{Info: agentapi.Session{
			ID: "ses_old", Title: "renamed", Time: agentapi.SessionTime{Updated: 200},
		}}),
		makeEvent(t, agentapi.EventSessionDeleted, agentapi.SessionInfo{Info: agentapi.Session{ID: "ses_deleted"}}),
	})
	close(release)
	waitFor(t, store, "bootstrap complete", func(state *syncstate.State) bool {
		return state.Status() == syncstate.StatusComplete
	})

	var ids []string
	for _, session := range store.Sessions() {
		ids = append(ids, session.ID)
	}
	if !slices.Equal(ids, []string{"ses_new", "ses_old"}) {
		t.Fatalf("Sessions = %v, want [ses_new ses_old]", ids)
	}
	if got := len(store.Messages("ses_new")); got != 1 {
		t.Fatalf("Messages(ses_new) = %d, want 1", got)
	}
	if got := store.SessionTokens("ses_new"); got != 2 {
		t.Fatalf("SessionTokens(ses_new) = %d, want 2", got)
	}
	if session, _ := store.Session("ses_old"); session.Title != "renamed" {
		t.Fatalf("ses_old title = %q, want the newer event version", session.Title)
	}
	waitUntil(t, "deletion log released", func() bool { return engine.deletions.pending() == 0 })
}

func TestBootstrapFatal(t *testing.T) {
	var fatal error
	fixture := newEngineFixture(t, func(config *Config) {
		config.OnFatal = func(err error) { fatal = err }
	})
	fixture.rpc.fail("ListAgents", errRefused)

	err := fixture.engine.Bootstrap(context.Background())
	if !errors.Is(err, errRefused) {
		t.Fatalf("Bootstrap error = %v, want %v", err, errRefused)
	}
	if !errors.Is(fatal, errRefused) {
		t.Fatalf("OnFatal received %v", fatal)
	}
	if got := fixture.engine.Store().Status(); got != syncstate.StatusLoading {
		t.Fatalf("Status = %q, want loading", got)
	}
	if got := fixture.rpc.count("ListCommands"); got != 0 {
		t.Fatalf("secondary fetches ran after a fatal failure (%d)", got)
	}
}

func TestBootstrapSecondaryFailuresSwallowed(t *testing.T) {
	fixture := newEngineFixture(t, nil)
	fixture.rpc.fail("ListCommands", errRefused)
	fixture.rpc.fail("ListTeams", errRefused)

	if err := fixture.engine.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	waitFor(t, fixture.engine.Store(), "bootstrap complete", func(state *syncstate.State) bool {
		return state.Status() == syncstate.StatusComplete
	})
	if got := fixture.engine.Store().Metadata().VCS.Branch; got != "main" {
		t.Fatalf("successful secondary fetch not applied: branch %q", got)
	}
}

func sessionHistory(sessionID string, count int) []agentapi.MessageWithParts {
	history := make([]agentapi.MessageWithParts, count)
	for i := range count {
		messageID := testutil.UniqueID("msg")
		history[i] = agentapi.MessageWithParts{
			Info: agentapi.Message{ID: messageID, SessionID: sessionID, Role: agentapi.RoleAssistant},
			Parts: []agentapi.Part{{
				ID: testutil.UniqueID("prt"), MessageID: messageID, SessionID: sessionID,
				Type: agentapi.PartText, Text: strings.Repeat("t", 40),
			}},
		}
	}
	return history
}

func TestSyncSession(t *testing.T) {
	fixture := newEngineFixture(t, func(config *Config) {
		config.MessageCapacity = 3
	})
	history := sessionHistory("ses_1", 5)
	fixture.rpc.history["ses_1"] = history
	fixture.rpc.todos["ses_1"] = []agentapi.Todo{{ID: "todo_1", Content: "review"}}
	fixture.rpc.diffs["ses_1"] = []agentapi.FileDiff{{File: "go.mod", Additions: 1}}
	store := fixture.engine.Store()

	if err := fixture.engine.SyncSession(context.Background(), "ses_1"); err != nil {
		t.Fatalf("SyncSession failed: %v", err)
	}
	messages := store.Messages("ses_1")
	if len(messages) != 3 || messages[0].ID != history[2].Info.ID {
		t.Fatalf("Messages = %+v, want the newest three", messages)
	}
	if got := store.SessionTokens("ses_1"); got != 30 {
		t.Fatalf("SessionTokens = %d, want 30", got)
	}
	if parts := store.Parts(history[0].Info.ID); parts != nil {
		t.Fatal("parts of a trimmed message were stored")
	}
	store.View(func(state *syncstate.State) {
		if len(state.Todos("ses_1")) != 1 || len(state.Diff("ses_1")) != 1 {
			t.Fatal("todos or diff not applied")
		}
		if session, ok := state.Session("ses_1"); !ok || session.Title != "session ses_1" {
			t.Fatalf("session = %+v, %v", session, ok)
		}
	})

	if err := fixture.engine.SyncSession(context.Background(), "ses_1"); err != nil {
		t.Fatalf("second SyncSession failed: %v", err)
	}
	if got := fixture.rpc.count("SessionMessages"); got != 1 {
		t.Fatalf("SessionMessages called %d times, want 1", got)
	}
}

func TestSyncSessionSharesInFlightFetch(t *testing.T) {
	fixture := newEngineFixture(t, nil)
	fixture.rpc.history["ses_1"] = sessionHistory("ses_1", 2)
	release := fixture.rpc.gate("SessionMessages")

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = fixture.engine.SyncSession(context.Background(), "ses_1")
		}()
	}
	waitUntil(t, "first fetch in flight", func() bool { return fixture.rpc.count("SessionMessages") == 1 })
	close(release)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d: %v", i, err)
		}
	}
	if got := fixture.rpc.count("SessionMessages"); got != 1 {
		t.Fatalf("SessionMessages called %d times, want 1", got)
	}
}

func TestSyncSessionFailureIsRetried(t *testing.T) {
	fixture := newEngineFixture(t, nil)
	fixture.rpc.fail("SessionTodos", errRefused)

	if err := fixture.engine.SyncSession(context.Background(), "ses_1"); !errors.Is(err, errRefused) {
		t.Fatalf("SyncSession error = %v", err)
	}
	if got := fixture.engine.Store().Messages("ses_1"); got != nil {
		t.Fatalf("partial sync applied: %v", got)
	}
	fixture.rpc.fail("SessionTodos", nil)
	if err := fixture.engine.SyncSession(context.Background(), "ses_1"); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if got := fixture.rpc.count("SessionTodos"); got != 2 {
		t.Fatalf("SessionTodos called %d times, want 2", got)
	}
}

// waitUntil polls condition for state that has no change notification.
func waitUntil(t *testing.T, description string, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(testTimeout)
	for !condition() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", description)
		}
		time.Sleep(time.Millisecond)
	}
}
