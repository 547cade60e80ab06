// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncengine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/console/lib/agentapi"
	"github.com/bureau-foundation/console/lib/clock"
	"github.com/bureau-foundation/console/lib/syncstate"
	"github.com/bureau-foundation/console/lib/testutil"
)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const testTimeout = 5 * time.Second

// fakeRPC serves canned responses and counts calls. A non-nil gate for
// a method makes it block until the gate is closed or ctx ends.
type fakeRPC struct {
	mutex sync.Mutex
	calls map[string]int
	errs  map[string]error
	gates map[string]chan struct{}

	sessions      []agentapi.Session
	sessionsStart time.Time
	history       map[string][]agentapi.MessageWithParts
	todos         map[string][]agentapi.Todo
	diffs         map[string][]agentapi.FileDiff
	lsp           []agentapi.LSPStatus
	teams         []agentapi.Team
	tasks         []agentapi.TeamTask
}

func newFakeRPC() *fakeRPC {
	return &fakeRPC{
		calls:   make(map[string]int),
		errs:    make(map[string]error),
		gates:   make(map[string]chan struct{}),
		history: make(map[string][]agentapi.MessageWithParts),
		todos:   make(map[string][]agentapi.Todo),
		diffs:   make(map[string][]agentapi.FileDiff),
	}
}

func (f *fakeRPC) fail(method string, err error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.errs[method] = err
}

func (f *fakeRPC) gate(method string) chan struct{} {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	gate := make(chan struct{})
	f.gates[method] = gate
	return gate
}

func (f *fakeRPC) count(method string) int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.calls[method]
}

// enter records a call, waits on the method's gate and returns the
// configured error.
func (f *fakeRPC) enter(ctx context.Context, method string) error {
	f.mutex.Lock()
	f.calls[method]++
	gate := f.gates[method]
	err := f.errs[method]
	f.mutex.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeRPC) ListSessions(ctx context.Context, start time.Time) ([]agentapi.Session, error) {
	if err := f.enter(ctx, "ListSessions"); err != nil {
		return nil, err
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.sessionsStart = start
	return f.sessions, nil
}

func (f *fakeRPC) GetSession(ctx context.Context, sessionID string) (agentapi.Session, error) {
	if err := f.enter(ctx, "GetSession"); err != nil {
		return agentapi.Session{}, err
	}
	return agentapi.Session{ID: sessionID, Title: "session " + sessionID}, nil
}

func (f *fakeRPC) SessionMessages(ctx context.Context, sessionID string, limit int) ([]agentapi.MessageWithParts, error) {
	if err := f.enter(ctx, "SessionMessages"); err != nil {
		return nil, err
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.history[sessionID], nil
}

func (f *fakeRPC) SessionTodos(ctx context.Context, sessionID string) ([]agentapi.Todo, error) {
	if err := f.enter(ctx, "SessionTodos"); err != nil {
		return nil, err
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.todos[sessionID], nil
}

func (f *fakeRPC) SessionDiff(ctx context.Context, sessionID string) ([]agentapi.FileDiff, error) {
	if err := f.enter(ctx, "SessionDiff"); err != nil {
		return nil, err
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.diffs[sessionID], nil
}

func (f *fakeRPC) SessionStatuses(ctx context.Context) (map[string]agentapi.SessionStatus, error) {
	if err := f.enter(ctx, "SessionStatuses"); err != nil {
		return nil, err
	}
	return map[string]agentapi.SessionStatus{"ses_1": {Type: agentapi.SessionIdle}}, nil
}

func (f *fakeRPC) ConfigProviders(ctx context.Context) (agentapi.ConfigProviders, error) {
	if err := f.enter(ctx, "ConfigProviders"); err != nil {
		return agentapi.ConfigProviders{}, err
	}
	return agentapi.ConfigProviders{
		Providers: []agentapi.Provider{{ID: "anthropic", Name: "Anthropic"}},
		Default:   map[string]string{"anthropic": "claude"},
	}, nil
}

func (f *fakeRPC) ListProviders(ctx context.Context) (agentapi.ProviderCatalog, error) {
	if err := f.enter(ctx, "ListProviders"); err != nil {
		return agentapi.ProviderCatalog{}, err
	}
	return agentapi.ProviderCatalog{Connected: []string{"anthropic"}}, nil
}

func (f *fakeRPC) ProviderAuth(ctx context.Context) (map[string][]agentapi.ProviderAuthMethod, error) {
	if err := f.enter(ctx, "ProviderAuth"); err != nil {
		return nil, err
	}
	return map[string][]agentapi.ProviderAuthMethod{"anthropic": {{Type: "api", Label: "API key"}}}, nil
}

func (f *fakeRPC) ListAgents(ctx context.Context) ([]agentapi.Agent, error) {
	if err := f.enter(ctx, "ListAgents"); err != nil {
		return nil, err
	}
	return []agentapi.Agent{{Name: "build"}, {Name: "plan"}}, nil
}

func (f *fakeRPC) GetConfig(ctx context.Context) (json.RawMessage, error) {
	if err := f.enter(ctx, "GetConfig"); err != nil {
		return nil, err
	}
	return json.RawMessage(`{"theme":"dark"}`), nil
}

func (f *fakeRPC) ListCommands(ctx context.Context) ([]agentapi.Command, error) {
	if err := f.enter(ctx, "ListCommands"); err != nil {
		return nil, err
	}
	return []agentapi.Command{{Name: "init"}}, nil
}

func (f *fakeRPC) LSPStatus(ctx context.Context) ([]agentapi.LSPStatus, error) {
	if err := f.enter(ctx, "LSPStatus"); err != nil {
		return nil, err
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.lsp, nil
}

func (f *fakeRPC) MCPStatus(ctx context.Context) (map[string]agentapi.MCPStatus, error) {
	if err := f.enter(ctx, "MCPStatus"); err != nil {
		return nil, err
	}
	return map[string]agentapi.MCPStatus{"files": {Status: "connected"}}, nil
}

func (f *fakeRPC) FormatterStatus(ctx context.Context) ([]agentapi.FormatterStatus, error) {
	if err := f.enter(ctx, "FormatterStatus"); err != nil {
		return nil, err
	}
	return []agentapi.FormatterStatus{{Name: "gofmt", Enabled: true}}, nil
}

func (f *fakeRPC) VCS(ctx context.Context) (agentapi.VCSInfo, error) {
	if err := f.enter(ctx, "VCS"); err != nil {
		return agentapi.VCSInfo{}, err
	}
	return agentapi.VCSInfo{Branch: "main"}, nil
}

func (f *fakeRPC) Path(ctx context.Context) (agentapi.PathInfo, error) {
	if err := f.enter(ctx, "Path"); err != nil {
		return agentapi.PathInfo{}, err
	}
	return agentapi.PathInfo{Directory: "/work"}, nil
}

func (f *fakeRPC) ListTeams(ctx context.Context) ([]agentapi.Team, error) {
	if err := f.enter(ctx, "ListTeams"); err != nil {
		return nil, err
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.teams, nil
}

func (f *fakeRPC) ListTeamTasks(ctx context.Context) ([]agentapi.TeamTask, error) {
	if err := f.enter(ctx, "ListTeamTasks"); err != nil {
		return nil, err
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.tasks, nil
}

// fakeStream is an EventStream fed by the test. Closing events ends
// the stream with io.EOF.
type fakeStream struct {
	events    chan agentapi.Event
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeStream() *fakeStream {
	return &fakeStream{events: make(chan agentapi.Event), closed: make(chan struct{})}
}

func (s *fakeStream) Next() (agentapi.Event, error) {
	select {
	case event, ok := <-s.events:
		if !ok {
			return agentapi.Event{}, io.EOF
		}
		return event, nil
	case <-s.closed:
		return agentapi.Event{}, net.ErrClosed
	}
}

func (s *fakeStream) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

// fakeSource answers each Subscribe with the next stream or error the
// test provides, and reports every attempt on attempts.
type fakeSource struct {
	attempts chan int
	results  chan subscribeResult

	mutex sync.Mutex
	count int
}

type subscribeResult struct {
	stream *fakeStream
	err    error
}

func newFakeSource() *fakeSource {
	return &fakeSource{attempts: make(chan int, 64), results: make(chan subscribeResult)}
}

func (s *fakeSource) Subscribe(ctx context.Context) (EventStream, error) {
	s.mutex.Lock()
	s.count++
	attempt := s.count
	s.mutex.Unlock()
	s.attempts <- attempt

	select {
	case result := <-s.results:
		if result.err != nil {
			return nil, result.err
		}
		return result.stream, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

var errRefused = errors.New("connection refused")

// engineFixture is an engine on a fake clock with fake RPC and events.
type engineFixture struct {
	clock  *clock.FakeClock
	rpc    *fakeRPC
	source *fakeSource
	engine *Engine
}

func newEngineFixture(t *testing.T, configure func(*Config)) *engineFixture {
	t.Helper()
	fixture := &engineFixture{
		clock:  clock.Fake(testEpoch),
		rpc:    newFakeRPC(),
		source: newFakeSource(),
	}
	config := Config{
		RPC:    fixture.rpc,
		Events: fixture.source,
		Clock:  fixture.clock,
	}
	if configure != nil {
		configure(&config)
	}
	engine, err := New(config)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	fixture.engine = engine
	t.Cleanup(engine.Dispose)
	return fixture
}

// waitFor blocks until check holds for the store, re-checking after
// every change.
func waitFor(t *testing.T, store *syncstate.Store, description string, check func(*syncstate.State) bool) {
	t.Helper()
	changes, unsubscribe := store.Subscribe()
	defer unsubscribe()
	deadline := time.After(testTimeout) //nolint:realclock test hang prevention
	for {
		satisfied := false
		store.View(func(state *syncstate.State) { satisfied = check(state) })
		if satisfied {
			return
		}
		select {
		case <-changes:
		case <-deadline:
			t.Fatalf("timed out waiting for %s", description)
		}
	}
}

func makeEvent(t *testing.T, eventType string, properties any) agentapi.Event {
	t.Helper()
	encoded, err := json.Marshal(properties)
	if err != nil {
		t.Fatalf("encoding %s properties: %v", eventType, err)
	}
	return agentapi.Event{Type: eventType, Properties: encoded}
}

func requireAttempt(t *testing.T, source *fakeSource, want int) {
	t.Helper()
	if got := testutil.RequireReceive(t, source.attempts, testTimeout, "subscribe attempt %d", want); got != want {
		t.Fatalf("subscribe attempt = %d, want %d", got, want)
	}
}
