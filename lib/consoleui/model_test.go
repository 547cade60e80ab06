// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package consoleui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/bureau-foundation/console/lib/agentapi"
	"github.com/bureau-foundation/console/lib/syncstate"
)

// testStore holds three sessions, most recent first: ses_01, ses_02
// (busy), ses_03.
func testStore() *syncstate.Store {
	store := syncstate.NewStore(syncstate.Options{})
	store.Update(func(state *syncstate.State) bool {
		state.SetStatus(syncstate.StatusComplete)
		state.SetSessions([]agentapi.Session{
			{ID: "ses_01", Title: "Refactor the event parser", Time: agentapi.SessionTime{Created: 10, Updated: 300}},
			{ID: "ses_02", Title: "Write release notes", Time: agentapi.SessionTime{Created: 20, Updated: 200}},
			{ID: "ses_03", Title: "Fix flaky reconnect test", Time: agentapi.SessionTime{Created: 30, Updated: 100}},
		})
		state.SetSessionStatus("ses_02", agentapi.SessionStatus{Type: agentapi.SessionBusy})
		return true
	})
	return store
}

// addHistory stores one user message with a text part for sessionID.
func addHistory(store *syncstate.Store, sessionID, text string) {
	store.Update(func(state *syncstate.State) bool {
		messageID := "msg_" + sessionID
		state.UpsertMessage(agentapi.Message{
			ID:        messageID,
			SessionID: sessionID,
			Role:      agentapi.RoleUser,
			Time:      agentapi.MessageTime{Created: 1000},
		})
		state.UpsertPart(agentapi.Part{
			ID:        "prt_" + sessionID,
			SessionID: sessionID,
			MessageID: messageID,
			Type:      agentapi.PartText,
			Text:      text,
		})
		return true
	})
}

func newTestModel(t *testing.T, store *syncstate.Store, syncSession func(context.Context, string) error) Model {
	t.Helper()
	renderer := lipgloss.NewRenderer(io.Discard)
	renderer.SetColorProfile(termenv.Ascii)
	model := NewModel(Config{
		Store:       store,
		SyncSession: syncSession,
		Connection:  func() string { return "streaming" },
		Renderer:    renderer,
	})
	t.Cleanup(model.Close)
	model, _ = update(model, tea.WindowSizeMsg{Width: 100, Height: 20})
	return model
}

func update(model Model, message tea.Msg) (Model, tea.Cmd) {
	result, cmd := model.Update(message)
	return result.(Model), cmd
}

func keyRunes(text string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)}
}

func TestModelListsSessionsByRecency(t *testing.T) {
	model := newTestModel(t, testStore(), nil)

	if got := model.SelectedSession(); got != "ses_01" {
		t.Errorf("SelectedSession = %q, want ses_01", got)
	}
	view := model.View()
	for _, want := range []string{"3 sessions", "complete", "streaming", "Refactor the event parser", "●"} {
		if !strings.Contains(view, want) {
			t.Errorf("view does not contain %q:\n%s", want, view)
		}
	}
	first := strings.Index(view, "Refactor the event parser")
	second := strings.Index(view, "Write release notes")
	third := strings.Index(view, "Fix flaky reconnect test")
	if !(first < second && second < third) {
		t.Errorf("sessions not in recency order:\n%s", view)
	}
}

func TestModelNavigation(t *testing.T) {
	model := newTestModel(t, testStore(), nil)

	steps := []struct {
		key  tea.KeyMsg
		want string
	}{
		{keyRunes("j"), "ses_02"},
		{tea.KeyMsg{Type: tea.KeyDown}, "ses_03"},
		{tea.KeyMsg{Type: tea.KeyDown}, "ses_03"},
		{keyRunes("k"), "ses_02"},
		{keyRunes("g"), "ses_01"},
		{keyRunes("G"), "ses_03"},
	}
	for _, step := range steps {
		model, _ = update(model, step.key)
		if got := model.SelectedSession(); got != step.want {
			t.Fatalf("after %q: SelectedSession = %q, want %q", step.key.String(), got, step.want)
		}
	}
}

func TestModelFilter(t *testing.T) {
	model := newTestModel(t, testStore(), nil)

	model, _ = update(model, keyRunes("/"))
	if model.Focus() != FocusFilter {
		t.Fatalf("Focus = %v after /, want FocusFilter", model.Focus())
	}
	model, _ = update(model, keyRunes("reconnect"))
	if got := model.SelectedSession(); got != "ses_03" {
		t.Errorf("SelectedSession = %q, want ses_03", got)
	}
	if view := model.View(); !strings.Contains(view, "1 of 3") || strings.Contains(view, "Write release notes") {
		t.Errorf("filtered view wrong:\n%s", view)
	}

	// q is text while filtering.
	model, cmd := update(model, keyRunes("q"))
	if cmd != nil {
		t.Error("q in filter mode returned a command")
	}
	if view := model.View(); !strings.Contains(view, "No matches.") {
		t.Errorf("view does not report no matches:\n%s", view)
	}
	if got := model.SelectedSession(); got != "" {
		t.Errorf("SelectedSession = %q with no matches, want empty", got)
	}

	model, _ = update(model, tea.KeyMsg{Type: tea.KeyBackspace})
	if got := model.SelectedSession(); got != "ses_03" {
		t.Errorf("SelectedSession = %q after backspace, want ses_03", got)
	}

	// Esc clears the input, a second Esc leaves filter mode.
	model, _ = update(model, tea.KeyMsg{Type: tea.KeyEscape})
	if model.Focus() != FocusFilter {
		t.Errorf("Focus = %v after first Esc, want FocusFilter", model.Focus())
	}
	if view := model.View(); !strings.Contains(view, "Write release notes") {
		t.Errorf("cleared filter does not show every session:\n%s", view)
	}
	model, _ = update(model, tea.KeyMsg{Type: tea.KeyEscape})
	if model.Focus() != FocusList {
		t.Errorf("Focus = %v after second Esc, want FocusList", model.Focus())
	}
}

func TestModelQuit(t *testing.T) {
	model := newTestModel(t, testStore(), nil)
	_, cmd := update(model, keyRunes("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestModelOpenLoadsHistory(t *testing.T) {
	store := testStore()
	var calls []string
	model := newTestModel(t, store, func(_ context.Context, sessionID string) error {
		calls = append(calls, sessionID)
		addHistory(store, sessionID, "Please split the parser into smaller functions.")
		return nil
	})

	if view := model.View(); !strings.Contains(view, "Press Enter to load history.") {
		t.Errorf("unloaded session does not offer loading:\n%s", view)
	}

	model, cmd := update(model, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("Enter returned no command")
	}
	if model.Focus() != FocusDetail {
		t.Errorf("Focus = %v after Enter, want FocusDetail", model.Focus())
	}
	if view := model.View(); !strings.Contains(view, "Loading history…") {
		t.Errorf("view does not show loading:\n%s", view)
	}

	model, _ = update(model, cmd())
	if len(calls) != 1 || calls[0] != "ses_01" {
		t.Fatalf("SyncSession calls = %v, want [ses_01]", calls)
	}
	view := model.View()
	for _, want := range []string{"▸ user", "Please split the parser"} {
		if !strings.Contains(view, want) {
			t.Errorf("view does not contain %q:\n%s", want, view)
		}
	}

	if _, cmd := update(model, tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("Enter on a loaded session returned a command")
	}
}

func TestModelShowsSyncFailure(t *testing.T) {
	model := newTestModel(t, testStore(), func(context.Context, string) error {
		return errors.New("connection refused")
	})

	model, cmd := update(model, tea.KeyMsg{Type: tea.KeyEnter})
	model, _ = update(model, cmd())
	if view := model.View(); !strings.Contains(view, "Loading history failed: connection refused") {
		t.Errorf("view does not show the failure:\n%s", view)
	}

	// A failed load can be retried.
	if _, cmd := update(model, tea.KeyMsg{Type: tea.KeyEnter}); cmd == nil {
		t.Error("Enter after a failed load returned no command")
	}
}

func TestModelFollowsStoreChanges(t *testing.T) {
	store := testStore()
	model := newTestModel(t, store, nil)
	model, _ = update(model, keyRunes("j"))

	wait := model.Init()
	store.Update(func(state *syncstate.State) bool {
		return state.UpsertSession(agentapi.Session{
			ID:    "ses_04",
			Title: "Bisect the memory regression",
			Time:  agentapi.SessionTime{Created: 40, Updated: 400},
		})
	})

	message := wait()
	if _, ok := message.(storeChangedMsg); !ok {
		t.Fatalf("Init command delivered %T, want storeChangedMsg", message)
	}
	model, cmd := update(model, message)
	if cmd == nil {
		t.Error("store change did not resubscribe")
	}
	if view := model.View(); !strings.Contains(view, "Bisect the memory regression") || !strings.Contains(view, "4 sessions") {
		t.Errorf("view does not show the new session:\n%s", view)
	}
	if got := model.SelectedSession(); got != "ses_02" {
		t.Errorf("SelectedSession = %q, want the selection kept on ses_02", got)
	}
}

func TestModelShowsPromptsAndTodos(t *testing.T) {
	store := testStore()
	store.Update(func(state *syncstate.State) bool {
		state.UpsertPermission(agentapi.PermissionRequest{
			ID:         "per_01",
			SessionID:  "ses_01",
			Permission: "bash",
			Patterns:   []string{"go test ./..."},
		})
		state.SetTodos("ses_01", []agentapi.Todo{
			{ID: "1", Content: "write tests", Status: "completed"},
			{ID: "2", Content: "update docs", Status: "pending"},
		})
		return true
	})
	model := newTestModel(t, store, nil)

	view := model.View()
	for _, want := range []string{"Permission requested: bash go test ./...", "[x] write tests", "[ ] update docs"} {
		if !strings.Contains(view, want) {
			t.Errorf("view does not contain %q:\n%s", want, view)
		}
	}
}

func TestModelLogNotice(t *testing.T) {
	model := newTestModel(t, testStore(), nil)

	model, cmd := update(model, logRecordMsg{Summary: "event stream ended", Level: slog.LevelWarn})
	if cmd == nil {
		t.Error("log record scheduled no fade")
	}
	if view := model.View(); !strings.Contains(view, "event stream ended") {
		t.Errorf("status bar does not show the record:\n%s", view)
	}

	// A fade for an older record leaves a newer one in place.
	model, _ = update(model, logRecordFadeMsg{summary: "something older"})
	if view := model.View(); !strings.Contains(view, "event stream ended") {
		t.Errorf("stale fade cleared the status bar:\n%s", view)
	}

	model, _ = update(model, logRecordFadeMsg{summary: "event stream ended"})
	if view := model.View(); !strings.Contains(view, "q quit") {
		t.Errorf("status bar did not return to help:\n%s", view)
	}
}

func TestFormatTokens(t *testing.T) {
	tests := []struct {
		tokens int
		want   string
	}{
		{0, "0"},
		{999, "999"},
		{1500, "1.5k"},
		{2_500_000, "2.5M"},
	}
	for _, test := range tests {
		if got := FormatTokens(test.tokens); got != test.want {
			t.Errorf("FormatTokens(%d) = %q, want %q", test.tokens, got, test.want)
		}
	}
}
