// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package consoleui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/console/lib/agentapi"
	"github.com/bureau-foundation/console/lib/sessionfilter"
	"github.com/bureau-foundation/console/lib/syncstate"
)

// FocusRegion identifies which pane receives navigation keys.
type FocusRegion int

const (
	// FocusList moves the session list cursor.
	FocusList FocusRegion = iota
	// FocusDetail scrolls the message pane.
	FocusDetail
	// FocusFilter sends keystrokes to the filter input.
	FocusFilter
)

// Layout constants. The header and status bar take one row each.
const (
	chromeRows   = 2
	minListWidth = 24
	tokensWidth  = 6
)

// storeChangedMsg is delivered for every store change notification.
type storeChangedMsg struct {
	version uint64
}

// syncDoneMsg reports the end of a SyncSession call.
type syncDoneMsg struct {
	sessionID string
	err       error
}

// Config configures a Model.
type Config struct {
	// Store is read on every change. Required.
	Store *syncstate.Store

	// SyncSession loads a session's history into Store. It runs
	// outside the bubbletea event loop. Nil disables loading.
	SyncSession func(ctx context.Context, sessionID string) error

	// Connection reports the event loop state for the header. Nil
	// hides it.
	Connection func() string

	// Context is passed to SyncSession. Nil means
	// context.Background().
	Context context.Context

	// Renderer builds every style. Nil means the lipgloss default
	// renderer.
	Renderer *lipgloss.Renderer

	// Theme colors the UI. The zero Theme means DefaultTheme.
	Theme Theme
}

// Model is the bubbletea model of the session browser.
type Model struct {
	store       *syncstate.Store
	syncSession func(context.Context, string) error
	connection  func() string
	ctx         context.Context
	keys        KeyMap
	styles      styles
	filter      *sessionfilter.Filter
	changes     <-chan syncstate.Change
	unsubscribe func()

	width  int
	height int
	ready  bool

	focusRegion FocusRegion
	priorFocus  FocusRegion
	filterInput []rune

	// sessions is the filtered list in display order; total counts
	// every session in the store.
	sessions     []agentapi.Session
	total        int
	cursor       int
	scrollOffset int
	selectedID   string // Selection follows the id across refreshes.

	detail   viewport.Model
	detailID string // Session currently rendered into detail.

	// Per-session history loading state.
	loading    map[string]bool
	loaded     map[string]bool
	syncErrors map[string]string

	storeStatus syncstate.Status
	notice      string
	noticeLevel slog.Level
}

// NewModel creates a Model subscribed to config.Store. Call Close
// when the program exits.
func NewModel(config Config) Model {
	if config.Context == nil {
		config.Context = context.Background()
	}
	if config.Renderer == nil {
		config.Renderer = lipgloss.DefaultRenderer()
	}
	if config.Theme == (Theme{}) {
		config.Theme = DefaultTheme
	}
	changes, unsubscribe := config.Store.Subscribe()
	model := Model{
		store:       config.Store,
		syncSession: config.SyncSession,
		connection:  config.Connection,
		ctx:         config.Context,
		keys:        DefaultKeyMap,
		styles:      newStyles(config.Renderer, config.Theme),
		filter:      sessionfilter.New(),
		changes:     changes,
		unsubscribe: unsubscribe,
		detail:      viewport.New(0, 0),
		loading:     make(map[string]bool),
		loaded:      make(map[string]bool),
		syncErrors:  make(map[string]string),
	}
	model.refresh()
	return model
}

// Close ends the store subscription.
func (model Model) Close() {
	model.unsubscribe()
}

// SelectedSession returns the id under the list cursor, or "".
func (model Model) SelectedSession() string {
	return model.selectedID
}

// Focus returns the pane that receives navigation keys.
func (model Model) Focus() FocusRegion {
	return model.focusRegion
}

// Init implements tea.Model.
func (model Model) Init() tea.Cmd {
	return waitForChange(model.changes)
}

// waitForChange blocks until the store changes. The subscription
// channel holds only the newest change, so a slow UI skips straight to
// the latest version.
func waitForChange(changes <-chan syncstate.Change) tea.Cmd {
	return func() tea.Msg {
		change, ok := <-changes
		if !ok {
			return nil
		}
		return storeChangedMsg{version: change.Version}
	}
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		if model.focusRegion == FocusFilter {
			return model.handleFilterKeys(message)
		}
		switch {
		case key.Matches(message, model.keys.Quit):
			return model, tea.Quit

		case key.Matches(message, model.keys.FocusToggle):
			if model.focusRegion == FocusList {
				model.focusRegion = FocusDetail
			} else {
				model.focusRegion = FocusList
			}

		case key.Matches(message, model.keys.FilterActivate):
			model.priorFocus = model.focusRegion
			model.focusRegion = FocusFilter
			model.cursor = 0
			model.scrollOffset = 0

		case key.Matches(message, model.keys.FilterClear):
			if len(model.filterInput) > 0 {
				model.filterInput = nil
				model.refresh()
			}

		case key.Matches(message, model.keys.Open):
			cmd := model.openSelected()
			return model, cmd

		default:
			if model.focusRegion == FocusList {
				model.handleListKeys(message)
			} else {
				model.handleDetailKeys(message)
			}
		}

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.ready = true
		model.updatePaneSizes()

	case storeChangedMsg:
		model.refresh()
		return model, waitForChange(model.changes)

	case syncDoneMsg:
		delete(model.loading, message.sessionID)
		if message.err != nil {
			model.syncErrors[message.sessionID] = message.err.Error()
		} else {
			model.loaded[message.sessionID] = true
		}
		model.renderDetail()

	case logRecordMsg:
		model.notice = message.Summary
		model.noticeLevel = message.Level
		summary := message.Summary
		return model, tea.Tick(logRecordFadeDelay, func(time.Time) tea.Msg {
			return logRecordFadeMsg{summary: summary}
		})

	case logRecordFadeMsg:
		// A newer record keeps the bar.
		if model.notice == message.summary {
			model.notice = ""
		}
	}
	return model, nil
}

func (model Model) handleFilterKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case message.Type == tea.KeyCtrlC:
		return model, tea.Quit

	case key.Matches(message, model.keys.FilterClear):
		// Esc clears the input first, then leaves filter mode.
		if len(model.filterInput) > 0 {
			model.filterInput = nil
			model.refresh()
		} else {
			model.focusRegion = model.priorFocus
		}

	case message.Type == tea.KeyEnter:
		model.focusRegion = FocusList

	case message.Type == tea.KeyBackspace:
		if len(model.filterInput) > 0 {
			model.filterInput = model.filterInput[:len(model.filterInput)-1]
			model.refresh()
		}

	case message.Type == tea.KeyRunes || message.Type == tea.KeySpace:
		if message.Type == tea.KeySpace {
			model.filterInput = append(model.filterInput, ' ')
		} else {
			model.filterInput = append(model.filterInput, message.Runes...)
		}
		model.refresh()
	}
	return model, nil
}

func (model *Model) handleListKeys(message tea.KeyMsg) {
	switch {
	case key.Matches(message, model.keys.Up):
		model.moveCursor(-1)
	case key.Matches(message, model.keys.Down):
		model.moveCursor(1)
	case key.Matches(message, model.keys.PageUp):
		model.moveCursor(-model.listHeight())
	case key.Matches(message, model.keys.PageDown):
		model.moveCursor(model.listHeight())
	case key.Matches(message, model.keys.Home):
		model.moveCursor(-len(model.sessions))
	case key.Matches(message, model.keys.End):
		model.moveCursor(len(model.sessions))
	}
}

func (model *Model) handleDetailKeys(message tea.KeyMsg) {
	switch {
	case key.Matches(message, model.keys.Up):
		model.detail.SetYOffset(model.detail.YOffset - 1)
	case key.Matches(message, model.keys.Down):
		model.detail.SetYOffset(model.detail.YOffset + 1)
	case key.Matches(message, model.keys.PageUp):
		model.detail.SetYOffset(model.detail.YOffset - model.detail.Height)
	case key.Matches(message, model.keys.PageDown):
		model.detail.SetYOffset(model.detail.YOffset + model.detail.Height)
	case key.Matches(message, model.keys.Home):
		model.detail.GotoTop()
	case key.Matches(message, model.keys.End):
		model.detail.GotoBottom()
	}
}

func (model *Model) moveCursor(delta int) {
	if len(model.sessions) == 0 {
		return
	}
	model.cursor = max(0, min(len(model.sessions)-1, model.cursor+delta))
	model.selectedID = model.sessions[model.cursor].ID
	model.ensureCursorVisible()
	model.renderDetail()
}

// openSelected focuses the message pane and, unless the session's
// history is already loaded or loading, returns a command that loads
// it.
func (model *Model) openSelected() tea.Cmd {
	sessionID := model.selectedID
	if sessionID == "" {
		return nil
	}
	model.focusRegion = FocusDetail
	if model.syncSession == nil || model.loading[sessionID] || model.loaded[sessionID] {
		return nil
	}
	model.loading[sessionID] = true
	delete(model.syncErrors, sessionID)
	model.renderDetail()

	ctx, syncSession := model.ctx, model.syncSession
	return func() tea.Msg {
		return syncDoneMsg{sessionID: sessionID, err: syncSession(ctx, sessionID)}
	}
}

// refresh re-reads the session list and re-renders the message pane.
func (model *Model) refresh() {
	var sessions []agentapi.Session
	model.store.View(func(state *syncstate.State) {
		sessions = state.Sessions()
		model.storeStatus = state.Status()
	})
	model.total = len(sessions)
	model.sessions = model.filter.Sessions(sessions, string(model.filterInput))
	model.restoreSelection()
	model.renderDetail()
}

// restoreSelection puts the cursor back on the selected session, or
// on the nearest row when it is gone.
func (model *Model) restoreSelection() {
	if len(model.sessions) == 0 {
		model.cursor = 0
		model.selectedID = ""
		return
	}
	for index, session := range model.sessions {
		if session.ID == model.selectedID {
			model.cursor = index
			model.ensureCursorVisible()
			return
		}
	}
	model.cursor = max(0, min(len(model.sessions)-1, model.cursor))
	model.selectedID = model.sessions[model.cursor].ID
	model.ensureCursorVisible()
}

func (model *Model) ensureCursorVisible() {
	height := model.listHeight()
	if model.cursor < model.scrollOffset {
		model.scrollOffset = model.cursor
	}
	if model.cursor >= model.scrollOffset+height {
		model.scrollOffset = model.cursor - height + 1
	}
	model.scrollOffset = max(0, model.scrollOffset)
}

func (model Model) listHeight() int {
	return max(1, model.height-chromeRows)
}

// paneWidths splits the terminal between the list, a one-column
// divider and the message pane.
func (model Model) paneWidths() (list, detail int) {
	list = max(minListWidth, model.width*2/5)
	list = min(list, max(model.width-minListWidth-1, 1))
	detail = max(model.width-list-1, 1)
	return list, detail
}

func (model *Model) updatePaneSizes() {
	_, detailWidth := model.paneWidths()
	model.detail.Width = detailWidth
	model.detail.Height = model.listHeight()
	model.ensureCursorVisible()
	model.renderDetail()
}

// renderDetail re-renders the selected session into the message pane.
// A newly selected session starts at the top; otherwise a pane that
// was scrolled to the bottom follows new content.
func (model *Model) renderDetail() {
	if !model.ready {
		return
	}
	followTail := model.detail.AtBottom()
	model.detail.SetContent(model.detailContent(model.selectedID, model.detail.Width))
	if model.detailID != model.selectedID {
		model.detailID = model.selectedID
		model.detail.GotoTop()
	} else if followTail {
		model.detail.GotoBottom()
	}
}
