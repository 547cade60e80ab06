// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package consoleui

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/console/lib/agentapi"
	"github.com/bureau-foundation/console/lib/syncstate"
)

// View implements tea.Model.
func (model Model) View() string {
	if !model.ready {
		return "Loading…"
	}
	listWidth, _ := model.paneWidths()
	height := model.listHeight()

	list := model.renderList(listWidth, height)
	divider := model.styles.border.Render("│")
	detail := strings.Split(model.detail.View(), "\n")

	var builder strings.Builder
	builder.WriteString(model.renderHeader())
	builder.WriteByte('\n')
	for row := range height {
		builder.WriteString(list[row])
		builder.WriteString(divider)
		if row < len(detail) {
			builder.WriteString(detail[row])
		}
		builder.WriteByte('\n')
	}
	builder.WriteString(model.renderStatusBar())
	return builder.String()
}

func (model Model) renderHeader() string {
	if model.focusRegion == FocusFilter || len(model.filterInput) > 0 {
		cursor := ""
		if model.focusRegion == FocusFilter {
			cursor = "█"
		}
		line := fmt.Sprintf("/%s%s  %d of %d", string(model.filterInput), cursor, len(model.sessions), model.total)
		return model.styles.header.Render(fit(line, model.width))
	}

	fields := []string{"bureau-console", fmt.Sprintf("%d sessions", model.total), string(model.storeStatus)}
	if model.connection != nil {
		fields = append(fields, model.connection())
	}
	return model.styles.header.Render(fit(strings.Join(fields, " · "), model.width))
}

// renderList returns exactly height rows, each width cells wide.
func (model Model) renderList(width, height int) []string {
	rows := make([]string, height)
	var statuses map[string]agentapi.SessionStatus
	var tokens map[string]int
	model.store.View(func(state *syncstate.State) {
		statuses = make(map[string]agentapi.SessionStatus)
		tokens = make(map[string]int)
		for _, session := range model.sessions {
			if status, ok := state.SessionStatus(session.ID); ok {
				statuses[session.ID] = status
			}
			tokens[session.ID] = state.SessionTokens(session.ID)
		}
	})

	if len(model.sessions) == 0 {
		empty := "No sessions."
		if len(model.filterInput) > 0 {
			empty = "No matches."
		}
		rows[0] = model.styles.faint.Render(fit(" "+empty, width))
		for row := 1; row < height; row++ {
			rows[row] = strings.Repeat(" ", width)
		}
		return rows
	}

	titleWidth := max(width-2-1-tokensWidth, 1)
	for row := range height {
		index := model.scrollOffset + row
		if index >= len(model.sessions) {
			rows[row] = strings.Repeat(" ", width)
			continue
		}
		session := model.sessions[index]
		title := session.Title
		if title == "" {
			title = session.ID
		}
		marker, markerStyle := " ", model.styles.normal
		switch statuses[session.ID].Type {
		case agentapi.SessionBusy:
			marker, markerStyle = "●", model.styles.busy
		case agentapi.SessionRetry:
			marker, markerStyle = "↻", model.styles.retry
		}
		count := ""
		if tokens[session.ID] > 0 {
			count = FormatTokens(tokens[session.ID])
		}

		if index == model.cursor {
			line := marker + " " + fit(title, titleWidth) + " " + fitRight(count, tokensWidth)
			rows[row] = model.styles.selected.Render(line)
			continue
		}
		rows[row] = markerStyle.Render(marker) + " " +
			model.styles.normal.Render(fit(title, titleWidth)) + " " +
			model.styles.faint.Render(fitRight(count, tokensWidth))
	}
	return rows
}

func (model Model) renderStatusBar() string {
	if model.notice != "" {
		style := model.styles.help
		switch {
		case model.noticeLevel >= slog.LevelError:
			style = model.styles.err
		case model.noticeLevel >= slog.LevelWarn:
			style = model.styles.warn
		}
		return style.Render(fit(model.notice, model.width))
	}
	var help []string
	for _, binding := range model.keys.helpLine() {
		help = append(help, binding.Help().Key+" "+binding.Help().Desc)
	}
	return model.styles.help.Render(fit(strings.Join(help, "  "), model.width))
}

// detailContent renders a session's header, messages, pending prompts
// and todos wrapped to width.
func (model Model) detailContent(sessionID string, width int) string {
	if sessionID == "" {
		return ""
	}
	var lines []string
	model.store.View(func(state *syncstate.State) {
		session, ok := state.Session(sessionID)
		if !ok {
			return
		}
		title := session.Title
		if title == "" {
			title = "(untitled)"
		}
		lines = append(lines, model.styles.header.Render(ansi.Truncate(title, width, "…")))

		meta := []string{session.ID, FormatTokens(state.SessionTokens(sessionID)) + " tokens"}
		if status, ok := state.SessionStatus(sessionID); ok {
			meta = append(meta, status.Type)
		}
		lines = append(lines, model.styles.faint.Render(ansi.Truncate(strings.Join(meta, " · "), width, "…")))

		messages := state.Messages(sessionID)
		switch {
		case model.loading[sessionID]:
			lines = append(lines, "", model.styles.faint.Render("Loading history…"))
		case model.syncErrors[sessionID] != "":
			lines = append(lines, "", model.styles.err.Width(width).Render("Loading history failed: "+model.syncErrors[sessionID]))
		case len(messages) == 0 && !model.loaded[sessionID]:
			lines = append(lines, "", model.styles.faint.Render("Press Enter to load history."))
		}

		for _, message := range messages {
			lines = append(lines, "", model.messageHeader(message, state.MessageTokens(message.ID)))
			for _, part := range state.Parts(message.ID) {
				lines = append(lines, model.renderPart(part, width)...)
			}
		}

		for _, request := range state.Permissions(sessionID) {
			text := "Permission requested: " + request.Permission
			if len(request.Patterns) > 0 {
				text += " " + strings.Join(request.Patterns, ", ")
			}
			lines = append(lines, "", model.styles.prompt.Width(width).Render(text))
		}
		for range state.Questions(sessionID) {
			lines = append(lines, "", model.styles.prompt.Render("Question waiting for an answer"))
		}

		if todos := state.Todos(sessionID); len(todos) > 0 {
			lines = append(lines, "", model.styles.header.Render("Todos"))
			for _, todo := range todos {
				box := "[ ]"
				switch todo.Status {
				case "completed":
					box = "[x]"
				case "in_progress":
					box = "[~]"
				}
				lines = append(lines, model.styles.normal.Render(ansi.Truncate(box+" "+todo.Content, width, "…")))
			}
		}
	})
	return strings.Join(lines, "\n")
}

func (model Model) messageHeader(message agentapi.Message, tokens int) string {
	style, label := model.styles.agent, "assistant"
	if message.Role == agentapi.RoleUser {
		style, label = model.styles.user, "user"
	}
	details := []string{FormatTokens(tokens) + " tokens"}
	if message.ModelID != "" {
		details = append(details, message.ModelID)
	}
	if message.Role == agentapi.RoleAssistant && message.Time.Completed == 0 && len(message.Error) == 0 {
		details = append(details, "streaming")
	}
	if len(message.Error) > 0 {
		details = append(details, "failed")
	}
	return style.Render("▸ "+label) + " " + model.styles.faint.Render(strings.Join(details, " · "))
}

// toolState is the part of a tool part's state the pane shows.
type toolState struct {
	Status string `json:"status"`
	Title  string `json:"title"`
}

func (model Model) renderPart(part agentapi.Part, width int) []string {
	switch part.Type {
	case agentapi.PartText:
		if part.Text == "" {
			return nil
		}
		style := model.styles.normal
		if part.Synthetic {
			style = model.styles.faint
		}
		return []string{style.Width(width).Render(part.Text)}

	case agentapi.PartReasoning:
		if part.Text == "" {
			return nil
		}
		return []string{model.styles.faint.Italic(true).Width(width).Render(part.Text)}

	case agentapi.PartTool:
		var state toolState
		if len(part.State) > 0 {
			_ = json.Unmarshal(part.State, &state)
		}
		line := "⚙ " + part.Tool
		if state.Title != "" {
			line += ": " + state.Title
		}
		if state.Status != "" {
			line += " (" + state.Status + ")"
		}
		return []string{model.styles.prompt.Render(ansi.Truncate(line, width, "…"))}

	case agentapi.PartStepStart, agentapi.PartStepFinish:
		return nil

	default:
		return []string{model.styles.faint.Render("[" + part.Type + "]")}
	}
}

// FormatTokens abbreviates token counts above a thousand.
func FormatTokens(tokens int) string {
	switch {
	case tokens < 1000:
		return fmt.Sprintf("%d", tokens)
	case tokens < 1_000_000:
		return fmt.Sprintf("%.1fk", float64(tokens)/1000)
	default:
		return fmt.Sprintf("%.1fM", float64(tokens)/1_000_000)
	}
}

// fit pads or truncates s to exactly width cells.
func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = ansi.Truncate(s, width, "…")
	if padding := width - ansi.StringWidth(s); padding > 0 {
		s += strings.Repeat(" ", padding)
	}
	return s
}

func fitRight(s string, width int) string {
	s = ansi.Truncate(s, width, "…")
	if padding := width - ansi.StringWidth(s); padding > 0 {
		s = strings.Repeat(" ", padding) + s
	}
	return s
}
