// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/bureau-foundation/console/lib/consoleui"
)

const defaultTableWidth = 100

// newRenderer returns a lipgloss renderer for output. Anything that
// is not a terminal gets plain text.
func newRenderer(output io.Writer) *lipgloss.Renderer {
	renderer := lipgloss.NewRenderer(output)
	if !isTerminal(output) {
		renderer.SetColorProfile(termenv.Ascii)
	}
	return renderer
}

func terminalWidth(output io.Writer) int {
	if file, ok := output.(*os.File); ok {
		if width, _, err := term.GetSize(int(file.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return defaultTableWidth
}

// formatMillis renders a Unix millisecond timestamp, or "-" for zero.
func formatMillis(millis int64) string {
	if millis == 0 {
		return "-"
	}
	return time.UnixMilli(millis).UTC().Format("2006-01-02 15:04")
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

// renderSessionTable lays rows out in columns no wider than width.
// The title column takes whatever the fixed columns leave.
func renderSessionTable(renderer *lipgloss.Renderer, rows []sessionRow, width int) string {
	idWidth := len("ID")
	for _, row := range rows {
		idWidth = max(idWidth, ansi.StringWidth(row.ID))
	}
	const (
		statusWidth   = 6
		messagesWidth = 5
		tokensWidth   = 7
		updatedWidth  = 16
		gaps          = 5
	)
	titleWidth := max(width-idWidth-statusWidth-messagesWidth-tokensWidth-updatedWidth-gaps, 10)

	header := renderer.NewStyle().Bold(true)
	dim := renderer.NewStyle().Faint(true)

	var builder strings.Builder
	line := strings.Join([]string{
		fit("ID", idWidth),
		fit("TITLE", titleWidth),
		fit("STATUS", statusWidth),
		fitRight("MSGS", messagesWidth),
		fitRight("TOKENS", tokensWidth),
		fit("UPDATED", updatedWidth),
	}, " ")
	builder.WriteString(header.Render(line))
	builder.WriteByte('\n')

	for _, row := range rows {
		messages, tokens := "-", "-"
		if row.Synced {
			messages = fmt.Sprintf("%d", row.Messages)
			tokens = consoleui.FormatTokens(row.Tokens)
		}
		status := row.Status
		if status == "" {
			status = "-"
		}
		builder.WriteString(strings.Join([]string{
			dim.Render(fit(row.ID, idWidth)),
			fit(row.Title, titleWidth),
			fit(status, statusWidth),
			fitRight(messages, messagesWidth),
			fitRight(tokens, tokensWidth),
			fit(formatMillis(row.Updated), updatedWidth),
		}, " "))
		builder.WriteByte('\n')
	}
	return builder.String()
}
