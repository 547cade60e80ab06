// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package consoleui

import "github.com/charmbracelet/lipgloss"

// Theme is the color palette of the session browser. Colors are ANSI
// 256-color codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Session run states.
	StatusBusy  lipgloss.Color
	StatusRetry lipgloss.Color

	// Message authors.
	RoleUser      lipgloss.Color
	RoleAssistant lipgloss.Color

	// Pending permission and question prompts.
	PromptForeground lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color
	WarnText         lipgloss.Color
	ErrorText        lipgloss.Color
}

// DefaultTheme is tuned for dark 256-color terminals.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	StatusBusy:  lipgloss.Color("220"), // amber
	StatusRetry: lipgloss.Color("208"), // orange

	RoleUser:      lipgloss.Color("114"), // green
	RoleAssistant: lipgloss.Color("75"),  // blue

	PromptForeground: lipgloss.Color("141"), // light purple

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),
	WarnText:         lipgloss.Color("220"),
	ErrorText:        lipgloss.Color("196"),
}

// styles are the theme's colors bound to one renderer.
type styles struct {
	normal   lipgloss.Style
	faint    lipgloss.Style
	selected lipgloss.Style
	header   lipgloss.Style
	border   lipgloss.Style
	help     lipgloss.Style
	warn     lipgloss.Style
	err      lipgloss.Style
	busy     lipgloss.Style
	retry    lipgloss.Style
	user     lipgloss.Style
	agent    lipgloss.Style
	prompt   lipgloss.Style
}

func newStyles(renderer *lipgloss.Renderer, theme Theme) styles {
	return styles{
		normal:   renderer.NewStyle().Foreground(theme.NormalText),
		faint:    renderer.NewStyle().Foreground(theme.FaintText),
		selected: renderer.NewStyle().Foreground(theme.SelectedForeground).Background(theme.SelectedBackground).Bold(true),
		header:   renderer.NewStyle().Foreground(theme.HeaderForeground).Bold(true),
		border:   renderer.NewStyle().Foreground(theme.BorderColor),
		help:     renderer.NewStyle().Foreground(theme.HelpText),
		warn:     renderer.NewStyle().Foreground(theme.WarnText),
		err:      renderer.NewStyle().Foreground(theme.ErrorText),
		busy:     renderer.NewStyle().Foreground(theme.StatusBusy),
		retry:    renderer.NewStyle().Foreground(theme.StatusRetry),
		user:     renderer.NewStyle().Foreground(theme.RoleUser).Bold(true),
		agent:    renderer.NewStyle().Foreground(theme.RoleAssistant).Bold(true),
		prompt:   renderer.NewStyle().Foreground(theme.PromptForeground),
	}
}
