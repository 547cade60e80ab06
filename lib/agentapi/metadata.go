// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package agentapi

import "encoding/json"

// Provider is a model provider. Models are kept raw: the client only
// needs their ids for display.
type Provider struct {
	ID     string                     `json:"id"`
	Name   string                     `json:"name"`
	Env    []string                   `json:"env,omitempty"`
	Models map[string]json.RawMessage `json:"models,omitempty"`
}

// ConfigProviders is the response of GET /config/providers: the
// providers enabled by configuration and the default model per
// provider.
type ConfigProviders struct {
	Providers []Provider        `json:"providers"`
	Default   map[string]string `json:"default"`
}

// ProviderCatalog is the response of GET /provider: every known
// provider and which of them have credentials.
type ProviderCatalog struct {
	All       []Provider        `json:"all"`
	Default   map[string]string `json:"default"`
	Connected []string          `json:"connected"`
}

// Agent is an agent definition the server can run.
type Agent struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Mode        string `json:"mode,omitempty"`
	Hidden      bool   `json:"hidden,omitempty"`
}

// Command is a slash command.
type Command struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Agent       string `json:"agent,omitempty"`
	Template    string `json:"template,omitempty"`
}

// LSPStatus is the state of one language server.
type LSPStatus struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Root   string `json:"root"`
	Status string `json:"status"`
}

// MCPStatus is the state of one MCP server, keyed by name in the
// status map.
type MCPStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// FormatterStatus is the state of one code formatter.
type FormatterStatus struct {
	Name       string   `json:"name"`
	Extensions []string `json:"extensions,omitempty"`
	Enabled    bool     `json:"enabled"`
}

// ProviderAuthMethod is one way to authenticate against a provider.
type ProviderAuthMethod struct {
	Type  string `json:"type"`
	Label string `json:"label"`
}

// VCSInfo describes the version control state of the project.
type VCSInfo struct {
	Branch string `json:"branch,omitempty"`
}

// PathInfo is the server's view of its directories.
type PathInfo struct {
	Home      string `json:"home,omitempty"`
	State     string `json:"state,omitempty"`
	Config    string `json:"config,omitempty"`
	Worktree  string `json:"worktree,omitempty"`
	Directory string `json:"directory,omitempty"`
}
