// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncstate

import (
	"encoding/json"

	"github.com/bureau-foundation/console/lib/agentapi"
)

// Metadata returns the bootstrap metadata. Treat the slices and maps
// in the result as read-only.
func (s *State) Metadata() Metadata { return s.metadata }

func (s *State) SetConfigProviders(providers agentapi.ConfigProviders) bool {
	return assign(&s.metadata.Providers, providers)
}

func (s *State) SetProviderCatalog(catalog agentapi.ProviderCatalog) bool {
	return assign(&s.metadata.Catalog, catalog)
}

func (s *State) SetAgents(agents []agentapi.Agent) bool {
	return assign(&s.metadata.Agents, agents)
}

// SetConfig stores the server configuration document as received.
func (s *State) SetConfig(config json.RawMessage) bool {
	return assign(&s.metadata.Config, config)
}

func (s *State) SetCommands(commands []agentapi.Command) bool {
	return assign(&s.metadata.Commands, commands)
}

func (s *State) SetLSP(servers []agentapi.LSPStatus) bool {
	return assign(&s.metadata.LSP, servers)
}

func (s *State) SetMCP(servers map[string]agentapi.MCPStatus) bool {
	return assign(&s.metadata.MCP, servers)
}

func (s *State) SetFormatters(formatters []agentapi.FormatterStatus) bool {
	return assign(&s.metadata.Formatters, formatters)
}

func (s *State) SetProviderAuth(methods map[string][]agentapi.ProviderAuthMethod) bool {
	return assign(&s.metadata.ProviderAuth, methods)
}

func (s *State) SetVCS(info agentapi.VCSInfo) bool {
	return assign(&s.metadata.VCS, info)
}

// SetVCSBranch updates only the branch, as reported by branch change
// events.
func (s *State) SetVCSBranch(branch string) bool {
	if s.metadata.VCS.Branch == branch {
		return false
	}
	s.metadata.VCS.Branch = branch
	return true
}

func (s *State) SetPath(path agentapi.PathInfo) bool {
	return assign(&s.metadata.Path, path)
}
