// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package agentclient is an HTTP client for the agent server's read
// API and its server-sent event stream.
//
// [Client] issues JSON GET requests (sessions, message history, todos,
// diffs, providers, agents, config, tool status, teams) and decodes
// non-2xx responses into [APIError]. Every request carries the
// client's working directory as the "directory" query parameter when
// one is configured, so one server can serve several projects.
//
// [Client.Subscribe] opens GET /event and returns an [EventStream]
// that yields one [agentapi.Event] per SSE message. Only "data:" lines
// are interpreted; "event:", "id:" and "retry:" fields and comment
// lines are skipped, and a message whose data is not a JSON event with
// a type is dropped. The stream has no request timeout: it ends when
// the server closes it, the connection fails or the context passed to
// Subscribe is cancelled.
package agentclient
