// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package agentapi defines the wire types exchanged with the agent
// server: the entities mirrored by the client cache (sessions,
// messages, parts, permission and question prompts, teams), the
// metadata fetched at bootstrap, and the change events delivered on
// the /event stream.
//
// Field names follow the server's camelCase JSON. Identifiers are
// opaque strings whose lexicographic order is creation order; the
// keyed types implement Key and Equal so they can be stored in
// [ordered] slices.
//
// This package depends on no other console packages.
package agentapi
