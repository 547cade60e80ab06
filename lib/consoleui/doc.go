// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package consoleui is the interactive session browser of
// bureau-console. It is a bubbletea model over a [syncstate.Store]:
// the left pane lists sessions (fuzzy-filterable with /), the right
// pane shows the selected session's messages, pending prompts and
// todos.
//
// The model never writes to the store. It re-reads on every store
// change notification, and asks for a session's history through the
// SyncSession callback when the user opens it. Log records reach the
// status bar through [LogHandler].
package consoleui
