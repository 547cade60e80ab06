// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package syncengine keeps a [syncstate.Store] synchronized with an
// agent server.
//
// An [Engine] combines four pieces:
//
//   - Bootstrap fetches the data the UI cannot render without
//     (providers, agents, config, and the session list when resuming
//     the last session) and blocks on it, then fetches everything else
//     in the background. Store status moves loading, partial, complete.
//   - The event loop subscribes to the server's event stream and
//     reconnects with exponential backoff (0s, 1s, 2s, 4s, 8s cap),
//     resetting the backoff on every successful subscribe.
//   - A [Batcher] coalesces events arriving within one frame interval
//     (16ms) into a single store update, so a burst of part updates
//     re-renders once.
//   - A [Refresher] debounces LSP status refetches triggered by
//     "lsp.updated" events, with at most one request in flight and one
//     queued.
//
// SyncSession loads one session's full history on demand and is
// idempotent per session until the session is deleted or the server
// instance is disposed.
//
// Every timer goes through lib/clock so tests drive the engine with a
// fake clock.
package syncengine
