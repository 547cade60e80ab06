// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package syncstate is the client-side cache of agent server state.
//
// [State] holds the primary collections (sessions, per-session message
// buffers, per-message part buffers, prompts, todos, diffs, teams and
// bootstrap metadata) together with the derived indices the UI reads
// without re-deriving them on every render:
//
//   - messageOwner: message id to owning session id. Parts can arrive
//     before their message; the owner index is how a part finds its
//     session once the message lands.
//   - sessionParts: session id to message id to part buffer.
//   - messageTokens and sessionTokens: approximate token counts,
//     maintained by signed deltas rather than recomputation.
//
// Every mutation method keeps all of these in lockstep in one step and
// returns whether it changed anything. The invariants, checked by the
// package tests after randomized operation sequences, are:
//
//  1. message and part buffers are sorted ascending by id
//  2. no id appears twice in a buffer
//  3. a session holds at most MessageCapacity messages; inserting
//     beyond that evicts the oldest with a full cascade
//  4. every derived key refers to a live primary entity
//  5. sessionTokens[s] equals the sum of messageTokens over the
//     messages of s
//
// Parts whose message has not arrived are parked in the primary part
// buffer and stamped in an orphan index. [State.SweepOrphans] drops
// parked parts older than a TTL so a message that never arrives cannot
// pin memory indefinitely.
//
// State is not safe for concurrent use. [Store] wraps it with a lock, a
// version counter and change subscriptions, and is what the engine and
// the UI share.
package syncstate
