// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the injectable time source used by the
// synchronization engine's schedulers.
//
// The event batcher, the LSP refresh debounce and the reconnection
// backoff all wait on timers. They take a [Clock] instead of calling
// the time package so that tests can drive them deterministically:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	engine, _ := syncengine.New(syncengine.Config{Clock: fake, ...})
//	fake.WaitForTimers(1)            // a backoff sleep is pending
//	fake.Advance(time.Second)        // fire it
//
// [WaitForTimers] closes the race between a goroutine registering a
// timer and the test advancing time past it.
package clock
