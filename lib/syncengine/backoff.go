// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncengine

import "time"

const (
	// InitialBackoff is the delay after the second consecutive failure.
	// The first failure reconnects immediately.
	InitialBackoff = 1 * time.Second

	// DefaultMaxBackoff caps the reconnect delay.
	DefaultMaxBackoff = 8 * time.Second
)

// Backoff produces reconnect delays: 0, then InitialBackoff, doubling
// up to the cap. Not safe for concurrent use; the event loop owns it.
type Backoff struct {
	maximum time.Duration
	current time.Duration
}

// NewBackoff returns a Backoff capped at maximum. A non-positive
// maximum means DefaultMaxBackoff.
func NewBackoff(maximum time.Duration) *Backoff {
	if maximum <= 0 {
		maximum = DefaultMaxBackoff
	}
	return &Backoff{maximum: maximum}
}

// Next returns the delay before the next attempt and advances.
func (b *Backoff) Next() time.Duration {
	delay := b.current
	if b.current == 0 {
		b.current = min(InitialBackoff, b.maximum)
	} else {
		b.current = min(b.current*2, b.maximum)
	}
	return delay
}

// Reset returns to an immediate retry. Called after a successful
// subscribe.
func (b *Backoff) Reset() {
	b.current = 0
}
