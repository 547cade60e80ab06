// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncengine

import (
	"sync"
	"time"

	"github.com/bureau-foundation/console/lib/agentapi"
	"github.com/bureau-foundation/console/lib/clock"
)

// DefaultFlushInterval is one frame at 60Hz.
const DefaultFlushInterval = 16 * time.Millisecond

// Batcher coalesces events into batches.
//
// An event pushed when the last flush is at least one interval old is
// applied immediately. Otherwise it is queued and a flush is scheduled
// one interval out; events pushed while that flush is pending join
// the same batch. Batches are applied one at a time, in arrival order.
type Batcher struct {
	clock    clock.Clock
	interval time.Duration
	apply    func([]agentapi.Event)

	mutex     sync.Mutex
	queue     []agentapi.Event
	timer     *clock.Timer
	lastFlush time.Time
	stopped   bool

	// applyMutex serializes apply calls so a timer flush and an
	// explicit flush cannot interleave batches.
	applyMutex sync.Mutex
}

// NewBatcher returns a Batcher that hands each batch to apply. A
// non-positive interval means DefaultFlushInterval.
func NewBatcher(clk clock.Clock, interval time.Duration, apply func([]agentapi.Event)) *Batcher {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	return &Batcher{clock: clk, interval: interval, apply: apply}
}

// Push queues one event.
func (b *Batcher) Push(event agentapi.Event) {
	b.mutex.Lock()
	if b.stopped {
		b.mutex.Unlock()
		return
	}
	b.queue = append(b.queue, event)
	if b.timer != nil {
		b.mutex.Unlock()
		return
	}
	if b.clock.Now().Sub(b.lastFlush) < b.interval {
		b.timer = b.clock.AfterFunc(b.interval, b.Flush)
		b.mutex.Unlock()
		return
	}
	b.mutex.Unlock()
	b.Flush()
}

// Flush applies everything queued now and cancels any scheduled flush.
func (b *Batcher) Flush() {
	b.applyMutex.Lock()
	defer b.applyMutex.Unlock()

	b.mutex.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	queue := b.queue
	b.queue = nil
	b.lastFlush = b.clock.Now()
	b.mutex.Unlock()

	if len(queue) > 0 {
		b.apply(queue)
	}
}

// Pending returns the number of queued events.
func (b *Batcher) Pending() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.queue)
}

// Stop cancels the scheduled flush and discards queued events. Pushes
// after Stop are ignored.
func (b *Batcher) Stop() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.stopped = true
	b.queue = nil
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}
