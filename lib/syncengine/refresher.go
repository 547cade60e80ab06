// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncengine

import (
	"sync"
	"time"

	"github.com/bureau-foundation/console/lib/clock"
)

// DefaultLSPDebounce is the delay between an lsp.updated event and
// the status refetch.
const DefaultLSPDebounce = 80 * time.Millisecond

// Refresher runs a refetch after a debounce delay, with at most one
// run in flight and at most one queued behind it.
//
// Triggers during the delay collapse into one run. A run that comes
// due while another is in flight is queued, and the queued run starts
// as soon as the in-flight one finishes. Further triggers while one
// run is queued collapse into it.
type Refresher struct {
	clock clock.Clock
	delay time.Duration
	run   func()

	mutex    sync.Mutex
	timer    *clock.Timer
	inFlight bool
	queued   bool
	stopped  bool
	running  sync.WaitGroup
}

// NewRefresher returns a Refresher that calls run. run handles its own
// errors.
func NewRefresher(clk clock.Clock, delay time.Duration, run func()) *Refresher {
	return &Refresher{clock: clk, delay: delay, run: run}
}

// Trigger requests a run.
func (r *Refresher) Trigger() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.stopped || r.timer != nil {
		return
	}
	if r.delay <= 0 {
		r.dueLocked()
		return
	}
	r.timer = r.clock.AfterFunc(r.delay, r.fire)
}

func (r *Refresher) fire() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.timer = nil
	if r.stopped {
		return
	}
	r.dueLocked()
}

func (r *Refresher) dueLocked() {
	if r.inFlight {
		r.queued = true
		return
	}
	r.inFlight = true
	r.running.Add(1)
	go r.loop()
}

func (r *Refresher) loop() {
	defer r.running.Done()
	for {
		r.run()

		r.mutex.Lock()
		if r.queued && !r.stopped {
			r.queued = false
			r.mutex.Unlock()
			continue
		}
		r.inFlight = false
		r.queued = false
		r.mutex.Unlock()
		return
	}
}

// Stop cancels a pending trigger, drops the queued run and waits for
// the in-flight run to return.
func (r *Refresher) Stop() {
	r.mutex.Lock()
	r.stopped = true
	r.queued = false
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.mutex.Unlock()
	r.running.Wait()
}
