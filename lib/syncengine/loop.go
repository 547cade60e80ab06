// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncengine

import (
	"context"
	"time"

	"github.com/bureau-foundation/console/lib/netutil"
)

// runEventLoop connects, streams and reconnects until ctx is done.
func (e *Engine) runEventLoop(ctx context.Context) {
	backoff := NewBackoff(e.config.MaxBackoff)
	for {
		e.setConnection(StateConnecting)
		err := e.runStream(ctx, backoff)

		// Events read before the stream ended must not wait for the
		// next stream's first flush.
		e.batcher.Flush()

		if ctx.Err() != nil {
			e.setConnection(StateStopped)
			return
		}

		delay := backoff.Next()
		if netutil.IsStreamEnd(err) {
			e.logger.Info("event stream ended", "error", err, "backoff", delay)
		} else {
			e.logger.Warn("event stream failed", "error", err, "backoff", delay)
		}
		if e.config.OnDisconnect != nil {
			e.config.OnDisconnect()
		}

		e.setConnection(StateBackoff)
		if !e.sleep(ctx, delay) {
			e.setConnection(StateStopped)
			return
		}
	}
}

// runStream subscribes and feeds events to the batcher until the
// stream ends. The backoff resets as soon as the subscribe succeeds.
func (e *Engine) runStream(ctx context.Context, backoff *Backoff) error {
	stream, err := e.config.Events.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()
	stopClose := context.AfterFunc(ctx, func() { stream.Close() })
	defer stopClose()

	backoff.Reset()
	e.setConnection(StateStreaming)
	e.logger.Debug("event stream open")

	for {
		event, err := stream.Next()
		if err != nil {
			return err
		}
		e.batcher.Push(event)
	}
}

// sleep waits for delay on the engine clock. It returns false if ctx
// ends first, after cancelling the timer.
func (e *Engine) sleep(ctx context.Context, delay time.Duration) bool {
	if delay <= 0 {
		return ctx.Err() == nil
	}
	wake := make(chan struct{})
	timer := e.clock.AfterFunc(delay, func() { close(wake) })
	select {
	case <-wake:
		return true
	case <-ctx.Done():
		timer.Stop()
		return false
	}
}
