// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncengine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/console/lib/clock"
	"github.com/bureau-foundation/console/lib/syncstate"
)

const (
	// DefaultOrphanPartTTL bounds how long parts wait for their message.
	DefaultOrphanPartTTL = 30 * time.Second

	// DefaultSessionWindow limits the bootstrap session list to
	// recently updated sessions.
	DefaultSessionWindow = 30 * 24 * time.Hour
)

// Config configures an Engine.
type Config struct {
	// RPC serves every fetch. Required.
	RPC RPC

	// Events opens the event stream. Required for StartEventLoop.
	Events EventSource

	// Clock drives the flush, debounce and backoff timers. Nil means
	// clock.Real().
	Clock clock.Clock

	// Logger is used for structured logging. If nil, slog.Default() is
	// used.
	Logger *slog.Logger

	MessageCapacity int
	FlushInterval   time.Duration
	LSPDebounce     time.Duration
	MaxBackoff      time.Duration
	OrphanPartTTL   time.Duration
	SessionWindow   time.Duration

	// ContinueLastSession makes the session list part of the blocking
	// bootstrap, because the UI opens the most recent session as soon
	// as it renders.
	ContinueLastSession bool

	// OnFatal is called when a blocking bootstrap fetch fails. The
	// error is also returned from Bootstrap.
	OnFatal func(error)

	// OnDisconnect is called after every event stream end, before the
	// backoff sleep. Connection-pooling clients use it to drop idle
	// connections.
	OnDisconnect func()
}

// ConnectionState is the event loop's position in its
// connect/stream/backoff cycle.
type ConnectionState string

const (
	StateIdle       ConnectionState = "idle"
	StateConnecting ConnectionState = "connecting"
	StateStreaming  ConnectionState = "streaming"
	StateBackoff    ConnectionState = "backoff"
	StateStopped    ConnectionState = "stopped"
)

// Engine synchronizes a Store with an agent server.
type Engine struct {
	config Config
	rpc    RPC
	clock  clock.Clock
	logger *slog.Logger

	store     *syncstate.Store
	batcher   *Batcher
	refresher *Refresher

	ctx    context.Context
	cancel context.CancelFunc

	lifecycleMutex sync.Mutex
	disposed       bool
	loopStarted    bool
	background     sync.WaitGroup

	connection atomic.Value // ConnectionState

	syncMutex      sync.Mutex
	synced         map[string]bool
	syncing        map[string]*syncCall
	syncGeneration uint64

	deletions deletionLog
}

// New creates an Engine with an empty store. Nothing is fetched until
// Bootstrap, SyncSession or StartEventLoop is called.
func New(config Config) (*Engine, error) {
	if config.RPC == nil {
		return nil, fmt.Errorf("syncengine: RPC is required")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.MessageCapacity <= 0 {
		config.MessageCapacity = syncstate.DefaultMessageCapacity
	}
	if config.LSPDebounce <= 0 {
		config.LSPDebounce = DefaultLSPDebounce
	}
	if config.OrphanPartTTL <= 0 {
		config.OrphanPartTTL = DefaultOrphanPartTTL
	}
	if config.SessionWindow <= 0 {
		config.SessionWindow = DefaultSessionWindow
	}

	ctx, cancel := context.WithCancel(context.Background())
	engine := &Engine{
		config:  config,
		rpc:     config.RPC,
		clock:   config.Clock,
		logger:  config.Logger,
		ctx:     ctx,
		cancel:  cancel,
		synced:  make(map[string]bool),
		syncing: make(map[string]*syncCall),
		store: syncstate.NewStore(syncstate.Options{
			MessageCapacity: config.MessageCapacity,
			Now:             config.Clock.Now,
		}),
	}
	engine.connection.Store(StateIdle)
	engine.batcher = NewBatcher(config.Clock, config.FlushInterval, engine.applyBatch)
	engine.refresher = NewRefresher(config.Clock, config.LSPDebounce, engine.refreshLSP)
	return engine, nil
}

// Store returns the store the engine writes to.
func (e *Engine) Store() *syncstate.Store { return e.store }

// ConnectionState returns where the event loop is.
func (e *Engine) ConnectionState() ConnectionState {
	return e.connection.Load().(ConnectionState)
}

func (e *Engine) setConnection(state ConnectionState) {
	e.connection.Store(state)
}

// StartEventLoop starts the event loop in the background. Calls after
// the first, and calls after Dispose, do nothing.
func (e *Engine) StartEventLoop() error {
	if e.config.Events == nil {
		return fmt.Errorf("syncengine: Events is required for the event loop")
	}
	e.lifecycleMutex.Lock()
	started := e.loopStarted
	e.loopStarted = true
	e.lifecycleMutex.Unlock()
	if started {
		return nil
	}
	e.spawn(func() { e.runEventLoop(e.ctx) })
	return nil
}

// Dispose stops the event loop and every timer, cancels background
// fetches and waits for them to return. The store stays readable.
func (e *Engine) Dispose() {
	e.lifecycleMutex.Lock()
	if e.disposed {
		e.lifecycleMutex.Unlock()
		return
	}
	e.disposed = true
	e.lifecycleMutex.Unlock()

	e.cancel()
	e.background.Wait()
	e.batcher.Stop()
	e.refresher.Stop()
	e.setConnection(StateStopped)
}

// spawn runs fn in a tracked goroutine unless the engine is disposed.
func (e *Engine) spawn(fn func()) bool {
	e.lifecycleMutex.Lock()
	defer e.lifecycleMutex.Unlock()
	if e.disposed {
		return false
	}
	e.background.Add(1)
	go func() {
		defer e.background.Done()
		fn()
	}()
	return true
}

func (e *Engine) refreshLSP() {
	servers, err := e.rpc.LSPStatus(e.ctx)
	if err != nil {
		e.logger.Debug("lsp status refresh failed", "error", err)
		return
	}
	e.store.Update(func(state *syncstate.State) bool {
		return state.SetLSP(servers)
	})
}
