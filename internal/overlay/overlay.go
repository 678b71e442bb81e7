// Package overlay wires the timer sync client to the hotkey engine and keeps
// the view state the local surfaces (control plane, watch TUI) render from.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/raidtimer/timerlink/internal/hotkey"
	"github.com/raidtimer/timerlink/internal/timersdk"
	"github.com/raidtimer/timerlink/internal/timerstate"
	"github.com/raidtimer/timerlink/internal/timersync"
)

const (
	// BindingPrefix prefixes the hotkey binding id of a timer.
	BindingPrefix = "timer:"

	// ActionToggle resets a running timer and starts any other.
	ActionToggle = "toggle"

	DefaultActionTimeout = 5 * time.Second
)

var (
	ErrAlreadyStarted = errors.New("overlay: already started")
	ErrUnknownAction  = errors.New("overlay: unknown action")
	ErrNoTimerID      = errors.New("overlay: timer id is required")
)

// SyncClient is the subset of timersync.Client the orchestrator drives.
type SyncClient interface {
	Start() error
	Stop()
	Subscribe(buffer int) <-chan timersync.Event
	Unsubscribe(ch <-chan timersync.Event)
	Do(ctx context.Context, id string, action timersdk.Action) bool
	Timers() []timerstate.TimerSnapshot
	Connection() timersync.Connection
	Offset() time.Duration
	Stats() timersync.StatsSnapshot
}

// HotkeyEngine is the subset of hotkey.Engine the orchestrator drives.
type HotkeyEngine interface {
	Register(id, hotkey string, callback func()) error
	Unregister(id string) bool
	Registrations() []hotkey.Registration
	Start() error
	Stop() error
}

type Options struct {
	// Hotkeys maps timer id to hotkey string.
	Hotkeys        map[string]string
	HotkeysEnabled bool
	ActionTimeout  time.Duration
	// Now is the clock used for view extrapolation. Defaults to time.Now.
	Now func() time.Time
}

// Orchestrator holds the timer set published by the sync client, binds the
// configured hotkeys and fans change notifications out to local surfaces.
type Orchestrator struct {
	client SyncClient
	keys   HotkeyEngine
	opts   Options

	mu         sync.RWMutex
	timers     map[string]timerstate.TimerSnapshot
	conn       timersync.Connection
	offset     time.Duration
	hotkeys    map[string]string
	hotkeyErrs map[string]string
	hookErr    error
	hookActive bool
	repeats    map[string]*repeatRestart

	lifeMu  sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	syncSub <-chan timersync.Event

	subsMu sync.Mutex
	subs   map[chan Change]struct{}
}

// New creates an orchestrator. keys may be nil when hotkeys are unavailable.
func New(client SyncClient, keys HotkeyEngine, opts Options) *Orchestrator {
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = DefaultActionTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{
		client:     client,
		keys:       keys,
		opts:       opts,
		timers:     make(map[string]timerstate.TimerSnapshot),
		hotkeys:    maps.Clone(opts.Hotkeys),
		hotkeyErrs: make(map[string]string),
		repeats:    make(map[string]*repeatRestart),
		subs:       make(map[chan Change]struct{}),
	}
}

// Start binds hotkeys, attaches the key hook and starts the sync loop. A hook
// failure only disables hotkeys; it is reported by Status.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.lifeMu.Lock()
	defer o.lifeMu.Unlock()

	if o.cancel != nil {
		return ErrAlreadyStarted
	}

	sub := o.client.Subscribe(timersync.DefaultSubscriberBuffer)
	o.seed()

	if o.opts.HotkeysEnabled && o.keys != nil {
		o.bindAll()
		o.startHook()
	}

	if err := o.client.Start(); err != nil {
		o.client.Unsubscribe(sub)
		o.stopHook()
		return fmt.Errorf("start sync: %w", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.syncSub = sub
	o.done = make(chan struct{})
	go o.consume(loopCtx, sub, o.done)

	slog.Info("overlay started", "hotkeys", len(o.Hotkeys()))
	return nil
}

// Stop detaches the hook, stops the sync loop and waits for the event
// consumer. It is idempotent.
func (o *Orchestrator) Stop() {
	o.lifeMu.Lock()
	defer o.lifeMu.Unlock()

	if o.cancel == nil {
		return
	}

	o.stopHook()
	o.client.Stop()
	o.cancel()
	o.client.Unsubscribe(o.syncSub)
	<-o.done

	o.mu.Lock()
	o.stopRepeatsLocked()
	o.mu.Unlock()

	o.cancel = nil
	o.done = nil
	o.syncSub = nil
	slog.Info("overlay stopped")
}

// Run starts the orchestrator and blocks until ctx is done.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	o.Stop()
	return nil
}

func (o *Orchestrator) seed() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.replaceLocked(o.client.Timers())
	o.conn = o.client.Connection()
	o.offset = o.client.Offset()
}

func (o *Orchestrator) consume(ctx context.Context, sub <-chan timersync.Event, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			o.apply(ev)
		}
	}
}

func (o *Orchestrator) apply(ev timersync.Event) {
	var kind ChangeKind

	o.mu.Lock()
	switch ev.Kind {
	case timersync.EventTimers, timersync.EventOffsetChanged:
		o.replaceLocked(ev.Timers)
		o.offset = ev.Offset
		kind = ChangeTimers
	case timersync.EventConnection:
		o.conn = ev.Connection
		kind = ChangeConnection
	}
	o.mu.Unlock()

	if kind != "" {
		o.notify(kind)
	}
}

func (o *Orchestrator) replaceLocked(set []timerstate.TimerSnapshot) {
	next := make(map[string]timerstate.TimerSnapshot, len(set))
	for _, s := range set {
		next[s.ID] = s
	}
	o.timers = next
	o.scheduleRepeatsLocked()
}

// Do runs one action against timer id. action is a server action name
// (start, pause, reset, toggle-repeat, repeat) or "toggle". The bool
// reports whether the server accepted it.
func (o *Orchestrator) Do(ctx context.Context, id, action string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, ErrNoTimerID
	}

	resolved, err := o.resolve(id, action)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.opts.ActionTimeout)
	defer cancel()

	ok := o.client.Do(ctx, id, resolved)
	slog.Info("timer action", "id", id, "action", action, "sent", resolved, "ok", ok)
	return ok, nil
}

// Toggle resets timer id when it is running and starts it otherwise.
func (o *Orchestrator) Toggle(ctx context.Context, id string) bool {
	ok, err := o.Do(ctx, id, ActionToggle)
	if err != nil {
		slog.Warn("toggle failed", "id", id, "error", err)
	}
	return ok
}

func (o *Orchestrator) resolve(id, action string) (timersdk.Action, error) {
	if strings.EqualFold(strings.TrimSpace(action), ActionToggle) {
		o.mu.RLock()
		snap, ok := o.timers[id]
		o.mu.RUnlock()
		if ok && snap.IsRunning {
			return timersdk.ActionReset, nil
		}
		return timersdk.ActionStart, nil
	}

	parsed, err := timersdk.ParseAction(action)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	return parsed, nil
}

// Connection returns the last connection state seen.
func (o *Orchestrator) Connection() timersync.Connection {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.conn
}

// Offset returns the clock offset the held set is based on.
func (o *Orchestrator) Offset() time.Duration {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.offset
}

// Now returns the orchestrator clock reading.
func (o *Orchestrator) Now() time.Time {
	return o.opts.Now()
}
