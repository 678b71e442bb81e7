// Package hotkey recognizes global multi-key chords from a stream of key
// transitions and runs the bound callbacks off the delivery goroutine.
package hotkey

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

type registration struct {
	id       string
	hotkey   string
	chord    Chord
	tokens   mapset.Set[Token]
	callback func()
	active   bool
}

// Registration describes one bound chord.
type Registration struct {
	ID         string `json:"id"`
	Hotkey     string `json:"hotkey"`
	Normalized string `json:"normalized"`
	Display    string `json:"display"`
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithDispatcher replaces the default queue dispatcher. The engine does
// not close a dispatcher it did not create.
func WithDispatcher(d Dispatcher) EngineOption {
	return func(e *Engine) {
		e.dispatcher = d
		e.ownDispatcher = nil
	}
}

// Engine is the chord state machine.
type Engine struct {
	hook          Hook
	dispatcher    Dispatcher
	ownDispatcher *QueueDispatcher

	lifeMu sync.Mutex // serializes Start and Stop

	mu      sync.Mutex
	regs    map[string]*registration
	pressed mapset.Set[Token]
	started bool
}

// NewEngine creates a stopped engine reading from hook.
func NewEngine(hook Hook, opts ...EngineOption) *Engine {
	qd := NewQueueDispatcher(DefaultQueueSize)
	e := &Engine{
		hook:          hook,
		dispatcher:    qd,
		ownDispatcher: qd,
		regs:          make(map[string]*registration),
		pressed:       mapset.NewThreadUnsafeSet[Token](),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.ownDispatcher == nil {
		qd.Close()
	}
	return e
}

// Register binds hotkey to callback under id. Re-registering id replaces
// its binding. A hotkey whose keys equal another id's is rejected with
// ErrDuplicateHotkey and nothing changes.
func (e *Engine) Register(id, hotkey string, callback func()) error {
	if callback == nil {
		return fmt.Errorf("%w: nil callback for %s", ErrInvalidHotkey, id)
	}
	chord, err := Parse(hotkey)
	if err != nil {
		slog.Warn("hotkey rejected", "id", id, "hotkey", hotkey, "error", err)
		return err
	}
	tokens := chord.Set()

	e.mu.Lock()
	defer e.mu.Unlock()

	for otherID, other := range e.regs {
		if otherID != id && other.tokens.Equal(tokens) {
			slog.Warn("duplicate hotkey rejected", "id", id, "hotkey", hotkey, "owner", otherID)
			return fmt.Errorf("%w: %s is bound to %s", ErrDuplicateHotkey, chord, otherID)
		}
	}

	if existing, ok := e.regs[id]; ok {
		existing.active = false
	}
	e.regs[id] = &registration{
		id:       id,
		hotkey:   hotkey,
		chord:    chord,
		tokens:   tokens,
		callback: callback,
	}

	slog.Debug("hotkey registered", "id", id, "hotkey", chord.String())
	return nil
}

// Unregister removes the binding of id. It reports whether one existed.
func (e *Engine) Unregister(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	reg, ok := e.regs[id]
	if !ok {
		return false
	}
	reg.active = false
	delete(e.regs, id)
	return true
}

// Clear drops every binding and the pressed key state.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	clear(e.regs)
	e.pressed.Clear()
}

// Registrations lists the bindings sorted by id.
func (e *Engine) Registrations() []Registration {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Registration, 0, len(e.regs))
	for _, r := range e.regs {
		out = append(out, Registration{
			ID:         r.id,
			Hotkey:     r.hotkey,
			Normalized: r.chord.String(),
			Display:    r.chord.Display(),
		})
	}
	slices.SortFunc(out, func(a, b Registration) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Start attaches the hook. Registrations made while stopped become live.
func (e *Engine) Start() error {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()

	e.mu.Lock()
	started := e.started
	e.mu.Unlock()
	if started {
		return nil
	}

	if err := e.hook.Subscribe(e.handleKey); err != nil {
		return fmt.Errorf("hotkey: start: %w", err)
	}

	e.mu.Lock()
	e.resetLocked()
	e.started = true
	e.mu.Unlock()

	slog.Info("hotkeys started")
	return nil
}

// Stop detaches the hook. Bindings are kept.
func (e *Engine) Stop() error {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()

	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return nil
	}
	e.started = false
	e.resetLocked()
	e.mu.Unlock()

	if err := e.hook.Unsubscribe(); err != nil {
		return fmt.Errorf("hotkey: stop: %w", err)
	}
	slog.Info("hotkeys stopped")
	return nil
}

// Running reports whether the hook is attached.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started
}

// Close stops the engine and its own dispatcher.
func (e *Engine) Close() error {
	err := e.Stop()
	if e.ownDispatcher != nil {
		e.ownDispatcher.Close()
	}
	return err
}

func (e *Engine) resetLocked() {
	e.pressed.Clear()
	for _, r := range e.regs {
		r.active = false
	}
}

// handleKey runs on the hook goroutine: bookkeeping only, callbacks are
// handed to the dispatcher.
func (e *Engine) handleKey(ev KeyEvent) {
	token, ok := TokenForKeyName(ev.Name)
	if !ok {
		return
	}

	var fired []*registration

	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	if ev.Down {
		e.pressed.Add(token)
		for _, r := range e.regs {
			if !r.tokens.IsSubset(e.pressed) {
				r.active = false
				continue
			}
			if !r.active {
				r.active = true
				fired = append(fired, r)
			}
		}
	} else {
		e.pressed.Remove(token)
		for _, r := range e.regs {
			if r.tokens.Contains(token) {
				r.active = false
			}
		}
	}
	callbacks := make([]func(), 0, len(fired))
	slices.SortFunc(fired, func(a, b *registration) int { return cmp.Compare(a.id, b.id) })
	for _, r := range fired {
		callbacks = append(callbacks, r.callback)
	}
	e.mu.Unlock()

	for _, cb := range callbacks {
		e.dispatcher.Dispatch(cb)
	}
}
