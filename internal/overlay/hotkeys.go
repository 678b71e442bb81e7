package overlay

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/raidtimer/timerlink/internal/hotkey"
)

// HotkeyBinding is one configured timer hotkey and its registration outcome.
type HotkeyBinding struct {
	TimerID string `json:"timerId"`
	Hotkey  string `json:"hotkey"`
	Display string `json:"display"`
	Active  bool   `json:"active"`
	Error   string `json:"error,omitempty"`
}

// BindingID is the hotkey registration id of timer id.
func BindingID(timerID string) string {
	return BindingPrefix + timerID
}

func timerIDFromBinding(bindingID string) (string, bool) {
	return strings.CutPrefix(bindingID, BindingPrefix)
}

func (o *Orchestrator) bindAll() {
	o.mu.Lock()
	bindings := maps.Clone(o.hotkeys)
	clear(o.hotkeyErrs)
	o.mu.Unlock()

	ids := slices.Sorted(maps.Keys(bindings))
	for _, id := range ids {
		o.bind(id, bindings[id])
	}
}

func (o *Orchestrator) bind(timerID, hk string) {
	if strings.TrimSpace(hk) == "" {
		return
	}
	err := o.keys.Register(BindingID(timerID), hk, func() {
		o.Toggle(context.Background(), timerID)
	})

	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		slog.Warn("timer hotkey skipped", "timer", timerID, "hotkey", hk, "error", err)
		o.hotkeyErrs[timerID] = err.Error()
		return
	}
	delete(o.hotkeyErrs, timerID)
}

func (o *Orchestrator) startHook() {
	err := o.keys.Start()

	o.mu.Lock()
	o.hookErr = err
	o.hookActive = err == nil
	o.mu.Unlock()

	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, hotkey.ErrHookUnsupported) {
			level = slog.LevelInfo
		}
		slog.Log(context.Background(), level, "global hotkeys disabled", "error", err)
	}
}

func (o *Orchestrator) stopHook() {
	if o.keys == nil {
		return
	}

	o.mu.Lock()
	active := o.hookActive
	o.hookActive = false
	o.mu.Unlock()

	if !active {
		return
	}
	if err := o.keys.Stop(); err != nil {
		slog.Warn("hotkey hook stop", "error", err)
	}
}

// SetHotkeys replaces the timer hotkey map and rebinds it. Bindings of timers
// that are no longer listed are removed.
func (o *Orchestrator) SetHotkeys(bindings map[string]string) {
	o.mu.Lock()
	previous := o.hotkeys
	o.hotkeys = maps.Clone(bindings)
	o.mu.Unlock()

	if o.keys != nil && o.opts.HotkeysEnabled {
		for id := range previous {
			o.keys.Unregister(BindingID(id))
		}
		o.bindAll()
	}

	o.notify(ChangeHotkeys)
}

// Hotkeys lists the configured timer hotkeys sorted by timer id.
func (o *Orchestrator) Hotkeys() []HotkeyBinding {
	registered := make(map[string]hotkey.Registration)
	if o.keys != nil {
		for _, reg := range o.keys.Registrations() {
			if id, ok := timerIDFromBinding(reg.ID); ok {
				registered[id] = reg
			}
		}
	}

	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]HotkeyBinding, 0, len(o.hotkeys))
	for id, hk := range o.hotkeys {
		if strings.TrimSpace(hk) == "" {
			continue
		}
		b := HotkeyBinding{
			TimerID: id,
			Hotkey:  hk,
			Display: hotkey.DisplayText(hk),
			Error:   o.hotkeyErrs[id],
		}
		if reg, ok := registered[id]; ok {
			b.Hotkey = reg.Normalized
			b.Display = reg.Display
			b.Active = o.hookActive
		}
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b HotkeyBinding) int { return cmp.Compare(a.TimerID, b.TimerID) })
	return out
}

func (o *Orchestrator) hotkeyDisplay(timerID string) string {
	hk, ok := o.hotkeys[timerID]
	if !ok || strings.TrimSpace(hk) == "" {
		return ""
	}
	return hotkey.DisplayText(hk)
}
