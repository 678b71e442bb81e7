package overlay

import (
	"slices"
	"time"

	"github.com/raidtimer/timerlink/internal/timerstate"
	"github.com/raidtimer/timerlink/internal/timersync"
)

// TimerView is a timer extrapolated to one instant, ready for display.
type TimerView struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Remaining     string            `json:"remaining"`
	RemainingMs   int64             `json:"remainingMs"`
	DurationMs    int64             `json:"durationMs"`
	Status        timerstate.Status `json:"status"`
	Running       bool              `json:"running"`
	RepeatEnabled bool              `json:"repeatEnabled"`
	DisplayOrder  int               `json:"displayOrder"`
	Hotkey        string            `json:"hotkey,omitempty"`
	EndsAt        *time.Time        `json:"endsAt,omitempty"`
}

// Status is the orchestrator state reported to local surfaces.
type Status struct {
	Connection  timersync.ConnectionState `json:"connection"`
	Message     string                    `json:"message,omitempty"`
	Error       string                    `json:"error,omitempty"`
	Since       time.Time                 `json:"since"`
	OffsetMs    int64                     `json:"offsetMs"`
	Timers      int                       `json:"timers"`
	HotkeysOn   bool                      `json:"hotkeysActive"`
	HotkeyError string                    `json:"hotkeyError,omitempty"`
	Running     bool                      `json:"running"`
	Stats       timersync.StatsSnapshot   `json:"stats"`
}

// Timers returns the held set extrapolated to now, in display order.
func (o *Orchestrator) Timers(now time.Time) []TimerView {
	o.mu.RLock()
	defer o.mu.RUnlock()

	sorted := timerstate.Sorted(o.timers)
	out := make([]TimerView, 0, len(sorted))
	for _, s := range sorted {
		out = append(out, o.viewLocked(s, now))
	}
	return out
}

// Timer returns one timer extrapolated to now.
func (o *Orchestrator) Timer(id string, now time.Time) (TimerView, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	s, ok := o.timers[id]
	if !ok {
		return TimerView{}, false
	}
	return o.viewLocked(s, now), true
}

func (o *Orchestrator) viewLocked(s timerstate.TimerSnapshot, now time.Time) TimerView {
	remaining := s.RemainingAt(now)
	v := TimerView{
		ID:            s.ID,
		Name:          s.Name,
		Remaining:     timerstate.FormatDuration(remaining),
		RemainingMs:   remaining.Milliseconds(),
		DurationMs:    s.Duration.Milliseconds(),
		Status:        s.StatusAt(now),
		Running:       s.IsRunning,
		RepeatEnabled: s.RepeatEnabled,
		DisplayOrder:  s.DisplayOrder,
		Hotkey:        o.hotkeyDisplay(s.ID),
	}
	if end, ok := s.EndsAt(); ok {
		end = end.Round(0)
		v.EndsAt = &end
	}
	return v
}

// Status reports the connection, hotkey and stream state.
func (o *Orchestrator) Status() Status {
	stats := o.client.Stats()

	o.lifeMu.Lock()
	running := o.cancel != nil
	o.lifeMu.Unlock()

	o.mu.RLock()
	defer o.mu.RUnlock()

	st := Status{
		Connection: o.conn.State,
		Message:    o.conn.Message,
		Since:      o.conn.At,
		OffsetMs:   o.offset.Milliseconds(),
		Timers:     len(o.timers),
		HotkeysOn:  o.hookActive,
		Running:    running,
		Stats:      stats,
	}
	if o.conn.Err != nil {
		st.Error = o.conn.Err.Error()
	}
	if o.hookErr != nil {
		st.HotkeyError = o.hookErr.Error()
	}
	return st
}

// TimerIDs lists the held timer ids in display order.
func (o *Orchestrator) TimerIDs() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	ids := make([]string, 0, len(o.timers))
	for _, s := range timerstate.Sorted(o.timers) {
		ids = append(ids, s.ID)
	}
	return slices.Clip(ids)
}
