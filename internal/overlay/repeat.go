package overlay

import (
	"context"
	"log/slog"
	"time"

	"github.com/raidtimer/timerlink/internal/timersdk"
	"github.com/raidtimer/timerlink/internal/timerstate"
)

// repeatSlack is how far two end instants may drift apart and still name the
// same expiry. Republished snapshots move the end by a few milliseconds.
const repeatSlack = 500 * time.Millisecond

// repeatRestart is the pending reset of one running repeat timer.
type repeatRestart struct {
	end   time.Time
	timer *time.Timer
	fired bool
}

// scheduleRepeatsLocked arms a reset at the expiry of every running timer
// with repeat enabled and disarms the rest. Each expiry fires at most once.
func (o *Orchestrator) scheduleRepeatsLocked() {
	for id, r := range o.repeats {
		s, ok := o.timers[id]
		if !ok || !s.IsRunning || !s.RepeatEnabled {
			r.timer.Stop()
			delete(o.repeats, id)
		}
	}

	for id, s := range o.timers {
		if !s.IsRunning || !s.RepeatEnabled || s.Duration <= 0 {
			continue
		}
		end, _ := s.EndsAt()
		if r, ok := o.repeats[id]; ok {
			if absDiff(r.end, end) < repeatSlack {
				continue
			}
			r.timer.Stop()
		}
		o.repeats[id] = o.armRepeat(s, end)
	}
}

func (o *Orchestrator) armRepeat(s timerstate.TimerSnapshot, end time.Time) *repeatRestart {
	r := &repeatRestart{end: end}
	r.timer = time.AfterFunc(time.Until(end), func() { o.restartRepeat(s.ID, r) })
	return r
}

func (o *Orchestrator) restartRepeat(id string, r *repeatRestart) {
	o.mu.Lock()
	if o.repeats[id] != r || r.fired {
		o.mu.Unlock()
		return
	}
	r.fired = true
	o.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), o.opts.ActionTimeout)
	defer cancel()

	ok := o.client.Do(ctx, id, timersdk.ActionReset)
	slog.Info("repeat timer restarted", "id", id, "ok", ok)
}

func (o *Orchestrator) stopRepeatsLocked() {
	for id, r := range o.repeats {
		r.timer.Stop()
		delete(o.repeats, id)
	}
}

func absDiff(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}
