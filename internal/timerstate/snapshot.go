// Package timerstate holds immutable snapshots of server timers and the
// arithmetic used to extrapolate them locally between server updates.
package timerstate

import (
	"time"
)

// Status is the presentation state of a timer at a given instant.
type Status string

const (
	StatusRunning Status = "running"
	StatusWaiting Status = "waiting"
	StatusPaused  Status = "paused"
	StatusDone    Status = "done"
)

// TimerSnapshot is one timer as received from the server, stamped with the
// local instant it was captured. Values are never mutated after construction.
type TimerSnapshot struct {
	ID            string
	Name          string
	Duration      time.Duration
	Remaining     time.Duration // as of CapturedAt
	IsRunning     bool
	RepeatEnabled bool
	DisplayOrder  int

	// ClockOffset is server time minus local time at capture.
	ClockOffset time.Duration
	// UpdatedAt is the server-side last update, zero when the server did not send one.
	UpdatedAt time.Time
	// CapturedAt carries the monotonic clock reading of the capture.
	CapturedAt time.Time
}

// NewSnapshot clamps remaining into [0, duration] and stamps the capture time.
func NewSnapshot(id, name string, duration, remaining time.Duration, running bool, displayOrder int, capturedAt time.Time) TimerSnapshot {
	if duration < 0 {
		duration = 0
	}
	return TimerSnapshot{
		ID:           id,
		Name:         name,
		Duration:     duration,
		Remaining:    clampRemaining(remaining, duration),
		IsRunning:    running,
		DisplayOrder: displayOrder,
		CapturedAt:   capturedAt,
	}
}

// WithClockOffset returns a copy of the snapshot re-based on a new offset.
func (s TimerSnapshot) WithClockOffset(offset time.Duration) TimerSnapshot {
	s.ClockOffset = offset
	return s
}

// RemainingAt extrapolates the remaining time to the local instant t.
// The clock offset never enters the subtraction.
func (s TimerSnapshot) RemainingAt(t time.Time) time.Duration {
	if !s.IsRunning {
		return clampRemaining(s.Remaining, s.Duration)
	}
	elapsed := t.Sub(s.CapturedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	return clampRemaining(s.Remaining-elapsed, s.Duration)
}

// ServerTime maps a local instant onto the server clock.
func (s TimerSnapshot) ServerTime(t time.Time) time.Time {
	return t.Add(s.ClockOffset)
}

// EndsAt is the local instant the countdown reaches zero. ok is false when the
// timer is not running.
func (s TimerSnapshot) EndsAt() (end time.Time, ok bool) {
	if !s.IsRunning {
		return time.Time{}, false
	}
	return s.CapturedAt.Add(s.Remaining), true
}

// StatusAt reports the presentation status at t.
func (s TimerSnapshot) StatusAt(t time.Time) Status {
	remaining := s.RemainingAt(t)
	switch {
	case s.IsRunning && remaining > 0:
		return StatusRunning
	case s.IsRunning:
		return StatusDone
	case remaining == s.Duration:
		return StatusWaiting
	case remaining == 0:
		return StatusDone
	default:
		return StatusPaused
	}
}

// FormattedRemainingAt renders the remaining time at t.
func (s TimerSnapshot) FormattedRemainingAt(t time.Time) string {
	return FormatDuration(s.RemainingAt(t))
}

func clampRemaining(remaining, duration time.Duration) time.Duration {
	if remaining < 0 {
		return 0
	}
	if duration > 0 && remaining > duration {
		return duration
	}
	return remaining
}
