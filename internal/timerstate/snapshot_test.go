package timerstate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSnapshot_ClampsRemaining(t *testing.T) {
	now := time.Now()

	s := NewSnapshot("1", "boss", time.Minute, 2*time.Minute, false, 0, now)
	assert.Equal(t, time.Minute, s.Remaining)

	s = NewSnapshot("1", "boss", time.Minute, -time.Second, false, 0, now)
	assert.Equal(t, time.Duration(0), s.Remaining)

	// no duration: remaining is only floored
	s = NewSnapshot("1", "boss", 0, 5*time.Second, false, 0, now)
	assert.Equal(t, 5*time.Second, s.Remaining)
}

func TestRemainingAt_RunningIsNonIncreasingAndNonNegative(t *testing.T) {
	captured := time.Now()
	s := NewSnapshot("1", "boss", 10*time.Second, 3*time.Second, true, 0, captured)

	prev := s.RemainingAt(captured)
	assert.Equal(t, 3*time.Second, prev)
	for step := 0; step < 50; step++ {
		at := captured.Add(time.Duration(step) * 137 * time.Millisecond)
		got := s.RemainingAt(at)
		assert.GreaterOrEqual(t, got, time.Duration(0))
		assert.LessOrEqual(t, got, prev)
		prev = got
	}
	assert.Equal(t, time.Duration(0), s.RemainingAt(captured.Add(time.Hour)))
}

func TestRemainingAt_StoppedIsConstant(t *testing.T) {
	captured := time.Now()
	s := NewSnapshot("1", "boss", time.Minute, 42*time.Second, false, 0, captured)

	assert.Equal(t, 42*time.Second, s.RemainingAt(captured))
	assert.Equal(t, 42*time.Second, s.RemainingAt(captured.Add(10*time.Minute)))
}

func TestRemainingAt_IgnoresClockOffset(t *testing.T) {
	captured := time.Now()
	s := NewSnapshot("1", "boss", time.Minute, 30*time.Second, true, 0, captured)
	shifted := s.WithClockOffset(5 * time.Second)

	at := captured.Add(10 * time.Second)
	assert.Equal(t, s.RemainingAt(at), shifted.RemainingAt(at))
	assert.Equal(t, at.Add(5*time.Second), shifted.ServerTime(at))
	assert.Equal(t, time.Duration(0), s.ClockOffset, "original must not be mutated")
}

func TestRemainingAt_QueryBeforeCapture(t *testing.T) {
	captured := time.Now()
	s := NewSnapshot("1", "boss", time.Minute, 30*time.Second, true, 0, captured)
	assert.Equal(t, 30*time.Second, s.RemainingAt(captured.Add(-time.Second)))
}

func TestEndsAt(t *testing.T) {
	captured := time.Now()
	running := NewSnapshot("1", "boss", time.Minute, 30*time.Second, true, 0, captured)
	end, ok := running.EndsAt()
	assert.True(t, ok)
	assert.Equal(t, captured.Add(30*time.Second), end)

	_, ok = NewSnapshot("1", "boss", time.Minute, 30*time.Second, false, 0, captured).EndsAt()
	assert.False(t, ok)
}

func TestStatusAt(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name      string
		duration  time.Duration
		remaining time.Duration
		running   bool
		at        time.Duration
		want      Status
	}{
		{"full and stopped is waiting", 5 * time.Minute, 5 * time.Minute, false, 0, StatusWaiting},
		{"partial and stopped is paused", 5 * time.Minute, time.Minute, false, 0, StatusPaused},
		{"zero and stopped is done", 5 * time.Minute, 0, false, 0, StatusDone},
		{"running", 5 * time.Minute, 5 * time.Minute, true, time.Second, StatusRunning},
		{"running past zero is done", 5 * time.Minute, time.Second, true, time.Minute, StatusDone},
	}
	for _, tt := range tests {
		s := NewSnapshot("1", "boss", tt.duration, tt.remaining, tt.running, 0, now)
		assert.Equal(t, tt.want, s.StatusAt(now.Add(tt.at)), tt.name)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00"},
		{-5 * time.Second, "00:00"},
		{999 * time.Millisecond, "00:00"},
		{5 * time.Minute, "05:00"},
		{59*time.Minute + 59*time.Second + 999*time.Millisecond, "59:59"},
		{time.Hour, "01:00:00"},
		{3*time.Hour + 2*time.Minute + 1*time.Second, "03:02:01"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in), tt.in.String())
	}
}

func TestFormattedRemainingAt_WaitingTimer(t *testing.T) {
	now := time.Now()
	s := NewSnapshot("1", "boss", 300*time.Second, 300*time.Second, false, 0, now)
	assert.Equal(t, "05:00", s.FormattedRemainingAt(now.Add(time.Minute)))
	assert.Equal(t, StatusWaiting, s.StatusAt(now))
}

func TestSorted(t *testing.T) {
	now := time.Now()
	set := map[string]TimerSnapshot{
		"10":  NewSnapshot("10", "b", 0, 0, false, 1, now),
		"2":   NewSnapshot("2", "c", 0, 0, false, 1, now),
		"x":   NewSnapshot("x", "a", 0, 0, false, 1, now),
		"7":   NewSnapshot("7", "z", 0, 0, false, 0, now),
		"abc": NewSnapshot("abc", "a", 0, 0, false, 1, now),
	}

	var ids []string
	for _, s := range Sorted(set) {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"7", "2", "10", "abc", "x"}, ids)
}
