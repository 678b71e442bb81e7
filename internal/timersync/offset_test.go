package timersync

import (
	"testing"
	"time"

	"github.com/raidtimer/timerlink/internal/timersdk"
	"github.com/stretchr/testify/assert"
)

func TestEstimateOffset_Mean(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	entries := []timersdk.TimerEntry{
		{ID: "1", UpdatedAt: now.Add(500 * time.Millisecond)},
		{ID: "2", UpdatedAt: now.Add(520 * time.Millisecond)},
		{ID: "3", UpdatedAt: now.Add(480 * time.Millisecond)},
		{ID: "4"}, // no timestamp, not counted
	}

	offset, ok := estimateOffset(entries, now)
	assert.True(t, ok)
	assert.Equal(t, 500*time.Millisecond, offset)
}

func TestEstimateOffset_NegativeAndMissing(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	offset, ok := estimateOffset([]timersdk.TimerEntry{{ID: "1", UpdatedAt: now.Add(-3 * time.Second)}}, now)
	assert.True(t, ok)
	assert.Equal(t, -3*time.Second, offset)

	_, ok = estimateOffset([]timersdk.TimerEntry{{ID: "1"}}, now)
	assert.False(t, ok)

	_, ok = estimateOffset(nil, now)
	assert.False(t, ok)
}

func TestSmoothOffset(t *testing.T) {
	assert.Equal(t, 3*time.Second, smoothOffset(0, 3*time.Second, false), "first sample is taken as is")

	offset := smoothOffset(0, time.Second, false)
	for _, want := range []time.Duration{
		800 * time.Millisecond,
		640 * time.Millisecond,
		512 * time.Millisecond,
	} {
		offset = smoothOffset(offset, 0, true)
		assert.Equal(t, want, offset)
	}

	assert.Equal(t, -200*time.Millisecond, smoothOffset(0, -time.Second, true))
}

func TestSnapshotFromEntry_EndTimeDerivesRemaining(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	entry := timersdk.TimerEntry{
		ID:        "1",
		Duration:  time.Minute,
		Remaining: time.Minute,
		IsRunning: true,
		// server clock is 2s ahead, the timer ends 20s from now in server time
		EndTime: now.Add(22 * time.Second),
	}

	s := snapshotFromEntry(entry, now, 2*time.Second)
	assert.Equal(t, 20*time.Second, s.Remaining)
	assert.Equal(t, 2*time.Second, s.ClockOffset)

	entry.IsRunning = false
	s = snapshotFromEntry(entry, now, 2*time.Second)
	assert.Equal(t, time.Minute, s.Remaining, "end time only applies while running")
}
