package timersync

import (
	"time"

	"github.com/raidtimer/timerlink/internal/timersdk"
)

// DefaultOffsetThreshold is how far the clock offset must move before the
// held set is republished.
const DefaultOffsetThreshold = 250 * time.Millisecond

// offsetSmoothing divides the gap between the estimate and a new sample: each
// batch after the first moves the estimate a fifth of the way.
const offsetSmoothing = 5

// estimateOffset returns the mean of updatedAt - now over the entries that
// carry a server timestamp. ok is false when none does.
func estimateOffset(entries []timersdk.TimerEntry, now time.Time) (offset time.Duration, ok bool) {
	var sum time.Duration
	var n int
	for _, e := range entries {
		if e.UpdatedAt.IsZero() {
			continue
		}
		sum += e.UpdatedAt.Sub(now.Round(0))
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / time.Duration(n), true
}

// smoothOffset folds a batch sample into the running estimate. The first
// sample is taken as is.
func smoothOffset(current, sample time.Duration, seeded bool) time.Duration {
	if !seeded {
		return sample
	}
	return current + (sample-current)/offsetSmoothing
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
