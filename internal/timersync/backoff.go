package timersync

import "time"

const (
	DefaultBackoffSeed = 2 * time.Second
	DefaultBackoffMax  = 30 * time.Second
)

// Backoff is the reconnect delay of the connect loop. It is owned by the loop
// goroutine and is not safe for concurrent use.
type Backoff struct {
	seed    time.Duration
	max     time.Duration
	current time.Duration
}

// NewBackoff creates a backoff starting at seed and doubling up to maxDelay.
// Non-positive values select the defaults.
func NewBackoff(seed, maxDelay time.Duration) *Backoff {
	if seed <= 0 {
		seed = DefaultBackoffSeed
	}
	if maxDelay <= 0 {
		maxDelay = DefaultBackoffMax
	}
	if maxDelay < seed {
		maxDelay = seed
	}
	return &Backoff{seed: seed, max: maxDelay, current: seed}
}

// Next returns the delay to wait now and doubles the one after it.
func (b *Backoff) Next() time.Duration {
	delay := b.current
	b.current = min(b.current*2, b.max)
	return delay
}

// Reset starts over from the seed.
func (b *Backoff) Reset() {
	b.current = b.seed
}

// Current is the delay the next call to Next returns.
func (b *Backoff) Current() time.Duration {
	return b.current
}
