package handlers

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultReplayWindow = 30 * time.Second
	defaultReplaySize   = 512
)

// actionOutcome is what an action request answered the first time.
type actionOutcome struct {
	Status int
	Body   any
}

// replayCache remembers action outcomes by request id so that a retried
// request is answered without posting to the server again. Concurrent
// requests with the same id share one execution.
type replayCache struct {
	outcomes *expirable.LRU[string, actionOutcome]
	inflight singleflight.Group
}

func newReplayCache(window time.Duration) *replayCache {
	if window <= 0 {
		window = DefaultReplayWindow
	}
	return &replayCache{
		outcomes: expirable.NewLRU[string, actionOutcome](defaultReplaySize, nil, window),
	}
}

// do runs fn once per key within the window. replayed reports whether the
// outcome came from an earlier request. An empty key always runs fn.
func (r *replayCache) do(key string, fn func() actionOutcome) (out actionOutcome, replayed bool) {
	if key == "" {
		return fn(), false
	}
	if cached, ok := r.outcomes.Get(key); ok {
		return cached, true
	}

	ran := false
	v, _, _ := r.inflight.Do(key, func() (any, error) {
		if cached, ok := r.outcomes.Get(key); ok {
			return cached, nil
		}
		ran = true
		res := fn()
		r.outcomes.Add(key, res)
		return res, nil
	})
	return v.(actionOutcome), !ran
}
