package overlay

import (
	"log/slog"
	"time"
)

// ChangeKind names what part of the orchestrator state changed.
type ChangeKind string

const (
	ChangeTimers     ChangeKind = "timers"
	ChangeConnection ChangeKind = "connection"
	ChangeHotkeys    ChangeKind = "hotkeys"
)

const DefaultChangeBuffer = 8

// Change is a notification that state of Kind was replaced. Subscribers
// read the new state through the orchestrator accessors.
type Change struct {
	Kind ChangeKind `json:"kind"`
	At   time.Time  `json:"at"`
}

// Subscribe returns a channel of change notifications. A slow subscriber
// loses the oldest pending notifications, never the newest.
func (o *Orchestrator) Subscribe() <-chan Change {
	ch := make(chan Change, DefaultChangeBuffer)
	o.subsMu.Lock()
	o.subs[ch] = struct{}{}
	o.subsMu.Unlock()
	return ch
}

// Unsubscribe detaches and closes a channel returned by Subscribe.
func (o *Orchestrator) Unsubscribe(sub <-chan Change) {
	o.subsMu.Lock()
	defer o.subsMu.Unlock()
	for ch := range o.subs {
		if ch == sub {
			delete(o.subs, ch)
			close(ch)
			return
		}
	}
}

// Subscribers reports the number of attached subscribers.
func (o *Orchestrator) Subscribers() int {
	o.subsMu.Lock()
	defer o.subsMu.Unlock()
	return len(o.subs)
}

func (o *Orchestrator) notify(kind ChangeKind) {
	change := Change{Kind: kind, At: o.opts.Now()}

	o.subsMu.Lock()
	defer o.subsMu.Unlock()
	for ch := range o.subs {
		deliverChange(ch, change)
	}
}

func deliverChange(ch chan Change, change Change) {
	for {
		select {
		case ch <- change:
			return
		default:
		}
		select {
		case old := <-ch:
			slog.Debug("change subscriber full, dropped", "kind", old.Kind)
		default:
		}
	}
}
