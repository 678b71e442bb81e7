package hotkey

import (
	"log/slog"
	"sync"
)

const DefaultQueueSize = 64

// Dispatcher runs chord callbacks away from the hook delivery goroutine.
// Dispatch must not block.
type Dispatcher interface {
	Dispatch(fn func())
}

// QueueDispatcher runs callbacks in order on a single goroutine fed by a
// bounded queue. When the queue is full the callback is dropped.
type QueueDispatcher struct {
	queue chan func()
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewQueueDispatcher starts the dispatch goroutine. size <= 0 selects
// DefaultQueueSize.
func NewQueueDispatcher(size int) *QueueDispatcher {
	if size <= 0 {
		size = DefaultQueueSize
	}
	d := &QueueDispatcher{
		queue: make(chan func(), size),
		done:  make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *QueueDispatcher) Dispatch(fn func()) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.queue <- fn:
	default:
		slog.Warn("hotkey dispatch queue full, callback dropped")
	}
}

// Close runs what is already queued, then stops the goroutine.
func (d *QueueDispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	<-d.done
}

func (d *QueueDispatcher) loop() {
	defer close(d.done)
	for fn := range d.queue {
		run(fn)
	}
}

func run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("hotkey callback panicked", "panic", r)
		}
	}()
	fn()
}
