package timersync

import "log/slog"

const DefaultSubscriberBuffer = 16

// Subscribe returns a channel receiving every event from now on. Delivery
// never blocks the worker: when the buffer is full the oldest pending event
// is dropped. The channel is closed by Unsubscribe or Close.
func (c *Client) Subscribe(buffer int) <-chan Event {
	if buffer < 1 {
		buffer = DefaultSubscriberBuffer
	}
	ch := make(chan Event, buffer)

	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	if c.subsClosed {
		close(ch)
		return ch
	}
	c.subs = append(c.subs, ch)
	return ch
}

// Unsubscribe detaches and closes a channel returned by Subscribe.
func (c *Client) Unsubscribe(sub <-chan Event) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for i, ch := range c.subs {
		if ch == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			close(ch)
			return
		}
	}
}

func (c *Client) publish(ev Event) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for _, ch := range c.subs {
		deliver(ch, ev)
	}
}

// deliver sends ev, evicting the oldest queued events until it fits.
// Callers hold subsMu so no other sender interleaves.
func deliver(ch chan Event, ev Event) {
	for {
		select {
		case ch <- ev:
			return
		default:
		}
		select {
		case old := <-ch:
			slog.Debug("subscriber buffer full, dropped event", "kind", old.Kind)
		default:
		}
	}
}
