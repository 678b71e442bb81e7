package hotkey

import "sync"

// VirtualHook is an in-process key source. Events are delivered on the
// goroutine that calls Press, Release or Emit.
type VirtualHook struct {
	mu      sync.Mutex
	handler func(KeyEvent)
}

func NewVirtualHook() *VirtualHook {
	return &VirtualHook{}
}

func (h *VirtualHook) Subscribe(handler func(KeyEvent)) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.handler != nil {
		return ErrHookBusy
	}
	h.handler = handler
	return nil
}

func (h *VirtualHook) Unsubscribe() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handler = nil
	return nil
}

// Subscribed reports whether a handler is attached.
func (h *VirtualHook) Subscribed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.handler != nil
}

// Emit delivers ev. It is dropped when nothing is subscribed.
func (h *VirtualHook) Emit(ev KeyEvent) {
	h.mu.Lock()
	handler := h.handler
	h.mu.Unlock()
	if handler != nil {
		handler(ev)
	}
}

func (h *VirtualHook) Press(name string) {
	h.Emit(KeyEvent{Name: name, Down: true})
}

func (h *VirtualHook) Release(name string) {
	h.Emit(KeyEvent{Name: name, Down: false})
}

// Tap presses names in order, then releases them in reverse.
func (h *VirtualHook) Tap(names ...string) {
	for _, name := range names {
		h.Press(name)
	}
	for i := len(names) - 1; i >= 0; i-- {
		h.Release(names[i])
	}
}

var _ Hook = (*VirtualHook)(nil)
