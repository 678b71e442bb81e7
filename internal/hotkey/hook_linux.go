//go:build linux

package hotkey

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// inputEvent mirrors struct input_event.
type inputEvent struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

// EvdevHook reads key transitions straight from Linux input devices. It
// needs read access to /dev/input (root or the input group) and works under
// X11, Wayland and the console alike.
type EvdevHook struct {
	patterns []string

	mu      sync.Mutex
	files   []*os.File
	wg      sync.WaitGroup
	running bool
}

// NewEvdevHook watches every device matching patterns, or
// DefaultDevicePatterns when none are given.
func NewEvdevHook(patterns ...string) *EvdevHook {
	if len(patterns) == 0 {
		patterns = DefaultDevicePatterns
	}
	return &EvdevHook{patterns: patterns}
}

// NewSystemHook returns the platform key hook.
func NewSystemHook(patterns ...string) Hook {
	return NewEvdevHook(patterns...)
}

func (h *EvdevHook) Subscribe(handler func(KeyEvent)) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return ErrHookBusy
	}

	devices, err := MatchDevices(h.patterns)
	if err != nil {
		return err
	}

	var files []*os.File
	var openErrs []error
	for _, dev := range devices {
		if err := unix.Access(dev, unix.R_OK); err != nil {
			openErrs = append(openErrs, fmt.Errorf("%s: %w", dev, err))
			continue
		}
		f, err := os.Open(dev)
		if err != nil {
			openErrs = append(openErrs, err)
			continue
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: %w", ErrNoKeyboard, errors.Join(openErrs...))
	}

	h.files = files
	h.running = true
	for _, f := range files {
		h.wg.Add(1)
		go h.read(f, handler)
	}

	slog.Info("evdev hook attached", "devices", len(files))
	return nil
}

func (h *EvdevHook) Unsubscribe() error {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return nil
	}
	files := h.files
	h.files = nil
	h.running = false
	h.mu.Unlock()

	var errs []error
	for _, f := range files {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	h.wg.Wait()
	return errors.Join(errs...)
}

func (h *EvdevHook) read(f *os.File, handler func(KeyEvent)) {
	defer h.wg.Done()
	for {
		var ev inputEvent
		if err := binary.Read(f, binary.NativeEndian, &ev); err != nil {
			if !errors.Is(err, os.ErrClosed) && !errors.Is(err, io.EOF) {
				slog.Warn("evdev read failed", "device", f.Name(), "error", err)
			}
			return
		}
		if key, ok := evdevKeyEvent(ev.Type, ev.Code, ev.Value); ok {
			handler(key)
		}
	}
}

var _ Hook = (*EvdevHook)(nil)
