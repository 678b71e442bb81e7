package hotkey

import "errors"

var (
	ErrHookUnsupported = errors.New("hotkey: global key hook not supported on this platform")
	ErrHookBusy        = errors.New("hotkey: hook already subscribed")
	ErrNoKeyboard      = errors.New("hotkey: no keyboard device found")
)

// KeyEvent is one physical key transition. Name is as the source reports
// it ("left ctrl", "a", "f5"); TokenForKeyName normalizes it.
type KeyEvent struct {
	Name string
	Down bool
}

// Hook is an OS-wide key event source. The handler is called on the
// source's own goroutine and must return quickly.
type Hook interface {
	Subscribe(handler func(KeyEvent)) error
	Unsubscribe() error
}
