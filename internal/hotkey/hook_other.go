//go:build !linux

package hotkey

type unsupportedHook struct{}

// NewSystemHook returns the platform key hook. Only Linux has one; here
// Subscribe always fails and the rest of the program runs without hotkeys.
func NewSystemHook(patterns ...string) Hook {
	return unsupportedHook{}
}

func (unsupportedHook) Subscribe(func(KeyEvent)) error { return ErrHookUnsupported }
func (unsupportedHook) Unsubscribe() error             { return nil }
