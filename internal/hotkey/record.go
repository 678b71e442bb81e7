package hotkey

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

var ErrRecordCancelled = errors.New("hotkey: recording cancelled")

// Record captures the next chord from hook: every key pressed until all
// keys are released again. A lone Esc cancels. The result is normalized.
func Record(ctx context.Context, hook Hook) (string, error) {
	result := make(chan []Token, 1)

	var mu sync.Mutex
	held := mapset.NewThreadUnsafeSet[Token]()
	var order []Token
	finished := false

	handler := func(ev KeyEvent) {
		token, ok := TokenForKeyName(ev.Name)
		if !ok {
			return
		}

		mu.Lock()
		defer mu.Unlock()
		if finished {
			return
		}
		if ev.Down {
			if held.Add(token) && !slices.Contains(order, token) {
				order = append(order, token)
			}
			return
		}
		held.Remove(token)
		if held.Cardinality() == 0 && len(order) > 0 {
			finished = true
			result <- order
		}
	}

	if err := hook.Subscribe(handler); err != nil {
		return "", fmt.Errorf("hotkey: record: %w", err)
	}
	defer hook.Unsubscribe()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case tokens := <-result:
		if len(tokens) == 1 && tokens[0] == "esc" {
			return "", ErrRecordCancelled
		}
		return Normalize(Chord{Tokens: tokens}.String())
	}
}
