package timersync

import (
	"context"
	"log/slog"

	"github.com/raidtimer/timerlink/internal/timersdk"
)

// StartTimer starts timer id on the server.
func (c *Client) StartTimer(ctx context.Context, id string) bool {
	return c.Do(ctx, id, timersdk.ActionStart)
}

// PauseTimer pauses timer id on the server.
func (c *Client) PauseTimer(ctx context.Context, id string) bool {
	return c.Do(ctx, id, timersdk.ActionPause)
}

// ResetTimer resets timer id on the server.
func (c *Client) ResetTimer(ctx context.Context, id string) bool {
	return c.Do(ctx, id, timersdk.ActionReset)
}

// ToggleRepeat flips the repeat flag of timer id.
func (c *Client) ToggleRepeat(ctx context.Context, id string) bool {
	return c.Do(ctx, id, timersdk.ActionToggleRepeat)
}

// Do forwards one action. It works whether or not the loop is running, is
// never retried, and reports success only. Failures are logged.
func (c *Client) Do(ctx context.Context, id string, action timersdk.Action) bool {
	c.mu.Lock()
	transport, err := c.transportLocked()
	c.mu.Unlock()
	if err != nil {
		slog.Warn("timer action failed", "id", id, "action", action, "error", err)
		return false
	}

	if err := transport.Do(ctx, id, action); err != nil {
		slog.Warn("timer action failed", "id", id, "action", action, "error", err)
		return false
	}

	slog.Debug("timer action", "id", id, "action", action)
	return true
}
