package timersdk

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Action is a timer command understood by the server.
type Action string

const (
	ActionStart        Action = "start"
	ActionPause        Action = "pause"
	ActionReset        Action = "reset"
	ActionToggleRepeat Action = "toggle-repeat"
)

// Actions lists every Action in a stable order.
var Actions = []Action{ActionStart, ActionPause, ActionReset, ActionToggleRepeat}

// ParseAction accepts the wire names plus "repeat" for toggle-repeat.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "start":
		return ActionStart, nil
	case "pause":
		return ActionPause, nil
	case "reset":
		return ActionReset, nil
	case "toggle-repeat", "repeat":
		return ActionToggleRepeat, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Do posts one action for one timer. The call is never retried and is
// bounded by the action timeout.
func (c *Client) Do(ctx context.Context, id string, action Action) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrNoTimerID
	}
	if _, err := ParseAction(string(action)); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.ActionTimeout)
	defer cancel()

	res, err := c.api.R().
		SetContext(ctx).
		SetHeader(HeaderRequestID, uuid.NewString()).
		SetPathParam("id", id).
		SetPathParam("action", string(action)).
		Post(timerActionPath)

	err = handleAPIError(res, err, fmt.Sprintf("timer %s %s", id, action))
	c.stats.onRequest(err)
	return err
}
