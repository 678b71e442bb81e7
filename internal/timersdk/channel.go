package timersdk

import (
	"context"
	"fmt"
	"strings"
)

// ValidateChannel asks the server whether code names an existing channel.
// It returns the number of timers the channel holds.
func (c *Client) ValidateChannel(ctx context.Context, code string) (int, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return 0, ErrInvalidChannel
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.FetchTimeout)
	defer cancel()

	res, err := c.api.R().
		SetContext(ctx).
		SetQueryParam(QueryChannelCode, code).
		Get(timersPath)

	err = handleAPIError(res, err, "validate channel")
	c.stats.onRequest(err)
	if err != nil {
		if IsNotFound(err) {
			return 0, fmt.Errorf("%w: %s", ErrInvalidChannel, code)
		}
		return 0, err
	}

	list, err := DecodeTimerList(res.Bytes())
	if err != nil {
		return 0, err
	}
	return len(list.Timers), nil
}
