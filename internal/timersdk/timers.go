package timersdk

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
)

// FetchTimers loads the full timer list. A 404 while a channel code is
// configured means the channel does not exist.
func (c *Client) FetchTimers(ctx context.Context) (*TimerList, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.FetchTimeout)
	defer cancel()

	res, err := c.api.R().
		SetContext(ctx).
		Get(timersPath)

	err = handleAPIError(res, err, "fetch timers")
	c.stats.onRequest(err)
	if err != nil {
		if c.config.ChannelCode != "" && IsNotFound(err) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidChannel, err)
		}
		return nil, err
	}

	body := res.Bytes()
	c.stats.onRecv(len(body))

	return DecodeTimerList(body)
}

// DecodeTimerList decodes {"timers": [...]} or a bare array. Entries that
// fail to decode are skipped one by one and counted in Skipped.
func DecodeTimerList(data []byte) (*TimerList, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrNotTimerList
	}

	var entries rawEntries
	switch data[0] {
	case '[':
		if err := jsonUnmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotTimerList, err)
		}
	case '{':
		var msg struct {
			Timers *rawEntries `json:"timers"`
		}
		if err := jsonUnmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotTimerList, err)
		}
		if msg.Timers == nil {
			return nil, ErrNotTimerList
		}
		entries = *msg.Timers
	default:
		return nil, ErrNotTimerList
	}

	list := &TimerList{Timers: make([]TimerEntry, 0, len(entries))}
	for i, raw := range entries {
		var w wireEntry
		if err := jsonUnmarshal(raw, &w); err != nil {
			slog.Debug("timer entry skipped", "index", i, "error", err)
			list.Skipped++
			continue
		}
		entry, err := w.toEntry()
		if err != nil {
			slog.Debug("timer entry skipped", "index", i, "error", err)
			list.Skipped++
			continue
		}
		list.Timers = append(list.Timers, entry)
	}

	return list, nil
}
