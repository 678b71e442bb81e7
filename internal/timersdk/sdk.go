// Package timersdk talks to the timer server over HTTP: the full state
// fetch, the push stream and the per-timer action calls.
package timersdk

import (
	"fmt"

	"github.com/imroc/req/v3"
)

// Client is the timer server API client. Fetches and actions share one
// connection pool; the push stream has its own so a stuck stream never
// delays an action.
type Client struct {
	config *Config
	api    *req.Client
	stream *req.Client
	stats  *httpStats
}

// New creates a new Client
func New(config *Config) (*Client, error) {
	if config == nil {
		return nil, ErrNoServerHost
	}

	cfg := *config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sdk: invalid config: %w", err)
	}

	api := newHTTPClient(&cfg).
		SetTimeout(max(cfg.FetchTimeout, cfg.ActionTimeout))

	stream := newHTTPClient(&cfg).
		SetTimeout(0).
		DisableAutoReadResponse().
		DisableAutoDecode().
		SetCommonHeader("Accept", "text/event-stream").
		SetCommonHeader("Cache-Control", "no-cache")

	return &Client{
		config: &cfg,
		api:    api,
		stream: stream,
		stats:  newHTTPStats(),
	}, nil
}

// Config returns a copy of the validated configuration.
func (c *Client) Config() Config {
	return *c.config
}

// BaseURL is the server address every call is made against.
func (c *Client) BaseURL() string {
	return c.config.BaseURL()
}

// Stats returns a snapshot of the traffic counters.
func (c *Client) Stats() HTTPStatsSnapshot {
	return c.stats.snapshot()
}

// Close releases idle connections of both pools.
func (c *Client) Close() {
	c.api.GetClient().CloseIdleConnections()
	c.stream.GetClient().CloseIdleConnections()
}
