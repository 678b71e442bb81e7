package timersdk

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPort                   = 47984
	DefaultFetchTimeout           = 10 * time.Second
	DefaultActionTimeout          = 5 * time.Second
	DefaultStreamHandshakeTimeout = 10 * time.Second
	DefaultStreamIdleTimeout      = 90 * time.Second
)

// Config describes how to reach the timer server.
type Config struct {
	Host        string // Host is required, optionally prefixed with http:// or https://
	Port        int    // Port is required
	ChannelCode string // ChannelCode is optional, sent as ?channelCode= on every call

	FetchTimeout           time.Duration // full state GET
	ActionTimeout          time.Duration // start/pause/reset POST
	StreamHandshakeTimeout time.Duration // until the stream response headers arrive
	StreamIdleTimeout      time.Duration // max silence on an open stream
}

// Validate checks the required fields and fills in defaults for the rest.
func (c *Config) Validate() error {
	c.Host = strings.TrimSpace(c.Host)
	c.ChannelCode = strings.TrimSpace(c.ChannelCode)

	if c.Host == "" {
		return ErrNoServerHost
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Port)
	}

	if c.FetchTimeout <= 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
	if c.ActionTimeout <= 0 {
		c.ActionTimeout = DefaultActionTimeout
	}
	if c.StreamHandshakeTimeout <= 0 {
		c.StreamHandshakeTimeout = DefaultStreamHandshakeTimeout
	}
	if c.StreamIdleTimeout <= 0 {
		c.StreamIdleTimeout = DefaultStreamIdleTimeout
	}

	return nil
}

// BaseURL is scheme://host:port of the server.
func (c Config) BaseURL() string {
	scheme := "http"
	host := c.Host
	if rest, ok := strings.CutPrefix(host, "https://"); ok {
		scheme, host = "https", rest
	} else if rest, ok := strings.CutPrefix(host, "http://"); ok {
		host = rest
	}
	host = strings.TrimSuffix(host, "/")
	return scheme + "://" + net.JoinHostPort(host, strconv.Itoa(c.Port))
}

// Equal reports whether two configs address the same server the same way.
func (c Config) Equal(other Config) bool {
	return c == other
}
