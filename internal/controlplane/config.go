package controlplane

import "time"

// Config contains configuration for the control plane server.
type Config struct {
	Addr      string        // Address to bind, host:port
	AuthToken string        // Bearer token, empty disables auth
	RateLimit int64         // Requests per second per client, 0 uses the default
	Replay    time.Duration // How long an X-Request-Id is remembered
	Heartbeat time.Duration // SSE keepalive interval
	Origins   []string      // Browser origin host patterns allowed besides the server's own
}
