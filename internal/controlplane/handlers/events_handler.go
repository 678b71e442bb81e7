package handlers

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
)

const DefaultHeartbeat = 15 * time.Second

// FeedHandler serves the live SSE and WebSocket feeds.
type FeedHandler struct {
	ov        Overlay
	timers    *TimersHandler
	heartbeat time.Duration
	origins   []string
}

type FeedHandlerOption func(*FeedHandler)

// WithHeartbeat sets the SSE keepalive interval.
func WithHeartbeat(d time.Duration) FeedHandlerOption {
	return func(h *FeedHandler) {
		if d > 0 {
			h.heartbeat = d
		}
	}
}

// WithOriginPatterns sets the WebSocket origins accepted besides the
// request host.
func WithOriginPatterns(patterns ...string) FeedHandlerOption {
	return func(h *FeedHandler) {
		h.origins = patterns
	}
}

// NewFeedHandler serves feeds for ov. Actions arriving on the WebSocket go
// through timers so that they share its request id replay window.
func NewFeedHandler(ov Overlay, timers *TimersHandler, opts ...FeedHandlerOption) *FeedHandler {
	h := &FeedHandler{
		ov:        ov,
		timers:    timers,
		heartbeat: DefaultHeartbeat,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Events answers GET /v1/events with a server-sent event stream. The
// stream opens with status, hotkeys and timers events and then sends an
// event per change, named after the message type.
func (h *FeedHandler) Events(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	sub := h.ov.Subscribe()
	defer h.ov.Unsubscribe(sub)

	for _, msg := range snapshotMessages(h.ov) {
		c.SSEvent(msg.Type, msg.Data)
	}
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false

		case change, ok := <-sub:
			if !ok {
				return false
			}
			for _, msg := range changeMessages(h.ov, change.Kind) {
				c.SSEvent(msg.Type, msg.Data)
			}
			return true

		case t := <-ticker.C:
			c.SSEvent(MsgPing, t.UnixMilli())
			return true
		}
	})
}
