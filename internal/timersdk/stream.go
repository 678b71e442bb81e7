package timersdk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// Stream is an open push stream body. Reads fail with ErrStreamIdle once
// the server has been silent for longer than the idle timeout. Close may be
// called from any goroutine to unblock a pending Read.
type Stream struct {
	body     io.ReadCloser
	cancel   context.CancelFunc
	idle     time.Duration
	watchdog *time.Timer
	idled    atomic.Bool
	once     sync.Once
}

// OpenStream performs the streamed GET and returns once the response
// headers arrived with a 2xx status.
func (c *Client) OpenStream(ctx context.Context) (*Stream, error) {
	ctx, cancel := context.WithCancel(ctx)

	var handshakeExpired atomic.Bool
	handshake := time.AfterFunc(c.config.StreamHandshakeTimeout, func() {
		handshakeExpired.Store(true)
		cancel()
	})

	res, err := c.stream.R().
		SetContext(ctx).
		Get(timersStreamPath)

	if !handshake.Stop() && handshakeExpired.Load() {
		// req hands back a response without an *http.Response on cancellation
		if statusCode(res) != 0 && res.Body != nil {
			res.Body.Close()
		}
		cancel()
		c.stats.onRequest(ErrStreamHandshake)
		return nil, ErrStreamHandshake
	}

	status := statusCode(res)
	if err != nil && status == 0 {
		cancel()
		err = fmt.Errorf("http request error: open stream: %w", err)
		c.stats.onRequest(err)
		return nil, err
	}

	if status < 200 || status > 299 {
		var body []byte
		if status != 0 && res.Body != nil {
			body, _ = io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
			res.Body.Close()
		}
		cancel()
		err = fmt.Errorf("open stream: %w", newAPIError(status, body))
		c.stats.onRequest(err)
		if c.config.ChannelCode != "" && IsNotFound(err) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidChannel, err)
		}
		return nil, err
	}
	c.stats.onRequest(nil)

	s := &Stream{
		body:   wrapCounting(res.Body, c.stats.onRecv),
		cancel: cancel,
		idle:   c.config.StreamIdleTimeout,
	}
	s.watchdog = time.AfterFunc(s.idle, func() {
		s.idled.Store(true)
		cancel()
	})

	return s, nil
}

func (s *Stream) Read(p []byte) (int, error) {
	n, err := s.body.Read(p)
	if n > 0 {
		s.watchdog.Reset(s.idle)
	}
	if err != nil && s.idled.Load() && !errors.Is(err, io.EOF) {
		return n, ErrStreamIdle
	}
	return n, err
}

// Close releases the stream. It is safe to call more than once.
func (s *Stream) Close() error {
	var err error
	s.once.Do(func() {
		s.watchdog.Stop()
		s.cancel()
		err = s.body.Close()
	})
	return err
}
