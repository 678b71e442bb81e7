// Package timersync keeps a local, eventually fresh copy of the server's
// timer set. One worker goroutine per Client fetches the full state, follows
// the push stream and reconnects with backoff; subscribers receive the
// result over channels.
package timersync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/raidtimer/timerlink/internal/sse"
	"github.com/raidtimer/timerlink/internal/timersdk"
	"github.com/raidtimer/timerlink/internal/timerstate"
)

const stopTimeout = 5 * time.Second

var (
	ErrStreamClosed = errors.New("sync: stream closed by server")
	ErrClosed       = errors.New("sync: client closed")
)

// Settings configures a Client.
type Settings struct {
	Server          timersdk.Config
	BackoffSeed     time.Duration
	BackoffMax      time.Duration
	OffsetThreshold time.Duration
	MaxFrameSize    int
}

// Option customizes a Client.
type Option func(*Client)

// WithTransportFactory replaces the timersdk based transport.
func WithTransportFactory(factory TransportFactory) Option {
	return func(c *Client) { c.factory = factory }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// Client is the streaming synchronization client.
type Client struct {
	factory TransportFactory
	now     func() time.Time
	stats   *syncStats

	mu        sync.Mutex // lifecycle
	settings  Settings
	transport Transport
	cancel    context.CancelFunc
	done      chan struct{}
	closed    bool

	streamMu sync.Mutex // active stream body
	stream   io.Closer

	stateMu         sync.RWMutex // published view
	timers          map[string]timerstate.TimerSnapshot
	offset          time.Duration
	offsetSeeded    bool
	publishedOffset time.Duration
	conn            Connection

	subsMu     sync.Mutex
	subs       []chan Event
	subsClosed bool
}

// New creates a stopped client.
func New(settings Settings, opts ...Option) *Client {
	c := &Client{
		factory:  NewSDKTransport,
		now:      time.Now,
		stats:    newSyncStats(),
		settings: settings,
		timers:   make(map[string]timerstate.TimerSnapshot),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start launches the connect loop. It is a no-op when already running.
func (c *Client) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startLocked()
}

// Stop ends the connect loop, unblocking any pending read, and waits for
// the worker to exit. Safe to call more than once.
func (c *Client) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Running reports whether the connect loop is active.
func (c *Client) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

// UpdateSettings swaps the settings. A running loop is restarted against
// the new server; a stopped one picks them up on the next Start. Identical
// settings leave the loop and its stream alone.
func (c *Client) UpdateSettings(settings Settings) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if settings == c.settings {
		return nil
	}

	running := c.cancel != nil
	if running {
		c.stopLocked()
	}

	if settings.Server != c.settings.Server {
		c.closeTransportLocked()
	}
	c.settings = settings

	if running {
		return c.startLocked()
	}
	return nil
}

// Settings returns the current settings.
func (c *Client) Settings() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// Close stops the loop and closes every subscriber channel.
func (c *Client) Close() {
	c.mu.Lock()
	c.stopLocked()
	c.closeTransportLocked()
	c.closed = true
	c.mu.Unlock()

	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for _, ch := range c.subs {
		close(ch)
	}
	c.subs = nil
	c.subsClosed = true
}

func (c *Client) startLocked() error {
	if c.closed {
		return ErrClosed
	}
	if c.cancel != nil {
		return nil
	}

	transport, err := c.transportLocked()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.cancel, c.done = cancel, done

	slog.Info("timer sync started", "server", c.settings.Server.BaseURL())
	go c.run(ctx, transport, c.settings, done)
	return nil
}

func (c *Client) stopLocked() {
	if c.cancel == nil {
		return
	}

	c.cancel()

	c.streamMu.Lock()
	if c.stream != nil {
		c.stream.Close()
		c.stream = nil
	}
	c.streamMu.Unlock()

	select {
	case <-c.done:
	case <-time.After(stopTimeout):
		slog.Warn("timer sync worker did not exit in time")
	}

	c.cancel, c.done = nil, nil
	c.publishConnection(StateDisconnected, MessageStopped, nil)
	slog.Info("timer sync stopped")
}

func (c *Client) transportLocked() (Transport, error) {
	if c.transport != nil {
		return c.transport, nil
	}
	transport, err := c.factory(c.settings.Server)
	if err != nil {
		return nil, fmt.Errorf("sync: transport: %w", err)
	}
	c.transport = transport
	return transport, nil
}

func (c *Client) closeTransportLocked() {
	if closer, ok := c.transport.(interface{ Close() }); ok {
		closer.Close()
	}
	c.transport = nil
}

// run is the connect loop. The backoff is only touched here.
func (c *Client) run(ctx context.Context, transport Transport, settings Settings, done chan struct{}) {
	defer close(done)

	backoff := NewBackoff(settings.BackoffSeed, settings.BackoffMax)
	for {
		err := c.session(ctx, transport, settings, backoff)
		if ctx.Err() != nil {
			return
		}

		c.stats.onDisconnected(err)
		delay := backoff.Next()
		slog.Warn("timer stream disconnected", "error", err, "retry", delay)
		c.publishConnection(StateDisconnected, err.Error(), err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// session runs one connection attempt until it fails. It never returns nil.
func (c *Client) session(ctx context.Context, transport Transport, settings Settings, backoff *Backoff) error {
	c.publishConnection(StateConnecting, "connecting to "+settings.Server.BaseURL(), nil)

	list, err := transport.FetchTimers(ctx)
	if err != nil {
		return fmt.Errorf("fetch timers: %w", err)
	}
	c.applyBatch(list, settings)
	c.publishConnection(StateConnected, MessageTimersLoaded, nil)

	stream, err := transport.OpenStream(ctx)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	if !c.setStream(ctx, stream) {
		stream.Close()
		return ctx.Err()
	}
	defer c.clearStream(stream)

	backoff.Reset()
	c.stats.onConnected()
	c.publishConnection(StateConnected, MessageStreamConnected, nil)
	slog.Info("timer stream connected")

	reader := sse.NewReader(&countingReader{r: stream, onRead: c.stats.onRecv}, settings.MaxFrameSize)
	for {
		frame, err := reader.Next()
		if errors.Is(err, sse.ErrFrameTooLarge) {
			c.stats.framesDropped.Add(1)
			slog.Warn("timer stream frame dropped", "error", err)
			continue
		}
		if errors.Is(err, io.EOF) {
			return ErrStreamClosed
		}
		if err != nil {
			return fmt.Errorf("read stream: %w", err)
		}

		list, err := timersdk.DecodeTimerList([]byte(frame))
		if err != nil {
			c.stats.framesDropped.Add(1)
			slog.Warn("timer stream frame dropped", "error", err)
			continue
		}
		c.stats.frames.Add(1)
		c.applyBatch(list, settings)
	}
}

func (c *Client) setStream(ctx context.Context, stream io.Closer) bool {
	c.streamMu.Lock()
	defer c.streamMu.Unlock()
	if ctx.Err() != nil {
		return false
	}
	c.stream = stream
	return true
}

func (c *Client) clearStream(stream io.ReadCloser) {
	c.streamMu.Lock()
	if c.stream == stream {
		c.stream = nil
	}
	c.streamMu.Unlock()
	stream.Close()
}

// applyBatch replaces the active set with a full payload and publishes it.
func (c *Client) applyBatch(list *timersdk.TimerList, settings Settings) {
	now := c.now()
	if list.Skipped > 0 {
		c.stats.entriesSkipped.Add(int64(list.Skipped))
		slog.Warn("malformed timer entries skipped", "count", list.Skipped)
	}

	threshold := settings.OffsetThreshold
	if threshold <= 0 {
		threshold = DefaultOffsetThreshold
	}

	c.stateMu.Lock()
	if sample, ok := estimateOffset(list.Timers, now); ok {
		c.offset = smoothOffset(c.offset, sample, c.offsetSeeded)
		c.offsetSeeded = true
	}
	offset := c.offset

	next := make(map[string]timerstate.TimerSnapshot, len(list.Timers))
	for _, entry := range list.Timers {
		next[entry.ID] = snapshotFromEntry(entry, now, offset)
	}
	c.timers = next

	rebased := absDuration(offset-c.publishedOffset) > threshold
	if rebased {
		c.publishedOffset = offset
	}
	set := timerstate.Sorted(next)
	c.stateMu.Unlock()

	c.publish(Event{Kind: EventTimers, Timers: set, Offset: offset})
	if rebased {
		slog.Debug("server clock offset changed", "offset", offset)
		c.publish(Event{Kind: EventOffsetChanged, Timers: set, Offset: offset})
	}
}

func snapshotFromEntry(entry timersdk.TimerEntry, now time.Time, offset time.Duration) timerstate.TimerSnapshot {
	remaining := entry.Remaining
	if entry.IsRunning && !entry.EndTime.IsZero() {
		remaining = entry.EndTime.Sub(now.Round(0).Add(offset))
	}

	s := timerstate.NewSnapshot(entry.ID, entry.Name, entry.Duration, remaining, entry.IsRunning, entry.DisplayOrder, now)
	s.RepeatEnabled = entry.RepeatEnabled
	s.UpdatedAt = entry.UpdatedAt
	return s.WithClockOffset(offset)
}

// Timers returns the active set in display order.
func (c *Client) Timers() []timerstate.TimerSnapshot {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return timerstate.Sorted(c.timers)
}

// Offset is the current server clock offset estimate.
func (c *Client) Offset() time.Duration {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.offset
}

// Connection is the last published connection state.
func (c *Client) Connection() Connection {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.conn
}

// Stats returns the stream counters, plus HTTP counters when the transport
// keeps them.
func (c *Client) Stats() StatsSnapshot {
	snap := c.stats.snapshot()

	c.mu.Lock()
	transport := c.transport
	c.mu.Unlock()

	if t, ok := transport.(interface {
		Stats() timersdk.HTTPStatsSnapshot
	}); ok {
		httpStats := t.Stats()
		snap.HTTP = &httpStats
	}
	return snap
}

func (c *Client) publishConnection(state ConnectionState, message string, err error) {
	conn := Connection{State: state, Message: message, Err: err, At: c.now()}

	c.stateMu.Lock()
	c.conn = conn
	c.stateMu.Unlock()

	c.publish(Event{Kind: EventConnection, Connection: conn})
}
