package timersync

import (
	"io"
	"sync/atomic"
	"time"

	"github.com/raidtimer/timerlink/internal/timersdk"
)

// syncStats tracks stream telemetry across reconnects.
type syncStats struct {
	bytesRecv      atomic.Int64
	frames         atomic.Int64
	framesDropped  atomic.Int64
	entriesSkipped atomic.Int64
	reconnects     atomic.Int64
	connectedAtNs  atomic.Int64
	disconnAtNs    atomic.Int64
	lastErrorValue atomic.Value // string
}

func newSyncStats() *syncStats {
	s := &syncStats{}
	s.lastErrorValue.Store("")
	return s
}

func (s *syncStats) onConnected() {
	s.connectedAtNs.Store(time.Now().UnixNano())
}

func (s *syncStats) onDisconnected(err error) {
	s.disconnAtNs.Store(time.Now().UnixNano())
	s.reconnects.Add(1)
	if err != nil {
		s.lastErrorValue.Store(err.Error())
	}
}

func (s *syncStats) onRecv(n int) {
	if n > 0 {
		s.bytesRecv.Add(int64(n))
	}
}

// StatsSnapshot is a stable, JSON-friendly view of the sync client.
type StatsSnapshot struct {
	BytesRecvTotal   int64  `json:"bytes_recv_total"`
	Frames           int64  `json:"frames"`
	FramesDropped    int64  `json:"frames_dropped"`
	EntriesSkipped   int64  `json:"entries_skipped"`
	Reconnects       int64  `json:"reconnects"`
	ConnectedAtNs    int64  `json:"connected_at_ns,omitempty"`
	DisconnectedAtNs int64  `json:"disconnected_at_ns,omitempty"`
	LastError        string `json:"last_error,omitempty"`

	HTTP *timersdk.HTTPStatsSnapshot `json:"http,omitempty"`
}

func (s *syncStats) snapshot() StatsSnapshot {
	lastErr, _ := s.lastErrorValue.Load().(string)
	return StatsSnapshot{
		BytesRecvTotal:   s.bytesRecv.Load(),
		Frames:           s.frames.Load(),
		FramesDropped:    s.framesDropped.Load(),
		EntriesSkipped:   s.entriesSkipped.Load(),
		Reconnects:       s.reconnects.Load(),
		ConnectedAtNs:    s.connectedAtNs.Load(),
		DisconnectedAtNs: s.disconnAtNs.Load(),
		LastError:        lastErr,
	}
}

type countingReader struct {
	r      io.Reader
	onRead func(int)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 && c.onRead != nil {
		c.onRead(n)
	}
	return n, err
}
