package timersdk

import (
	"io"
	"sync/atomic"
	"time"
)

// httpStats tracks traffic across fetches, actions and streams.
type httpStats struct {
	requests       atomic.Int64
	failures       atomic.Int64
	bytesRecv      atomic.Int64
	lastRecvNs     atomic.Int64
	lastErrorValue atomic.Value // string
}

func newHTTPStats() *httpStats {
	s := &httpStats{}
	s.lastErrorValue.Store("")
	return s
}

func (s *httpStats) onRequest(err error) {
	s.requests.Add(1)
	if err != nil {
		s.failures.Add(1)
		s.lastErrorValue.Store(err.Error())
	}
}

func (s *httpStats) onRecv(n int) {
	if n <= 0 {
		return
	}
	s.bytesRecv.Add(int64(n))
	s.lastRecvNs.Store(time.Now().UnixNano())
}

func (s *httpStats) snapshot() HTTPStatsSnapshot {
	lastErr, _ := s.lastErrorValue.Load().(string)
	return HTTPStatsSnapshot{
		Requests:       s.requests.Load(),
		Failures:       s.failures.Load(),
		BytesRecvTotal: s.bytesRecv.Load(),
		LastRecvAtNs:   s.lastRecvNs.Load(),
		LastError:      lastErr,
	}
}

// HTTPStatsSnapshot is a stable, JSON-friendly view of HTTP traffic.
type HTTPStatsSnapshot struct {
	Requests       int64  `json:"requests"`
	Failures       int64  `json:"failures"`
	BytesRecvTotal int64  `json:"bytes_recv_total"`
	LastRecvAtNs   int64  `json:"last_recv_at_ns,omitempty"`
	LastError      string `json:"last_error,omitempty"`
}

type countingReadCloser struct {
	rc     io.ReadCloser
	onRead func(int)
}

func (c *countingReadCloser) Read(p []byte) (int, error) {
	n, err := c.rc.Read(p)
	if n > 0 && c.onRead != nil {
		c.onRead(n)
	}
	return n, err
}

func (c *countingReadCloser) Close() error {
	return c.rc.Close()
}

func wrapCounting(rc io.ReadCloser, onRead func(int)) io.ReadCloser {
	if rc == nil {
		return nil
	}
	return &countingReadCloser{rc: rc, onRead: onRead}
}
