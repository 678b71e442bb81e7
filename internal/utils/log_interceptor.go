// Package utils holds small helpers shared by the TimerLink packages.
package utils

import (
	"bytes"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// maxPendingLine bounds a partial line kept while waiting for its newline.
const maxPendingLine = 1024 * 1024

// LogInterceptor prefixes every complete line written through it with a
// sequence number and a timestamp before passing it to the target. Partial
// lines are held until their newline arrives or Close is called.
type LogInterceptor struct {
	target io.Writer
	seq    atomic.Uint64
	now    func() time.Time

	mu      sync.Mutex
	pending []byte
}

func NewLogInterceptor(target io.Writer) *LogInterceptor {
	return &LogInterceptor{target: target, now: time.Now}
}

// Lines reports how many lines were written so far.
func (i *LogInterceptor) Lines() uint64 {
	return i.seq.Load()
}

// Write implements io.Writer. It reports len(p) on success because the
// caller's bytes are consumed even when they are only buffered.
func (i *LogInterceptor) Write(p []byte) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.pending = append(i.pending, p...)
	for {
		idx := bytes.IndexByte(i.pending, '\n')
		if idx < 0 {
			break
		}
		line := bytes.TrimSuffix(i.pending[:idx], []byte{'\r'})
		if err := i.writeLine(line); err != nil {
			return 0, err
		}
		i.pending = i.pending[idx+1:]
	}

	if len(i.pending) > maxPendingLine {
		if err := i.writeLine(i.pending); err != nil {
			return 0, err
		}
		i.pending = nil
	}
	if len(i.pending) == 0 {
		i.pending = nil
	}
	return len(p), nil
}

// Close flushes a trailing partial line.
func (i *LogInterceptor) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.pending) == 0 {
		return nil
	}
	err := i.writeLine(i.pending)
	i.pending = nil
	return err
}

func (i *LogInterceptor) writeLine(line []byte) error {
	var buf bytes.Buffer
	buf.Grow(len(line) + 64)
	buf.WriteString(slog.Uint64("line", i.seq.Add(1)).String())
	buf.WriteByte(' ')
	buf.WriteString(slog.String("time", i.now().Format(time.RFC3339Nano)).String())
	buf.WriteByte(' ')
	buf.Write(line)
	buf.WriteByte('\n')
	_, err := i.target.Write(buf.Bytes())
	return err
}
