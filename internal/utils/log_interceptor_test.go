package utils

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedInterceptor(buf *bytes.Buffer) *LogInterceptor {
	li := NewLogInterceptor(buf)
	li.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return li
}

func TestLogInterceptor_PrefixesCompleteLines(t *testing.T) {
	var buf bytes.Buffer
	li := fixedInterceptor(&buf)

	n, err := li.Write([]byte("first\nsec"))
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	assert.Equal(t, "line=1 time=2026-01-02T03:04:05Z first\n", buf.String())

	_, err = li.Write([]byte("ond\r\nthird"))
	require.NoError(t, err)
	require.NoError(t, li.Close())

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"line=1 time=2026-01-02T03:04:05Z first",
		"line=2 time=2026-01-02T03:04:05Z second",
		"line=3 time=2026-01-02T03:04:05Z third",
	}, lines)
	assert.EqualValues(t, 3, li.Lines())

	// nothing left to flush
	require.NoError(t, li.Close())
	assert.EqualValues(t, 3, li.Lines())
}

func TestLogInterceptor_BehindTextHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(fixedInterceptor(&buf), nil))
	logger.Info("stream connected", "timers", 3)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "line=1 time=2026-01-02T03:04:05Z "))
	assert.Contains(t, out, `msg="stream connected" timers=3`)
}

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestLogInterceptor_TargetError(t *testing.T) {
	li := NewLogInterceptor(errWriter{})
	_, err := li.Write([]byte("x\n"))
	assert.EqualError(t, err, "disk full")
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("boom") }

func TestLogFanout_SinkLevels(t *testing.T) {
	var console, file bytes.Buffer
	consoleLevel := new(slog.LevelVar)
	consoleLevel.Set(slog.LevelWarn)

	h := NewLogFanout(
		LogSink{Handler: slog.NewTextHandler(&console, &slog.HandlerOptions{Level: slog.LevelDebug}), Level: consoleLevel},
		LogSink{Handler: slog.NewTextHandler(&file, &slog.HandlerOptions{Level: slog.LevelInfo})},
	)
	logger := slog.New(h).With("component", "sync").WithGroup("stream")

	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
	logger.Debug("frame", "bytes", 12)
	logger.Info("connected", "server", "localhost:47984")
	logger.Warn("reconnect", "in", "2s")

	assert.NotContains(t, console.String(), "msg=connected")
	assert.Contains(t, console.String(), "msg=reconnect component=sync stream.in=2s")
	assert.NotContains(t, file.String(), "msg=frame")
	assert.Contains(t, file.String(), "msg=connected component=sync stream.server=localhost:47984")

	// a reload lowers the console level in place, derived loggers included
	consoleLevel.Set(slog.LevelDebug)
	logger.Debug("frame", "bytes", 12)
	assert.Contains(t, console.String(), "msg=frame component=sync stream.bytes=12")
	assert.NotContains(t, file.String(), "msg=frame")
}

func TestLogFanout_JoinsErrors(t *testing.T) {
	var out bytes.Buffer
	ok := slog.NewTextHandler(&out, nil)
	h := NewLogFanout(LogSink{Handler: failingHandler{ok}}, LogSink{Handler: ok})

	err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "hello", 0))
	assert.EqualError(t, err, "boom")
	assert.Contains(t, out.String(), "msg=hello")
}
