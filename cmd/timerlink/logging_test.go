package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachLogFile_KeepsInfoWhenConsoleIsQuiet(t *testing.T) {
	prevLogger, prevLevel := slog.Default(), logLevel.Level()
	t.Cleanup(func() {
		slog.SetDefault(prevLogger)
		logLevel.Set(prevLevel)
	})
	logLevel.Set(slog.LevelError)

	path := filepath.Join(t.TempDir(), "logs", "timerlink.log")
	closeLog, err := attachLogFile(path)
	require.NoError(t, err)

	slog.Debug("frame decoded")
	slog.Info("stream connected", "server", "localhost:47984")
	closeLog()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `msg="stream connected" server=localhost:47984`)
	assert.Contains(t, string(data), "line=1 ")
	assert.NotContains(t, string(data), "frame decoded")
}

func TestRunLogLevel(t *testing.T) {
	prev := logLevel.Level()
	t.Cleanup(func() { logLevel.Set(prev) })

	logLevel.Set(slog.LevelDebug)
	assert.Equal(t, slog.LevelDebug, runLogLevel{}.Level())
	logLevel.Set(slog.LevelWarn)
	assert.Equal(t, slog.LevelInfo, runLogLevel{}.Level())
}
