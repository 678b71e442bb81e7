package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	"github.com/raidtimer/timerlink/internal/utils"
)

// logLevel is shared by every handler so that a config reload can change
// it in place.
var logLevel = new(slog.LevelVar)

// runLogLevel is the floor of the run log file. Quieting the console with
// warn or error still leaves info records in the file.
type runLogLevel struct{}

func (runLogLevel) Level() slog.Level {
	return min(logLevel.Level(), slog.LevelInfo)
}

// newConsoleHandler logs to stderr so that stdout stays clean for command
// output.
func newConsoleHandler(w *os.File) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      logLevel,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(w.Fd()),
	})
}

// newFileHandler writes plain text lines through a LogInterceptor, which
// stamps its own line number and time. The sink level filters it.
func newFileHandler(w io.Writer) (slog.Handler, *utils.LogInterceptor) {
	li := utils.NewLogInterceptor(w)
	return slog.NewTextHandler(li, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		// Do not include time as it is added by the log interceptor.
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	}), li
}

// attachLogFile truncates path and adds it as a second log destination. The
// returned func flushes and closes the file.
func attachLogFile(path string) (func(), error) {
	if path == "" {
		return func() {}, nil
	}

	path, err := utils.ResolvePath(path)
	if err != nil {
		return nil, err
	}
	if err := utils.EnsureParent(path); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	// Create new log file for this instance
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	fileHandler, li := newFileHandler(file)
	slog.SetDefault(slog.New(utils.NewLogFanout(
		utils.LogSink{Handler: newConsoleHandler(os.Stderr)},
		utils.LogSink{Handler: fileHandler, Level: runLogLevel{}},
	)))

	return func() {
		li.Close()
		file.Close()
	}, nil
}
