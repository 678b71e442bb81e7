package utils

import (
	"context"
	"errors"
	"log/slog"
)

// LogSink is one log destination with its own minimum level. A nil Level
// leaves the decision to the handler.
type LogSink struct {
	Handler slog.Handler
	Level   slog.Leveler
}

func (s LogSink) enabled(ctx context.Context, level slog.Level) bool {
	if s.Level != nil && level < s.Level.Level() {
		return false
	}
	return s.Handler.Enabled(ctx, level)
}

// LogFanout sends each record to every sink that accepts its level. The
// levels are read per record, so a slog.LevelVar changes them in place.
type LogFanout struct {
	sinks []LogSink
}

func NewLogFanout(sinks ...LogSink) *LogFanout {
	return &LogFanout{sinks: sinks}
}

func (f *LogFanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range f.sinks {
		if s.enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle writes r to every accepting sink. A failing sink does not stop the
// others; their errors come back joined.
func (f *LogFanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, s := range f.sinks {
		if !s.enabled(ctx, r.Level) {
			continue
		}
		if err := s.Handler.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *LogFanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f *LogFanout) WithGroup(name string) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f *LogFanout) derive(fn func(slog.Handler) slog.Handler) *LogFanout {
	sinks := make([]LogSink, len(f.sinks))
	for i, s := range f.sinks {
		sinks[i] = LogSink{Handler: fn(s.Handler), Level: s.Level}
	}
	return &LogFanout{sinks: sinks}
}
