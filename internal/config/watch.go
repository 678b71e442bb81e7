package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/rjeczalik/notify"
)

const (
	DefaultWatchDebounce = 250 * time.Millisecond
	watchBufferSize      = 16
)

// Watcher reloads the config whenever its file changes on disk.
type Watcher struct {
	path     string
	load     func() (*Config, error)
	debounce time.Duration
}

// NewWatcher watches path. load re-reads the config with the same flags and
// environment the program started with.
func NewWatcher(path string, load func() (*Config, error)) *Watcher {
	return &Watcher{
		path:     path,
		load:     load,
		debounce: DefaultWatchDebounce,
	}
}

// SetDebounce sets how long the file must stay quiet before it is re-read.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Run blocks until ctx is done. The parent directory is watched rather than
// the file so that editors replacing the file by rename are seen. Invalid
// edits are logged and skipped; onChange only receives validated configs.
func (w *Watcher) Run(ctx context.Context, onChange func(*Config)) error {
	target, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("config watch: %w", err)
	}
	dir := filepath.Dir(target)

	events := make(chan notify.EventInfo, watchBufferSize)
	if err := notify.Watch(dir, events, notify.Write, notify.Create, notify.Rename, notify.Remove); err != nil {
		return fmt.Errorf("config watch %s: %w", dir, err)
	}
	defer notify.Stop(events)

	slog.Info("config watch start", "path", target)

	quiet := time.NewTimer(w.debounce)
	quiet.Stop()
	defer quiet.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("config watch stop", "path", target)
			return nil

		case ev := <-events:
			if !samePath(ev.Path(), target) {
				continue
			}
			slog.Debug("config file event", "event", ev.Event(), "path", ev.Path())
			quiet.Reset(w.debounce)

		case <-quiet.C:
			cfg, err := w.load()
			if err != nil {
				slog.Warn("config reload rejected", "path", target, "error", err)
				continue
			}
			slog.Info("config reloaded", "path", target)
			onChange(cfg)
		}
	}
}

// samePath compares by directory and file name so that a removed or not yet
// created file still matches.
func samePath(a, b string) bool {
	if a == b {
		return true
	}
	if filepath.Base(a) != filepath.Base(b) {
		return false
	}
	return resolveDir(filepath.Dir(a)) == resolveDir(filepath.Dir(b))
}

func resolveDir(dir string) string {
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		return resolved
	}
	return dir
}
