package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/raidtimer/timerlink/internal/config"
	"github.com/raidtimer/timerlink/internal/controlplane"
	"github.com/raidtimer/timerlink/internal/hotkey"
	"github.com/raidtimer/timerlink/internal/overlay"
	"github.com/raidtimer/timerlink/internal/timersync"
	"github.com/raidtimer/timerlink/internal/utils"
	"github.com/raidtimer/timerlink/internal/version"
)

var ErrAlreadyRunning = errors.New("another timerlink instance is running")

func init() {
	rootCmd.AddCommand(newRunCmd())
}

func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Sync timers, bind hotkeys and serve the local control plane",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			closeLog, err := attachLogFile(cfg.Log.File)
			if err != nil {
				return err
			}
			defer closeLog()

			slog.Info("timerlink", "version", version.Detailed())
			slog.Info("config", "path", cfg.Path, "server", cfg.SDK().BaseURL(), "channel", cfg.Server.ChannelCode)

			unlock, err := lockInstance(config.DefaultLockFile)
			if err != nil {
				return err
			}
			defer unlock()

			defer slog.Info("Bye!")
			if err := runDaemon(cmd.Context(), cfg, func() (*config.Config, error) {
				return loadConfig(cmd)
			}); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("run", "error", err)
				return err
			}
			return nil
		},
	}

	runCmd.Flags().String("http-addr", config.DefaultControlPlaneAddr, "address of the local control plane")
	runCmd.Flags().String("http-token", "", "bearer token for the local control plane")
	runCmd.Flags().Bool("http", true, "serve the local control plane")
	runCmd.Flags().Bool("hotkeys", true, "bind the configured global hotkeys")

	return runCmd
}

// lockInstance takes the single instance lock at path.
func lockInstance(path string) (func(), error) {
	if err := utils.EnsureParent(path); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, path)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			slog.Warn("unlock", "path", path, "error", err)
		}
	}, nil
}

// runDaemon runs the orchestrator, the control plane and the config watcher
// until ctx is done or one of them fails.
func runDaemon(ctx context.Context, cfg *config.Config, reload func() (*config.Config, error)) error {
	client := timersync.New(cfg.SyncSettings())
	defer client.Close()

	var keys overlay.HotkeyEngine
	if cfg.Hotkeys.Enabled {
		engine := hotkey.NewEngine(hotkey.NewSystemHook(cfg.Hotkeys.Devices...))
		defer engine.Close()
		keys = engine
	}

	orch := overlay.New(client, keys, overlay.Options{
		Hotkeys:        cfg.Hotkeys.Timers,
		HotkeysEnabled: cfg.Hotkeys.Enabled,
		ActionTimeout:  cfg.Server.ActionTimeout,
	})

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return orch.Run(ctx)
	})

	if cfg.ControlPlane.Enabled {
		srv, err := controlplane.NewServer(&controlplane.Config{
			Addr:      cfg.ControlPlane.Addr,
			AuthToken: cfg.ControlPlane.Token,
			Origins:   cfg.ControlPlane.Origins,
		}, orch)
		if err != nil {
			return err
		}
		eg.Go(func() error {
			return srv.Run(ctx)
		})
	}

	if cfg.Path != "" && reload != nil {
		watcher := config.NewWatcher(cfg.Path, reload)
		eg.Go(func() error {
			err := watcher.Run(ctx, func(next *config.Config) {
				applyConfig(orch, client, next)
			})
			if err != nil {
				slog.Warn("config watch disabled", "error", err)
			}
			return nil
		})
	}

	return eg.Wait()
}

// hotkeyRebinder and settingsUpdater are the parts of the orchestrator and
// sync client a config reload touches.
type hotkeyRebinder interface {
	SetHotkeys(bindings map[string]string)
}

type settingsUpdater interface {
	UpdateSettings(settings timersync.Settings) error
}

// applyConfig hands a reloaded config to the running components. Listen
// address, token and hotkey device changes need a restart.
func applyConfig(keys hotkeyRebinder, client settingsUpdater, cfg *config.Config) {
	keys.SetHotkeys(cfg.Hotkeys.Timers)
	if err := client.UpdateSettings(cfg.SyncSettings()); err != nil {
		slog.Warn("sync settings rejected", "error", err)
	}
	if l, err := config.ParseLevel(cfg.Log.Level); err == nil {
		logLevel.Set(l)
	}
}
