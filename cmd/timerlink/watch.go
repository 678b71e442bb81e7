package main

import (
	"fmt"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/raidtimer/timerlink/internal/overlay"
	"github.com/raidtimer/timerlink/internal/timersync"
)

func init() {
	rootCmd.AddCommand(newWatchCmd())
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Live terminal view of the timers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			// log lines would tear through the alt screen
			slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

			client := timersync.New(cfg.SyncSettings())
			defer client.Close()

			orch := overlay.New(client, nil, overlay.Options{ActionTimeout: cfg.Server.ActionTimeout})
			if err := orch.Start(cmd.Context()); err != nil {
				return err
			}
			defer orch.Stop()

			m := newWatchModel(cmd.Context(), orch, cfg.SDK().BaseURL())
			defer orch.Unsubscribe(m.changes)

			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil && cmd.Context().Err() == nil {
				return fmt.Errorf("watch: %w", err)
			}
			return nil
		},
	}
}
