package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raidtimer/timerlink/internal/overlay"
	"github.com/raidtimer/timerlink/internal/timersdk"
)

func init() {
	rootCmd.AddCommand(newActionCmd())
}

func newActionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "action <timer-id> <start|pause|reset|repeat|toggle>",
		Short: "Send one action for one timer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			id := strings.TrimSpace(args[0])
			name := strings.ToLower(strings.TrimSpace(args[1]))

			var action timersdk.Action
			if name != overlay.ActionToggle {
				if action, err = timersdk.ParseAction(name); err != nil {
					return err
				}
			}
			cmd.SilenceUsage = true

			sdk, err := newSDK(cfg)
			if err != nil {
				return err
			}
			defer sdk.Close()

			if action == "" {
				if action, err = resolveToggle(cmd.Context(), sdk, id); err != nil {
					return err
				}
			}

			if err := sdk.Do(cmd.Context(), id, action); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", green.Render("ok"), id, action)
			return err
		},
	}
}

// resolveToggle picks reset for a running timer and start otherwise, like
// the hotkeys do.
func resolveToggle(ctx context.Context, sdk *timersdk.Client, id string) (timersdk.Action, error) {
	list, err := sdk.FetchTimers(ctx)
	if err != nil {
		return "", err
	}
	for _, e := range list.Timers {
		if e.ID == id && e.IsRunning {
			return timersdk.ActionReset, nil
		}
	}
	return timersdk.ActionStart, nil
}
