package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/raidtimer/timerlink/internal/hotkey"
)

func init() {
	rootCmd.AddCommand(newHotkeyCmd())
}

func newHotkeyCmd() *cobra.Command {
	hotkeyCmd := &cobra.Command{
		Use:   "hotkey",
		Short: "Format and record hotkeys",
	}
	hotkeyCmd.AddCommand(newHotkeyFormatCmd(), newHotkeyRecordCmd())
	return hotkeyCmd
}

func newHotkeyFormatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "format <hotkey>...",
		Short: "Print the normalized and display form of hotkeys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			out := cmd.OutOrStdout()

			var errs []error
			for _, arg := range args {
				normalized, err := hotkey.Normalize(arg)
				if err != nil {
					fmt.Fprintf(out, "%-24s %s\n", arg, red.Render(err.Error()))
					errs = append(errs, err)
					continue
				}
				fmt.Fprintf(out, "%-24s %-24s %s\n", arg, normalized, cyan.Render(hotkey.DisplayText(normalized)))
			}
			return errors.Join(errs...)
		},
	}
}

func newHotkeyRecordCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Capture a key combination from the keyboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, gray.Render("Press a key combination, Esc cancels"))

			hk, err := hotkey.Record(ctx, hotkey.NewSystemHook(cfg.Hotkeys.Devices...))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "%s  %s\n", hk, cyan.Render(hotkey.DisplayText(hk)))
			return err
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "give up after this long, 0 waits forever")
	return cmd
}
