package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raidtimer/timerlink/internal/timersdk"
)

func init() {
	rootCmd.AddCommand(newChannelCmd())
}

func newChannelCmd() *cobra.Command {
	channelCmd := &cobra.Command{
		Use:   "channel",
		Short: "Work with channel codes",
	}

	channelCmd.AddCommand(&cobra.Command{
		Use:   "check [code]",
		Short: "Check that a channel code exists, defaults to the configured one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			code := cfg.Server.ChannelCode
			if len(args) == 1 {
				code = strings.TrimSpace(args[0])
			}
			if code == "" {
				return errors.New("no channel code given and none configured")
			}
			cmd.SilenceUsage = true

			sdk, err := newSDK(cfg)
			if err != nil {
				return err
			}
			defer sdk.Close()

			count, err := sdk.ValidateChannel(cmd.Context(), code)
			if errors.Is(err, timersdk.ErrInvalidChannel) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s channel %s does not exist\n", red.Render("invalid"), code)
				return err
			}
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s channel %s has %d %s\n",
				green.Render("ok"), code, count, plural(count, "timer", "timers"))
			return err
		},
	})

	return channelCmd
}
