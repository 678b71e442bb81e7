package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/raidtimer/timerlink/internal/config"
	"github.com/raidtimer/timerlink/internal/version"
)

var rootCmd = &cobra.Command{
	Use:     "timerlink",
	Short:   "TimerLink, live raid timers with global hotkeys",
	Version: version.Detailed(),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		if level == "" {
			return nil
		}
		l, err := config.ParseLevel(level)
		if err != nil {
			return err
		}
		logLevel.Set(l)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", fmt.Sprintf("config file (default %s)", config.DefaultConfigPath))
	rootCmd.PersistentFlags().String("host", "", "timer server host")
	rootCmd.PersistentFlags().Int("port", 0, "timer server port")
	rootCmd.PersistentFlags().String("channel", "", "channel code")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
	}

	slog.SetDefault(slog.New(newConsoleHandler(os.Stderr)))

	// Setup root context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
