package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/raidtimer/timerlink/internal/config"
	"github.com/raidtimer/timerlink/internal/utils"
)

// flagKeys maps command line flags to the config keys they override.
var flagKeys = map[string]string{
	"host":       "server.host",
	"port":       "server.port",
	"channel":    "server.channel_code",
	"log-level":  "log.level",
	"http-addr":  "control_plane.addr",
	"http-token": "control_plane.token",
	"http":       "control_plane.enabled",
	"hotkeys":    "hotkeys.enabled",
}

// loadConfig resolves the config path and loads it with the environment and
// every flag the user set on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	explicit, _ := cmd.Flags().GetString("config")
	path := config.ResolvePath(explicit)

	flags := make(map[string]*pflag.Flag)
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			flags[key] = f
		}
	}

	cfg, err := config.Load(path, flags)
	if err != nil {
		return nil, err
	}

	if l, err := config.ParseLevel(cfg.Log.Level); err == nil {
		logLevel.Set(l)
	}
	return cfg, nil
}

func init() {
	rootCmd.AddCommand(newConfigCmd())
}

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the TimerLink configuration",
	}
	configCmd.AddCommand(newConfigShowCmd(), newConfigPathCmd())
	return configCmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			out := cfg.Clone()
			out.ControlPlane.Token = utils.MaskSecret(out.ControlPlane.Token)

			data, err := yaml.Marshal(out)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			explicit, _ := cmd.Flags().GetString("config")
			path := config.ResolvePath(explicit)
			exists := "missing, defaults apply"
			if utils.FileExists(path) {
				exists = "exists"
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", path, exists)
			return err
		},
	}
}
