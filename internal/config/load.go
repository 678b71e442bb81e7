package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/raidtimer/timerlink/internal/hotkey"
	"github.com/raidtimer/timerlink/internal/timersdk"
	"github.com/raidtimer/timerlink/internal/timersync"
	"github.com/raidtimer/timerlink/internal/utils"
)

var defaults = map[string]any{
	"server.host":                "localhost",
	"server.port":                timersdk.DefaultPort,
	"server.channel_code":        "",
	"server.fetch_timeout":       timersdk.DefaultFetchTimeout,
	"server.action_timeout":      timersdk.DefaultActionTimeout,
	"server.stream_idle_timeout": timersdk.DefaultStreamIdleTimeout,
	"sync.backoff_seed":          timersync.DefaultBackoffSeed,
	"sync.backoff_max":           timersync.DefaultBackoffMax,
	"sync.offset_threshold":      timersync.DefaultOffsetThreshold,
	"hotkeys.enabled":            true,
	"hotkeys.devices":            hotkey.DefaultDevicePatterns,
	"control_plane.enabled":      true,
	"control_plane.addr":         DefaultControlPlaneAddr,
	"control_plane.token":        "",
	"control_plane.origins":      []string{},
	"log.level":                  DefaultLogLevel,
	"log.file":                   DefaultLogFile,
}

// ResolvePath picks the config file, honoring in order:
// an explicit path (the --config flag), TIMERLINK_CONFIG_PATH, an existing
// file in a known location, the default path. A directory selects the
// config.json inside it.
func ResolvePath(explicit string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return fileInDir(explicit)
	}

	if env := strings.TrimSpace(os.Getenv(EnvPath)); env != "" {
		return fileInDir(env)
	}

	candidates := []string{
		DefaultConfigPath,
		filepath.Join(home, ".config", "timerlink", FileName),
	}
	for _, candidate := range candidates {
		if utils.FileExists(candidate) {
			return candidate
		}
	}

	return DefaultConfigPath
}

func fileInDir(path string) string {
	if resolved, err := utils.ResolvePath(path); err == nil {
		if utils.DirExists(resolved) || strings.HasSuffix(path, "/") || strings.HasSuffix(path, `\`) {
			return filepath.Join(resolved, FileName)
		}
		return resolved
	}
	return path
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if !utils.FileExists(f) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the config file at path (a missing file is not an error),
// applies TIMERLINK_* environment overrides and the given flags, and
// validates the result. flags maps a config key to the flag overriding it.
func Load(path string, flags map[string]*pflag.Flag) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext == "" {
			v.SetConfigType("json")
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config read '%s': %w", path, err)
			}
		}
	}

	for key, flag := range flags {
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config decode: %w", err)
	}
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}
