// Package config loads the TimerLink configuration from file, environment
// and flags. The program never writes the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/raidtimer/timerlink/internal/timersdk"
	"github.com/raidtimer/timerlink/internal/timersync"
)

const (
	FileName  = "config.json"
	EnvPath   = "TIMERLINK_CONFIG_PATH"
	EnvPrefix = "TIMERLINK"

	DefaultControlPlaneAddr = "localhost:7939"
	DefaultLogLevel         = "info"
)

var (
	home, _           = os.UserHomeDir()
	DefaultConfigDir  = filepath.Join(home, ".timerlink")
	DefaultConfigPath = filepath.Join(DefaultConfigDir, FileName)
	DefaultLogFile    = filepath.Join(DefaultConfigDir, "logs", "timerlink.log")
	DefaultLockFile   = filepath.Join(DefaultConfigDir, "timerlink.lock")
)

var (
	ErrNoServerHost   = errors.New("config: server host is required")
	ErrInvalidPort    = errors.New("config: server port must be between 1 and 65535")
	ErrInvalidLevel   = errors.New("config: unknown log level")
	ErrInvalidAddress = errors.New("config: control plane address is invalid")
)

type Config struct {
	Path         string             `mapstructure:"-" yaml:"path,omitempty"`
	Server       ServerConfig       `mapstructure:"server" yaml:"server"`
	Sync         SyncConfig         `mapstructure:"sync" yaml:"sync"`
	Hotkeys      HotkeysConfig      `mapstructure:"hotkeys" yaml:"hotkeys"`
	ControlPlane ControlPlaneConfig `mapstructure:"control_plane" yaml:"control_plane"`
	Log          LogConfig          `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Host              string        `mapstructure:"host" yaml:"host"`
	Port              int           `mapstructure:"port" yaml:"port"`
	ChannelCode       string        `mapstructure:"channel_code" yaml:"channel_code,omitempty"`
	FetchTimeout      time.Duration `mapstructure:"fetch_timeout" yaml:"fetch_timeout"`
	ActionTimeout     time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
	StreamIdleTimeout time.Duration `mapstructure:"stream_idle_timeout" yaml:"stream_idle_timeout"`
}

type SyncConfig struct {
	BackoffSeed     time.Duration `mapstructure:"backoff_seed" yaml:"backoff_seed"`
	BackoffMax      time.Duration `mapstructure:"backoff_max" yaml:"backoff_max"`
	OffsetThreshold time.Duration `mapstructure:"offset_threshold" yaml:"offset_threshold"`
}

type HotkeysConfig struct {
	Enabled bool              `mapstructure:"enabled" yaml:"enabled"`
	Devices []string          `mapstructure:"devices" yaml:"devices,omitempty"`
	Timers  map[string]string `mapstructure:"timers" yaml:"timers,omitempty"`
}

type ControlPlaneConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
	Token   string `mapstructure:"token" yaml:"token,omitempty"`
	// Origins are browser origin host patterns ("obs.local:*") allowed to
	// reach the control plane besides its own address.
	Origins []string `mapstructure:"origins" yaml:"origins,omitempty"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file,omitempty"`
}

// Validate normalizes the config in place and rejects values the program
// cannot run with. Hotkey syntax is checked later, per binding.
func (c *Config) Validate() error {
	c.Server.Host = strings.TrimSpace(c.Server.Host)
	c.Server.ChannelCode = strings.TrimSpace(c.Server.ChannelCode)
	if c.Server.Host == "" {
		return ErrNoServerHost
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}

	hotkeys := make(map[string]string, len(c.Hotkeys.Timers))
	for id, hk := range c.Hotkeys.Timers {
		id = strings.TrimSpace(id)
		hk = strings.ToLower(strings.TrimSpace(hk))
		if id == "" || hk == "" {
			continue
		}
		hotkeys[id] = hk
	}
	c.Hotkeys.Timers = hotkeys

	devices := make([]string, 0, len(c.Hotkeys.Devices))
	for _, d := range c.Hotkeys.Devices {
		if d = strings.TrimSpace(d); d != "" {
			devices = append(devices, d)
		}
	}
	c.Hotkeys.Devices = devices

	origins := make([]string, 0, len(c.ControlPlane.Origins))
	for _, o := range c.ControlPlane.Origins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.ControlPlane.Origins = origins

	c.ControlPlane.Addr = strings.TrimSpace(c.ControlPlane.Addr)
	if c.ControlPlane.Addr == "" {
		c.ControlPlane.Addr = DefaultControlPlaneAddr
	}
	if c.ControlPlane.Enabled && !strings.Contains(c.ControlPlane.Addr, ":") {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, c.ControlPlane.Addr)
	}

	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}

	return nil
}

// ParseLevel maps a config log level to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLevel, level)
	}
	return l, nil
}

// SDK returns the server client settings.
func (c *Config) SDK() timersdk.Config {
	return timersdk.Config{
		Host:              c.Server.Host,
		Port:              c.Server.Port,
		ChannelCode:       c.Server.ChannelCode,
		FetchTimeout:      c.Server.FetchTimeout,
		ActionTimeout:     c.Server.ActionTimeout,
		StreamIdleTimeout: c.Server.StreamIdleTimeout,
	}
}

// SyncSettings returns the sync client settings.
func (c *Config) SyncSettings() timersync.Settings {
	return timersync.Settings{
		Server:          c.SDK(),
		BackoffSeed:     c.Sync.BackoffSeed,
		BackoffMax:      c.Sync.BackoffMax,
		OffsetThreshold: c.Sync.OffsetThreshold,
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Hotkeys.Devices = append([]string(nil), c.Hotkeys.Devices...)
	out.Hotkeys.Timers = maps.Clone(c.Hotkeys.Timers)
	out.ControlPlane.Origins = append([]string(nil), c.ControlPlane.Origins...)
	return &out
}
