// Package config handles voicesync configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration structure for voicesync.
type Config struct {
	// Global settings
	Global GlobalConfig `yaml:"global" mapstructure:"global"`

	// Backend settings
	Backend BackendConfig `yaml:"backend" mapstructure:"backend"`

	// Channel settings
	Channel ChannelConfig `yaml:"channel" mapstructure:"channel"`

	// Cache settings
	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// TUI settings
	TUI TUIConfig `yaml:"tui" mapstructure:"tui"`
}

// GlobalConfig contains global voicesync settings.
type GlobalConfig struct {
	// DataDir is where voicesync stores its data (default: ~/.local/share/voicesync).
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// ConfigDir is where config files are stored (default: ~/.config/voicesync).
	ConfigDir string `yaml:"config_dir" mapstructure:"config_dir"`
}

// BackendConfig contains request/response backend settings.
type BackendConfig struct {
	// Addr is the backend host:port.
	Addr string `yaml:"addr" mapstructure:"addr"`

	// DialTimeout is the per-request connection timeout.
	DialTimeout time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
}

// ChannelConfig contains event-channel settings.
type ChannelConfig struct {
	// Addr is the event channel host:port. Empty means derive the host from
	// backend.addr and the port from the session snapshot.
	Addr string `yaml:"addr" mapstructure:"addr"`

	// DialTimeout is the channel connection timeout.
	DialTimeout time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`

	// ReconnectDelay is the pause before redialing a dropped channel.
	ReconnectDelay time.Duration `yaml:"reconnect_delay" mapstructure:"reconnect_delay"`
}

// CacheConfig contains local snapshot cache settings.
type CacheConfig struct {
	// Path is the SQLite snapshot database file path.
	Path string `yaml:"path" mapstructure:"path"`

	// BusyTimeout is how long to wait for a locked database (milliseconds).
	BusyTimeoutMs int `yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// TUIConfig contains watch view settings.
type TUIConfig struct {
	// RefreshInterval is how often to refresh the display.
	RefreshInterval time.Duration `yaml:"refresh_interval" mapstructure:"refresh_interval"`

	// ShowTimestamps shows row time labels in the UI.
	ShowTimestamps bool `yaml:"show_timestamps" mapstructure:"show_timestamps"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Global: GlobalConfig{
			DataDir:   filepath.Join(homeDir, ".local", "share", "voicesync"),
			ConfigDir: filepath.Join(homeDir, ".config", "voicesync"),
		},
		Backend: BackendConfig{
			Addr:        "127.0.0.1:7650",
			DialTimeout: 2 * time.Second,
		},
		Channel: ChannelConfig{
			DialTimeout:    2 * time.Second,
			ReconnectDelay: 3 * time.Second,
		},
		Cache: CacheConfig{
			Path:          "", // Will be set to DataDir/voicesync.db
			BusyTimeoutMs: 5000,
		},
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "console",
			EnableCaller: false,
		},
		TUI: TUIConfig{
			RefreshInterval: 500 * time.Millisecond,
			ShowTimestamps:  true,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Backend.Addr == "" {
		return fmt.Errorf("backend.addr is required")
	}

	if c.Backend.DialTimeout < 100*time.Millisecond {
		return fmt.Errorf("backend.dial_timeout must be at least 100ms")
	}

	if c.Channel.DialTimeout < 100*time.Millisecond {
		return fmt.Errorf("channel.dial_timeout must be at least 100ms")
	}

	if c.Channel.ReconnectDelay < 100*time.Millisecond {
		return fmt.Errorf("channel.reconnect_delay must be at least 100ms")
	}

	if c.Cache.BusyTimeoutMs < 0 {
		return fmt.Errorf("cache.busy_timeout_ms must not be negative")
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console")
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Global.DataDir,
		c.Global.ConfigDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// CachePath returns the full snapshot database path.
func (c *Config) CachePath() string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	return filepath.Join(c.Global.DataDir, "voicesync.db")
}
