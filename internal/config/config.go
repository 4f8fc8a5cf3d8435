// Package config loads flowlane's runtime configuration through viper.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// ServerConfig holds settings for the layout HTTP service.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Config holds all runtime configuration for a flowlane invocation.
// Values are populated from .flowlane.yaml, FLOWLANE_* env vars, and CLI flags.
type Config struct {
	APIURL         string        `mapstructure:"api_url"`
	APIToken       string        `mapstructure:"api_token"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	DBPath         string        `mapstructure:"db_path"`
	HistoryKeep    int           `mapstructure:"history_keep"`
	TelemetryPath  string        `mapstructure:"telemetry_path"`
	WarnOnIssues   bool          `mapstructure:"warn_on_issues"`
	Color          bool          `mapstructure:"color"`
	Width          int           `mapstructure:"width"`
	Verbose        bool          `mapstructure:"verbose"`
	Server         ServerConfig  `mapstructure:"server"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("api_url", "http://localhost:8000")
	viper.SetDefault("api_token", "")
	viper.SetDefault("poll_interval", 5*time.Second)
	viper.SetDefault("request_timeout", 15*time.Second)
	viper.SetDefault("db_path", ".flowlane/snapshots.db")
	viper.SetDefault("history_keep", 50)
	viper.SetDefault("telemetry_path", "")
	viper.SetDefault("warn_on_issues", true)
	viper.SetDefault("color", true)
	viper.SetDefault("width", 100)
	viper.SetDefault("verbose", false)
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.read_timeout", 10*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings that would make flowlane misbehave at runtime.
func (c Config) Validate() error {
	switch {
	case c.APIURL == "":
		return fmt.Errorf("%w: api_url is empty", ErrInvalidConfig)
	case c.PollInterval <= 0:
		return fmt.Errorf("%w: poll_interval must be positive, got %s", ErrInvalidConfig, c.PollInterval)
	case c.RequestTimeout <= 0:
		return fmt.Errorf("%w: request_timeout must be positive, got %s", ErrInvalidConfig, c.RequestTimeout)
	case c.Width <= 0:
		return fmt.Errorf("%w: width must be positive, got %d", ErrInvalidConfig, c.Width)
	case c.HistoryKeep < 0:
		return fmt.Errorf("%w: history_keep must not be negative, got %d", ErrInvalidConfig, c.HistoryKeep)
	case c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0:
		return fmt.Errorf("%w: server timeouts must be positive", ErrInvalidConfig)
	}
	return nil
}
