package config

import (
	"time"

	"github.com/codepair/codepair-server/internal/runner"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	// StaticDir is the frontend build directory. Empty disables static
	// serving.
	StaticDir string `mapstructure:"static_dir" yaml:"static_dir"`

	// ExecuteURL is the execution service endpoint; ExecuteTimeout zero
	// means the transport default.
	ExecuteURL     string        `mapstructure:"execute_url" yaml:"execute_url"`
	ExecuteTimeout time.Duration `mapstructure:"execute_timeout" yaml:"execute_timeout"`

	// HistoryDBPath is the sqlite file for the execution audit log.
	// Empty disables it.
	HistoryDBPath string `mapstructure:"history_db_path" yaml:"history_db_path"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":5000",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		ExecuteURL:        runner.DefaultURL,
		ExecuteTimeout:    30 * time.Second,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.StaticDir != "" {
		c.StaticDir = other.StaticDir
	}
	if other.ExecuteURL != "" {
		c.ExecuteURL = other.ExecuteURL
	}
	if other.ExecuteTimeout != 0 {
		c.ExecuteTimeout = other.ExecuteTimeout
	}
	if other.HistoryDBPath != "" {
		c.HistoryDBPath = other.HistoryDBPath
	}
}
