// Package config loads driver and ORM settings from YAML files.
//
// A minimal configuration names the driver and data source:
//
//	driver: postgres
//	dsn: postgres://localhost/app
//	pool:
//	  max_open_conns: 20
//	  conn_max_lifetime: 30m
//	slow_query_threshold: 200ms
//
// Load reads a file over the defaults and validates the result. Watch
// re-loads the file when it changes on disk.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/maxBogovick/fluxorm/dialect"
)

// Config holds database connection and ORM behavior settings.
type Config struct {
	// Driver is the database dialect: "postgres", "mysql" or "sqlite".
	Driver string `yaml:"driver"`

	// DSN is the driver-specific data source name.
	DSN string `yaml:"dsn"`

	// Pool configures the connection pool.
	Pool PoolConfig `yaml:"pool,omitempty"`

	// SlowQueryThreshold enables slow-query statistics when positive.
	SlowQueryThreshold Duration `yaml:"slow_query_threshold,omitempty"`

	// QueryLogging wraps the driver with debug statement logging.
	QueryLogging bool `yaml:"query_logging,omitempty"`

	// LogLevel is the minimum log level: "debug", "info", "warn" or "error".
	LogLevel string `yaml:"log_level,omitempty"`

	// CacheTTL enables query result caching when positive.
	CacheTTL Duration `yaml:"cache_ttl,omitempty"`

	// AutoTimestamps maintains created_at and updated_at on writes.
	AutoTimestamps bool `yaml:"auto_timestamps"`

	// StrictMode runs model validators before inserts and updates,
	// failing the write on a validation error.
	StrictMode bool `yaml:"strict_mode,omitempty"`
}

// PoolConfig configures the database/sql connection pool.
type PoolConfig struct {
	// MaxOpenConns limits open connections. Zero means unlimited.
	MaxOpenConns int `yaml:"max_open_conns,omitempty"`

	// MaxIdleConns limits idle connections kept in the pool.
	MaxIdleConns int `yaml:"max_idle_conns,omitempty"`

	// ConnMaxLifetime closes connections older than this.
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime,omitempty"`

	// ConnMaxIdleTime closes connections idle longer than this.
	ConnMaxIdleTime Duration `yaml:"conn_max_idle_time,omitempty"`
}

// Duration is a time.Duration that unmarshals from YAML strings such as
// "200ms" or "30m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("expected duration string, got %v", node.Kind)
	}
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", node.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the configuration used when a setting is absent from
// the file: an in-memory SQLite database with automatic timestamps.
func Default() *Config {
	return &Config{
		Driver:         dialect.SQLite,
		DSN:            ":memory:",
		LogLevel:       "info",
		AutoTimestamps: true,
	}
}

// Load reads a YAML configuration file over the defaults and validates
// the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the driver stack cannot
// accept.
func (c *Config) Validate() error {
	switch c.Driver {
	case dialect.Postgres, dialect.MySQL, dialect.SQLite:
	default:
		return fmt.Errorf("config: unsupported driver %q", c.Driver)
	}
	if c.DSN == "" {
		return fmt.Errorf("config: dsn is required")
	}
	if c.Pool.MaxOpenConns < 0 {
		return fmt.Errorf("config: max_open_conns must not be negative")
	}
	if c.Pool.MaxIdleConns < 0 {
		return fmt.Errorf("config: max_idle_conns must not be negative")
	}
	if c.Pool.ConnMaxLifetime < 0 {
		return fmt.Errorf("config: conn_max_lifetime must not be negative")
	}
	if c.Pool.ConnMaxIdleTime < 0 {
		return fmt.Errorf("config: conn_max_idle_time must not be negative")
	}
	if c.SlowQueryThreshold < 0 {
		return fmt.Errorf("config: slow_query_threshold must not be negative")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("config: cache_ttl must not be negative")
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	return nil
}

// SlogLevel maps the configured log level to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
