/*
Package config loads the server configuration.

SOURCES (later wins):
  1. Built-in defaults (defaults below)
  2. Optional YAML file (--config)
  3. FUELENGINE_* environment variables, "." mapped to "_"
     e.g. FUELENGINE_ANALYTICS_BACKFILL_CAP=500
  4. Explicit overrides (command-line flags)

SECTIONS:
  server     HTTP listener and CORS
  database   SQLite file path
  log        zap level and format
  analytics  backfill cap, page sizes, the timezone "now" is taken in
  scheduler  cron spec for the inspection reminder sweep
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/warp/fuel-engine/logging"
)

const envPrefix = "FUELENGINE"

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigParseError   = errors.New("config parse error")
	ErrConfigValidation   = errors.New("config validation failed")
)

// =============================================================================
// CONFIG TYPES
// =============================================================================

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       logging.Config  `mapstructure:"log"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type AnalyticsConfig struct {
	// BackfillCap bounds the history fetched to complete the oldest segment
	// of a page. 0 disables backfill.
	BackfillCap int `mapstructure:"backfill_cap"`

	PageSize    int `mapstructure:"page_size"`
	MaxPageSize int `mapstructure:"max_page_size"`

	// Timezone is the IANA zone used for "now", month-to-date and day counts.
	Timezone string `mapstructure:"timezone"`
}

// Location resolves Timezone. Validate has already checked it.
func (a AnalyticsConfig) Location() *time.Location {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type SchedulerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Spec    string `mapstructure:"spec"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

var defaults = map[string]any{
	"server.port":            8080,
	"server.read_timeout":    15 * time.Second,
	"server.write_timeout":   15 * time.Second,
	"server.idle_timeout":    60 * time.Second,
	"server.allowed_origins": []string{"http://localhost:3000", "http://localhost:5173"},

	"database.path": "fuel.db",

	"log.level":  "info",
	"log.format": "json",

	"analytics.backfill_cap":  200,
	"analytics.page_size":     20,
	"analytics.max_page_size": 100,
	"analytics.timezone":      "UTC",

	"scheduler.enabled": true,
	"scheduler.spec":    "0 8 * * *",
}

// Default returns the built-in defaults merged with the environment.
func Default() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("config: defaults do not validate: %v", err))
	}
	return cfg
}

// =============================================================================
// LOADING
// =============================================================================

type options struct {
	path      string
	overrides map[string]any
}

type Option func(*options)

// WithConfigPath reads a YAML file. An empty path is ignored.
func WithConfigPath(path string) Option {
	return func(o *options) { o.path = path }
}

// WithOverrides sets keys ("server.port", ...) above every other source.
func WithOverrides(overrides map[string]any) Option {
	return func(o *options) {
		if o.overrides == nil {
			o.overrides = make(map[string]any, len(overrides))
		}
		for k, v := range overrides {
			o.overrides[k] = v
		}
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return v
}

// Load merges defaults, the optional file, the environment and overrides,
// then validates the result.
func Load(opts ...Option) (*Config, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	v := newViper()
	if o.path != "" {
		if _, err := os.Stat(o.path); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, o.path)
		}
		v.SetConfigFile(o.path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
		}
	}
	for key, value := range o.overrides {
		v.Set(key, value)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigValidation, err)
	}
	return cfg, nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate returns the first problem found.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("log.format %q is invalid; expected json|console", c.Log.Format)
	}

	if c.Analytics.BackfillCap < 0 {
		return fmt.Errorf("analytics.backfill_cap must be >= 0, got %d", c.Analytics.BackfillCap)
	}
	if c.Analytics.PageSize < 1 {
		return fmt.Errorf("analytics.page_size must be >= 1, got %d", c.Analytics.PageSize)
	}
	if c.Analytics.MaxPageSize < c.Analytics.PageSize {
		return fmt.Errorf("analytics.max_page_size %d is below page_size %d",
			c.Analytics.MaxPageSize, c.Analytics.PageSize)
	}
	if _, err := time.LoadLocation(c.Analytics.Timezone); err != nil {
		return fmt.Errorf("analytics.timezone: %w", err)
	}

	if c.Scheduler.Enabled {
		if _, err := cron.ParseStandard(c.Scheduler.Spec); err != nil {
			return fmt.Errorf("scheduler.spec: %w", err)
		}
	}
	return nil
}
