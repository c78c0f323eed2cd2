// Package config loads CLI settings from a config file, environment
// variables and defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the effective runtime configuration.
type Config struct {
	// Timezone is the default location for date and time inputs that do
	// not carry their own. There is no fallback to the host timezone; a
	// deployment states its default explicitly.
	Timezone string `mapstructure:"timezone"`

	// Account selects which stored Google token to use.
	Account string `mapstructure:"account"`

	// Calendar is the target calendar name or ID for event creation.
	Calendar string `mapstructure:"calendar"`

	// CheckTimeout bounds one attendee's free/busy lookup.
	CheckTimeout time.Duration `mapstructure:"check_timeout"`

	// MaxConcurrentChecks caps simultaneous free/busy lookups.
	MaxConcurrentChecks int `mapstructure:"max_concurrent_checks"`

	// PoliciesFile points at the scheduling policies JSON. Empty means
	// the built-in rule set.
	PoliciesFile string `mapstructure:"policies_file"`

	// UsersFile and FacilitiesFile point at the team roster and room
	// directory. Both are optional.
	UsersFile      string `mapstructure:"users_file"`
	FacilitiesFile string `mapstructure:"facilities_file"`

	// SessionDB is the SQLite file for conversation history. Empty
	// disables session persistence.
	SessionDB string `mapstructure:"session_db"`

	// HolidayCountry is the default country for holiday lookups when an
	// attendee has none in the roster.
	HolidayCountry string `mapstructure:"holiday_country"`

	// SearchAPIKey and SearchEngineID configure the Custom Search
	// backend for holiday lookups. Both empty disables the lookup.
	SearchAPIKey   string `mapstructure:"search_api_key"`
	SearchEngineID string `mapstructure:"search_engine_id"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`

	// LogJSON switches log output to JSON lines.
	LogJSON bool `mapstructure:"log_json"`

	// MetricsAddr exposes Prometheus metrics when set, e.g. ":9090".
	MetricsAddr string `mapstructure:"metrics_addr"`
}

const envPrefix = "CONFLICTFEWER"

// Load reads configuration from the given file, or from
// conflictfewer.yaml in the working directory and ~/.config/conflictfewer
// when path is empty. Environment variables prefixed with CONFLICTFEWER_
// override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("timezone", "UTC")
	v.SetDefault("account", "")
	v.SetDefault("calendar", "primary")
	v.SetDefault("check_timeout", 3*time.Second)
	v.SetDefault("max_concurrent_checks", 50)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("conflictfewer")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := homeConfigDir(); err == nil {
			v.AddConfigPath(home)
		}
		if err := v.ReadInConfig(); err != nil {
			// A missing default config is fine; anything else is not.
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Timezone == "" {
		return fmt.Errorf("timezone must not be empty")
	}
	if c.CheckTimeout <= 0 {
		return fmt.Errorf("check_timeout must be positive, got %s", c.CheckTimeout)
	}
	if c.MaxConcurrentChecks <= 0 {
		return fmt.Errorf("max_concurrent_checks must be positive, got %d", c.MaxConcurrentChecks)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

func homeConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "conflictfewer"), nil
}
