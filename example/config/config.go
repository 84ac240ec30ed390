// Package config loads the demo's database settings.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the demo configuration.
type Config struct {
	Driver string // mysql, postgres, pq or sqlite
	DSN    string
	Prefix string // registry-wide table prefix
	Debug  bool
}

// Load reads configuration from .env files, AR_* environment variables
// and an optional activerecord.yaml, in increasing priority of v's own
// bindings (flags bound by the caller win over everything).
func Load(v *viper.Viper) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v.SetConfigName("activerecord")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("AR")
	v.AutomaticEnv()

	v.SetDefault("driver", "sqlite")
	v.SetDefault("dsn", ":memory:")
	v.SetDefault("prefix", "")
	v.SetDefault("debug", false)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		Driver: v.GetString("driver"),
		DSN:    v.GetString("dsn"),
		Prefix: v.GetString("prefix"),
		Debug:  v.GetBool("debug"),
	}
	if cfg.DSN == "" {
		return nil, errors.New("dsn is required")
	}
	return cfg, nil
}
