// Package config loads CLI defaults from a config file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the streamcheck configuration.
type Config struct {
	// Journal is the default journal database path.
	Journal string `mapstructure:"journal"`

	// Format is the default output format ("text" or "json").
	Format string `mapstructure:"format"`

	// TimeoutMs is the default capture wait in milliseconds for
	// scenarios that do not set their own.
	TimeoutMs int `mapstructure:"timeout_ms"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Journal:   "streamcheck.db",
		Format:    "text",
		TimeoutMs: 5000,
	}
}

// Load reads configuration with the following precedence:
// environment variables (STREAMCHECK_*), then the config file, then
// built-in defaults.
//
// The config file is searched at $XDG_CONFIG_HOME/streamcheck/config.yaml
// (falling back to ~/.config/streamcheck/config.yaml) and the current
// directory. A missing file is not an error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if dir, err := configDir(); err == nil {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("STREAMCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := Default()
	v.SetDefault("journal", defaults.Journal)
	v.SetDefault("format", defaults.Format)
	v.SetDefault("timeout_ms", defaults.TimeoutMs)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// configDir resolves the user config directory for streamcheck.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "streamcheck"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "streamcheck"), nil
}
