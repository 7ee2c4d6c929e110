// Package config loads flashdeck settings from defaults, an optional YAML
// file and FLASHDECK_ environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const EnvPrefix = "FLASHDECK"

type Config struct {
	Storage StorageConfig `mapstructure:"storage" validate:"required"`
	Log     LogConfig     `mapstructure:"log" validate:"required"`
	Study   StudyConfig   `mapstructure:"study" validate:"required"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=json sqlite"`
	// Path is a directory for the json driver and a database file for sqlite.
	Path string `mapstructure:"path" validate:"required"`
}

type LogConfig struct {
	Level       string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Development bool   `mapstructure:"development"`
}

type StudyConfig struct {
	// Deck is opened when the server starts.
	Deck string `mapstructure:"deck" validate:"required"`
	// Seed fixes the session shuffle; zero seeds from the clock.
	Seed int64 `mapstructure:"seed"`
}

var defaults = map[string]any{
	"storage.driver":  "json",
	"storage.path":    "./decks",
	"log.level":       "info",
	"log.development": true,
	"study.deck":      "default",
	"study.seed":      0,
}

// Load reads configuration. An empty path skips the file; a named file that
// cannot be read is an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Unmarshal only sees env values for keys viper already knows about.
	for key := range defaults {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}
