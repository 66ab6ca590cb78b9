// Package config loads the termindex configuration file.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/gitrdm/gokanterm/internal/logging"
)

var validate = validator.New()

// Config is the top-level configuration.
type Config struct {
	Log         LogConfig         `yaml:"log"`
	Unification UnificationConfig `yaml:"unification"`
	Batch       BatchConfig       `yaml:"batch"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// UnificationConfig bounds the work of a single unify/match/variant call.
// Fuel 0 means unbounded.
type UnificationConfig struct {
	Fuel int `yaml:"fuel" validate:"gte=0"`
}

// BatchConfig sets the number of goroutines used by batch retrieval.
// Workers 0 means one per CPU.
type BatchConfig struct {
	Workers int `yaml:"workers" validate:"gte=0,lte=1024"`
}

// MetricsConfig controls the metrics dump printed after a command.
type MetricsConfig struct {
	Dump bool `yaml:"dump"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Log:         LogConfig{Level: "info", Format: "text"},
		Unification: UnificationConfig{Fuel: 100000},
	}
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses the file at path. An empty path yields Default.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}

// Logging converts the log section into a logging.Config.
func (c Config) Logging(service string) logging.Config {
	lvl, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		lvl = logging.LevelInfo
	}
	return logging.Config{Level: lvl, JSON: c.Log.Format == "json", Service: service}
}
