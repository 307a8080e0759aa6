// Package config loads the settings shared by the eer command-line tools.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/go-eer/internal/logging"
)

// EnvConfig names a config file to load when no path is given.
const EnvConfig = "EER_CONFIG"

// Config holds computation and logging settings. Zero Resolution and
// ScoreColumn select the per-mode defaults.
type Config struct {
	Resolution    int     `toml:"resolution" json:"resolution" yaml:"resolution"`
	Minval        float64 `toml:"minval" json:"minval" yaml:"minval"`
	Maxval        float64 `toml:"maxval" json:"maxval" yaml:"maxval"`
	Unit          float64 `toml:"unit" json:"unit" yaml:"unit"`
	Sensitivity   float64 `toml:"sensitivity" json:"sensitivity" yaml:"sensitivity"`
	Zoom          int     `toml:"zoom" json:"zoom" yaml:"zoom"`
	ScoreColumn   int     `toml:"score_column" json:"score_column" yaml:"score_column"`
	NegativeClass bool    `toml:"negative_class" json:"negative_class" yaml:"negative_class"`
	StrictLengths bool    `toml:"strict_lengths" json:"strict_lengths" yaml:"strict_lengths"`
	Workers       int     `toml:"workers" json:"workers" yaml:"workers"`
	Tolerance     float64 `toml:"tolerance" json:"tolerance" yaml:"tolerance"`
	Database      string  `toml:"database" json:"database" yaml:"database"`

	Log LogConfig `toml:"log" json:"log" yaml:"log"`
}

// LogConfig selects the log level and format.
type LogConfig struct {
	Level  string `toml:"level" json:"level" yaml:"level"`
	Format string `toml:"format" json:"format" yaml:"format"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Minval:    -2.0,
		Maxval:    2.0,
		Zoom:      1,
		Workers:   runtime.NumCPU(),
		Tolerance: 0.05,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path, or the file named by EER_CONFIG when path is empty,
// over the defaults. With neither set it returns the defaults.
// Environment overrides are applied before validation.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}

	cfg := Default()
	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}

// decodeFile parses path into cfg by extension.
func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("decode TOML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode YAML: %w", err)
		}
	default:
		return fmt.Errorf("config %s: unsupported extension %q", path, filepath.Ext(path))
	}
	return nil
}

// ApplyEnvOverrides applies EER_LOG_LEVEL, EER_LOG_FORMAT, EER_DATABASE
// and EER_WORKERS when set.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("EER_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("EER_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("EER_DATABASE"); v != "" {
		c.Database = v
	}
	if v := os.Getenv("EER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
}

// Logging returns the logger settings described by c.Log.
func (c *Config) Logging() (logging.Config, error) {
	lc := logging.DefaultConfig()
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return lc, err
	}
	format, err := logging.ParseFormat(c.Log.Format)
	if err != nil {
		return lc, err
	}
	lc.Level, lc.Format = level, format
	return lc, nil
}
