// SPDX-License-Identifier: Apache-2.0

// Package config loads the trionorm configuration file.
package config

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/classify"
	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/dictionary"
	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/pipeline"
)

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Encoding    string `yaml:"encoding"`
	Development bool   `yaml:"development"`
}

type DictionariesConfig struct {
	// Path is a directory of dictionary YAML files replacing the built-in
	// tables. Empty means built-in.
	Path string `yaml:"path"`
}

type Config struct {
	Logging      LoggingConfig      `yaml:"logging"`
	Batch        pipeline.Options   `yaml:"batch"`
	Dictionaries DictionariesConfig `yaml:"dictionaries"`
	// Metadata maps equipment names to vendor and model.
	Metadata classify.StaticMetadata `yaml:"metadata"`
}

func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
		Batch: pipeline.Options{
			Concurrency: pipeline.DefaultConcurrency,
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every problem in the configuration.
func (c *Config) Validate() error {
	var errs error
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("logging.level: %w", err))
	}
	switch c.Logging.Encoding {
	case "json", "console":
	default:
		errs = multierr.Append(errs, fmt.Errorf("logging.encoding: must be json or console, got %q", c.Logging.Encoding))
	}
	if c.Batch.Concurrency < 0 {
		errs = multierr.Append(errs, fmt.Errorf("batch.concurrency: must not be negative"))
	}
	if c.Batch.MaxPointsPerEquipment < 0 {
		errs = multierr.Append(errs, fmt.Errorf("batch.maxPointsPerEquipment: must not be negative"))
	}
	if c.Dictionaries.Path != "" {
		if info, err := os.Stat(c.Dictionaries.Path); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("dictionaries.path: %w", err))
		} else if !info.IsDir() {
			errs = multierr.Append(errs, fmt.Errorf("dictionaries.path: %s is not a directory", c.Dictionaries.Path))
		}
	}
	seen := make(map[string]string, len(c.Metadata))
	for _, name := range slices.Sorted(maps.Keys(c.Metadata)) {
		if c.Metadata[name].Vendor == "" {
			errs = multierr.Append(errs, fmt.Errorf("metadata.%s: vendor is required", name))
		}
		folded := strings.ToLower(name)
		if other, ok := seen[folded]; ok {
			errs = multierr.Append(errs, fmt.Errorf("metadata.%s: differs from %s only by case", name, other))
			continue
		}
		seen[folded] = name
	}
	return errs
}

// NewLogger builds the zap logger described by the logging section.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if c.Logging.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	if c.Logging.Encoding != "" {
		zc.Encoding = c.Logging.Encoding
	}
	// Stdout carries command output.
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

// LoadDictionary returns the configured dictionary tables.
func (c *Config) LoadDictionary() (*dictionary.Tables, error) {
	if c.Dictionaries.Path == "" {
		return dictionary.Default()
	}
	return dictionary.Load(os.DirFS(c.Dictionaries.Path))
}
