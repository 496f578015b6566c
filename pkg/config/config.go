// Package config loads and validates YAML configuration for ensemble
// runs.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/strataml/cubefit/pkg/errors"
)

// Config is the complete configuration for a cubefit run.
type Config struct {
	// Engine configuration
	Engine EngineConfig `yaml:"engine" validate:"required"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging,omitempty" validate:"omitempty"`

	// History configuration
	History HistoryConfig `yaml:"history,omitempty" validate:"omitempty"`
}

// EngineConfig holds the generation-loop options.
type EngineConfig struct {
	// Number of generations to evolve
	NGen int `yaml:"ngen" validate:"min=1"`

	// Population size at generation zero
	InitEnsembleSize int `yaml:"init_ensemble_size" validate:"min=1"`

	// Survivors kept by top-n selection each generation
	SelectN int `yaml:"select_n" validate:"min=1"`

	// Sequential incremental batches per member fit (0 or 1 disables)
	PartialFitBatches int `yaml:"partial_fit_batches" validate:"min=0"`

	// Concurrent fit/predict jobs on the local scheduler (0 = unbounded)
	MaxWorkers int `yaml:"max_workers" validate:"min=0"`

	// Per-member samples instead of one shared sample per generation
	PerMemberSamples bool `yaml:"per_member_samples"`

	// Prefix for engine-issued member tags
	TagPrefix string `yaml:"tag_prefix"`

	// Seed for selection-policy randomness
	Seed int64 `yaml:"seed"`
}

// LoggingConfig holds logger options.
type LoggingConfig struct {
	// Severity threshold
	Level string `yaml:"level" validate:"omitempty,oneof=DEBUG INFO WARN ERROR FATAL"`

	// Optional log file alongside console output
	File string `yaml:"file,omitempty"`
}

// HistoryConfig holds run-recorder options.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			NGen:              3,
			InitEnsembleSize:  4,
			SelectN:           2,
			PartialFitBatches: 1,
			MaxWorkers:        0,
			TagPrefix:         "model",
			Seed:              1,
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
		History: HistoryConfig{
			Path: "cubefit-history.db",
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.Configuration, "reading config file"),
			errors.Fields{"path": path},
		)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.Configuration, "parsing config file"),
			errors.Fields{"path": path},
		)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
