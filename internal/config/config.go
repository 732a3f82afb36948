// Package config loads driver configuration for the eoc binaries.
//
// Configuration precedence (highest to lowest):
//  1. Command-line flags set explicitly (applied by the drivers)
//  2. Environment variables with the EOC_ prefix
//  3. YAML config file passed with --config
//  4. Hardcoded defaults
//
// Environment variables drop the prefix and split on the first underscore:
//
//	EOC_ENGINE_KEEP_BASKETS -> engine.keep_baskets
//	EOC_LOG_LEVEL           -> log.level
//	EOC_BENCH_PARALLEL      -> bench.parallel
package config

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/sbl8/eoc/atoms"
	"github.com/sbl8/eoc/internal/logging"
	"github.com/sbl8/eoc/runtime"
)

// Config holds the complete driver configuration.
type Config struct {
	Engine  EngineConfig  `koanf:"engine"`
	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
	Bench   BenchConfig   `koanf:"bench"`
}

// EngineConfig holds dataization engine settings.
type EngineConfig struct {
	KeepBaskets bool   `koanf:"keep_baskets"`
	Atoms       string `koanf:"atoms"`
	MaxDepth    int    `koanf:"max_depth"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MetricsConfig holds metrics export settings.
type MetricsConfig struct {
	Textfile string `koanf:"textfile"` // empty disables the export
}

// BenchConfig holds benchmark and regression-suite settings.
type BenchConfig struct {
	Parallel int      `koanf:"parallel"`
	Progress bool     `koanf:"progress"`
	Timeout  Duration `koanf:"timeout"` // zero means no deadline
}

// NewDefaultConfig returns the configuration used when nothing is set.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Engine.Atoms == "" {
		cfg.Engine.Atoms = string(atoms.Native)
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "warn"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Bench.Parallel == 0 {
		cfg.Bench.Parallel = 1
	}
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	if _, err := atoms.ParseFlavor(c.Engine.Atoms); err != nil {
		return errors.WithMessage(err, "engine.atoms")
	}
	if c.Engine.MaxDepth < 0 {
		return errors.Errorf("engine.max_depth must be >= 0, got %d", c.Engine.MaxDepth)
	}
	if _, err := c.LoggingConfig(); err != nil {
		return err
	}
	if c.Bench.Parallel < 1 {
		return errors.Errorf("bench.parallel must be >= 1, got %d", c.Bench.Parallel)
	}
	return nil
}

// LoggingConfig converts the log section into a logger config.
func (c *Config) LoggingConfig() (*logging.Config, error) {
	level, err := logging.LevelFromString(c.Log.Level)
	if err != nil {
		return nil, errors.WithMessage(err, "log.level")
	}
	lc := logging.NewDefaultConfig()
	lc.Level = level
	lc.Format = c.Log.Format
	if err := lc.Validate(); err != nil {
		return nil, errors.WithMessage(err, "log")
	}
	return lc, nil
}

// EngineOptions converts the engine section into runtime options.
func (c *Config) EngineOptions(log *zap.Logger) runtime.Options {
	opts := runtime.DefaultOptions()
	opts.KeepBaskets = c.Engine.KeepBaskets
	opts.Flavor = atoms.Flavor(c.Engine.Atoms)
	opts.MaxDepth = c.Engine.MaxDepth
	if log != nil {
		opts.Logger = log
	}
	return opts
}

// Duration wraps time.Duration for text unmarshaling (YAML, env vars).
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if parsed < 0 {
		return errors.Errorf("duration cannot be negative: %s", text)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration().String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
