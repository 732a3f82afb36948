package logging

import (
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration.
type Config struct {
	Level  zapcore.Level
	Format string
	Caller bool

	// Output receives encoded entries; stderr when nil. Drivers keep
	// stdout for results.
	Output zapcore.WriteSyncer
}

// NewDefaultConfig returns config with console-friendly defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Level:  zapcore.WarnLevel,
		Format: "console",
	}
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	if c.Format != "json" && c.Format != "console" {
		return errors.Errorf("format must be 'json' or 'console', got %q", c.Format)
	}
	if c.Level < zapcore.DebugLevel || c.Level > zapcore.FatalLevel {
		return errors.Errorf("level %d out of range", int8(c.Level))
	}
	return nil
}

// LevelFromString parses a level name such as "debug" or "warn".
func LevelFromString(level string) (zapcore.Level, error) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel, errors.Wrapf(err, "log level %q", level)
	}
	return l, nil
}
