package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// Result is the outcome of loading a single setting.
type Result[T any] struct {
	Value T
	// Warning explains why the default was used. It is empty unless
	// FallbackApplied is set.
	Warning         string
	FallbackApplied bool
}

// Load resolves key from src, parses it and validates it. Unset keys yield
// def without a warning; unparsable or invalid values yield def with one.
// A nil validate accepts every parsed value.
func Load[T any](src *Source, key string, def T, parse func(string) (T, error), validate func(T) error) Result[T] {
	raw, ok := src.Get(key)
	if !ok {
		return Result[T]{Value: def}
	}

	v, err := parse(raw)
	if err == nil && validate != nil {
		err = validate(v)
	}
	if err != nil {
		return Result[T]{
			Value:           def,
			Warning:         fmt.Sprintf("Invalid %s='%s': %v, falling back to default '%v'", key, raw, err, def),
			FallbackApplied: true,
		}
	}
	return Result[T]{Value: v}
}

func parseString(s string) (string, error) { return s, nil }

func parseInt(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer format")
	}
	return v, nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number format")
	}
	return v, nil
}

func parseBool(s string) (bool, error) {
	switch s {
	case "1", "t", "T", "true", "TRUE", "True":
		return true, nil
	case "0", "f", "F", "false", "FALSE", "False":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean format, expected 'true' or 'false'")
}

// Loader loads a group of settings, logging and counting every fallback.
type Loader struct {
	src      *Source
	logger   *slog.Logger
	metrics  *Metrics
	warnings []string
}

// NewLoader creates a Loader. metrics may be nil.
func NewLoader(src *Source, logger *slog.Logger, metrics *Metrics) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{src: src, logger: logger, metrics: metrics}
}

// String loads a string setting.
func (l *Loader) String(key, def string, validate func(string) error) string {
	return record(l, key, Load(l.src, key, def, parseString, validate))
}

// Int loads an integer setting.
func (l *Loader) Int(key string, def int, validate func(int) error) int {
	return record(l, key, Load(l.src, key, def, parseInt, validate))
}

// Float loads a floating point setting.
func (l *Loader) Float(key string, def float64, validate func(float64) error) float64 {
	return record(l, key, Load(l.src, key, def, parseFloat, validate))
}

// Duration loads a Go duration setting such as "90s" or "15m".
func (l *Loader) Duration(key string, def time.Duration, validate func(time.Duration) error) time.Duration {
	return record(l, key, Load(l.src, key, def, time.ParseDuration, validate))
}

// Bool loads a boolean setting.
func (l *Loader) Bool(key string, def bool) bool {
	return record(l, key, Load(l.src, key, def, parseBool, nil))
}

// Warnings returns every fallback warning produced so far.
func (l *Loader) Warnings() []string {
	return l.warnings
}

// Finish publishes the load timestamp and fallback state.
func (l *Loader) Finish() {
	if l.metrics == nil {
		return
	}
	l.metrics.SetFallbackActive(len(l.warnings) > 0)
	l.metrics.RecordLoadTimestamp()
}

func record[T any](l *Loader, key string, r Result[T]) T {
	if r.FallbackApplied {
		l.warnings = append(l.warnings, r.Warning)
		l.logger.Warn("Configuration fallback applied",
			slog.String("key", key),
			slog.String("warning", r.Warning))
		if l.metrics != nil {
			l.metrics.RecordFallback(key)
		}
	}
	return r.Value
}
