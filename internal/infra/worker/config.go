// Package worker runs the refresh engine on a schedule and exposes the
// worker's operational HTTP endpoints.
package worker

import (
	"fmt"
	"log/slog"
	"time"

	"feedhub/internal/pkg/config"
)

// Config holds the worker settings.
type Config struct {
	// Schedule is a five-field cron expression.
	// Default: "*/10 * * * *"
	Schedule string

	// Timezone is the IANA zone the schedule is evaluated in.
	// Default: "UTC"
	Timezone string

	// CycleTimeout bounds one full refresh cycle including garbage collection.
	// Default: 15m
	CycleTimeout time.Duration

	// Concurrency is the number of feeds refreshed at once.
	// Default: 4
	Concurrency int

	// OpsPort serves /health, /health/ready, /metrics and /refresh.
	// Default: 9091
	OpsPort int

	// RunOnStart runs one cycle immediately after start-up.
	// Default: false
	RunOnStart bool
}

// DefaultConfig returns the default worker configuration.
func DefaultConfig() Config {
	return Config{
		Schedule:     "*/10 * * * *",
		Timezone:     "UTC",
		CycleTimeout: 15 * time.Minute,
		Concurrency:  4,
		OpsPort:      9091,
		RunOnStart:   false,
	}
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error
	if err := config.ValidateCronSchedule(c.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateDuration(c.CycleTimeout, time.Minute, 4*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("cycle timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.Concurrency, 1, 64); err != nil {
		errs = append(errs, fmt.Errorf("concurrency: %w", err))
	}
	if err := config.ValidateIntRange(c.OpsPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("ops port: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfig reads the worker settings from src. Invalid values fall back
// to their defaults with a logged warning and never fail start-up.
func LoadConfig(src *config.Source, logger *slog.Logger, metrics *Metrics) Config {
	def := DefaultConfig()
	var cm *config.Metrics
	if metrics != nil {
		cm = metrics.Config
	}
	l := config.NewLoader(src, logger, cm)

	cfg := Config{
		Schedule: l.String("REFRESH_SCHEDULE", def.Schedule, config.ValidateCronSchedule),
		Timezone: l.String("WORKER_TIMEZONE", def.Timezone, config.ValidateTimezone),
		CycleTimeout: l.Duration("REFRESH_TIMEOUT", def.CycleTimeout, func(d time.Duration) error {
			return config.ValidateDuration(d, time.Minute, 4*time.Hour)
		}),
		Concurrency: l.Int("REFRESH_CONCURRENCY", def.Concurrency, func(v int) error {
			return config.ValidateIntRange(v, 1, 64)
		}),
		OpsPort: l.Int("OPS_PORT", def.OpsPort, func(v int) error {
			return config.ValidateIntRange(v, 1024, 65535)
		}),
		RunOnStart: l.Bool("RUN_ON_START", def.RunOnStart),
	}
	l.Finish()
	return cfg
}
