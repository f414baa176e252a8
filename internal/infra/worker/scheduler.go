package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"feedhub/internal/observability/logging"
	"feedhub/internal/pkg/config"
	"feedhub/internal/usecase/refresh"
)

// ErrCycleRunning is returned when a cycle is requested while one is in flight.
var ErrCycleRunning = errors.New("refresh cycle already running")

// Refresher runs one full refresh cycle.
type Refresher interface {
	RefreshAll(ctx context.Context) (*refresh.CycleStats, error)
}

// Scheduler triggers refresh cycles from a cron schedule and on demand.
// At most one cycle runs at a time; requests made while one is running are
// skipped.
type Scheduler struct {
	refresher Refresher
	cfg       Config
	metrics   *Metrics
	logger    *slog.Logger
	cron      *cron.Cron

	running atomic.Bool
	wg      sync.WaitGroup

	// ctx is the parent of every cycle; cancel aborts in-flight cycles.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(r Refresher, cfg Config, metrics *Metrics, logger *slog.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	cl := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithParser(config.CronParser),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		refresher: r,
		cfg:       cfg,
		metrics:   metrics,
		logger:    logger,
		cron:      c,
		ctx:       ctx,
		cancel:    cancel,
	}

	if _, err := c.AddFunc(cfg.Schedule, func() {
		if _, err := s.RunOnce(s.ctx); err != nil && !errors.Is(err, ErrCycleRunning) {
			s.logger.Error("scheduled refresh cycle failed", slog.String("error", logging.SanitizeError(err)))
		}
	}); err != nil {
		cancel()
		return nil, fmt.Errorf("add cron job: %w", err)
	}
	return s, nil
}

// Start starts the cron scheduler and, when configured, a first cycle.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started",
		slog.String("schedule", s.cfg.Schedule),
		slog.String("timezone", s.cfg.Timezone))
	if s.cfg.RunOnStart {
		s.Trigger()
	}
}

// Trigger starts a cycle in the background. It reports false when a cycle
// is already running.
func (s *Scheduler) Trigger() bool {
	if !s.running.CompareAndSwap(false, true) {
		s.skip()
		return false
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		if _, err := s.run(s.ctx); err != nil {
			s.logger.Error("triggered refresh cycle failed", slog.String("error", logging.SanitizeError(err)))
		}
	}()
	return true
}

// RunOnce runs a cycle and waits for it. It returns ErrCycleRunning when a
// cycle is already in flight.
func (s *Scheduler) RunOnce(ctx context.Context) (*refresh.CycleStats, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.skip()
		return nil, ErrCycleRunning
	}
	s.wg.Add(1)
	defer s.wg.Done()
	defer s.running.Store(false)
	return s.run(ctx)
}

// Running reports whether a cycle is in flight.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// Stop stops scheduling and waits for the in-flight cycle. If ctx ends
// first the cycle is cancelled and ctx's error is returned.
func (s *Scheduler) Stop(ctx context.Context) error {
	cronDone := s.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done
		s.logger.Warn("scheduler stopped, in-flight cycle cancelled")
		return ctx.Err()
	}
}

func (s *Scheduler) run(ctx context.Context) (*refresh.CycleStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.CycleTimeout)
	defer cancel()

	start := time.Now()
	stats, err := s.refresher.RefreshAll(ctx)
	if s.metrics != nil {
		s.metrics.RecordDuration(time.Since(start).Seconds())
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordRun(StatusFailure)
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordRun(StatusSuccess)
		s.metrics.RecordFeeds(stats.Refreshed, stats.Failed)
		s.metrics.RecordLastSuccess()
	}
	return stats, nil
}

func (s *Scheduler) skip() {
	if s.metrics != nil {
		s.metrics.RecordRun(StatusSkipped)
	}
	s.logger.Info("refresh cycle skipped, previous cycle still running")
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{slog.Any("error", err)}, keysAndValues...)...)
}
