package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"feedhub/internal/pkg/config"
)

// Cycle statuses used as the worker_cycle_runs_total label.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusSkipped = "skipped"
)

// Metrics holds the worker's Prometheus metrics.
type Metrics struct {
	Config *config.Metrics

	CycleRunsTotal       *prometheus.CounterVec
	CycleDurationSeconds prometheus.Histogram
	FeedsRefreshedTotal  *prometheus.CounterVec
	LastSuccessTimestamp prometheus.Gauge
}

// NewMetrics registers the worker metrics with reg, or with the default
// registry when reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Config: config.NewMetrics("worker", reg),

		CycleRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_cycle_runs_total",
			Help: "Refresh cycles by status (success, failure, skipped)",
		}, []string{"status"}),

		CycleDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_cycle_duration_seconds",
			Help:    "Duration of a full refresh cycle in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 900},
		}),

		FeedsRefreshedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_feeds_refreshed_total",
			Help: "Feeds processed by refresh cycles by outcome",
		}, []string{"outcome"}),

		LastSuccessTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "worker_cycle_last_success_timestamp",
			Help: "Unix timestamp of the last successful refresh cycle",
		}),
	}
}

func (m *Metrics) RecordRun(status string) {
	m.CycleRunsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordDuration(seconds float64) {
	m.CycleDurationSeconds.Observe(seconds)
}

func (m *Metrics) RecordFeeds(refreshed, failed int64) {
	m.FeedsRefreshedTotal.WithLabelValues("refreshed").Add(float64(refreshed))
	m.FeedsRefreshedTotal.WithLabelValues("failed").Add(float64(failed))
}

func (m *Metrics) RecordLastSuccess() {
	m.LastSuccessTimestamp.SetToCurrentTime()
}
