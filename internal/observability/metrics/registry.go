package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics for the worker's operations endpoints.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Feed synchronization metrics
var (
	FeedRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_refresh_duration_seconds",
			Help:    "Duration of a single feed refresh in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// FeedRefreshTotal counts refreshes by result: success, fetch_error,
	// parse_error or storage_error.
	FeedRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_refresh_total",
			Help: "Total number of feed refreshes by result",
		},
		[]string{"result"},
	)

	// ArticlesProcessedTotal counts window entries by how they were obtained:
	// inserted, reused or backfilled.
	ArticlesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "articles_processed_total",
			Help: "Total number of articles placed into feed windows by origin",
		},
		[]string{"origin"},
	)

	FeedWindowSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_window_size",
			Help:    "Number of articles in a feed window after refresh",
			Buckets: []float64{0, 1, 5, 10, 20, 30, 40, 50},
		},
	)

	GCDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "articles_gc_deleted_total",
			Help: "Total number of orphaned articles deleted by garbage collection",
		},
	)

	GCDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "articles_gc_duration_seconds",
			Help:    "Duration of a garbage collection pass in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	GCErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "articles_gc_errors_total",
			Help: "Total number of failed garbage collection passes",
		},
	)

	ArticlesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "articles_total",
			Help: "Total number of stored articles after the last garbage collection",
		},
	)

	FeedsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feeds_total",
			Help: "Total number of feeds seen by the last refresh cycle",
		},
	)
)

// Database metrics
var (
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
