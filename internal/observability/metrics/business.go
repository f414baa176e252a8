package metrics

import "time"

// Refresh results used as the FeedRefreshTotal label.
const (
	ResultSuccess      = "success"
	ResultFetchError   = "fetch_error"
	ResultParseError   = "parse_error"
	ResultStorageError = "storage_error"
)

// RecordFeedRefresh records one completed or failed feed refresh.
func RecordFeedRefresh(result string, duration time.Duration) {
	FeedRefreshTotal.WithLabelValues(result).Inc()
	FeedRefreshDuration.Observe(duration.Seconds())
}

// RecordWindow records how the new window of a feed was assembled.
func RecordWindow(inserted, reused, backfilled, size int) {
	ArticlesProcessedTotal.WithLabelValues("inserted").Add(float64(inserted))
	ArticlesProcessedTotal.WithLabelValues("reused").Add(float64(reused))
	ArticlesProcessedTotal.WithLabelValues("backfilled").Add(float64(backfilled))
	FeedWindowSize.Observe(float64(size))
}

// RecordGC records a garbage collection pass. A failed pass only bumps the
// error counter.
func RecordGC(deleted int64, duration time.Duration, err error) {
	GCDuration.Observe(duration.Seconds())
	if err != nil {
		GCErrorsTotal.Inc()
		return
	}
	GCDeletedTotal.Add(float64(deleted))
}

// UpdateArticlesTotal sets the stored article count gauge.
func UpdateArticlesTotal(count int64) {
	ArticlesTotal.Set(float64(count))
}

// UpdateFeedsTotal sets the feed count gauge.
func UpdateFeedsTotal(count int) {
	FeedsTotal.Set(float64(count))
}

// RecordDBQuery records the duration of a database query operation.
// Operation should describe the query, e.g. "articles_find_by_urls".
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnectionStats updates database connection pool statistics.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
