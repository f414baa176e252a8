// Package resilience groups the fault-tolerance helpers used around storage.
//
// circuitbreaker wraps the database handle so that a failing database trips
// once instead of timing out for every feed of a cycle. retry re-runs
// idempotent reads with exponential backoff and jitter. Feed fetches use
// neither: a failed fetch leaves the feed unchanged until the next cycle.
package resilience
