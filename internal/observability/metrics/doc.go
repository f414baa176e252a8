// Package metrics provides the Prometheus metrics of the feed synchronization
// engine and its storage layer.
//
// All metrics are registered with the default registry through promauto and
// exposed by the worker's /metrics endpoint.
package metrics
