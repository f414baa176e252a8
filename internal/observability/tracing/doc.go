// Package tracing provides the OpenTelemetry tracer shared by the refresh
// engine and an HTTP middleware for the worker's operations server.
//
// No exporter is configured here; spans are recorded by whatever
// TracerProvider the process installs through otel.SetTracerProvider.
package tracing
