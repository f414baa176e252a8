package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "feedhub"

// GetTracer returns the tracer for creating spans. It resolves the global
// provider on every call so that a provider installed after start-up is used.
//
//	ctx, span := tracing.GetTracer().Start(ctx, "refresh.feed")
//	defer span.End()
func GetTracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}
