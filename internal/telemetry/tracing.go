package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// NewTracerProvider builds an in-process tracer provider: no exporter is
// wired by default and nothing reads recorded spans back, but callers may
// register a SpanProcessor with RegisterSpanProcessor.
func NewTracerProvider(serviceName string) *sdktrace.TracerProvider {
	res := resource.NewSchemaless(semconv.ServiceNameKey.String(serviceName))
	return sdktrace.NewTracerProvider(sdktrace.WithResource(res))
}

// Tracer returns the named tracer used to time the ingest -> aggregate ->
// rule -> alert path, the chain whose end-to-end latency benchmarks care
// about.
func Tracer(tp trace.TracerProvider, name string) trace.Tracer {
	return tp.Tracer(name)
}

// StartAlertSpan starts a span covering one motor's evaluation-to-alert
// path. Callers end it as soon as the alert (or non-alert) decision is
// known. None of the four RPMs starts one.
func StartAlertSpan(ctx context.Context, tracer trace.Tracer, motorID uint16) (context.Context, trace.Span) {
	return tracer.Start(ctx, "motor.evaluate")
}

// SetGlobalTracerProvider installs tp as the process-wide default, mirroring
// otel.SetTracerProvider so packages that only have access to otel.Tracer
// still pick it up.
func SetGlobalTracerProvider(tp trace.TracerProvider) {
	otel.SetTracerProvider(tp)
}
