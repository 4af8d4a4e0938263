// Package telemetry wires the OpenTelemetry trace pipeline.
package telemetry

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const (
	ServiceName     = "mailroom"
	EndpointEnvVar  = "OTEL_EXPORTER_OTLP_ENDPOINT"
	instrumentation = "github.com/aaronromeo/mailroom"
)

// Tracer returns the tracer used by mailroom operations.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentation)
}

// Enabled reports whether an OTLP endpoint is configured.
func Enabled() bool {
	return strings.TrimSpace(os.Getenv(EndpointEnvVar)) != ""
}

// Setup bootstraps the OpenTelemetry trace pipeline when an OTLP endpoint is
// configured. Without one the global no-op provider stays in place and the
// returned shutdown does nothing.
func Setup(ctx context.Context) (shutdown func(context.Context) error, err error) {
	var shutdownFuncs []func(context.Context) error

	shutdown = func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFuncs {
			err = errors.Join(err, fn(ctx))
		}
		shutdownFuncs = nil
		return err
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !Enabled() {
		return shutdown, nil
	}

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithAttributes(
			attribute.String("service.name", ServiceName),
			attribute.String("service.version", "1.0.0"),
		))
	if err != nil {
		return shutdown, err
	}

	// Endpoint, headers and TLS come from the standard OTEL_EXPORTER_OTLP_* variables.
	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithCompression(otlptracehttp.GzipCompression))
	if err != nil {
		return shutdown, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(time.Second)),
	)
	shutdownFuncs = append(shutdownFuncs, tracerProvider.Shutdown)
	otel.SetTracerProvider(tracerProvider)

	return shutdown, nil
}

// RecordError marks the span as failed when err is non-nil and returns err.
func RecordError(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
