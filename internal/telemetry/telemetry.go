// Package telemetry installs the global OpenTelemetry providers.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitlab.com/yelinaung/expenditure-manager/internal/config"
	"gitlab.com/yelinaung/expenditure-manager/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// MetricInterval is how often metrics are pushed to the exporter.
const MetricInterval = 30 * time.Second

// ShutdownFunc flushes and stops the providers.
type ShutdownFunc func(context.Context) error

func noop(context.Context) error { return nil }

// Setup installs tracer and meter providers for exporter, one of the
// config.Exporter* values. With config.ExporterNone the global no-op
// providers stay in place.
func Setup(ctx context.Context, exporter, serviceName, version string) (ShutdownFunc, error) {
	if exporter == config.ExporterNone || exporter == "" {
		return noop, nil
	}

	traceExp, metricExp, err := newExporters(ctx, exporter)
	if err != nil {
		return noop, err
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", serviceName),
		attribute.String("service.version", version),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp, sdkmetric.WithInterval(MetricInterval))),
		sdkmetric.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Log.Info().Str("exporter", exporter).Str("service", serviceName).Msg("Telemetry enabled")

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}

func newExporters(ctx context.Context, exporter string) (sdktrace.SpanExporter, sdkmetric.Exporter, error) {
	var (
		traceExp  sdktrace.SpanExporter
		metricExp sdkmetric.Exporter
		err       error
	)

	switch exporter {
	case config.ExporterStdout:
		traceExp, err = stdouttrace.New()
		if err == nil {
			metricExp, err = stdoutmetric.New()
		}
	case config.ExporterOTLPGRPC:
		traceExp, err = otlptracegrpc.New(ctx)
		if err == nil {
			metricExp, err = otlpmetricgrpc.New(ctx)
		}
	case config.ExporterOTLPHTTP:
		traceExp, err = otlptracehttp.New(ctx)
		if err == nil {
			metricExp, err = otlpmetrichttp.New(ctx)
		}
	default:
		return nil, nil, fmt.Errorf("unsupported telemetry exporter %q", exporter)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s exporter: %w", exporter, err)
	}
	return traceExp, metricExp, nil
}
