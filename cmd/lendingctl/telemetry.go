package main

import (
	"context"
	"errors"
	"io"

	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending/circulation"
	"github.com/kingjon3377/ntLmsSpring-sub000/lending/config"
	"github.com/kingjon3377/ntLmsSpring-sub000/lending/oteladapters"
	"github.com/kingjon3377/ntLmsSpring-sub000/lending/postgresengine"
	"github.com/kingjon3377/ntLmsSpring-sub000/lending/session"
)

const instrumentationName = "lendingctl"

// telemetry holds the collectors handed to the engine, the session and the backend.
// A nil collector means the signal is switched off.
type telemetry struct {
	metrics *oteladapters.MetricsCollector
	tracing *oteladapters.TracingCollector

	shutdowns []func(context.Context) error
}

// newTelemetry builds the trace and metric pipelines selected in cfg. Exporters write to output
// so that command results on stdout stay machine readable.
func newTelemetry(cfg config.TelemetryConfig, output io.Writer) (*telemetry, error) {
	t := &telemetry{}

	if cfg.Traces == config.ExporterStdout {
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(output), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, err
		}

		provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
		t.tracing = oteladapters.NewTracingCollector(provider.Tracer(instrumentationName))
		t.shutdowns = append(t.shutdowns, provider.Shutdown)
	}

	if cfg.Metrics == config.ExporterStdout {
		exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(output), stdoutmetric.WithPrettyPrint())
		if err != nil {
			return nil, errors.Join(err, t.shutdown(context.Background()))
		}

		provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)))
		t.metrics = oteladapters.NewMetricsCollector(provider.Meter(instrumentationName))
		t.shutdowns = append(t.shutdowns, provider.Shutdown)
	}

	return t, nil
}

func (t *telemetry) engineOptions() []circulation.Option {
	var options []circulation.Option
	if t.metrics != nil {
		options = append(options, circulation.WithMetrics(t.metrics))
	}

	if t.tracing != nil {
		options = append(options, circulation.WithTracing(t.tracing))
	}

	return options
}

func (t *telemetry) sessionOptions() []session.Option {
	if t.metrics == nil {
		return nil
	}

	return []session.Option{session.WithMetrics(t.metrics)}
}

func (t *telemetry) backendOptions() []postgresengine.Option {
	if t.metrics == nil {
		return nil
	}

	return []postgresengine.Option{postgresengine.WithMetrics(t.metrics)}
}

// shutdown flushes and stops every pipeline.
func (t *telemetry) shutdown(ctx context.Context) error {
	var errs []error
	for _, shutdown := range t.shutdowns {
		errs = append(errs, shutdown(ctx))
	}

	t.shutdowns = nil

	return errors.Join(errs...)
}
