// Package telemetry wires Prometheus and OpenTelemetry for the CLI.
package telemetry

import (
	"context"
	"fmt"

	"github.com/flemzord/dashgram/internal/config"
	"github.com/flemzord/dashgram/pkg/dashgram"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Telemetry holds the providers created from TelemetryConfig.
type Telemetry struct {
	// Registry is non-nil when metrics are enabled.
	Registry *prometheus.Registry

	tracerProvider *sdktrace.TracerProvider
}

// Setup builds the metric registry and the tracer provider described by
// cfg. Disabled parts are left nil.
func Setup(ctx context.Context, cfg config.TelemetryConfig) (*Telemetry, error) {
	t := &Telemetry{}

	if cfg.Metrics {
		t.Registry = prometheus.NewRegistry()
		t.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	if cfg.OTLPEndpoint != "" {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.OTLPInsecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("telemetry: creating OTLP exporter: %w", err)
		}
		t.tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(resource.NewSchemaless(
				attribute.String("service.name", cfg.ServiceName),
				attribute.String("service.version", dashgram.Version),
			)),
		)
	}

	return t, nil
}

// ClientOptions returns the client options wiring the enabled providers.
func (t *Telemetry) ClientOptions() []dashgram.Option {
	var opts []dashgram.Option
	if t.Registry != nil {
		opts = append(opts, dashgram.WithMetrics(t.Registry))
	}
	if t.tracerProvider != nil {
		opts = append(opts, dashgram.WithTracerProvider(t.tracerProvider))
	}
	return opts
}

// Gatherer returns the metric registry, or nil when metrics are disabled.
func (t *Telemetry) Gatherer() prometheus.Gatherer {
	if t.Registry == nil {
		return nil
	}
	return t.Registry
}

// Shutdown flushes pending spans.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t.tracerProvider == nil {
		return nil
	}
	return t.tracerProvider.Shutdown(ctx)
}
