package observability

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/janhq/notes-mcp/pkg/telemetry"
)

// Provider holds the tracer, meter and PII sanitizer shared by the HTTP layer
// and the MCP tools. Tracer and Meter fall back to the global providers when
// exporters are off, so callers never nil-check them.
type Provider struct {
	Tracer         trace.Tracer
	Meter          metric.Meter
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Sanitizer      *telemetry.Sanitizer

	toolCalls     metric.Int64Counter
	shutdownFuncs []func(context.Context) error
}

// Init builds the provider. With both exporters disabled nothing is exported
// and no global state is touched.
func Init(ctx context.Context, cfg Config) (*Provider, error) {
	provider := &Provider{
		Sanitizer: telemetry.NewSanitizer(telemetry.ParsePIILevel(cfg.PIILevel), cfg.ServiceName),
		Tracer:    otel.GetTracerProvider().Tracer(cfg.ServiceName),
		Meter:     otel.GetMeterProvider().Meter(cfg.ServiceName),
	}

	if cfg.TracingEnabled || cfg.MetricsEnabled {
		res, err := resource.New(ctx, resource.WithAttributes(append([]attribute.KeyValue{
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		}, cfg.resourceAttributes()...)...))
		if err != nil {
			return nil, fmt.Errorf("build otel resource: %w", err)
		}

		if cfg.TracingEnabled {
			tp, err := newTracerProvider(ctx, cfg, res)
			if err != nil {
				return nil, fmt.Errorf("init tracer provider: %w", err)
			}
			provider.TracerProvider = tp
			provider.Tracer = tp.Tracer(cfg.ServiceName)
			provider.shutdownFuncs = append(provider.shutdownFuncs, tp.Shutdown)

			otel.SetTracerProvider(tp)
			otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
				propagation.TraceContext{},
				propagation.Baggage{},
			))
		}

		if cfg.MetricsEnabled {
			mp, err := newMeterProvider(ctx, cfg, res)
			if err != nil {
				return nil, errors.Join(fmt.Errorf("init meter provider: %w", err), provider.Shutdown(ctx))
			}
			provider.MeterProvider = mp
			provider.Meter = mp.Meter(cfg.ServiceName)
			provider.shutdownFuncs = append(provider.shutdownFuncs, mp.Shutdown)

			otel.SetMeterProvider(mp)
		}
	}

	toolCalls, err := provider.Meter.Int64Counter("notes.mcp.tool.calls",
		metric.WithDescription("MCP tool invocations by tool and outcome"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create tool call counter: %w", err)
	}
	provider.toolCalls = toolCalls

	return provider, nil
}

// RecordToolCall counts one MCP tool invocation on the OTLP meter.
func (p *Provider) RecordToolCall(ctx context.Context, tool, status string) {
	if p == nil || p.toolCalls == nil {
		return
	}
	p.toolCalls.Add(ctx, 1, metric.WithAttributes(WithToolAttrs(tool, status)...))
}

// Shutdown flushes and stops every provider, returning all errors joined
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	for _, shutdown := range p.shutdownFuncs {
		if err := shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newTracerProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	endpoint, plaintext := cfg.exporterEndpoint()
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithHeaders(cfg.OTLPHeaders),
	}
	if plaintext {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(cfg.TraceBatchTimeout)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.samplingRatio()))),
	), nil
}

func newMeterProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	endpoint, plaintext := cfg.exporterEndpoint()
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(endpoint),
		otlpmetrichttp.WithHeaders(cfg.OTLPHeaders),
	}
	if plaintext {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.MetricInterval))),
		sdkmetric.WithResource(res),
	), nil
}
