// Package observability provides OpenTelemetry tracing for ompcfg.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name used for every ompcfg span.
const TracerName = "github.com/efebarandurmaz/ompcfg"

// TracingConfig configures the OpenTelemetry tracing.
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string

	// Environment is the deployment environment (development, ci, prod).
	Environment string

	// OTLPEndpoint is the OTLP gRPC endpoint (e.g. "localhost:4317").
	// If empty, tracing is disabled.
	OTLPEndpoint string

	// SampleRate is the trace sampling rate in [0, 1].
	SampleRate float64
}

// DefaultTracingConfig returns a default tracing configuration.
func DefaultTracingConfig() *TracingConfig {
	return &TracingConfig{
		ServiceName:    "ompcfg",
		ServiceVersion: "0.1.0",
		Environment:    "development",
		SampleRate:     1.0,
	}
}

// TracerProvider wraps the OpenTelemetry tracer provider.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// InitTracing initializes OpenTelemetry tracing.
// Returns a no-op tracer if OTLPEndpoint is empty.
func InitTracing(ctx context.Context, cfg *TracingConfig) (*TracerProvider, error) {
	if cfg == nil {
		cfg = DefaultTracingConfig()
	}
	if cfg.OTLPEndpoint == "" {
		return &TracerProvider{tracer: otel.Tracer(TracerName)}, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(Sampler(cfg.SampleRate)),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracerProvider{
		provider: provider,
		tracer:   provider.Tracer(TracerName),
	}, nil
}

// Sampler maps a sample rate onto a sampler, clamping to [0, 1].
func Sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// Shutdown flushes and stops the exporter, if any.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.provider != nil {
		return tp.provider.Shutdown(ctx)
	}
	return nil
}

// Tracer returns the underlying tracer.
func (tp *TracerProvider) Tracer() trace.Tracer {
	return tp.tracer
}

// Span kinds recorded as the ompcfg.span.kind attribute.
const (
	SpanKindStage  = "stage"
	SpanKindUnit   = "unit"
	SpanKindRender = "render"
	SpanKindBatch  = "batch"
)

func start(ctx context.Context, name, kind string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("ompcfg.span.kind", kind))
	return otel.Tracer(TracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// StartStageSpan starts a span for one pipeline stage (extract, select, ...).
func StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	return start(ctx, "pipeline."+stage, SpanKindStage)
}

// StartUnitSpan starts a span covering the processing of one source unit.
func StartUnitSpan(ctx context.Context, unit string) (context.Context, trace.Span) {
	return start(ctx, "unit."+unit, SpanKindUnit, attribute.String("unit.name", unit))
}

// StartRenderSpan starts a span for one renderer attempt.
func StartRenderSpan(ctx context.Context, renderer string) (context.Context, trace.Span) {
	return start(ctx, "render."+renderer, SpanKindRender, attribute.String("render.renderer", renderer))
}

// StartBatchSpan starts a span for a batch run over root.
func StartBatchSpan(ctx context.Context, root string) (context.Context, trace.Span) {
	return start(ctx, "batch.run", SpanKindBatch, attribute.String("batch.root", root))
}

// RecordArchetype records the selected archetype and inventory size.
func RecordArchetype(span trace.Span, archetype string, constructs int) {
	span.SetAttributes(
		attribute.String("pipeline.archetype", archetype),
		attribute.Int("pipeline.constructs", constructs),
	)
}

// RecordValidation records failed predicate names. Failures are facts, so the
// span status is left untouched.
func RecordValidation(span trace.Span, failed []string) {
	span.SetAttributes(
		attribute.Bool("validation.passed", len(failed) == 0),
		attribute.StringSlice("validation.failed", failed),
	)
}

// RecordBatchResult records unit tallies of a batch run.
func RecordBatchResult(span trace.Span, succeeded, failed, skipped int) {
	span.SetAttributes(
		attribute.Int("batch.succeeded", succeeded),
		attribute.Int("batch.failed", failed),
		attribute.Int("batch.skipped", skipped),
	)
	if failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d units failed", failed))
	}
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
