package observe

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/rerun/logger"
	"github.com/kbukum/rerun/version"
)

const defaultTracerName = "github.com/kbukum/rerun/observe"

// TracerConfig configures the OpenTelemetry tracer.
type TracerConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// SampleRate is the sampling rate (0.0 to 1.0).
	SampleRate float64
}

// DefaultTracerConfig returns sensible defaults for development.
func DefaultTracerConfig(serviceName string) TracerConfig {
	return TracerConfig{
		ServiceName:    serviceName,
		ServiceVersion: version.Short(),
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		SampleRate:     1.0,
	}
}

// InitTracer initializes the OpenTelemetry tracer provider.
// Returns a TracerProvider that should be shut down on application exit.
func InitTracer(ctx context.Context, config TracerConfig) (*sdktrace.TracerProvider, error) {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var sampler sdktrace.Sampler
	switch {
	case config.SampleRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case config.SampleRate <= 0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(config.SampleRate)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("tracer initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"sample_rate", config.SampleRate,
	))

	return tp, nil
}

// newResource creates an OpenTelemetry resource with service metadata.
func newResource(serviceName, serviceVersion, environment string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
			attribute.String("environment", environment),
		),
	)
}

// Tracer returns a named tracer from the global provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// Common attribute keys for retry spans.
const (
	AttrCallable = "rerun.callable"
	AttrSite     = "rerun.site"
	AttrLimit    = "rerun.limit"
	AttrAttempt  = "rerun.attempt"
	AttrAttempts = "rerun.attempts"
)

var _ Observer = (*TracingObserver)(nil)

// TracingObserver opens a span per retry run and records each attempt
// as a span event. Runs are keyed by call site, so one observer can
// serve many contexts as long as a site is driven by one goroutine at
// a time.
type TracingObserver struct {
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[string]trace.Span
}

// NewTracingObserver creates a TracingObserver on the given tracer. A
// nil tracer falls back to the global provider.
func NewTracingObserver(tracer trace.Tracer) *TracingObserver {
	if tracer == nil {
		tracer = Tracer(defaultTracerName)
	}
	return &TracingObserver{
		tracer: tracer,
		spans:  make(map[string]trace.Span),
	}
}

func (t *TracingObserver) OnStart(callable, site string, limit int) {
	_, span := t.tracer.Start(context.Background(), "rerun.run",
		trace.WithAttributes(
			attribute.String(AttrCallable, callable),
			attribute.String(AttrSite, site),
			attribute.Int(AttrLimit, limit),
		),
	)
	t.mu.Lock()
	t.spans[site] = span
	t.mu.Unlock()
}

func (t *TracingObserver) OnAttempt(a Attempt) {
	span := t.span(a.Site)
	if span == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.Int(AttrAttempt, a.Number),
		attribute.Float64("duration_s", a.Duration.Seconds()),
	}
	if a.Err != nil {
		span.RecordError(a.Err)
		attrs = append(attrs, attribute.String("error", a.Err.Error()))
	}
	span.AddEvent("attempt", trace.WithAttributes(attrs...))
}

func (t *TracingObserver) OnSuccess(callable, site string, attempts int) {
	if span := t.take(site); span != nil {
		span.SetAttributes(attribute.Int(AttrAttempts, attempts))
		span.SetStatus(codes.Ok, "")
		span.End()
	}
}

func (t *TracingObserver) OnExhausted(callable, site string, attempts int, err error) {
	if span := t.take(site); span != nil {
		span.SetAttributes(attribute.Int(AttrAttempts, attempts))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

func (t *TracingObserver) OnHandlerFailure(callable string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, span := range t.spans {
		span.AddEvent("handler.failure", trace.WithAttributes(
			attribute.String(AttrCallable, callable),
			attribute.String("error", err.Error()),
		))
	}
}

func (t *TracingObserver) span(site string) trace.Span {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.spans[site]
}

func (t *TracingObserver) take(site string) trace.Span {
	t.mu.Lock()
	defer t.mu.Unlock()
	span := t.spans[site]
	delete(t.spans, site)
	return span
}
