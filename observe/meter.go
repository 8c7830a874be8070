package observe

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/rerun/logger"
	"github.com/kbukum/rerun/version"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
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
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: version.Short(),
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

var _ Observer = (*MetricsObserver)(nil)

// MetricsObserver records retry lifecycle events as OpenTelemetry
// metrics.
type MetricsObserver struct {
	runActive       metric.Int64UpDownCounter
	runTotal        metric.Int64Counter
	attemptTotal    metric.Int64Counter
	attemptDuration metric.Float64Histogram
	handlerFailures metric.Int64Counter
}

// NewMetricsObserver creates metric instruments on the given meter.
func NewMetricsObserver(meter metric.Meter) (*MetricsObserver, error) {
	runActive, err := meter.Int64UpDownCounter("rerun.run.active",
		metric.WithDescription("Number of retry contexts currently being driven"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rerun.run.active gauge: %w", err)
	}

	runTotal, err := meter.Int64Counter("rerun.run.total",
		metric.WithDescription("Completed retry runs by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rerun.run.total counter: %w", err)
	}

	attemptTotal, err := meter.Int64Counter("rerun.attempt.total",
		metric.WithDescription("Individual attempts by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rerun.attempt.total counter: %w", err)
	}

	attemptDuration, err := meter.Float64Histogram("rerun.attempt.duration",
		metric.WithDescription("Duration of attempts in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rerun.attempt.duration histogram: %w", err)
	}

	handlerFailures, err := meter.Int64Counter("rerun.handler.failure.total",
		metric.WithDescription("Failure handlers that panicked"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rerun.handler.failure.total counter: %w", err)
	}

	return &MetricsObserver{
		runActive:       runActive,
		runTotal:        runTotal,
		attemptTotal:    attemptTotal,
		attemptDuration: attemptDuration,
		handlerFailures: handlerFailures,
	}, nil
}

// OnStart increments the active run count.
func (m *MetricsObserver) OnStart(callable, site string, limit int) {
	m.runActive.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("callable", callable),
	))
}

// OnAttempt records the attempt and its duration.
func (m *MetricsObserver) OnAttempt(a Attempt) {
	ctx := context.Background()
	status := "ok"
	if a.Err != nil {
		status = "error"
	}
	m.attemptTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("callable", a.Callable),
		attribute.String("status", status),
	))
	m.attemptDuration.Record(ctx, a.Duration.Seconds(), metric.WithAttributes(
		attribute.String("callable", a.Callable),
	))
}

// OnSuccess records a successful run.
func (m *MetricsObserver) OnSuccess(callable, site string, attempts int) {
	m.endRun(callable, "success", attempts)
}

// OnExhausted records a run that ran out of retry budget.
func (m *MetricsObserver) OnExhausted(callable, site string, attempts int, err error) {
	m.endRun(callable, "exhausted", attempts)
}

// OnHandlerFailure counts a panicking failure handler.
func (m *MetricsObserver) OnHandlerFailure(callable string, err error) {
	m.handlerFailures.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("callable", callable),
	))
}

func (m *MetricsObserver) endRun(callable, status string, attempts int) {
	ctx := context.Background()
	m.runActive.Add(ctx, -1, metric.WithAttributes(
		attribute.String("callable", callable),
	))
	m.runTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("callable", callable),
		attribute.String("status", status),
		attribute.Int("attempts", attempts),
	))
}
