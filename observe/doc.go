// Package observe provides OpenTelemetry tracing and metrics for the
// retry engine, plus the Observer hook the engine reports through.
//
// Metrics:
//
//	mp, err := observe.InitMeter(ctx, observe.DefaultMeterConfig("my-service"))
//	defer mp.Shutdown(ctx)
//
//	obs, err := observe.NewMetricsObserver(observe.Meter("my-service"))
//
// Tracing:
//
//	tp, err := observe.InitTracer(ctx, observe.DefaultTracerConfig("my-service"))
//	defer tp.Shutdown(ctx)
//
//	obs := observe.NewTracingObserver(observe.Tracer("my-service"))
package observe
