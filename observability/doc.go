// Package observability exports container telemetry through OpenTelemetry.
//
// Tracing and metrics providers:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("iocctl"))
//	defer tp.Shutdown(ctx)
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("iocctl"))
//	defer mp.Shutdown(ctx)
//
// Container events:
//
//	metrics, err := observability.NewMetrics(observability.Meter(observability.InstrumentationName))
//	obs := observability.Observe(bus, metrics, nil)
//	defer obs.Close()
//	v, ok := obs.Instance(ctx, container, "services/mailer")
//
// Health:
//
//	health := observability.ContainerHealth(ctx, container, "iocctl", version)
package observability
