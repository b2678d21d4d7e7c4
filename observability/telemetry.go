package observability

import (
	"context"
	"fmt"
	"sync"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Telemetry exports container events over OTLP. It is a lifecycle
// component: Start installs the providers and subscribes an Observer to
// the bus, Stop flushes and shuts them down.
type Telemetry struct {
	tracer TracerConfig
	meter  MeterConfig
	bus    Subscriber

	mu       sync.Mutex
	tp       *sdktrace.TracerProvider
	mp       *sdkmetric.MeterProvider
	observer *Observer
}

// NewTelemetry prepares exporters for the events on bus.
func NewTelemetry(bus Subscriber, tracer TracerConfig, meter MeterConfig) *Telemetry {
	return &Telemetry{tracer: tracer, meter: meter, bus: bus}
}

// Name implements component.Component.
func (t *Telemetry) Name() string { return "telemetry" }

// Start installs the tracer and meter providers and begins observing.
func (t *Telemetry) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	tp, err := InitTracer(ctx, t.tracer)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	mp, err := InitMeter(ctx, t.meter)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return fmt.Errorf("meter: %w", err)
	}
	metrics, err := NewMetrics(mp.Meter(InstrumentationName))
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return fmt.Errorf("metrics: %w", err)
	}

	t.tp, t.mp = tp, mp
	t.observer = Observe(t.bus, metrics, tp.Tracer(InstrumentationName))
	return nil
}

// Stop unsubscribes and shuts both providers down.
func (t *Telemetry) Stop(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.observer == nil {
		return nil
	}
	t.observer.Close()
	t.observer = nil

	var errs []error
	if err := t.mp.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("meter shutdown: %w", err))
	}
	if err := t.tp.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("telemetry: %v", errs)
	}
	return nil
}

// Observer returns the active observer, or nil before Start.
func (t *Telemetry) Observer() *Observer {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.observer
}

// CheckHealth is up while exporting.
func (t *Telemetry) CheckHealth(context.Context) Health {
	if t.Observer() == nil {
		return Health{Name: t.Name(), Status: HealthStatusDown, Message: "not started"}
	}
	return Health{Name: t.Name(), Status: HealthStatusUp, Details: map[string]string{"endpoint": t.tracer.Endpoint}}
}
