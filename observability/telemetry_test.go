package observability

import (
	"context"
	"testing"
	"time"

	"github.com/kbukum/iockit/event"
)

func TestTelemetryLifecycle(t *testing.T) {
	bus := event.New()
	tracer := DefaultTracerConfig("iocctl-test")
	tracer.Endpoint = "127.0.0.1:1"
	meter := DefaultMeterConfig("iocctl-test")
	meter.Endpoint = "127.0.0.1:1"
	meter.Interval = time.Hour

	tel := NewTelemetry(bus, tracer, meter)
	if tel.Name() != "telemetry" {
		t.Errorf("expected name telemetry, got %q", tel.Name())
	}
	if h := tel.CheckHealth(context.Background()); h.Status != HealthStatusDown {
		t.Errorf("expected down before start, got %s", h.Status)
	}

	if err := tel.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if tel.Observer() == nil {
		t.Fatal("expected an observer after start")
	}
	if n := bus.Listeners("circular"); n != 1 {
		t.Errorf("expected 1 circular listener, got %d", n)
	}
	if h := tel.CheckHealth(context.Background()); h.Status != HealthStatusUp {
		t.Errorf("expected up after start, got %s", h.Status)
	}

	// The endpoint is unreachable, so the final flush may fail.
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_ = tel.Stop(ctx)

	if tel.Observer() != nil {
		t.Error("expected no observer after stop")
	}
	if n := bus.Listeners("circular"); n != 0 {
		t.Errorf("expected listeners removed, got %d", n)
	}
	if err := tel.Stop(context.Background()); err != nil {
		t.Errorf("expected second Stop to be a no-op, got %v", err)
	}
}
