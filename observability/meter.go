package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/iockit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (development, staging, production).
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
		ServiceVersion: "dev",
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

// Metric instrument names.
const (
	MetricModuleCreated    = "ioc.module.created"
	MetricCircularDetected = "ioc.circular.detected"
	MetricResolveErrors    = "ioc.resolve.errors"
	MetricUnresolved       = "ioc.unresolved.modules"
	MetricInitializeLoads  = "ioc.initialize.loads"
	MetricInstanceDuration = "ioc.instance.duration"
)

// Metrics holds the container instruments.
type Metrics struct {
	created          metric.Int64Counter
	circular         metric.Int64Counter
	resolveErrors    metric.Int64Counter
	unresolved       metric.Int64Counter
	loads            metric.Int64Counter
	instanceDuration metric.Float64Histogram
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	created, err := meter.Int64Counter(MetricModuleCreated,
		metric.WithDescription("Modules materialized into instances"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricModuleCreated, err)
	}

	circular, err := meter.Int64Counter(MetricCircularDetected,
		metric.WithDescription("Circular dependency edges replaced by placeholders"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricCircularDetected, err)
	}

	resolveErrors, err := meter.Int64Counter(MetricResolveErrors,
		metric.WithDescription("Instance requests that returned no instance"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricResolveErrors, err)
	}

	unresolved, err := meter.Int64Counter(MetricUnresolved,
		metric.WithDescription("Modules left unresolved by failed initializations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricUnresolved, err)
	}

	loads, err := meter.Int64Counter(MetricInitializeLoads,
		metric.WithDescription("Successful container initializations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricInitializeLoads, err)
	}

	instanceDuration, err := meter.Float64Histogram(MetricInstanceDuration,
		metric.WithDescription("Duration of top-level instance requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricInstanceDuration, err)
	}

	return &Metrics{
		created:          created,
		circular:         circular,
		resolveErrors:    resolveErrors,
		unresolved:       unresolved,
		loads:            loads,
		instanceDuration: instanceDuration,
	}, nil
}

// RecordCreated counts a materialized module.
func (m *Metrics) RecordCreated(ctx context.Context, module string) {
	m.created.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrModule, module)))
}

// RecordCircular counts a circular edge.
func (m *Metrics) RecordCircular(ctx context.Context, module, dependency string) {
	m.circular.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrModule, module),
		attribute.String(AttrDependency, dependency),
	))
}

// RecordResolveError counts a failed request for key.
func (m *Metrics) RecordResolveError(ctx context.Context, key string) {
	m.resolveErrors.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrKey, key)))
}

// RecordUnresolved adds the size of an unresolved queue.
func (m *Metrics) RecordUnresolved(ctx context.Context, count int) {
	m.unresolved.Add(ctx, int64(count))
}

// RecordLoad counts a successful initialization.
func (m *Metrics) RecordLoad(ctx context.Context) {
	m.loads.Add(ctx, 1)
}

// RecordInstance records the duration of a top-level instance request.
func (m *Metrics) RecordInstance(ctx context.Context, key string, found bool, duration time.Duration) {
	m.instanceDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrKey, key),
		attribute.Bool(AttrFound, found),
	))
}
