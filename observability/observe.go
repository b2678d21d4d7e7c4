package observability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/iockit/di"
	"github.com/kbukum/iockit/event"
)

// Subscriber is the subscription side of a container notifier.
// *event.Bus satisfies it.
type Subscriber interface {
	On(name string, h event.Handler) func()
}

// Observer turns container events into metrics and span events.
//
// Instance and Initialize are serialized: events are attached to the one
// traced call in progress. Factories must not call back into the Observer;
// they use the container directly.
type Observer struct {
	metrics *Metrics
	tracer  trace.Tracer

	call   sync.Mutex
	mu     sync.Mutex
	active []context.Context
	unsubs []func()
}

// Observe subscribes to every container event on bus. metrics and tracer
// may each be nil. Call Close to unsubscribe.
func Observe(bus Subscriber, metrics *Metrics, tracer trace.Tracer) *Observer {
	o := &Observer{metrics: metrics, tracer: tracer}
	o.unsubs = []func(){
		bus.On(di.EventModuleCreate, o.onCreate),
		bus.On(di.EventCircular, o.onCircular),
		bus.On(di.EventResolveError, o.onResolveError),
		bus.On(di.EventUnresolved, o.onUnresolved),
		bus.On(di.EventLoad, o.onLoad),
	}
	return o
}

// Close removes the observer's subscriptions.
func (o *Observer) Close() {
	for _, off := range o.unsubs {
		off()
	}
	o.unsubs = nil
}

// Instance is Container.Instance wrapped in a span. Events emitted while it
// runs are attached to that span, and the request duration is recorded.
func (o *Observer) Instance(ctx context.Context, c *di.Container, key string, args ...any) (any, bool) {
	o.call.Lock()
	defer o.call.Unlock()

	ctx, span := o.start(ctx, SpanInstance, attribute.String(AttrKey, di.NormalizeKey(key)))
	defer o.end(span)

	start := time.Now()
	v, ok := c.Instance(key, args...)
	span.SetAttributes(attribute.Bool(AttrFound, ok))
	if !ok {
		span.SetStatus(codes.Error, "module not resolved")
	}
	if o.metrics != nil {
		o.metrics.RecordInstance(ctx, di.NormalizeKey(key), ok, time.Since(start))
	}
	return v, ok
}

// Initialize is Container.Initialize wrapped in a span.
func (o *Observer) Initialize(ctx context.Context, c *di.Container, onSuccess func(*di.Container), onError func([]*di.Record)) error {
	o.call.Lock()
	defer o.call.Unlock()

	_, span := o.start(ctx, SpanInitialize, attribute.Int(AttrModuleCount, len(c.Modules())))
	defer o.end(span)

	err := c.Initialize(onSuccess, onError)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (o *Observer) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	var span trace.Span
	if o.tracer != nil {
		ctx, span = o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	} else {
		ctx, span = StartSpan(ctx, name, trace.WithAttributes(attrs...))
	}
	o.mu.Lock()
	o.active = append(o.active, ctx)
	o.mu.Unlock()
	return ctx, span
}

func (o *Observer) end(span trace.Span) {
	o.mu.Lock()
	if n := len(o.active); n > 0 {
		o.active = o.active[:n-1]
	}
	o.mu.Unlock()
	span.End()
}

// current returns the context of the innermost traced call, or Background.
func (o *Observer) current() context.Context {
	o.mu.Lock()
	defer o.mu.Unlock()
	if n := len(o.active); n > 0 {
		return o.active[n-1]
	}
	return context.Background()
}

func (o *Observer) spanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}

func (o *Observer) onCreate(payload any) {
	p, ok := payload.(di.ModuleCreated)
	if !ok {
		return
	}
	ctx := o.current()
	o.spanEvent(ctx, di.EventModuleCreate, attribute.String(AttrModule, p.Module.Key()))
	if o.metrics != nil {
		o.metrics.RecordCreated(ctx, p.Module.Key())
	}
}

func (o *Observer) onCircular(payload any) {
	p, ok := payload.(di.CircularDependency)
	if !ok {
		return
	}
	ctx := o.current()
	o.spanEvent(ctx, di.EventCircular,
		attribute.String(AttrModule, p.Module.Key()),
		attribute.String(AttrDependency, p.Dependency),
	)
	if o.metrics != nil {
		o.metrics.RecordCircular(ctx, p.Module.Key(), p.Dependency)
	}
}

func (o *Observer) onResolveError(payload any) {
	p, ok := payload.(di.ResolveError)
	if !ok {
		return
	}
	ctx := o.current()
	o.spanEvent(ctx, di.EventResolveError,
		attribute.String(AttrKey, p.Key),
		attribute.String(AttrResolution, p.ResolutionID.String()),
	)
	if o.metrics != nil {
		o.metrics.RecordResolveError(ctx, p.Key)
	}
}

func (o *Observer) onUnresolved(payload any) {
	queue, ok := payload.([]*di.Record)
	if !ok {
		return
	}
	keys := make([]string, len(queue))
	for i, r := range queue {
		keys[i] = r.Key()
	}
	ctx := o.current()
	o.spanEvent(ctx, di.EventUnresolved, attribute.StringSlice(AttrUnresolved, keys))
	if o.metrics != nil {
		o.metrics.RecordUnresolved(ctx, len(queue))
	}
}

func (o *Observer) onLoad(any) {
	ctx := o.current()
	o.spanEvent(ctx, di.EventLoad)
	if o.metrics != nil {
		o.metrics.RecordLoad(ctx)
	}
}
