package di

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kbukum/iockit/errors"
	"github.com/kbukum/iockit/event"
	"github.com/kbukum/iockit/logger"
	"github.com/kbukum/iockit/validation"
)

// Container registers modules and hands out their singleton instances,
// resolving declared dependencies on first request.
//
// Define, Contains, Namespace and Modules are safe for concurrent use.
// Instance and Initialize mutate module state without locking and must be
// driven from a single goroutine.
type Container struct {
	id       uuid.UUID
	registry *Registry
	notifier Notifier
	log      *logger.Logger

	unresolved  []*Record
	initialized bool
}

// New creates an empty container. Events go to a fresh event.Bus unless
// WithNotifier is given.
func New(opts ...Option) *Container {
	c := &Container{
		id:       uuid.New(),
		registry: NewRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.notifier == nil {
		c.notifier = event.New()
	}
	if c.log == nil {
		c.log = logger.Get("di")
	}
	c.log = c.log.WithFields(logger.Fields(logger.FieldContainer, c.id.String()))
	return c
}

// ID identifies the container in logs.
func (c *Container) ID() uuid.UUID { return c.id }

// Notifier returns the event sink the container emits to.
func (c *Container) Notifier() Notifier { return c.notifier }

// Define registers a module under key. deps may be nil. Redefining an
// existing key is a no-op unless Force is passed.
func (c *Container) Define(key string, deps []string, impl Implementation, opts ...DefineOption) error {
	o := applyDefineOptions(opts)
	key = NormalizeKey(key)
	deps = normalizeKeys(deps)

	v := validation.New().
		Required("key", key).
		Custom(impl.defined(), "implementation", "is required").
		Each("dependencies", deps, func(d string) string {
			if d == "" {
				return "must not be empty"
			}
			return ""
		}).
		Unique("dependencies", deps)
	if appErr := v.Validate(); appErr != nil {
		return errors.InvalidDefinition(key, v.Message()).WithCause(appErr)
	}

	if !c.registry.put(newRecord(key, deps, impl), o.force) {
		c.log.Debug("module already defined, keeping existing", logger.Fields(logger.FieldModule, key))
		return nil
	}
	c.log.Debug("module defined", logger.Fields(
		logger.FieldModule, key,
		"dependencies", deps,
		"kind", impl.Kind(),
		"force", o.force,
	))
	return nil
}

// Instance returns the singleton for key, resolving it on first use. The
// boolean is false when the key is unknown or cannot be resolved; in both
// cases an EventResolveError is emitted.
func (c *Container) Instance(key string, args ...any) (any, bool) {
	return c.instance(key, args, NewResolution())
}

// InstanceIn is Instance within an existing resolution context, for callers
// that need to thread one context through several requests.
func (c *Container) InstanceIn(res *Resolution, key string, args ...any) (any, bool) {
	if res == nil {
		res = NewResolution()
	}
	return c.instance(key, args, res)
}

func (c *Container) instance(key string, args []any, res *Resolution) (any, bool) {
	key = NormalizeKey(key)
	var (
		v  any
		ok bool
	)
	if rec, found := c.registry.Get(key); found {
		v, ok = c.materialize(rec, res)
	}
	if !ok {
		c.log.Debug("module could not be resolved", logger.Fields(
			logger.FieldKey, key,
			logger.FieldResolution, res.ID().String(),
			logger.FieldPath, res.Path(),
		))
		c.notifier.Emit(EventResolveError, ResolveError{
			Key:          key,
			Args:         args,
			Path:         res.Path(),
			ResolutionID: res.ID(),
		})
		return nil, false
	}
	return v, true
}

// Initialize resolves every registered module, in registration order. On
// success the container is marked initialized, onSuccess runs and
// EventLoad is emitted. Otherwise onError receives the unresolved queue,
// EventUnresolved is emitted and an UNRESOLVED_DEPENDENCY error is
// returned; the container stays uninitialized and Initialize may be
// called again. Once initialized, further calls do nothing.
func (c *Container) Initialize(onSuccess func(*Container), onError func([]*Record)) error {
	if c.initialized {
		return nil
	}

	c.unresolved = nil
	records := c.registry.All()
	for _, rec := range records {
		c.resolve(rec, NewResolution())
	}

	if len(c.unresolved) > 0 {
		queue := c.Unresolved()
		keys := make([]string, len(queue))
		for i, rec := range queue {
			keys[i] = rec.Key()
		}
		c.log.Warn("container has unresolved modules", logger.Fields(
			logger.FieldCount, len(queue),
			"modules", keys,
		))
		if onError != nil {
			onError(queue)
		}
		c.notifier.Emit(EventUnresolved, queue)
		return errors.Unresolved(keys...)
	}

	c.initialized = true
	c.log.Info("container initialized", logger.Fields(logger.FieldCount, len(records)))
	if onSuccess != nil {
		onSuccess(c)
	}
	c.notifier.Emit(EventLoad, nil)
	return nil
}

// Initialized reports whether Initialize has completed successfully.
func (c *Container) Initialized() bool { return c.initialized }

// Unresolved returns a copy of the unresolved queue. Entries are appended
// on every failed resolution and may repeat.
func (c *Container) Unresolved() []*Record {
	out := make([]*Record, len(c.unresolved))
	copy(out, c.unresolved)
	return out
}

// Contains reports whether a module is registered under key.
func (c *Container) Contains(key string) bool {
	_, ok := c.registry.Get(NormalizeKey(key))
	return ok
}

// Module returns the record registered under key.
func (c *Container) Module(key string) (*Record, bool) {
	return c.registry.Get(NormalizeKey(key))
}

// Namespace returns the modules at or below prefix, keyed by full key. An
// empty prefix returns the top-level modules.
func (c *Container) Namespace(prefix string) map[string]*Record {
	return c.registry.Namespace(NormalizeKey(prefix))
}

// Modules returns every record in registration order.
func (c *Container) Modules() []*Record {
	return c.registry.All()
}

// Clear discards every module and resets the container state.
func (c *Container) Clear() {
	c.registry.clear()
	c.unresolved = nil
	c.initialized = false
	c.log.Debug("container cleared")
}

// String implements fmt.Stringer.
func (c *Container) String() string {
	return fmt.Sprintf("di.Container{id: %s, modules: %d, initialized: %t}", c.id, c.registry.Len(), c.initialized)
}
