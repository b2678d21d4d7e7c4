package inspect

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/iockit/di"
	"github.com/kbukum/iockit/errors"
	"github.com/kbukum/iockit/logger"
	"github.com/kbukum/iockit/observability"
	"github.com/kbukum/iockit/validation"
)

// API serves a container over HTTP. Container calls are serialized.
type API struct {
	container *di.Container
	service   string
	version   string
	log       *logger.Logger
	observer  *observability.Observer
	events    *EventLog
	ownEvents bool
	checkers  []observability.HealthChecker

	mu sync.Mutex
}

// Option configures an API.
type Option func(*API)

// WithService sets the service name and version reported by /health.
func WithService(name, version string) Option {
	return func(a *API) {
		a.service = name
		a.version = version
	}
}

// WithLogger sets the request logger.
func WithLogger(l *logger.Logger) Option {
	return func(a *API) { a.log = l }
}

// WithObserver routes /initialize and /instances through o so they are
// traced and measured.
func WithObserver(o *observability.Observer) Option {
	return func(a *API) { a.observer = o }
}

// WithEventLog serves l under /events instead of a log owned by the API.
func WithEventLog(l *EventLog) Option {
	return func(a *API) { a.events = l }
}

// WithCheckers adds component health to /health.
func WithCheckers(checkers ...observability.HealthChecker) Option {
	return func(a *API) { a.checkers = append(a.checkers, checkers...) }
}

// New builds an API for c. When no EventLog is given and the container's
// notifier supports subscriptions, the API keeps its own.
func New(c *di.Container, opts ...Option) *API {
	a := &API{container: c, service: "iockit"}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.Get("inspect")
	}
	if a.events == nil {
		if sub, ok := c.Notifier().(observability.Subscriber); ok {
			a.events = NewEventLog(sub, DefaultEventCapacity)
			a.ownEvents = true
		}
	}
	return a
}

// Handler returns a gin engine serving c.
func Handler(c *di.Container, opts ...Option) *gin.Engine {
	return New(c, opts...).Engine()
}

// Close releases the API's own event subscriptions.
func (a *API) Close() {
	if a.ownEvents {
		a.events.Close()
	}
}

// Engine returns a gin engine with middleware and every route registered.
func (a *API) Engine() *gin.Engine {
	engine := gin.New()
	engine.Use(recovery(a.log), requestID(), requestLogger(a.log))
	a.Routes(engine)
	return engine
}

// Routes registers the inspection routes on r.
func (a *API) Routes(r gin.IRoutes) {
	r.GET("/modules", a.listModules)
	r.GET("/modules/*key", a.getModule)
	r.GET("/namespaces", a.namespace)
	r.GET("/unresolved", a.unresolved)
	r.GET("/events", a.listEvents)
	r.GET("/instances/*key", a.instance)
	r.POST("/initialize", a.initialize)
	r.GET("/health", a.health)
}

func (a *API) listModules(c *gin.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	respondOK(c, viewsOf(a.container.Modules()))
}

func (a *API) getModule(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")

	a.mu.Lock()
	defer a.mu.Unlock()

	rec, ok := a.container.Module(key)
	if !ok {
		respondError(c, errors.UnknownModule(di.NormalizeKey(key)))
		return
	}
	respondOK(c, viewOf(rec))
}

func (a *API) namespace(c *gin.Context) {
	prefix := c.Query("prefix")

	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[string]ModuleView)
	for key, rec := range a.container.Namespace(prefix) {
		out[key] = viewOf(rec)
	}
	respondOK(c, out)
}

func (a *API) unresolved(c *gin.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	queue := a.container.Unresolved()
	respondOK(c, gin.H{
		"initialized": a.container.Initialized(),
		"modules":     uniqueKeys(queue),
		"queued":      len(queue),
	})
}

func (a *API) listEvents(c *gin.Context) {
	if a.events == nil {
		respondOK(c, []Entry{})
		return
	}

	filter := uuid.Nil
	if raw, ok := c.GetQuery("resolution_id"); ok {
		id, err := validation.ValidateUUID("resolution_id", raw)
		if err != nil {
			respondError(c, err)
			return
		}
		filter = id
	}
	respondOK(c, a.events.Entries(filter))
}

func (a *API) instance(c *gin.Context) {
	key := di.NormalizeKey(strings.TrimPrefix(c.Param("key"), "/"))

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.container.Contains(key) {
		respondError(c, errors.UnknownModule(key))
		return
	}

	var (
		v     any
		found bool
	)
	if a.observer != nil {
		v, found = a.observer.Instance(c.Request.Context(), a.container, key)
	} else {
		v, found = a.container.Instance(key)
	}
	if !found {
		respondError(c, errors.Unresolved(key))
		return
	}
	respondOK(c, gin.H{"key": key, "type": fmt.Sprintf("%T", v)})
}

func (a *API) initialize(c *gin.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var err error
	if a.observer != nil {
		err = a.observer.Initialize(c.Request.Context(), a.container, nil, nil)
	} else {
		err = a.container.Initialize(nil, nil)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{
		"initialized": true,
		"modules":     len(a.container.Modules()),
	})
}

func (a *API) health(c *gin.Context) {
	ctx := c.Request.Context()
	a.mu.Lock()
	sh := observability.ContainerHealth(ctx, a.container, a.service, a.version)
	a.mu.Unlock()
	for _, hc := range a.checkers {
		sh.AddComponent(hc.CheckHealth(ctx))
	}

	status := http.StatusOK
	if sh.Status == observability.HealthStatusDown {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, sh)
}
