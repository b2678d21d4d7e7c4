package observability

import (
	"context"
	"strings"

	"github.com/kbukum/iockit/di"
)

// HealthStatus represents the health state of a component or service.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDown     HealthStatus = "down"
	HealthStatusDegraded HealthStatus = "degraded"
)

// Health describes the health of an individual component.
type Health struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// ServiceHealth describes the overall health of a service and its components.
type ServiceHealth struct {
	Service    string       `json:"service"`
	Status     HealthStatus `json:"status"`
	Version    string       `json:"version,omitempty"`
	Components []Health     `json:"components,omitempty"`
}

// HealthChecker is implemented by components that can report their health.
type HealthChecker interface {
	CheckHealth(ctx context.Context) Health
}

// NewServiceHealth creates a ServiceHealth with status up.
func NewServiceHealth(service, version string) *ServiceHealth {
	return &ServiceHealth{
		Service: service,
		Status:  HealthStatusUp,
		Version: version,
	}
}

// AddComponent adds a component health result and degrades overall status if needed.
func (sh *ServiceHealth) AddComponent(ch Health) {
	sh.Components = append(sh.Components, ch)

	switch ch.Status {
	case HealthStatusDown:
		sh.Status = HealthStatusDown
	case HealthStatusDegraded:
		if sh.Status != HealthStatusDown {
			sh.Status = HealthStatusDegraded
		}
	}
}

// ContainerChecker reports a container's initialization state.
type ContainerChecker struct {
	Container *di.Container
}

// CheckHealth is up once the container is initialized and degraded
// otherwise, listing any unresolved modules.
func (cc ContainerChecker) CheckHealth(_ context.Context) Health {
	c := cc.Container
	h := Health{Name: "container", Status: HealthStatusUp}
	if c.Initialized() {
		return h
	}

	h.Status = HealthStatusDegraded
	h.Message = "container not initialized"
	queue := c.Unresolved()
	if len(queue) == 0 {
		return h
	}
	seen := make(map[string]bool, len(queue))
	keys := make([]string, 0, len(queue))
	for _, r := range queue {
		if !seen[r.Key()] {
			seen[r.Key()] = true
			keys = append(keys, r.Key())
		}
	}
	h.Message = "unresolved modules"
	h.Details = map[string]string{"unresolved": strings.Join(keys, ",")}
	return h
}

// ContainerHealth builds the service health for a single container.
func ContainerHealth(ctx context.Context, c *di.Container, service, version string) *ServiceHealth {
	sh := NewServiceHealth(service, version)
	sh.AddComponent(ContainerChecker{Container: c}.CheckHealth(ctx))
	return sh
}
