package component

import "context"

// Component is a lifecycle-managed process part such as the inspection
// server or the telemetry exporters.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
