package di

import "github.com/google/uuid"

// Container event names.
const (
	EventModuleCreate = "module:create"
	EventCircular     = "circular"
	EventResolveError = "resolve:error"
	EventUnresolved   = "unresolved"
	EventLoad         = "load"
)

// Notifier receives container events. event.Bus satisfies it.
type Notifier interface {
	Emit(name string, payload any)
}

// ModuleCreated is the payload of EventModuleCreate.
type ModuleCreated struct {
	Module   *Record
	Instance any
}

// CircularDependency is the payload of EventCircular. Module's slot for
// Dependency was filled with a Placeholder.
type CircularDependency struct {
	Module     *Record
	Dependency string
}

// ResolveError is the payload of EventResolveError.
type ResolveError struct {
	Key          string
	Args         []any
	Path         []string
	ResolutionID uuid.UUID
}

// The payload of EventUnresolved is the []*Record unresolved queue; EventLoad
// carries nil.
