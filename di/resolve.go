package di

import (
	"fmt"
	"reflect"

	"github.com/kbukum/iockit/errors"
)

// Resolve returns the instance for key as a T.
//
// Example:
//
//	mailer, err := di.Resolve[*Mailer](c, "services/mailer")
//	if err != nil {
//	    return fmt.Errorf("failed to get mailer: %w", err)
//	}
func Resolve[T any](c *Container, key string, args ...any) (T, error) {
	var zero T
	if !c.Contains(key) {
		return zero, errors.UnknownModule(NormalizeKey(key))
	}
	instance, ok := c.Instance(key, args...)
	if !ok {
		return zero, errors.Unresolved(NormalizeKey(key))
	}
	result, ok := instance.(T)
	if !ok {
		return zero, errors.TypeMismatch(NormalizeKey(key), instance, typeName[T]())
	}
	return result, nil
}

// MustResolve is Resolve that panics on error. Use it in wiring code where
// a missing module is a programming error.
func MustResolve[T any](c *Container, key string, args ...any) T {
	result, err := Resolve[T](c, key, args...)
	if err != nil {
		panic(fmt.Sprintf("di: failed to resolve %s: %v", key, err))
	}
	return result
}

// TryResolve returns the instance for key as a T, or false.
//
//	if m, ok := di.TryResolve[Metrics](c, "metrics"); ok {
//	    m.Record(...)
//	}
func TryResolve[T any](c *Container, key string, args ...any) (T, bool) {
	result, err := Resolve[T](c, key, args...)
	return result, err == nil
}

// Dep unwraps a dependency slot passed to a FactoryFunc. A slot may hold the
// dependency's instance, the Record of a dependency that was still being
// resolved (its instance is used once created), or a Placeholder closing a
// cycle, which yields false.
func Dep[T any](v any) (T, bool) {
	var zero T
	switch d := v.(type) {
	case *Placeholder:
		return zero, false
	case *Record:
		if t, ok := v.(T); ok {
			return t, true
		}
		instance, ok := d.Instance()
		if !ok {
			return zero, false
		}
		v = instance
	}
	result, ok := v.(T)
	return result, ok
}

func typeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}
