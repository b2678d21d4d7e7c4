package di

// FactoryFunc builds a module instance from its resolved dependencies,
// passed in declaration order. Returning an error or a nil instance leaves
// the module without an instance; the next request calls the factory again.
type FactoryFunc func(deps ...any) (any, error)

// Implementation is what a module is made of: either a ready value or a
// factory. Build one with Value or Factory.
type Implementation struct {
	value     any
	factory   FactoryFunc
	isFactory bool
}

// Value returns an Implementation whose instance is v itself.
func Value(v any) Implementation {
	return Implementation{value: v}
}

// Factory returns an Implementation whose instance is produced by fn.
func Factory(fn FactoryFunc) Implementation {
	return Implementation{factory: fn, isFactory: true}
}

// IsFactory reports whether the implementation is a factory.
func (i Implementation) IsFactory() bool { return i.isFactory }

// Kind returns "factory" or "value".
func (i Implementation) Kind() string {
	if i.isFactory {
		return "factory"
	}
	return "value"
}

func (i Implementation) defined() bool {
	if i.isFactory {
		return i.factory != nil
	}
	return i.value != nil
}

func (i Implementation) produce(deps []any) (any, error) {
	if !i.isFactory {
		return i.value, nil
	}
	return i.factory(deps...)
}

// Placeholder fills the dependency slot that closes a cycle. It carries no
// data; every circular edge gets its own Placeholder.
type Placeholder struct{}

// IsPlaceholder reports whether v is a cycle placeholder.
func IsPlaceholder(v any) bool {
	_, ok := v.(*Placeholder)
	return ok
}
