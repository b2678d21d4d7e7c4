package di

// Record is the registry entry for one module: its declaration plus the
// resolution and instance cache built up as it is requested.
//
// A Record's resolved slots only ever grow, and its instance is written at
// most once.
type Record struct {
	key          string
	dependencies []string
	impl         Implementation

	resolved     map[string]any
	instance     any
	instantiated bool
}

func newRecord(key string, deps []string, impl Implementation) *Record {
	return &Record{
		key:          key,
		dependencies: deps,
		impl:         impl,
		resolved:     make(map[string]any, len(deps)),
	}
}

// Key returns the normalized module key.
func (r *Record) Key() string { return r.key }

// Dependencies returns the normalized dependency keys in declaration order.
func (r *Record) Dependencies() []string {
	out := make([]string, len(r.dependencies))
	copy(out, r.dependencies)
	return out
}

// Implementation returns the module's implementation.
func (r *Record) Implementation() Implementation { return r.impl }

// Resolved returns a copy of the dependency slots filled so far.
func (r *Record) Resolved() map[string]any {
	out := make(map[string]any, len(r.resolved))
	for k, v := range r.resolved {
		out[k] = v
	}
	return out
}

// Instance returns the cached instance, if one has been created.
func (r *Record) Instance() (any, bool) {
	return r.instance, r.instantiated
}

// Complete reports whether every dependency slot is filled.
func (r *Record) Complete() bool {
	return len(r.resolved) == len(r.dependencies)
}

func (r *Record) dependsOn(key string) bool {
	for _, d := range r.dependencies {
		if d == key {
			return true
		}
	}
	return false
}

// args returns the resolved slots in declaration order.
func (r *Record) args() []any {
	out := make([]any, len(r.dependencies))
	for i, d := range r.dependencies {
		out[i] = r.resolved[d]
	}
	return out
}
