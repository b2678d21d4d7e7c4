package di

import (
	"strings"
	"sync"
)

// Registry is an ordered, concurrency-safe map of normalized key to Record.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*Record
	order   []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{records: make(map[string]*Record)}
}

// put stores rec. An existing record under the same key is kept unless
// force is set, in which case it is replaced in place. Reports whether rec
// was stored.
func (r *Registry) put(rec *Record, force bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[rec.key]; exists {
		if !force {
			return false
		}
		r.records[rec.key] = rec
		return true
	}
	r.records[rec.key] = rec
	r.order = append(r.order, rec.key)
	return true
}

// Get returns the record stored under an already normalized key.
func (r *Registry) Get(key string) (*Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[key]
	return rec, ok
}

// Len returns the number of records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// All returns every record in registration order.
func (r *Registry) All() []*Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Record, len(r.order))
	for i, k := range r.order {
		out[i] = r.records[k]
	}
	return out
}

// Namespace returns the records at or below prefix. An empty prefix
// selects the top-level keys, those without a '/'.
func (r *Registry) Namespace(prefix string) map[string]*Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*Record)
	for key, rec := range r.records {
		if inNamespace(key, prefix) {
			out[key] = rec
		}
	}
	return out
}

func (r *Registry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = make(map[string]*Record)
	r.order = nil
}

func inNamespace(key, prefix string) bool {
	if prefix == "" {
		return !strings.Contains(key, "/")
	}
	return key == prefix || strings.HasPrefix(key, prefix+"/")
}
