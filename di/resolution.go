package di

import "github.com/google/uuid"

// Resolution is the context shared by one top-level request and every
// dependency request it triggers. A record joins it when its resolution
// starts and stays for the rest of the call, so the pending set describes
// the whole call tree rather than the current branch.
type Resolution struct {
	id      uuid.UUID
	path    []string
	pending map[string]*Record
}

// NewResolution creates an empty resolution context.
func NewResolution() *Resolution {
	return &Resolution{
		id:      uuid.New(),
		pending: make(map[string]*Record),
	}
}

// ID identifies the resolution in logs and event payloads.
func (r *Resolution) ID() uuid.UUID { return r.id }

// Path returns the keys in the order they joined the resolution.
func (r *Resolution) Path() []string {
	out := make([]string, len(r.path))
	copy(out, r.path)
	return out
}

// Pending returns the record registered under key, if it has joined.
func (r *Resolution) Pending(key string) (*Record, bool) {
	rec, ok := r.pending[key]
	return rec, ok
}

func (r *Resolution) join(rec *Record) {
	if _, ok := r.pending[rec.key]; ok {
		return
	}
	r.pending[rec.key] = rec
	r.path = append(r.path, rec.key)
}
