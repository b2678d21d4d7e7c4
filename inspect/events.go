package inspect

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/iockit/di"
	"github.com/kbukum/iockit/observability"
)

// DefaultEventCapacity is the number of entries an EventLog keeps.
const DefaultEventCapacity = 100

// Entry is one recorded container event.
type Entry struct {
	Event        string    `json:"event"`
	Time         time.Time `json:"time"`
	Module       string    `json:"module,omitempty"`
	Dependency   string    `json:"dependency,omitempty"`
	Key          string    `json:"key,omitempty"`
	Path         []string  `json:"path,omitempty"`
	ResolutionID string    `json:"resolution_id,omitempty"`
}

// EventLog keeps the most recent circular and resolve:error events.
type EventLog struct {
	mu       sync.Mutex
	capacity int
	entries  []Entry
	unsubs   []func()
	now      func() time.Time
}

// NewEventLog subscribes to bus. A capacity below one uses
// DefaultEventCapacity.
func NewEventLog(bus observability.Subscriber, capacity int) *EventLog {
	if capacity < 1 {
		capacity = DefaultEventCapacity
	}
	l := &EventLog{capacity: capacity, now: time.Now}
	l.unsubs = []func(){
		bus.On(di.EventCircular, l.onCircular),
		bus.On(di.EventResolveError, l.onResolveError),
	}
	return l
}

// Close removes the log's subscriptions.
func (l *EventLog) Close() {
	for _, off := range l.unsubs {
		off()
	}
	l.unsubs = nil
}

// Entries returns recorded entries, oldest first. A non-nil resolution
// keeps only resolve errors from that resolution.
func (l *EventLog) Entries(resolution uuid.UUID) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		if resolution != uuid.Nil && e.ResolutionID != resolution.String() {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (l *EventLog) add(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.Time = l.now().UTC()
	if len(l.entries) == l.capacity {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:len(l.entries)-1]
	}
	l.entries = append(l.entries, e)
}

func (l *EventLog) onCircular(payload any) {
	ev, ok := payload.(di.CircularDependency)
	if !ok {
		return
	}
	l.add(Entry{Event: di.EventCircular, Module: ev.Module.Key(), Dependency: ev.Dependency})
}

func (l *EventLog) onResolveError(payload any) {
	ev, ok := payload.(di.ResolveError)
	if !ok {
		return
	}
	l.add(Entry{Event: di.EventResolveError, Key: ev.Key, Path: ev.Path, ResolutionID: ev.ResolutionID.String()})
}
