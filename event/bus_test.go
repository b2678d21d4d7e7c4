package event

import (
	"sync"
	"testing"
)

func TestBusOnEmit(t *testing.T) {
	bus := New()
	var got []any
	bus.On("load", func(p any) { got = append(got, p) })

	bus.Emit("load", 1)
	bus.Emit("other", 2)
	bus.Emit("load", 3)

	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("expected [1 3], got %v", got)
	}
}

func TestBusSubscriptionOrder(t *testing.T) {
	bus := New()
	var order []string
	bus.On("e", func(any) { order = append(order, "first") })
	bus.On("e", func(any) { order = append(order, "second") })

	bus.Emit("e", nil)
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("expected [first second], got %v", order)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := New()
	calls := 0
	off := bus.On("e", func(any) { calls++ })

	bus.Emit("e", nil)
	off()
	off()
	bus.Emit("e", nil)

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if n := bus.Listeners("e"); n != 0 {
		t.Errorf("expected 0 listeners, got %d", n)
	}
}

func TestBusOnce(t *testing.T) {
	bus := New()
	calls := 0
	bus.Once("e", func(any) { calls++ })

	bus.Emit("e", nil)
	bus.Emit("e", nil)

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if n := bus.Listeners("e"); n != 0 {
		t.Errorf("expected once handler to be removed, got %d listeners", n)
	}
}

func TestBusSubscribeDuringEmit(t *testing.T) {
	bus := New()
	late := 0
	bus.On("e", func(any) {
		bus.On("e", func(any) { late++ })
	})

	bus.Emit("e", nil)
	if late != 0 {
		t.Errorf("expected late handler to miss the current emission, got %d", late)
	}
	bus.Emit("e", nil)
	if late != 1 {
		t.Errorf("expected late handler to see the next emission, got %d", late)
	}
}

func TestBusConcurrentEmit(t *testing.T) {
	bus := New()
	var mu sync.Mutex
	total := 0
	bus.On("e", func(any) {
		mu.Lock()
		total++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Emit("e", nil)
		}()
	}
	wg.Wait()

	if total != 50 {
		t.Errorf("expected 50 deliveries, got %d", total)
	}
}
