// Package event provides the in-process notification bus used by the
// container to publish lifecycle events.
//
//	bus := event.New()
//	off := bus.On(di.EventCircular, func(p any) { ... })
//	defer off()
//	c := di.New(di.WithNotifier(bus))
package event
