// Package inspect exposes a read-mostly HTTP view of a container.
//
// Handler builds a gin engine with routes for listing modules, namespaces
// and the unresolved queue, triggering Initialize and reporting health.
// Recent resolve errors and circular edges are kept in an EventLog and
// served under /events. Server runs the engine behind h2c with graceful
// shutdown.
package inspect
