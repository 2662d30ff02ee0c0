// Package progress provides the event primitives, non-blocking hub, and
// emitter interface the orchestrator uses to report sync progress. Events are
// batched on a background goroutine and fanned out to pluggable sinks such as
// Prometheus collectors or the run-state snapshot served by the ops server.
package progress
