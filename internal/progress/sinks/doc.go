// Package sinks implements concrete progress consumers: Prometheus
// collectors, an in-memory run-state snapshot served by the ops server, and
// structured logging. Each sink satisfies the progress.Sink interface and is
// safe for repeated Consume/Close cycles.
package sinks
