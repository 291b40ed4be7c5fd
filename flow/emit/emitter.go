// Package emit provides pluggable observability-event emission for flow
// execution: the Runner and Worker emit lifecycle events through an
// Emitter without depending on any specific backend.
package emit

import "context"

// Emitter receives observability events from a flow run.
//
// Implementations must be non-blocking and safe for concurrent use: a
// slow or failing backend must never stall node execution.
type Emitter interface {
	// Emit sends a single event. It must not panic; a backend error is
	// logged internally rather than propagated.
	Emit(event Event)

	// EmitBatch sends events in order, amortizing per-event overhead.
	// It returns an error only for catastrophic (e.g. configuration)
	// failures; individual event delivery failures should be logged,
	// not returned.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush blocks until every buffered event has been sent or ctx is
	// done. Safe to call more than once.
	Flush(ctx context.Context) error
}
