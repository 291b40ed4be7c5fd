package emit

import "context"

// NullEmitter discards every event. It is the Runner's default when no
// emitter is wired: dry-run and live paths still emit start/end/latency
// metrics to the Collector, but the event stream itself is optional.
type NullEmitter struct{}

// NewNullEmitter returns a NullEmitter.
func NewNullEmitter() *NullEmitter {
	return &NullEmitter{}
}

func (n *NullEmitter) Emit(event Event) {}

func (n *NullEmitter) EmitBatch(_ context.Context, _ []Event) error { return nil }

func (n *NullEmitter) Flush(_ context.Context) error { return nil }
