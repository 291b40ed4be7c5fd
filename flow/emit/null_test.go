package emit

import (
	"testing"
)

func TestNullEmitter_NoOp(t *testing.T) {
	t.Run("emits events without error", func(t *testing.T) {
		emitter := NewNullEmitter()

		events := []Event{
			{RunID: "run-001", Step: 0, NodeID: "fetch", Msg: "node_start"},
			{RunID: "run-001", Step: 0, NodeID: "fetch", Msg: "node_end"},
			{RunID: "run-001", Step: 1, NodeID: "deploy", Msg: "node_error", Meta: map[string]interface{}{"error": "test"}},
		}

		for _, event := range events {
			emitter.Emit(event)
		}
	})

	t.Run("can emit with nil meta", func(t *testing.T) {
		emitter := NewNullEmitter()

		event := Event{
			RunID:  "run-001",
			Step:   0,
			NodeID: "fetch",
			Msg:    "node_start",
			Meta:   nil,
		}

		emitter.Emit(event)
	})

	t.Run("EmitBatch and Flush are no-ops", func(t *testing.T) {
		emitter := NewNullEmitter()

		if err := emitter.EmitBatch(nil, []Event{{RunID: "run-001"}}); err != nil {
			t.Fatalf("EmitBatch returned error: %v", err)
		}
		if err := emitter.Flush(nil); err != nil {
			t.Fatalf("Flush returned error: %v", err)
		}
	})
}

func TestNullEmitter_InterfaceContract(t *testing.T) {
	var _ Emitter = NewNullEmitter()
}
