package emit

import (
	"context"
	"testing"
)

func TestEmitter_InterfaceContract(t *testing.T) {
	var _ Emitter = (*mockEmitter)(nil)
}

// mockEmitter is a minimal Emitter implementation for testing the interface contract.
type mockEmitter struct {
	events []Event
}

func (m *mockEmitter) Emit(event Event) {
	if m.events == nil {
		m.events = make([]Event, 0)
	}
	m.events = append(m.events, event)
}

func (m *mockEmitter) EmitBatch(_ context.Context, events []Event) error {
	for _, event := range events {
		m.Emit(event)
	}
	return nil
}

func (m *mockEmitter) Flush(_ context.Context) error { return nil }

func TestEmitter_Emit(t *testing.T) {
	t.Run("emit single event", func(t *testing.T) {
		emitter := &mockEmitter{}

		event := Event{
			RunID:  "run-001",
			Step:   1,
			NodeID: "fetch",
			Msg:    "node_start",
		}

		emitter.Emit(event)

		if len(emitter.events) != 1 {
			t.Fatalf("expected 1 event, got %d", len(emitter.events))
		}
		if emitter.events[0].Msg != "node_start" {
			t.Errorf("expected Msg = 'node_start', got %q", emitter.events[0].Msg)
		}
	})

	t.Run("emit multiple events", func(t *testing.T) {
		emitter := &mockEmitter{}

		events := []Event{
			{RunID: "run-001", Step: 1, Msg: "flow_start"},
			{RunID: "run-001", Step: 2, Msg: "node_start"},
			{RunID: "run-001", Step: 3, Msg: "node_end"},
		}

		for _, event := range events {
			emitter.Emit(event)
		}

		if len(emitter.events) != 3 {
			t.Fatalf("expected 3 events, got %d", len(emitter.events))
		}

		for i, event := range emitter.events {
			expectedStep := i + 1
			if event.Step != expectedStep {
				t.Errorf("event %d: expected Step = %d, got %d", i, expectedStep, event.Step)
			}
		}
	})

	t.Run("emit with metadata", func(t *testing.T) {
		emitter := &mockEmitter{}

		event := Event{
			RunID:  "run-001",
			Step:   1,
			NodeID: "route",
			Msg:    "node_end",
			Meta: map[string]interface{}{
				"persona":     "coder",
				"duration_ms": 250,
			},
		}

		emitter.Emit(event)

		if len(emitter.events) != 1 {
			t.Fatal("expected 1 event")
		}

		meta := emitter.events[0].Meta
		if meta["persona"] != "coder" {
			t.Errorf("expected persona = coder, got %v", meta["persona"])
		}
		if meta["duration_ms"] != 250 {
			t.Errorf("expected duration_ms = 250, got %v", meta["duration_ms"])
		}
	})

	t.Run("emit zero value event", func(t *testing.T) {
		emitter := &mockEmitter{}

		emitter.Emit(Event{})

		if len(emitter.events) != 1 {
			t.Fatalf("expected 1 event, got %d", len(emitter.events))
		}
	})
}

func TestEmitter_Patterns(t *testing.T) {
	t.Run("buffering emitter", func(t *testing.T) {
		emitter := &mockEmitter{
			events: make([]Event, 0, 10),
		}

		for i := 1; i <= 5; i++ {
			emitter.Emit(Event{
				RunID: "run-001",
				Step:  i,
				Msg:   "node_start",
			})
		}

		if len(emitter.events) != 5 {
			t.Errorf("expected 5 buffered events, got %d", len(emitter.events))
		}
	})

	t.Run("filtering emitter", func(t *testing.T) {
		type filteringEmitter struct {
			events     []Event
			minReason  string
		}

		emitter := &filteringEmitter{
			events:    make([]Event, 0),
			minReason: "guard_denied",
		}

		emit := func(event Event) {
			reason, ok := event.Meta["reason"].(string)
			if ok && reason == "guard_denied" {
				emitter.events = append(emitter.events, event)
			}
		}

		emit(Event{
			Msg:  "retry",
			Meta: map[string]interface{}{"reason": "timeout"},
		})
		emit(Event{
			Msg:  "node_skip",
			Meta: map[string]interface{}{"reason": "guard_denied"},
		})

		if len(emitter.events) != 1 {
			t.Errorf("expected 1 filtered event, got %d", len(emitter.events))
		}
		if emitter.events[0].Msg != "node_skip" {
			t.Errorf("expected 'node_skip', got %q", emitter.events[0].Msg)
		}
	})
}
