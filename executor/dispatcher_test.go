package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arxrun/arx/persona"
	"github.com/arxrun/arx/queue"
)

func TestDispatcher_RoutesByPersona(t *testing.T) {
	broker := queue.NewMemoryBroker()
	d := NewDispatcher(persona.NewDefaultRouter(), broker)

	require.NoError(t, d.Dispatch(context.Background(), queue.StepTask{TaskID: "t1", Persona: "CODER_AI"}))

	delivery, ok, err := broker.Dequeue(context.Background(), "w1", []string{"coder"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "t1", delivery.Task.TaskID)
}

func TestDispatcher_UnknownPersonaGoesToDefaultQueue(t *testing.T) {
	broker := queue.NewMemoryBroker()
	d := NewDispatcher(persona.NewDefaultRouter(), broker)

	require.NoError(t, d.Dispatch(context.Background(), queue.StepTask{TaskID: "t2", Persona: "GHOST"}))

	delivery, ok, err := broker.Dequeue(context.Background(), "w1", []string{persona.DefaultQueue})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "t2", delivery.Task.TaskID)
}
