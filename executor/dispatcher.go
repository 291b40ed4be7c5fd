package executor

import (
	"context"
	"fmt"

	"github.com/arxrun/arx/persona"
	"github.com/arxrun/arx/queue"
)

// Dispatcher routes a StepTask onto its persona's queue via the
// Persona Router, then hands it to a Broker for reliable delivery.
type Dispatcher struct {
	router *persona.Router
	broker queue.Broker
}

// NewDispatcher builds a Dispatcher over router and broker.
func NewDispatcher(router *persona.Router, broker queue.Broker) *Dispatcher {
	return &Dispatcher{router: router, broker: broker}
}

// Dispatch enqueues task onto the queue its persona routes to.
func (d *Dispatcher) Dispatch(ctx context.Context, task queue.StepTask) error {
	q := d.router.QueueForPersona(task.Persona)
	if err := d.broker.Enqueue(ctx, q, task); err != nil {
		return fmt.Errorf("executor: dispatch task %s: %w", task.TaskID, err)
	}
	return nil
}
