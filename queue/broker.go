package queue

import (
	"context"
	"time"
)

// VisibilityTimeout is the broker-level lease duration: a dequeued task
// not acknowledged within this window is assumed to belong to a dead
// worker and is requeued.
const VisibilityTimeout = 30 * time.Minute

// Delivery wraps a dequeued StepTask with the handle a worker needs to
// Ack or Nack it.
type Delivery struct {
	Task     StepTask
	QueueKey string
	Handle   string
}

// Broker is the reliable-delivery queue abstraction: late-ack,
// reject-on-worker-loss, prefetch=1 fair dispatch. Implementations may
// be cross-process (Redis) or single-process (in-memory).
type Broker interface {
	// Enqueue pushes task onto the named queue.
	Enqueue(ctx context.Context, queue string, task StepTask) error

	// Dequeue blocks (bounded by ctx) until a task is available on one
	// of queues, moving it into a per-worker processing area so a crash
	// before Ack leaves it recoverable. Returns (nil, false, nil) on
	// context cancellation with no task claimed.
	Dequeue(ctx context.Context, workerID string, queues []string) (*Delivery, bool, error)

	// Ack removes a delivered task from the processing area,
	// confirming successful completion.
	Ack(ctx context.Context, delivery *Delivery) error

	// Nack returns a delivered task to its originating queue for
	// redelivery, e.g. after a transient body failure.
	Nack(ctx context.Context, delivery *Delivery) error

	// ReapExpired requeues any in-flight task whose lease has exceeded
	// VisibilityTimeout, returning how many were requeued. Callers run
	// this periodically from a reaper goroutine.
	ReapExpired(ctx context.Context) (int, error)
}
