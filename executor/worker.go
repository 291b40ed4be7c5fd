package executor

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/arxrun/arx/flow"
	"github.com/arxrun/arx/kv"
	"github.com/arxrun/arx/queue"
)

// HardTaskTimeLimit and SoftTaskTimeSignal are the worker-level
// cancellation bounds layered on top of a node's own per-attempt
// timeout: a hard task time limit and a softer advance-warning signal.
// Worker enforces HardTaskTimeLimit; nothing in this package acts on
// SoftTaskTimeSignal.
const (
	HardTaskTimeLimit  = 10 * time.Minute
	SoftTaskTimeSignal = 8 * time.Minute
)

// Worker consumes StepTasks from one or more queues and runs them to
// completion: permission gate, rate check, idempotency claim, body
// execution, and exponential-backoff retry that the worker schedules by
// re-enqueuing the task after the backoff delay.
type Worker struct {
	ID         string
	Broker     queue.Broker
	Queues     []string
	Store      kv.Store
	RateLimits *kv.RateLimiter
	Idempotent *kv.IdempotencyGuard
	Body       flow.Step
	Collector  flow.Collector
	Backoff    flow.BackoffPolicy
	Log        zerolog.Logger
	rng        *rand.Rand
}

// NewWorker builds a Worker with sane defaults for Collector (no-op)
// and Backoff (the default retry policy) when left unset by the caller.
func NewWorker(id string, broker queue.Broker, queues []string, store kv.Store) *Worker {
	return &Worker{
		ID:         id,
		Broker:     broker,
		Queues:     queues,
		Store:      store,
		RateLimits: kv.NewRateLimiter(store, kv.DefaultPersonaLimits(), kv.PersonaLimit{Limit: 10, Window: 60 * time.Second}),
		Idempotent: kv.NewIdempotencyGuard(store),
		Body:       flow.NewCommandStep(),
		Collector:  flow.NullCollector{},
		Backoff:    flow.DefaultBackoffPolicy(),
		Log:        zerolog.Nop(),
	}
}

// RunOnce dequeues and processes a single task, blocking on ctx. It
// returns (false, nil) when ctx is done with nothing claimed.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	delivery, ok, err := w.Broker.Dequeue(ctx, w.ID, w.Queues)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	w.process(ctx, delivery)
	return true, nil
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if _, err := w.RunOnce(ctx); err != nil {
			w.Log.Error().Err(err).Str("worker", w.ID).Msg("dequeue failed")
		}
	}
}

func (w *Worker) process(ctx context.Context, delivery *queue.Delivery) {
	task := delivery.Task
	taskCtx, cancel := context.WithTimeout(ctx, HardTaskTimeLimit)
	defer cancel()

	if err := CheckWritePermission(task); err != nil {
		w.Log.Warn().Str("task_id", task.TaskID).Err(err).Msg("permission denied")
		_ = w.Broker.Ack(taskCtx, delivery)
		return
	}

	allowed, err := w.RateLimits.Allow(taskCtx, task.Persona)
	if err != nil {
		w.Log.Error().Err(err).Msg("rate limit check failed")
	}
	if err == nil && !allowed {
		w.Collector.StepRetried(task.FlowID, task.StepID, task.Persona)
		_ = w.Broker.Nack(taskCtx, delivery)
		return
	}

	payload, _ := json.Marshal(task.Payload)
	key, claimed, err := w.Idempotent.Claim(taskCtx, task.FlowID, task.TaskID, task.StepID, payload)
	if err != nil {
		w.Log.Error().Err(err).Msg("idempotency claim failed")
		_ = w.Broker.Nack(taskCtx, delivery)
		return
	}
	if !claimed {
		w.Log.Info().Str("task_id", task.TaskID).Msg("duplicate ignored")
		_ = w.Broker.Ack(taskCtx, delivery)
		return
	}

	w.Collector.InflightSteps(task.FlowID, 1)
	outcome, bodyErr := w.runBody(taskCtx, task)
	w.Collector.InflightSteps(task.FlowID, -1)

	if bodyErr != nil || outcome.ExitCode != 0 {
		w.Collector.StepRetried(task.FlowID, task.StepID, task.Persona)
		if task.Attempt < w.Backoff.MaxAttempts {
			if err := w.Idempotent.Release(taskCtx, key); err != nil {
				w.Log.Error().Err(err).Msg("idempotency release failed")
			}
			delay := flow.ComputeBackoff(task.Attempt, w.Backoff.BaseDelay, w.Backoff.MaxDelay, w.rng)
			// Release keeps the key for one more second; a retry arriving
			// sooner would be acked as a duplicate and lost.
			if delay < time.Second {
				delay += time.Second
			}
			time.AfterFunc(delay, func() {
				task.Attempt++
				_ = w.Broker.Enqueue(context.Background(), delivery.QueueKey, task)
			})
			_ = w.Broker.Ack(taskCtx, delivery)
			return
		}
		if err := w.Idempotent.Fail(taskCtx, key); err != nil {
			w.Log.Error().Err(err).Msg("idempotency fail-mark failed")
		}
		_ = w.Broker.Ack(taskCtx, delivery)
		return
	}

	if err := w.Idempotent.Complete(taskCtx, key); err != nil {
		w.Log.Error().Err(err).Msg("idempotency completion failed")
	}
	_ = w.Broker.Ack(taskCtx, delivery)
}

func (w *Worker) runBody(ctx context.Context, task queue.StepTask) (flow.StepOutcome, error) {
	if task.ExecMode == queue.ExecModeDryRun {
		return flow.DryRunStep{}.Execute(ctx, task.Command, HardTaskTimeLimit)
	}
	start := time.Now()
	outcome, err := w.Body.Execute(ctx, task.Command, HardTaskTimeLimit)
	w.Collector.StepLatency(task.FlowID, task.StepID, task.Persona, task.Model, string(task.ExecMode), time.Since(start))
	return outcome, err
}
