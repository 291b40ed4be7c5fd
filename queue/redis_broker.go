package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	queueKeyPrefix      = "arx:q:"
	processingKeySuffix = ":processing:"
	leaseHashSuffix     = ":leases"
)

// RedisBroker is a Broker built from go-redis list primitives:
// Enqueue pushes a JSON-encoded StepTask onto `arx:q:<queue>`; Dequeue
// uses BRPOPLPUSH into a per-worker processing list so a crash before
// Ack leaves the task recoverable; a reaper scans processing lists
// against a lease hash and requeues anything past VisibilityTimeout.
type RedisBroker struct {
	client *redis.Client
}

// NewRedisBroker wraps an already-connected client.
func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

func queueKey(queue string) string {
	return queueKeyPrefix + queue
}

func processingKey(queue, workerID string) string {
	return queueKey(queue) + processingKeySuffix + workerID
}

func leaseKey(queue string) string {
	return queueKey(queue) + leaseHashSuffix
}

func (b *RedisBroker) Enqueue(ctx context.Context, queue string, task StepTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("queue: marshal task: %w", err)
	}
	if err := b.client.LPush(ctx, queueKey(queue), data).Err(); err != nil {
		return fmt.Errorf("queue: enqueue: %w", err)
	}
	return nil
}

// Dequeue tries each queue in turn with a short-blocking BRPOPLPUSH,
// claiming the first task any queue yields.
func (b *RedisBroker) Dequeue(ctx context.Context, workerID string, queues []string) (*Delivery, bool, error) {
	for _, q := range queues {
		dst := processingKey(q, workerID)
		val, err := b.client.BRPopLPush(ctx, queueKey(q), dst, 200*time.Millisecond).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, false, nil
			}
			return nil, false, fmt.Errorf("queue: dequeue: %w", err)
		}

		var task StepTask
		if err := json.Unmarshal([]byte(val), &task); err != nil {
			return nil, false, fmt.Errorf("queue: unmarshal task: %w", err)
		}

		handle := fmt.Sprintf("%s|%s", dst, val)
		if err := b.client.HSet(ctx, leaseKey(q), handle, time.Now().Unix()).Err(); err != nil {
			return nil, false, fmt.Errorf("queue: record lease: %w", err)
		}

		return &Delivery{Task: task, QueueKey: q, Handle: handle}, true, nil
	}

	select {
	case <-ctx.Done():
		return nil, false, nil
	default:
		return nil, false, nil
	}
}

func splitHandle(handle string) (processingListKey, payload string, ok bool) {
	for i := 0; i < len(handle); i++ {
		if handle[i] == '|' {
			return handle[:i], handle[i+1:], true
		}
	}
	return "", "", false
}

func (b *RedisBroker) Ack(ctx context.Context, delivery *Delivery) error {
	dst, payload, ok := splitHandle(delivery.Handle)
	if !ok {
		return fmt.Errorf("queue: malformed delivery handle %q", delivery.Handle)
	}
	if err := b.client.LRem(ctx, dst, 1, payload).Err(); err != nil {
		return fmt.Errorf("queue: ack: %w", err)
	}
	if err := b.client.HDel(ctx, leaseKey(delivery.QueueKey), delivery.Handle).Err(); err != nil {
		return fmt.Errorf("queue: ack lease cleanup: %w", err)
	}
	return nil
}

func (b *RedisBroker) Nack(ctx context.Context, delivery *Delivery) error {
	dst, payload, ok := splitHandle(delivery.Handle)
	if !ok {
		return fmt.Errorf("queue: malformed delivery handle %q", delivery.Handle)
	}
	if err := b.client.LRem(ctx, dst, 1, payload).Err(); err != nil {
		return fmt.Errorf("queue: nack: %w", err)
	}
	if err := b.client.HDel(ctx, leaseKey(delivery.QueueKey), delivery.Handle).Err(); err != nil {
		return fmt.Errorf("queue: nack lease cleanup: %w", err)
	}
	if err := b.client.LPush(ctx, queueKey(delivery.QueueKey), payload).Err(); err != nil {
		return fmt.Errorf("queue: nack requeue: %w", err)
	}
	return nil
}

// ReapExpired finds every queue's lease hash by scanning for
// `arx:q:*:leases` keys, runs ReapExpiredQueue on each, and returns the
// total number of tasks requeued.
func (b *RedisBroker) ReapExpired(ctx context.Context) (int, error) {
	var total int
	iter := b.client.Scan(ctx, 0, queueKeyPrefix+"*"+leaseHashSuffix, 0).Iterator()
	for iter.Next(ctx) {
		q := strings.TrimSuffix(strings.TrimPrefix(iter.Val(), queueKeyPrefix), leaseHashSuffix)
		n, err := b.ReapExpiredQueue(ctx, q)
		total += n
		if err != nil {
			return total, err
		}
	}
	if err := iter.Err(); err != nil {
		return total, fmt.Errorf("queue: scan lease keys: %w", err)
	}
	return total, nil
}

// ReapExpiredQueue scans queue's lease hash and requeues any handle
// whose lease exceeds VisibilityTimeout.
func (b *RedisBroker) ReapExpiredQueue(ctx context.Context, queue string) (int, error) {
	leases, err := b.client.HGetAll(ctx, leaseKey(queue)).Result()
	if err != nil {
		return 0, fmt.Errorf("queue: scan leases: %w", err)
	}

	cutoff := time.Now().Add(-VisibilityTimeout).Unix()
	var requeued int
	for handle, tsStr := range leases {
		var ts int64
		if _, err := fmt.Sscanf(tsStr, "%d", &ts); err != nil {
			continue
		}
		if ts > cutoff {
			continue
		}

		dst, payload, ok := splitHandle(handle)
		if !ok {
			continue
		}
		if err := b.client.LRem(ctx, dst, 1, payload).Err(); err != nil {
			continue
		}
		if err := b.client.LPush(ctx, queueKey(queue), payload).Err(); err != nil {
			continue
		}
		b.client.HDel(ctx, leaseKey(queue), handle)
		requeued++
	}
	return requeued, nil
}
