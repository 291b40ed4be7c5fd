package queue

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memoryLease struct {
	delivery *Delivery
	leasedAt time.Time
}

// MemoryBroker is a single-process Broker backed by per-queue slices and
// a processing set, all guarded by one mutex. It never needs
// cross-process delivery, so it backs unit tests and `arx worker` when
// no --broker-url is given.
type MemoryBroker struct {
	mu         sync.Mutex
	queues     map[string][]StepTask
	processing map[string]memoryLease
	seq        int
}

// NewMemoryBroker returns an empty MemoryBroker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		queues:     make(map[string][]StepTask),
		processing: make(map[string]memoryLease),
	}
}

func (b *MemoryBroker) Enqueue(ctx context.Context, queue string, task StepTask) error {
	b.mu.Lock()
	b.queues[queue] = append(b.queues[queue], task)
	b.mu.Unlock()
	return nil
}

func (b *MemoryBroker) tryClaim(workerID string, queues []string) (*Delivery, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, q := range queues {
		items := b.queues[q]
		if len(items) == 0 {
			continue
		}
		task := items[0]
		b.queues[q] = items[1:]

		b.seq++
		handle := fmt.Sprintf("%s:%d", workerID, b.seq)
		delivery := &Delivery{Task: task, QueueKey: q, Handle: handle}
		b.processing[handle] = memoryLease{delivery: delivery, leasedAt: time.Now()}
		return delivery, true
	}
	return nil, false
}

// dequeuePollInterval bounds how long Dequeue can block past a newly
// enqueued task becoming visible. Short enough for tests, coarse enough
// to avoid busy-looping.
const dequeuePollInterval = 5 * time.Millisecond

func (b *MemoryBroker) Dequeue(ctx context.Context, workerID string, queues []string) (*Delivery, bool, error) {
	ticker := time.NewTicker(dequeuePollInterval)
	defer ticker.Stop()

	for {
		if d, ok := b.tryClaim(workerID, queues); ok {
			return d, true, nil
		}

		select {
		case <-ctx.Done():
			return nil, false, nil
		case <-ticker.C:
		}
	}
}

func (b *MemoryBroker) Ack(ctx context.Context, delivery *Delivery) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.processing, delivery.Handle)
	return nil
}

func (b *MemoryBroker) Nack(ctx context.Context, delivery *Delivery) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.processing, delivery.Handle)
	b.queues[delivery.QueueKey] = append(b.queues[delivery.QueueKey], delivery.Task)
	return nil
}

func (b *MemoryBroker) ReapExpired(ctx context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	var requeued int
	for handle, lease := range b.processing {
		if now.Sub(lease.leasedAt) < VisibilityTimeout {
			continue
		}
		delete(b.processing, handle)
		b.queues[lease.delivery.QueueKey] = append(b.queues[lease.delivery.QueueKey], lease.delivery.Task)
		requeued++
	}
	return requeued, nil
}
