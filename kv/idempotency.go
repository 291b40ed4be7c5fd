package kv

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"
)

const (
	idempotencyPrefix = "arx:idemp:"
	idempotencyTTL    = 24 * time.Hour

	statusRunning = "running"
	statusDone    = "done"
	statusFailed  = "failed"
)

// IdempotencyKey derives the `arx:idemp:<digest>` key for a
// (flow_id, task_id, step_id, payload) tuple, per the StepTask wire
// contract.
func IdempotencyKey(flowID, taskID, stepID string, payload []byte) string {
	h, _ := blake2b.New(16, nil) // 16-byte digest, collision risk is not a security boundary here
	_, _ = h.Write([]byte(flowID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(taskID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(stepID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(payload)
	return idempotencyPrefix + hex.EncodeToString(h.Sum(nil))
}

// IdempotencyGuard claims and releases idempotency keys against a Store.
type IdempotencyGuard struct {
	store Store
}

// NewIdempotencyGuard wraps store for idempotency claims.
func NewIdempotencyGuard(store Store) *IdempotencyGuard {
	return &IdempotencyGuard{store: store}
}

// Claim attempts SET NX EX=86400 on the key for (flowID, taskID, stepID,
// payload), holding the value "running". ok is false when a record
// already exists (the task is a duplicate and must be acknowledged
// without running its body).
func (g *IdempotencyGuard) Claim(ctx context.Context, flowID, taskID, stepID string, payload []byte) (key string, ok bool, err error) {
	key = IdempotencyKey(flowID, taskID, stepID, payload)
	claimed, err := g.store.SetNX(ctx, key, statusRunning, idempotencyTTL)
	if err != nil {
		return key, false, fmt.Errorf("kv: claim idempotency key: %w", err)
	}
	return key, claimed, nil
}

// Complete overwrites the key's value to "done", preserving its existing
// TTL so the record's expiry isn't pushed back out to a fresh 24h window.
func (g *IdempotencyGuard) Complete(ctx context.Context, key string) error {
	if err := g.store.SetKeepTTL(ctx, key, statusDone); err != nil {
		return fmt.Errorf("kv: complete idempotency key: %w", err)
	}
	return nil
}

// Fail marks a key as terminally failed (retries exhausted), preserving
// its existing TTL. A later duplicate of the same task is acknowledged
// without re-running rather than left claimed at "running" indefinitely.
func (g *IdempotencyGuard) Fail(ctx context.Context, key string) error {
	if err := g.store.SetKeepTTL(ctx, key, statusFailed); err != nil {
		return fmt.Errorf("kv: fail idempotency key: %w", err)
	}
	return nil
}

// Release removes a claim that failed before a scheduled retry, so the
// re-enqueued attempt is not itself treated as a duplicate. It does this
// by overwriting the key with a very short TTL rather than deleting it
// outright, so a concurrent claimant sees a narrow but bounded grace
// window.
func (g *IdempotencyGuard) Release(ctx context.Context, key string) error {
	if err := g.store.Expire(ctx, key, time.Second); err != nil {
		return fmt.Errorf("kv: release idempotency key: %w", err)
	}
	return nil
}
