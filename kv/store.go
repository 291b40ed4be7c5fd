// Package kv implements the shared key-value store behind idempotency
// claims and per-persona rate limiting: "SET NX", "INCR", and "EXPIRE"
// round-trips against a single backing store.
package kv

import (
	"context"
	"time"
)

// Store is the minimal atomic surface the idempotency and rate-limit
// helpers depend on. A Redis-backed implementation is used in
// production; an in-memory implementation backs single-process tests.
type Store interface {
	// SetNX sets key to value with the given TTL only if key is absent,
	// reporting whether this call was the one that set it.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Set unconditionally writes key with the given ttl; a ttl of 0
	// stores the key with no expiry, clearing any previous one.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// SetKeepTTL unconditionally writes key's value without touching its
	// existing expiry, for status transitions on an already-TTLed key.
	SetKeepTTL(ctx context.Context, key, value string) error

	// Get reads key, returning ("", false, nil) when absent.
	Get(ctx context.Context, key string) (string, bool, error)

	// Incr atomically increments key by 1 and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)

	// Expire sets a TTL on an existing key. It is a no-op if the key is
	// absent.
	Expire(ctx context.Context, key string, ttl time.Duration) error
}
