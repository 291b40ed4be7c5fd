package kv

import (
	"context"
	"fmt"
	"time"
)

// PersonaLimit is a fixed-window (N, window_seconds) backpressure rule
// for one persona's queue.
type PersonaLimit struct {
	Limit  int64
	Window time.Duration
}

// DefaultPersonaLimits mirrors the backpressure table: CODER_AI=(30,60),
// AUDITOR_AI=(10,60), PO_AI=(6,60).
func DefaultPersonaLimits() map[string]PersonaLimit {
	return map[string]PersonaLimit{
		"CODER_AI":   {Limit: 30, Window: 60 * time.Second},
		"AUDITOR_AI": {Limit: 10, Window: 60 * time.Second},
		"PO_AI":      {Limit: 6, Window: 60 * time.Second},
	}
}

const ratelimitPrefix = "arx:rl:"

// RateLimiter enforces per-persona fixed-window counters: INCR the
// window's counter key, EXPIRE it only on the first hit of the window,
// and reject once the count exceeds the persona's limit.
type RateLimiter struct {
	store    Store
	limits   map[string]PersonaLimit
	fallback PersonaLimit
}

// NewRateLimiter builds a RateLimiter from the given per-persona
// limits. Personas absent from limits fall back to fallback.
func NewRateLimiter(store Store, limits map[string]PersonaLimit, fallback PersonaLimit) *RateLimiter {
	return &RateLimiter{store: store, limits: limits, fallback: fallback}
}

func (r *RateLimiter) limitFor(persona string) PersonaLimit {
	if l, ok := r.limits[persona]; ok {
		return l
	}
	return r.fallback
}

// Allow increments the current window's counter for persona and reports
// whether the call stays within the configured limit. The window index
// is floor(now / window), so all callers within the same window share
// one key.
func (r *RateLimiter) Allow(ctx context.Context, persona string) (bool, error) {
	limit := r.limitFor(persona)
	if limit.Window <= 0 {
		limit.Window = time.Second
	}

	windowIndex := time.Now().UnixNano() / int64(limit.Window)
	key := fmt.Sprintf("%s%s:%d", ratelimitPrefix, persona, windowIndex)

	count, err := r.store.Incr(ctx, key)
	if err != nil {
		return false, fmt.Errorf("kv: ratelimit incr: %w", err)
	}
	if count == 1 {
		if err := r.store.Expire(ctx, key, limit.Window); err != nil {
			return false, fmt.Errorf("kv: ratelimit expire: %w", err)
		}
	}

	return count <= limit.Limit, nil
}
