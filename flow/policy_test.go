package flow

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBackoffPolicy(t *testing.T) {
	p := DefaultBackoffPolicy()
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, p.BaseDelay)
	assert.Equal(t, 30*time.Second, p.MaxDelay)
}

func TestComputeBackoff_Growth(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	base := 100 * time.Millisecond
	maxDelay := 10 * time.Second

	prev := time.Duration(0)
	for attempt := 0; attempt < 5; attempt++ {
		d := ComputeBackoff(attempt, base, maxDelay, rng)
		require.GreaterOrEqual(t, d, base*time.Duration(1<<uint(attempt)))
		require.Less(t, d, base*time.Duration(1<<uint(attempt))+base)
		require.GreaterOrEqual(t, d, prev)
		prev = d
	}
}

func TestComputeBackoff_CappedAtMaxDelay(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	base := time.Second
	maxDelay := 2 * time.Second

	d := ComputeBackoff(10, base, maxDelay, rng)
	assert.LessOrEqual(t, d, maxDelay+base)
}

func TestComputeBackoff_ZeroBase(t *testing.T) {
	assert.Equal(t, time.Duration(0), ComputeBackoff(0, 0, time.Second, nil))
}

func TestComputeBackoff_NilRand(t *testing.T) {
	// Without an injected rand.Rand, ComputeBackoff falls back to the
	// package-level source rather than panicking.
	d := ComputeBackoff(1, 50*time.Millisecond, time.Second, nil)
	assert.Greater(t, d, time.Duration(0))
}

func TestComputeBackoff_Deterministic(t *testing.T) {
	base := 200 * time.Millisecond
	maxDelay := 5 * time.Second

	d1 := ComputeBackoff(2, base, maxDelay, rand.New(rand.NewSource(42)))
	d2 := ComputeBackoff(2, base, maxDelay, rand.New(rand.NewSource(42)))
	assert.Equal(t, d1, d2)
}
