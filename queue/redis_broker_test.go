package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitHandle(t *testing.T) {
	dst, payload, ok := splitHandle("arx:q:coder:processing:w1|{\"task_id\":\"t1\"}")
	assert.True(t, ok)
	assert.Equal(t, "arx:q:coder:processing:w1", dst)
	assert.Equal(t, `{"task_id":"t1"}`, payload)
}

func TestSplitHandle_Malformed(t *testing.T) {
	_, _, ok := splitHandle("no-separator-here")
	assert.False(t, ok)
}

func TestQueueKeyNaming(t *testing.T) {
	assert.Equal(t, "arx:q:coder", queueKey("coder"))
	assert.Equal(t, "arx:q:coder:processing:w1", processingKey("coder", "w1"))
	assert.Equal(t, "arx:q:coder:leases", leaseKey("coder"))
}
