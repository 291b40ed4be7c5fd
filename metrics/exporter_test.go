package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultAddr_Defaults(t *testing.T) {
	assert.Equal(t, "0.0.0.0:9108", DefaultAddr("", 0))
}

func TestDefaultAddr_Custom(t *testing.T) {
	assert.Equal(t, "127.0.0.1:9200", DefaultAddr("127.0.0.1", 9200))
}
