package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, mode := range []string{"debug", "release", ""} {
		t.Run(mode, func(t *testing.T) {
			log, err := New(mode)
			require.NoError(t, err)
			require.NotNil(t, log.SugaredLogger)
			log.Info("hello", "k", "v")
		})
	}
}

func TestRedact(t *testing.T) {
	in := []interface{}{"user", "alice", "api_key", "sk-123", "Authorization", "Bearer x", "odd"}
	out := redact(in)

	assert.Equal(t, "alice", out[1])
	assert.Equal(t, "[REDACTED]", out[3])
	assert.Equal(t, "[REDACTED]", out[5])
	assert.Equal(t, "odd", out[6])
	// 原切片不变
	assert.Equal(t, "sk-123", in[3])
}

func TestWith(t *testing.T) {
	child := Nop().With("component", "test")
	assert.NotNil(t, child.SugaredLogger)
}
