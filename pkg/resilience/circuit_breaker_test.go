package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func testConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Timeout:          50 * time.Millisecond,
		MaxRequests:      2,
	}
}

func fail(cb *CircuitBreaker) error {
	return cb.Execute(context.Background(), func() error { return errBoom })
}

func succeed(cb *CircuitBreaker) error {
	return cb.Execute(context.Background(), func() error { return nil })
}

func TestBreakerStaysClosedOnSuccess(t *testing.T) {
	cb := NewCircuitBreaker("test", testConfig())
	for i := 0; i < 10; i++ {
		require.NoError(t, succeed(cb))
	}
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker("test", testConfig())
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, fail(cb), errBoom)
	}
	assert.Equal(t, CircuitOpen, cb.State())

	err := succeed(cb)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("test", testConfig())
	require.Error(t, fail(cb))
	require.Error(t, fail(cb))
	require.NoError(t, succeed(cb))
	require.Error(t, fail(cb))
	require.Error(t, fail(cb))

	assert.Equal(t, CircuitClosed, cb.State())
}

func TestBreakerHalfOpenAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker("test", testConfig())
	for i := 0; i < 3; i++ {
		fail(cb)
	}
	require.Equal(t, CircuitOpen, cb.State())

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, CircuitHalfOpen, cb.State())
}

func TestBreakerClosesAfterProbeSuccesses(t *testing.T) {
	cb := NewCircuitBreaker("test", testConfig())
	for i := 0; i < 3; i++ {
		fail(cb)
	}
	time.Sleep(60 * time.Millisecond)

	require.NoError(t, succeed(cb))
	require.NoError(t, succeed(cb))
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestBreakerReopensOnProbeFailure(t *testing.T) {
	cb := NewCircuitBreaker("test", testConfig())
	for i := 0; i < 3; i++ {
		fail(cb)
	}
	time.Sleep(60 * time.Millisecond)

	assert.ErrorIs(t, fail(cb), errBoom)
	assert.Equal(t, CircuitOpen, cb.State())
	assert.ErrorIs(t, succeed(cb), ErrCircuitOpen)
}

func TestBreakerResetRestoresClosed(t *testing.T) {
	cb := NewCircuitBreaker("test", testConfig())
	for i := 0; i < 3; i++ {
		fail(cb)
	}
	require.Equal(t, CircuitOpen, cb.State())

	cb.Reset()
	assert.Equal(t, CircuitClosed, cb.State())
	assert.NoError(t, succeed(cb))
}
