package resilience

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCircuitBreakerPassesThroughSuccess(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig("test"), discardLogger())

	result, err := cb.Execute(context.Background(), func() (interface{}, error) {
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var openStates []int
	config := DefaultCircuitBreakerConfig("test")
	config.OnStateChange = func(name string, state int) {
		openStates = append(openStates, state)
	}
	cb := NewCircuitBreaker(config, discardLogger())

	failing := errors.New("downstream unavailable")
	for i := uint32(0); i < DefaultFailureThreshold; i++ {
		_, err := cb.Execute(context.Background(), func() (interface{}, error) {
			return nil, failing
		})
		require.ErrorIs(t, err, failing)
	}

	// Breaker is open now, calls are rejected without invoking the function
	called := false
	_, err := cb.Execute(context.Background(), func() (interface{}, error) {
		called = true
		return nil, nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open for test")
	assert.False(t, called)
	require.NotEmpty(t, openStates)
	assert.Equal(t, StateOpen, openStates[len(openStates)-1])
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	config := &RetryConfig{
		MaxAttempts:     3,
		InitialDelay:    time.Millisecond,
		MaxDelay:        5 * time.Millisecond,
		BackoffFactor:   2.0,
		RetryableErrors: func(error) bool { return true },
	}

	attempts := 0
	err := Retry(context.Background(), config, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	permanent := errors.New("permanent")

	attempts := 0
	err := Retry(context.Background(), DefaultRetryConfig(), func() error {
		attempts++
		return permanent
	})

	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, attempts)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	config := &RetryConfig{
		MaxAttempts:     3,
		InitialDelay:    time.Millisecond,
		MaxDelay:        5 * time.Millisecond,
		BackoffFactor:   2.0,
		RetryableErrors: func(error) bool { return true },
	}

	attempts := 0
	err := Retry(context.Background(), config, func() error {
		attempts++
		return errors.New("still failing")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries (3) exceeded")
	assert.Equal(t, 3, attempts)
}
