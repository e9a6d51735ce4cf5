package common

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry_RetriesMarkedErrors(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return &RetryableError{Err: errors.New("database is locked"), Retryable: true}
		}
		return nil
	}, RetryOptions{MaxAttempts: 5, InitialDelay: time.Millisecond})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetry_FailsFastOnCallerMistakes(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), func() error {
		attempts++
		return fmt.Errorf("lookup: %w", ErrNotFound)
	}, RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond})

	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, attempts)
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), func() error {
		attempts++
		return &RetryableError{Err: errors.New("busy"), Retryable: true}
	}, RetryOptions{MaxAttempts: 2, InitialDelay: time.Millisecond})

	require.ErrorIs(t, err, ErrMaxRetries)
	assert.Equal(t, 2, attempts)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(ErrNotFound))
	assert.False(t, IsRetryable(ErrDuplicateEntry))
	assert.False(t, IsRetryable(ErrLimitReached))
	assert.False(t, IsRetryable(errors.New("unknown")))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("busy"), Retryable: true}))
	assert.False(t, IsRetryable(&RetryableError{Err: errors.New("broken"), Retryable: false}))
}
