package retry

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type tempErr struct{ temp bool }

func (e tempErr) Error() string   { return fmt.Sprintf("temp=%t", e.temp) }
func (e tempErr) Temporary() bool { return e.temp }

func fastConfig(attempts int) Config {
	return Config{MaxAttempts: attempts, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

func TestDo(t *testing.T) {
	t.Run("returns nil after a transient failure", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), fastConfig(3), func() error {
			calls++
			if calls == 1 {
				return tempErr{temp: true}
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("stops on a permanent error", func(t *testing.T) {
		calls := 0
		permanent := tempErr{temp: false}
		err := Do(context.Background(), fastConfig(5), func() error {
			calls++
			return permanent
		})
		assert.ErrorIs(t, err, permanent)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), fastConfig(3), func() error {
			calls++
			return syscall.ECONNRESET
		})
		assert.ErrorIs(t, err, syscall.ECONNRESET)
		assert.Contains(t, err.Error(), "max retries (3)")
		assert.Equal(t, 3, calls)
	})

	t.Run("stops when the caller's context is done", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := Do(ctx, fastConfig(5), func() error {
			calls++
			cancel()
			return syscall.ECONNRESET
		})
		assert.ErrorIs(t, err, syscall.ECONNRESET)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries an attempt timeout", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), fastConfig(3), func() error {
			calls++
			return fmt.Errorf("attempt: %w", context.DeadlineExceeded)
		})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, 3, calls)
	})

	t.Run("zero attempts still runs once", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), Config{}, func() error {
			calls++
			return errors.New("boom")
		})
		assert.EqualError(t, err, "boom")
		assert.Equal(t, 1, calls)
	})
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(context.Canceled))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", tempErr{temp: true})))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.True(t, IsRetryable(syscall.ECONNREFUSED))
}
