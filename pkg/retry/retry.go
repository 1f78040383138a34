package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"syscall"
	"time"
)

// Config contains retry configuration
type Config struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultConfig returns the default retry configuration
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// Func is a function that can be retried
type Func func() error

// temporary is implemented by errors that know whether they are transient,
// e.g. hooks.HTTPError for 5xx and 429 responses.
type temporary interface {
	Temporary() bool
}

// Do executes fn with exponential backoff until it succeeds, returns a
// non-retryable error, or runs out of attempts.
func Do(ctx context.Context, config Config, fn Func) error {
	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	backoff := config.InitialInterval

	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		// the caller gave up; a timeout of the attempt itself is retried
		if ctx.Err() != nil {
			return err
		}

		if !IsRetryable(err) {
			return err
		}

		if attempt >= attempts {
			break
		}

		slog.Warn("request failed, retrying", "attempt", attempt, "max_attempts", attempts, "backoff", backoff, "err", err)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}

		backoff *= 2
		if config.MaxInterval > 0 && backoff > config.MaxInterval {
			backoff = config.MaxInterval
		}
	}

	if attempts == 1 {
		return lastErr
	}
	return fmt.Errorf("max retries (%d) exceeded: %w", attempts, lastErr)
}

// IsRetryable checks if an error is worth another attempt. Timeouts count
// as transient; whether the caller's own context expired is decided by Do.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var tmp temporary
	if errors.As(err, &tmp) {
		return tmp.Temporary()
	}

	return false
}
