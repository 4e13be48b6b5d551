package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tactile/internal/logging"
	"tactile/internal/services"
)

// ErrRetriesExhausted tags the aggregate error returned after every allowed
// attempt has failed with a transient cause.
var ErrRetriesExhausted = errors.New("retries exhausted")

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Second
	defaultMultiplier  = 2.0
)

// Policy describes the retry behaviour for a single call site. Policies are
// immutable; construct one per operation rather than sharing mutable state.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	// Retryable reports whether the observed error is worth another attempt.
	// When nil, services.IsTransient is used and fatal markers abort.
	Retryable func(error) bool
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	} else if p.BaseDelay == 0 {
		p.BaseDelay = defaultBaseDelay
	}
	if p.Multiplier < 1 {
		p.Multiplier = defaultMultiplier
	}
	if p.Retryable == nil {
		p.Retryable = defaultRetryable
	}
	return p
}

func defaultRetryable(err error) bool {
	if err == nil {
		return false
	}
	if services.IsFatal(err) {
		return false
	}
	return services.IsTransient(err)
}

// Delay returns the backoff before the retry following the given zero-based
// attempt index: BaseDelay * Multiplier^attemptIndex.
func (p Policy) Delay(attemptIndex int) time.Duration {
	p = p.normalized()
	delay := float64(p.BaseDelay)
	for i := 0; i < attemptIndex; i++ {
		delay *= p.Multiplier
	}
	return time.Duration(delay)
}

// Option customizes retry execution.
type Option func(*executor)

// WithSleeper overrides how backoff sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(e *executor) {
		e.sleeper = sleeper
	}
}

type executor struct {
	sleeper func(time.Duration)
}

// Do runs fn up to policy.MaxAttempts times. Errors the policy classifies as
// non-retryable are returned immediately; transient errors are retried after
// an exponential backoff. After exhausting every attempt the last cause is
// returned wrapped with ErrRetriesExhausted.
func Do[T any](ctx context.Context, logger *slog.Logger, policy Policy, op string, fn func(context.Context) (T, error), opts ...Option) (T, error) {
	var zero T
	policy = policy.normalized()
	if logger == nil {
		logger = logging.NewNop()
	}
	exec := &executor{}
	for _, opt := range opts {
		opt(exec)
	}

	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !policy.Retryable(err) {
			logger.Debug("operation failed with non-retryable error",
				logging.String("operation", op),
				logging.Int("attempt", attempt+1),
				logging.Error(err))
			return zero, err
		}
		if attempt == policy.MaxAttempts-1 {
			break
		}

		delay := policy.Delay(attempt)
		logger.Warn("operation failed, retrying",
			logging.String("operation", op),
			logging.Int("attempt", attempt+1),
			logging.Int("max_attempts", policy.MaxAttempts),
			logging.Duration("delay", delay),
			logging.Error(err))
		if err := exec.sleep(ctx, delay); err != nil {
			return zero, err
		}
	}

	return zero, fmt.Errorf("%w: %s: %d attempts: %w", ErrRetriesExhausted, op, policy.MaxAttempts, lastErr)
}

func (e *executor) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if e.sleeper != nil {
		e.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
