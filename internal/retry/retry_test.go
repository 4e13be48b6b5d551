package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"tactile/internal/services"
)

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), nil, Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}, "op",
		func(context.Context) (string, error) {
			calls++
			return "ok", nil
		})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if result != "ok" || calls != 1 {
		t.Fatalf("unexpected result %q calls %d", result, calls)
	}
}

func TestDoFatalErrorSingleAttempt(t *testing.T) {
	calls := 0
	fatal := services.Wrap(services.ErrAuth, "upload", "put", "denied", nil)
	_, err := Do(context.Background(), nil, Policy{MaxAttempts: 5, BaseDelay: time.Millisecond}, "op",
		func(context.Context) (string, error) {
			calls++
			return "", fatal
		}, WithSleeper(func(time.Duration) {}))
	if calls != 1 {
		t.Fatalf("expected exactly 1 attempt, got %d", calls)
	}
	if !errors.Is(err, services.ErrAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("fatal error should not be tagged exhausted: %v", err)
	}
}

func TestDoTransientThenSuccess(t *testing.T) {
	calls := 0
	var delays []time.Duration
	transient := services.Wrap(services.ErrTransient, "upload", "put", "network", nil)
	policy := Policy{MaxAttempts: 5, BaseDelay: 10 * time.Millisecond, Multiplier: 2}

	result, err := Do(context.Background(), nil, policy, "op",
		func(context.Context) (int, error) {
			calls++
			if calls <= 2 {
				return 0, transient
			}
			return 7, nil
		}, WithSleeper(func(d time.Duration) { delays = append(delays, d) }))
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if result != 7 || calls != 3 {
		t.Fatalf("unexpected result %d calls %d", result, calls)
	}
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("expected %d delays, got %v", len(want), delays)
	}
	for i, d := range want {
		if delays[i] != d {
			t.Fatalf("delay %d: expected %v, got %v", i, d, delays[i])
		}
	}
}

func TestDoExhaustsRetries(t *testing.T) {
	calls := 0
	transient := services.Wrap(services.ErrTransient, "upload", "put", "throttled", errors.New("429"))
	_, err := Do(context.Background(), nil, Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}, "op",
		func(context.Context) (string, error) {
			calls++
			return "", transient
		}, WithSleeper(func(time.Duration) {}))
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("expected exhausted tag, got %v", err)
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected last cause preserved, got %v", err)
	}
}

func TestDoHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	transient := services.Wrap(services.ErrTransient, "upload", "put", "network", nil)
	calls := 0
	_, err := Do(ctx, nil, Policy{MaxAttempts: 5, BaseDelay: time.Millisecond}, "op",
		func(context.Context) (string, error) {
			calls++
			return "", transient
		}, WithSleeper(func(time.Duration) { cancel() }))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected no attempts after cancellation, got %d", calls)
	}
}

func TestPolicyDelaySequence(t *testing.T) {
	policy := Policy{BaseDelay: time.Second, Multiplier: 3}
	want := []time.Duration{time.Second, 3 * time.Second, 9 * time.Second}
	for i, expected := range want {
		if got := policy.Delay(i); got != expected {
			t.Fatalf("delay(%d): expected %v, got %v", i, expected, got)
		}
	}
}
