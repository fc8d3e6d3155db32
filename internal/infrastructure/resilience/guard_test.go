package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGuardPassesThroughSuccess(t *testing.T) {
	guard := NewGuard(DefaultConfig())

	calls := 0
	err := guard.Do(context.Background(), "remote.op", func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one attempt, got %d", calls)
	}
}

func TestGuardNeverRetries(t *testing.T) {
	guard := NewGuard(DefaultConfig())

	calls := 0
	failure := errors.New("remote down")
	err := guard.Do(context.Background(), "remote.op", func(context.Context) error {
		calls++
		return failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("expected original error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected single attempt, got %d", calls)
	}
}

func TestGuardOpensAfterRepeatedFailures(t *testing.T) {
	guard := NewGuard(Config{
		BreakerEnabled:   true,
		MinRequests:      2,
		FailureRatio:     0.5,
		OpenTimeout:      time.Minute,
		HalfOpenMaxCalls: 1,
	})

	failure := errors.New("remote down")
	for i := 0; i < 3; i++ {
		_ = guard.Do(context.Background(), "remote.op", func(context.Context) error {
			return failure
		})
	}

	called := false
	err := guard.Do(context.Background(), "remote.op", func(context.Context) error {
		called = true
		return nil
	})
	if !IsOpen(err) {
		t.Fatalf("expected open breaker error, got %v", err)
	}
	if called {
		t.Fatalf("open breaker must short-circuit the call")
	}
}

func TestGuardDisabledRunsDirectly(t *testing.T) {
	guard := NewGuard(Config{BreakerEnabled: false})

	failure := errors.New("remote down")
	for i := 0; i < 20; i++ {
		err := guard.Do(context.Background(), "remote.op", func(context.Context) error {
			return failure
		})
		if !errors.Is(err, failure) {
			t.Fatalf("expected pass-through error, got %v", err)
		}
	}
}

func TestGuardIgnoresContextCancellation(t *testing.T) {
	guard := NewGuard(Config{
		BreakerEnabled:   true,
		MinRequests:      2,
		FailureRatio:     0.5,
		OpenTimeout:      time.Minute,
		HalfOpenMaxCalls: 1,
	})

	for i := 0; i < 10; i++ {
		_ = guard.Do(context.Background(), "remote.op", func(context.Context) error {
			return context.DeadlineExceeded
		})
	}

	err := guard.Do(context.Background(), "remote.op", func(context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("cancellations must not trip the breaker, got %v", err)
	}
}
