package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

var errBroker = errors.New("broker down")

func newTestBreaker(now *time.Time) *CircuitBreaker {
	cb := NewCircuitBreaker(Config{
		FailureThreshold:    2,
		SuccessThreshold:    1,
		Timeout:             10 * time.Second,
		HalfOpenMaxRequests: 1,
	})
	cb.now = func() time.Time { return *now }
	return cb
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	now := time.Unix(1000, 0)
	cb := newTestBreaker(&now)

	for i := 0; i < 2; i++ {
		if err := cb.Execute(func() error { return errBroker }); !errors.Is(err, errBroker) {
			t.Fatalf("call %d: expected fn error, got %v", i, err)
		}
	}

	if cb.GetState() != StateOpen {
		t.Fatalf("expected open state, got %s", cb.GetState())
	}

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitBreakerOpen) {
		t.Errorf("expected ErrCircuitBreakerOpen, got %v", err)
	}
	if called {
		t.Error("fn must not run while open")
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	now := time.Unix(1000, 0)
	cb := newTestBreaker(&now)

	_ = cb.Execute(func() error { return errBroker })
	_ = cb.Execute(func() error { return nil })
	_ = cb.Execute(func() error { return errBroker })

	if cb.GetState() != StateClosed {
		t.Errorf("expected closed state, got %s", cb.GetState())
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	now := time.Unix(1000, 0)
	cb := newTestBreaker(&now)

	_ = cb.Execute(func() error { return errBroker })
	_ = cb.Execute(func() error { return errBroker })

	now = now.Add(11 * time.Second)
	if cb.GetState() != StateHalfOpen {
		t.Fatalf("expected half-open after timeout, got %s", cb.GetState())
	}

	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Errorf("expected closed after successful probe, got %s", cb.GetState())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Unix(1000, 0)
	cb := newTestBreaker(&now)

	_ = cb.Execute(func() error { return errBroker })
	_ = cb.Execute(func() error { return errBroker })
	now = now.Add(11 * time.Second)

	_ = cb.Execute(func() error { return errBroker })
	if cb.GetState() != StateOpen {
		t.Errorf("expected open after failed probe, got %s", cb.GetState())
	}
}
