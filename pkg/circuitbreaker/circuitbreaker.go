package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

var ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

type Config struct {
	// consecutive failures that open the breaker
	FailureThreshold int
	// successes in half-open needed to close again
	SuccessThreshold int
	// how long the breaker stays open before probing
	Timeout time.Duration
	// concurrent probes allowed while half-open
	HalfOpenMaxRequests int
}

func DefaultConfig() Config {
	return Config{
		FailureThreshold:    5,
		SuccessThreshold:    2,
		Timeout:             30 * time.Second,
		HalfOpenMaxRequests: 3,
	}
}

// CircuitBreaker guards calls to a flaky dependency (the message broker).
type CircuitBreaker struct {
	config Config
	now    func() time.Time

	state         State
	failureCount  int
	successCount  int
	halfOpenCount int
	openedAt      time.Time

	mu sync.Mutex
}

func NewCircuitBreaker(config Config) *CircuitBreaker {
	return &CircuitBreaker{
		config: config,
		now:    time.Now,
		state:  StateClosed,
	}
}

// Execute runs fn unless the breaker is open; fn's error is returned unchanged.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	cb.advance()

	switch cb.state {
	case StateOpen:
		cb.mu.Unlock()
		return ErrCircuitBreakerOpen
	case StateHalfOpen:
		if cb.halfOpenCount >= cb.config.HalfOpenMaxRequests {
			cb.mu.Unlock()
			return ErrCircuitBreakerOpen
		}
		cb.halfOpenCount++
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.onFailure()
	} else {
		cb.onSuccess()
	}
	return err
}

// advance moves an open breaker to half-open once Timeout has elapsed. Caller holds mu.
func (cb *CircuitBreaker) advance() {
	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.config.Timeout {
		cb.state = StateHalfOpen
		cb.halfOpenCount = 0
		cb.successCount = 0
	}
}

func (cb *CircuitBreaker) onFailure() {
	switch cb.state {
	case StateHalfOpen:
		cb.trip()
	case StateClosed:
		cb.failureCount++
		if cb.failureCount >= cb.config.FailureThreshold {
			cb.trip()
		}
	}
}

func (cb *CircuitBreaker) onSuccess() {
	switch cb.state {
	case StateHalfOpen:
		cb.successCount++
		cb.halfOpenCount--
		if cb.successCount >= cb.config.SuccessThreshold {
			cb.state = StateClosed
			cb.failureCount = 0
			cb.successCount = 0
			cb.halfOpenCount = 0
		}
	case StateClosed:
		cb.failureCount = 0
	}
}

func (cb *CircuitBreaker) trip() {
	cb.state = StateOpen
	cb.openedAt = cb.now()
	cb.failureCount = 0
	cb.halfOpenCount = 0
	cb.successCount = 0
}

func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.advance()
	return cb.state
}
