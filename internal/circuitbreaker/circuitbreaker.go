package circuitbreaker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alejoacosta74/kafka-publisher/internal/logger"
)

// ErrOpen is returned while the breaker rejects requests.
var ErrOpen = errors.New("circuit breaker is open")

// State represents the current state of the circuit breaker
type State int

const (
	StateClosed   State = iota // Normal operation, requests allowed
	StateOpen                  // Circuit is tripped, requests blocked
	StateHalfOpen              // Testing if service has recovered
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// CircuitBreaker stops sending to a broker that keeps failing. After
// threshold consecutive failures it opens; once timeout has elapsed it lets
// requests through again (half-open) and the next result decides whether it
// closes or re-opens.
type CircuitBreaker struct {
	state     State
	failures  int
	threshold int
	timeout   time.Duration
	lastError error
	openTime  time.Time
	now       func() time.Time
	mu        sync.Mutex
	logger    *logger.Logger
}

// NewCircuitBreaker creates a closed circuit breaker.
//
// Parameters:
//   - threshold: Number of consecutive failures before opening the circuit
//   - timeout: Duration to wait before attempting recovery in half-open state
func NewCircuitBreaker(threshold int, timeout time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 1
	}
	return &CircuitBreaker{
		state:     StateClosed,
		threshold: threshold,
		timeout:   timeout,
		now:       time.Now,
		logger:    logger.WithField("component", "circuitbreaker"),
	}
}

// AllowRequest reports whether a request may go through, moving an open
// breaker to half-open once its timeout has elapsed.
func (cb *CircuitBreaker) AllowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateOpen {
		return true
	}
	if cb.now().Sub(cb.openTime) > cb.timeout {
		cb.state = StateHalfOpen
		cb.logger.Warn("Circuit breaker transitioned to half-open")
		return true
	}
	return false
}

// RecordResult records the outcome of a request. Failures count towards the
// threshold; any success closes the breaker and resets the count.
func (cb *CircuitBreaker) RecordResult(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		if cb.state != StateClosed {
			cb.logger.Info("Circuit breaker closed")
		}
		cb.failures = 0
		cb.state = StateClosed
		return
	}

	cb.failures++
	cb.lastError = err
	if cb.state == StateHalfOpen || cb.failures >= cb.threshold {
		if cb.state != StateOpen {
			cb.logger.WithError(err).Warnf("Circuit breaker opened after %d consecutive failures", cb.failures)
		}
		cb.state = StateOpen
		cb.openTime = cb.now()
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) LastError() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.lastError
}

// OpenError returns ErrOpen wrapped with the failure that tripped the breaker.
func (cb *CircuitBreaker) OpenError() error {
	if last := cb.LastError(); last != nil {
		return fmt.Errorf("%w: %v", ErrOpen, last)
	}
	return ErrOpen
}
