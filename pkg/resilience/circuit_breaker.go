// Package resilience provides a circuit breaker used to shed callback
// deliveries when the downstream endpoint is persistently failing.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the circuit breaker rejects a call.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that open the circuit.
	FailureThreshold int
	// SuccessThreshold is the number of successes that close it from half-open.
	SuccessThreshold int
	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration
	// MaxRequests caps concurrent probes in the half-open state.
	MaxRequests int
}

func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
		MaxRequests:      3,
	}
}

// CircuitBreaker implements the closed/open/half-open state machine.
type CircuitBreaker struct {
	name   string
	config CircuitBreakerConfig

	mu          sync.RWMutex
	state       CircuitState
	failures    int
	successes   int
	probes      int
	lastFailure time.Time
}

func NewCircuitBreaker(name string, config CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		name:   name,
		config: config,
		state:  CircuitClosed,
	}
}

// State returns the current state, accounting for open-timeout expiry.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.currentState()
}

// currentState must be called with the lock held.
func (cb *CircuitBreaker) currentState() CircuitState {
	if cb.state == CircuitOpen && time.Since(cb.lastFailure) >= cb.config.Timeout {
		return CircuitHalfOpen
	}
	return cb.state
}

// Execute runs fn under breaker protection. When the circuit is open it
// returns ErrCircuitOpen without invoking fn.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if err := cb.admit(); err != nil {
		return err
	}
	err := fn()
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.currentState() {
	case CircuitClosed:
		return nil
	case CircuitHalfOpen:
		if cb.state == CircuitOpen {
			// First probe after the open timeout elapsed.
			cb.state = CircuitHalfOpen
			cb.probes = 0
		}
		if cb.probes >= cb.config.MaxRequests {
			return ErrCircuitOpen
		}
		cb.probes++
		return nil
	default:
		return ErrCircuitOpen
	}
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failures++
		cb.successes = 0
		cb.lastFailure = time.Now()
		switch cb.currentState() {
		case CircuitHalfOpen:
			// Any probe failure reopens the circuit.
			cb.state = CircuitOpen
			cb.probes = 0
		case CircuitClosed:
			if cb.failures >= cb.config.FailureThreshold {
				cb.state = CircuitOpen
				cb.probes = 0
			}
		}
		return
	}

	switch cb.currentState() {
	case CircuitClosed:
		cb.failures = 0
	case CircuitHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.state = CircuitClosed
			cb.failures = 0
			cb.successes = 0
			cb.probes = 0
		}
	}
}

// Reset returns the breaker to its initial closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = CircuitClosed
	cb.failures = 0
	cb.successes = 0
	cb.probes = 0
}
