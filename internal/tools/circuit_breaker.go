package tools

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrCircuitOpen is returned without calling the provider while the
// breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker open")

// CircuitState represents the state of the circuit breaker
type CircuitState string

const (
	StateClosed   CircuitState = "closed"
	StateOpen     CircuitState = "open"
	StateHalfOpen CircuitState = "half-open"
)

// CircuitBreaker stops calling a search provider after repeated failures.
// It never retries: a failed call is reported to the caller as is.
type CircuitBreaker struct {
	mu              sync.Mutex
	state           CircuitState
	failureCount    int
	lastFailureTime time.Time
	lastStateChange time.Time
	probing         bool

	failureThreshold int
	cooldown         time.Duration
	now              func() time.Time
	logger           *zap.Logger

	totalRequests   int64
	totalFailures   int64
	totalRejections int64
}

// NewCircuitBreaker creates a breaker that opens after failureThreshold
// consecutive failures and lets one probe through after cooldown.
func NewCircuitBreaker(failureThreshold int, cooldown time.Duration, logger *zap.Logger) *CircuitBreaker {
	if failureThreshold < 1 {
		failureThreshold = 5
	}
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CircuitBreaker{
		state:            StateClosed,
		failureThreshold: failureThreshold,
		cooldown:         cooldown,
		now:              time.Now,
		logger:           logger,
		lastStateChange:  time.Now(),
	}
}

// Call runs fn unless the circuit is open. Errors that say nothing about
// the provider's health (missing credentials, no results) do not count as
// failures.
func (cb *CircuitBreaker) Call(fn func() error) error {
	if err := cb.beforeRequest(); err != nil {
		return err
	}
	err := fn()
	cb.afterRequest(err)
	return err
}

func (cb *CircuitBreaker) beforeRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.totalRequests++
	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.lastFailureTime) >= cb.cooldown {
			cb.setState(StateHalfOpen)
			cb.probing = true
			return nil
		}
		cb.totalRejections++
		return ErrCircuitOpen
	case StateHalfOpen:
		// one probe at a time
		if cb.probing {
			cb.totalRejections++
			return ErrCircuitOpen
		}
		cb.probing = true
		return nil
	default:
		return nil
	}
}

func (cb *CircuitBreaker) afterRequest(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.probing = false
	if err != nil && !errors.Is(err, ErrCredentialsMissing) && !errors.Is(err, ErrNoResults) {
		cb.totalFailures++
		cb.failureCount++
		cb.lastFailureTime = cb.now()
		switch cb.state {
		case StateClosed:
			if cb.failureCount >= cb.failureThreshold {
				cb.setState(StateOpen)
			}
		case StateHalfOpen:
			cb.setState(StateOpen)
		}
		return
	}

	cb.failureCount = 0
	if cb.state == StateHalfOpen {
		cb.setState(StateClosed)
	}
}

func (cb *CircuitBreaker) setState(newState CircuitState) {
	oldState := cb.state
	cb.state = newState
	cb.lastStateChange = cb.now()
	if oldState != newState {
		cb.logger.Warn("circuit breaker state change",
			zap.String("from", string(oldState)),
			zap.String("to", string(newState)),
			zap.Int("failures", cb.failureCount))
	}
}

// State returns the current state
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Stats returns counters for the /config endpoint.
func (cb *CircuitBreaker) Stats() map[string]interface{} {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return map[string]interface{}{
		"state":            string(cb.state),
		"total_requests":   cb.totalRequests,
		"total_failures":   cb.totalFailures,
		"total_rejections": cb.totalRejections,
		"failure_count":    cb.failureCount,
		"time_in_state":    time.Since(cb.lastStateChange).String(),
	}
}
