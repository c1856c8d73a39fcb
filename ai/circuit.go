package ai

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrCircuitBreakerOpen reports that a provider's circuit is open. No code
// path in this package returns it: Registry skips a provider whose breaker
// is open and moves on to the next one.
var ErrCircuitBreakerOpen = errors.New("ai: circuit breaker is open")

// CircuitBreakerConfig tunes a CircuitBreaker.
type CircuitBreakerConfig struct {
	Threshold  int
	ResetAfter time.Duration
}

const (
	defaultCircuitThreshold  = 5
	defaultCircuitResetAfter = time.Minute
)

// DefaultCircuitBreakerConfig is the façade's default tuning.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{Threshold: defaultCircuitThreshold, ResetAfter: defaultCircuitResetAfter}
}

// CircuitBreaker trips after a run of consecutive failures from a single
// provider, keeping the registry from hammering a backend that is down.
type CircuitBreaker struct {
	threshold           int
	resetAfter          time.Duration
	consecutiveFailures int
	openUntil           time.Time
	mu                  sync.Mutex
	logger              *zerolog.Logger
}

// NewCircuitBreaker constructs a CircuitBreaker from cfg.
func NewCircuitBreaker(cfg CircuitBreakerConfig, logger *zerolog.Logger) *CircuitBreaker {
	return &CircuitBreaker{threshold: cfg.Threshold, resetAfter: cfg.ResetAfter, logger: logger}
}

// CanAttempt reports whether the circuit currently allows a call.
func (cb *CircuitBreaker) CanAttempt() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return time.Now().After(cb.openUntil)
}

// RecordSuccess resets the failure count.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures = 0
}

// RecordFailure increments the failure count and opens the circuit once
// threshold consecutive failures have accumulated.
func (cb *CircuitBreaker) RecordFailure(provider ProviderName) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures++

	if cb.consecutiveFailures >= cb.threshold {
		cb.openUntil = time.Now().Add(cb.resetAfter)

		if cb.logger != nil {
			cb.logger.Warn().
				Str("provider", string(provider)).
				Int("consecutive_failures", cb.consecutiveFailures).
				Time("open_until", cb.openUntil).
				Msg("ai circuit breaker opened")
		}
	}
}

// IsOpen reports whether the circuit is currently open.
func (cb *CircuitBreaker) IsOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return time.Now().Before(cb.openUntil)
}
