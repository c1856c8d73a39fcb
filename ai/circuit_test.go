package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 3, ResetAfter: time.Minute}, nil)

	assert.True(t, cb.CanAttempt())

	cb.RecordFailure(ProviderOpenAI)
	cb.RecordFailure(ProviderOpenAI)
	assert.True(t, cb.CanAttempt(), "should still allow attempts below threshold")

	cb.RecordFailure(ProviderOpenAI)
	assert.False(t, cb.CanAttempt(), "should open once threshold is reached")
	assert.True(t, cb.IsOpen())
}

func TestCircuitBreakerResetsOnSuccess(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 2, ResetAfter: time.Minute}, nil)

	cb.RecordFailure(ProviderOpenAI)
	cb.RecordSuccess()
	cb.RecordFailure(ProviderOpenAI)

	assert.True(t, cb.CanAttempt(), "a single post-reset failure should not reopen the circuit")
}
