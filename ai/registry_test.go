package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name       ProviderName
	priority   int
	available  bool
	failCount  int
	calls      int
	dimensions int
}

func (s *stubProvider) Name() ProviderName       { return s.name }
func (s *stubProvider) IsAvailable() bool        { return s.available }
func (s *stubProvider) Priority() int            { return s.priority }
func (s *stubProvider) EmbeddingDimensions() int { return s.dimensions }

func (s *stubProvider) Complete(_ context.Context, _ []Message) (CompletionResult, error) {
	s.calls++

	if s.calls <= s.failCount {
		return CompletionResult{}, errors.New("stub provider failure")
	}

	return CompletionResult{Text: `{"ok":true}`, Provider: s.name}, nil
}

func (s *stubProvider) Embed(_ context.Context, _ string) (EmbeddingResult, error) {
	s.calls++

	if s.calls <= s.failCount {
		return EmbeddingResult{}, errors.New("stub provider failure")
	}

	return EmbeddingResult{Vector: []float32{1, 2, 3}, Dimensions: 3, Provider: s.name}, nil
}

func TestRegistryFallsBackOnFailure(t *testing.T) {
	primary := &stubProvider{name: "primary", priority: PriorityPrimary, available: true, failCount: 99}
	fallback := &stubProvider{name: "fallback", priority: PriorityFallback, available: true}

	reg := NewRegistry(8, nil)
	reg.Register(primary, DefaultCircuitBreakerConfig())
	reg.Register(fallback, DefaultCircuitBreakerConfig())

	result, err := reg.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, ProviderName("fallback"), result.Provider)
}

func TestRegistryPrefersHigherPriority(t *testing.T) {
	primary := &stubProvider{name: "primary", priority: PriorityPrimary, available: true}
	fallback := &stubProvider{name: "fallback", priority: PriorityFallback, available: true}

	reg := NewRegistry(8, nil)
	reg.Register(fallback, DefaultCircuitBreakerConfig())
	reg.Register(primary, DefaultCircuitBreakerConfig())

	result, err := reg.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, ProviderName("primary"), result.Provider)
	assert.Equal(t, 0, fallback.calls)
}

func TestRegistryReturnsErrorWhenAllFail(t *testing.T) {
	primary := &stubProvider{name: "primary", priority: PriorityPrimary, available: true, failCount: 99}

	reg := NewRegistry(8, nil)
	reg.Register(primary, DefaultCircuitBreakerConfig())

	_, err := reg.Complete(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
}

func TestRegistryEmbedPadsToTargetDimension(t *testing.T) {
	primary := &stubProvider{name: "primary", priority: PriorityPrimary, available: true}

	reg := NewRegistry(6, nil)
	reg.Register(primary, DefaultCircuitBreakerConfig())

	result, err := reg.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, result.Vector, 6)
	assert.Equal(t, 6, result.Dimensions)
}

func TestRegistrySkipsUnavailableProvider(t *testing.T) {
	unavailable := &stubProvider{name: "primary", priority: PriorityPrimary, available: false}
	fallback := &stubProvider{name: "fallback", priority: PriorityFallback, available: true}

	reg := NewRegistry(8, nil)
	reg.Register(unavailable, DefaultCircuitBreakerConfig())
	reg.Register(fallback, DefaultCircuitBreakerConfig())

	result, err := reg.Complete(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, ProviderName("fallback"), result.Provider)
	assert.Equal(t, 0, unavailable.calls)
}

func TestPadToDimension(t *testing.T) {
	assert.Equal(t, []float32{1, 2, 0, 0}, PadToDimension([]float32{1, 2}, 4))
	assert.Equal(t, []float32{1, 2}, PadToDimension([]float32{1, 2, 3}, 2))
	assert.Equal(t, []float32{1, 2}, PadToDimension([]float32{1, 2}, 2))
}
