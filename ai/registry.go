package ai

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

const defaultEmbeddingDimension = 1536

// Registry fans completion and embedding calls out across registered
// Providers in priority order, skipping any whose circuit breaker is open
// and falling through to the next on failure.
type Registry struct {
	mu              sync.RWMutex
	providers       map[ProviderName]Provider
	order           []ProviderName
	circuitBreakers map[ProviderName]*CircuitBreaker
	targetDimension int
	logger          *zerolog.Logger
}

// NewRegistry returns an empty Registry targeting targetDimension for every
// embedding it returns (vectors are padded or truncated to match).
func NewRegistry(targetDimension int, logger *zerolog.Logger) *Registry {
	if targetDimension <= 0 {
		targetDimension = defaultEmbeddingDimension
	}

	return &Registry{
		providers:       make(map[ProviderName]Provider),
		circuitBreakers: make(map[ProviderName]*CircuitBreaker),
		targetDimension: targetDimension,
		logger:          logger,
	}
}

// Register adds a provider, re-sorting the priority order.
func (r *Registry) Register(p Provider, cfg CircuitBreakerConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	r.providers[name] = p
	r.order = append(r.order, name)
	r.circuitBreakers[name] = NewCircuitBreaker(cfg, r.logger)

	sort.SliceStable(r.order, func(i, j int) bool {
		return r.providers[r.order[i]].Priority() > r.providers[r.order[j]].Priority()
	})
}

// ProviderCount reports how many providers are registered.
func (r *Registry) ProviderCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.providers)
}

// Complete implements Client, trying each registered provider in priority
// order until one succeeds.
func (r *Registry) Complete(ctx context.Context, messages []Message) (CompletionResult, error) {
	providers, primary := r.activeProviders()
	if len(providers) == 0 {
		return CompletionResult{}, ErrNoProvidersAvailable
	}

	var lastErr error

	for _, p := range providers {
		cb := r.circuitBreakers[p.Name()]
		if !cb.CanAttempt() {
			continue
		}

		result, err := p.Complete(ctx, messages)
		if err != nil {
			cb.RecordFailure(p.Name())
			lastErr = err

			if r.logger != nil {
				r.logger.Warn().Err(err).Str("provider", string(p.Name())).Msg("ai provider failed, trying fallback")
			}

			continue
		}

		cb.RecordSuccess()

		if r.logger != nil && p.Name() != primary {
			r.logger.Info().Str("provider", string(p.Name())).Str("from_provider", string(primary)).Msg("used fallback ai provider")
		}

		return result, nil
	}

	if lastErr != nil {
		return CompletionResult{}, errors.Join(ErrAllProvidersFailed, lastErr)
	}

	return CompletionResult{}, ErrNoProvidersAvailable
}

// Embed implements Client, trying each registered provider in priority order
// and padding/truncating the winning vector to the registry's target
// dimension.
func (r *Registry) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	providers, primary := r.activeProviders()
	if len(providers) == 0 {
		return EmbeddingResult{}, ErrNoProvidersAvailable
	}

	var lastErr error

	for _, p := range providers {
		cb := r.circuitBreakers[p.Name()]
		if !cb.CanAttempt() {
			continue
		}

		result, err := p.Embed(ctx, text)
		if err != nil {
			cb.RecordFailure(p.Name())
			lastErr = err

			continue
		}

		cb.RecordSuccess()

		if r.logger != nil && p.Name() != primary {
			r.logger.Info().Str("provider", string(p.Name())).Str("from_provider", string(primary)).Msg("used fallback ai provider")
		}

		result.Vector = PadToDimension(result.Vector, r.targetDimension)
		result.Dimensions = r.targetDimension

		return result, nil
	}

	if lastErr != nil {
		return EmbeddingResult{}, errors.Join(ErrAllProvidersFailed, lastErr)
	}

	return EmbeddingResult{}, ErrNoProvidersAvailable
}

func (r *Registry) activeProviders() ([]Provider, ProviderName) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := make([]Provider, 0, len(r.providers))

	for _, name := range r.order {
		if p := r.providers[name]; p.IsAvailable() {
			active = append(active, p)
		}
	}

	var primary ProviderName
	if len(r.order) > 0 {
		primary = r.order[0]
	}

	return active, primary
}

// PadToDimension truncates vector to target if it's longer, or pads with
// zeros if shorter, so every stored embedding has a uniform dimension
// regardless of which provider produced it.
func PadToDimension(vector []float32, target int) []float32 {
	if len(vector) == target {
		return vector
	}

	if len(vector) > target {
		return vector[:target]
	}

	padded := make([]float32, target)
	copy(padded, vector)

	return padded
}
