// Package ai is the provider-agnostic façade the rest of the engine talks to
// for chat completion and embeddings. It wraps whichever concrete SDKs are
// configured (OpenAI, Anthropic, Google) behind one Client interface, with
// JSON-repair, retry-with-feedback, and multi-provider fallback.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors returned by the façade.
var (
	ErrNoProvidersAvailable = errors.New("ai: no providers available")
	ErrAllProvidersFailed   = errors.New("ai: all providers failed")
	ErrInvalidJSON          = errors.New("ai: response was not valid JSON after retries")
	ErrDimensionMismatch    = errors.New("ai: embedding dimension mismatch")
)

// ProviderName identifies a concrete backend.
type ProviderName string

const (
	ProviderOpenAI    ProviderName = "openai"
	ProviderAnthropic ProviderName = "anthropic"
	ProviderGoogle    ProviderName = "google"
	ProviderMock      ProviderName = "mock"
)

// Priority constants for provider fallback ordering (higher goes first).
const (
	PriorityPrimary  = 100
	PriorityFallback = 50
	PriorityMock     = 0
)

// Role is a chat message's role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat completion request.
type Message struct {
	Role    Role
	Content string
}

// CompletionResult is what a single completion call returns.
type CompletionResult struct {
	Text         string
	Provider     ProviderName
	Model        string
	InputTokens  int
	OutputTokens int
}

// EmbeddingResult is what a single embedding call returns.
type EmbeddingResult struct {
	Vector     []float32
	Dimensions int
	Provider   ProviderName
}

// Client is the provider-agnostic interface the rest of the engine depends
// on. Concrete providers and the Registry both satisfy it.
type Client interface {
	Complete(ctx context.Context, messages []Message) (CompletionResult, error)
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// Provider is a single backend registered into a Registry.
type Provider interface {
	Client
	Name() ProviderName
	IsAvailable() bool
	Priority() int
	EmbeddingDimensions() int
}

// jsonInstructionPrefix is prepended to every completion prompt that expects
// structured output, steering providers away from prose wrapping the JSON.
const jsonInstructionPrefix = "Respond with ONLY valid JSON, no prose, no markdown code fences.\n\n"

// CompleteJSON sends prompt to client wrapped with the JSON-only
// instruction, retrying up to maxRetries times with the parse error fed back
// to the model if the response isn't valid JSON after extraction.
func CompleteJSON(ctx context.Context, client Client, systemPrompt, prompt string, maxRetries int) (string, error) {
	messages := []Message{
		{Role: RoleUser, Content: jsonInstructionPrefix + prompt},
	}

	if systemPrompt != "" {
		messages = append([]Message{{Role: RoleSystem, Content: systemPrompt}}, messages...)
	}

	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		result, err := client.Complete(ctx, messages)
		if err != nil {
			return "", fmt.Errorf("complete json: %w", err)
		}

		candidate := ExtractJSON(result.Text)
		if IsValidJSON(candidate) {
			return candidate, nil
		}

		lastErr = fmt.Errorf("%w: %s", ErrInvalidJSON, truncate(result.Text, 200))

		var probe json.RawMessage
		parseErr := json.Unmarshal([]byte(candidate), &probe)

		messages = append(messages,
			Message{Role: RoleAssistant, Content: result.Text},
			Message{Role: RoleUser, Content: fmt.Sprintf("That was not valid JSON (%v). Respond again with ONLY valid JSON.", parseErr)},
		)
	}

	return "", lastErr
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n] + "..."
}
