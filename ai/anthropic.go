package ai

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"
)

const (
	defaultAnthropicModel      = "claude-haiku-4.5"
	anthropicRateLimiterBurst  = 5
	anthropicMaxTokensDefault  = 4096
)

// AnthropicProvider adapts Anthropic's Messages API to the Client interface.
// It has no embedding capability — Anthropic doesn't serve one — so Embed
// always fails and the registry falls through to the next provider.
type AnthropicProvider struct {
	client      anthropic.Client
	apiKey      string
	model       string
	rateLimiter *rate.Limiter
}

// NewAnthropicProvider constructs an AnthropicProvider. rateLimitRPS <= 0
// defaults to 1 request/second, matching the rest of the façade's providers.
func NewAnthropicProvider(apiKey, model string, rateLimitRPS float64) *AnthropicProvider {
	if model == "" {
		model = defaultAnthropicModel
	}

	if rateLimitRPS <= 0 {
		rateLimitRPS = 1
	}

	return &AnthropicProvider{
		client:      anthropic.NewClient(option.WithAPIKey(apiKey)),
		apiKey:      apiKey,
		model:       model,
		rateLimiter: rate.NewLimiter(rate.Limit(rateLimitRPS), anthropicRateLimiterBurst),
	}
}

func (p *AnthropicProvider) Name() ProviderName      { return ProviderAnthropic }
func (p *AnthropicProvider) IsAvailable() bool       { return p.apiKey != "" }
func (p *AnthropicProvider) Priority() int           { return PriorityFallback }
func (p *AnthropicProvider) EmbeddingDimensions() int { return 0 }

// Complete implements Client.
func (p *AnthropicProvider) Complete(ctx context.Context, messages []Message) (CompletionResult, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return CompletionResult{}, fmt.Errorf("anthropic rate limiter: %w", err)
	}

	var (
		system   string
		anthMsgs []anthropic.MessageParam
	)

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = m.Content
		case RoleAssistant:
			anthMsgs = append(anthMsgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			anthMsgs = append(anthMsgs, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: anthropicMaxTokensDefault,
		Messages:  anthMsgs,
	}

	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("anthropic complete: %w", err)
	}

	return CompletionResult{
		Text:         extractAnthropicText(resp),
		Provider:     ProviderAnthropic,
		Model:        p.model,
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}, nil
}

// Embed implements Client as an always-failing stub: Anthropic has no
// embedding endpoint, so the registry should never route here for Embed.
func (p *AnthropicProvider) Embed(_ context.Context, _ string) (EmbeddingResult, error) {
	return EmbeddingResult{}, fmt.Errorf("anthropic: %w", ErrNoProvidersAvailable)
}

func extractAnthropicText(resp *anthropic.Message) string {
	var text string

	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return text
}
