package ai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const (
	defaultOpenAIChatModel = openai.GPT4oMini
	openaiRateLimiterBurst = 5
	openaiEmbeddingDims    = 1536
)

// OpenAIProvider adapts go-openai's chat completion and embedding APIs to
// the Client interface.
type OpenAIProvider struct {
	client      *openai.Client
	apiKey      string
	model       string
	rateLimiter *rate.Limiter
}

// NewOpenAIProvider constructs an OpenAIProvider.
func NewOpenAIProvider(apiKey, model string, rateLimitRPS float64) *OpenAIProvider {
	if model == "" {
		model = defaultOpenAIChatModel
	}

	if rateLimitRPS <= 0 {
		rateLimitRPS = 1
	}

	return &OpenAIProvider{
		client:      openai.NewClient(apiKey),
		apiKey:      apiKey,
		model:       model,
		rateLimiter: rate.NewLimiter(rate.Limit(rateLimitRPS), openaiRateLimiterBurst),
	}
}

func (p *OpenAIProvider) Name() ProviderName       { return ProviderOpenAI }
func (p *OpenAIProvider) IsAvailable() bool        { return p.apiKey != "" }
func (p *OpenAIProvider) Priority() int            { return PriorityPrimary }
func (p *OpenAIProvider) EmbeddingDimensions() int { return openaiEmbeddingDims }

// Complete implements Client. The request sets no response format, so the
// reply text is returned as the model wrote it; JSON callers go through
// CompleteJSON, which runs ExtractJSON on it.
func (p *OpenAIProvider) Complete(ctx context.Context, messages []Message) (CompletionResult, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return CompletionResult{}, fmt.Errorf("openai rate limiter: %w", err)
	}

	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: chatMessages,
	})
	if err != nil {
		return CompletionResult{}, fmt.Errorf("openai complete: %w", err)
	}

	if len(resp.Choices) == 0 {
		return CompletionResult{}, fmt.Errorf("openai complete: %w", ErrInvalidJSON)
	}

	return CompletionResult{
		Text:         resp.Choices[0].Message.Content,
		Provider:     ProviderOpenAI,
		Model:        p.model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

// Embed implements Client using text-embedding-3-small.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return EmbeddingResult{}, fmt.Errorf("openai rate limiter: %w", err)
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.SmallEmbedding3,
	})
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("openai embed: %w", err)
	}

	if len(resp.Data) == 0 {
		return EmbeddingResult{}, fmt.Errorf("openai embed: %w", ErrDimensionMismatch)
	}

	return EmbeddingResult{
		Vector:     resp.Data[0].Embedding,
		Dimensions: len(resp.Data[0].Embedding),
		Provider:   ProviderOpenAI,
	}, nil
}
