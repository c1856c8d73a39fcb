package ai

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

const (
	defaultGoogleModel     = "gemini-2.0-flash-lite"
	googleRateLimiterBurst = 5
)

// GoogleProvider adapts Gemini's GenerateContent API to the Client
// interface. Google has no public text-embedding endpoint reachable through
// this SDK, so Embed always fails and the registry falls through.
type GoogleProvider struct {
	client      *genai.Client
	apiKey      string
	model       string
	rateLimiter *rate.Limiter
}

// NewGoogleProvider constructs a GoogleProvider. The genai client is created
// here, in the constructor, since genai.NewClient requires a context; pass
// one obtained at startup.
func NewGoogleProvider(ctx context.Context, apiKey, model string, rateLimitRPS float64) (*GoogleProvider, error) {
	if model == "" {
		model = defaultGoogleModel
	}

	if rateLimitRPS <= 0 {
		rateLimitRPS = 1
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating google genai client: %w", err)
	}

	return &GoogleProvider{
		client:      client,
		apiKey:      apiKey,
		model:       model,
		rateLimiter: rate.NewLimiter(rate.Limit(rateLimitRPS), googleRateLimiterBurst),
	}, nil
}

// Close releases the underlying genai client.
func (p *GoogleProvider) Close() error {
	return p.client.Close()
}

func (p *GoogleProvider) Name() ProviderName       { return ProviderGoogle }
func (p *GoogleProvider) IsAvailable() bool        { return p.apiKey != "" }
func (p *GoogleProvider) Priority() int            { return PriorityPrimary }
func (p *GoogleProvider) EmbeddingDimensions() int { return 0 }

// Complete implements Client. Gemini has no distinct system-role turn in
// this SDK's simple text API, so a system message is prepended to the first
// user turn instead.
func (p *GoogleProvider) Complete(ctx context.Context, messages []Message) (CompletionResult, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return CompletionResult{}, fmt.Errorf("google rate limiter: %w", err)
	}

	prompt := flattenMessages(messages)

	genModel := p.client.GenerativeModel(p.model)

	resp, err := genModel.GenerateContent(ctx, genai.Text(sanitizeUTF8(prompt)))
	if err != nil {
		return CompletionResult{}, fmt.Errorf("google complete: %w", err)
	}

	text := extractGoogleText(resp)
	if text == "" {
		return CompletionResult{}, fmt.Errorf("google complete: %w", ErrInvalidJSON)
	}

	promptTokens, completionTokens := extractGoogleUsage(resp)

	return CompletionResult{
		Text:         text,
		Provider:     ProviderGoogle,
		Model:        p.model,
		InputTokens:  promptTokens,
		OutputTokens: completionTokens,
	}, nil
}

// Embed implements Client as an always-failing stub — the registry should
// route embedding calls to OpenAI instead.
func (p *GoogleProvider) Embed(_ context.Context, _ string) (EmbeddingResult, error) {
	return EmbeddingResult{}, fmt.Errorf("google: %w", ErrNoProvidersAvailable)
}

func flattenMessages(messages []Message) string {
	var sb strings.Builder

	for _, m := range messages {
		if m.Role == RoleSystem {
			sb.WriteString(m.Content)
			sb.WriteString("\n\n")

			continue
		}

		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}

	return sb.String()
}

// sanitizeUTF8 strips invalid byte sequences, which Gemini's protobuf
// transport rejects outright. Crawled page content sometimes carries them.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	var builder strings.Builder
	builder.Grow(len(s))

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			builder.WriteRune(utf8.RuneError)
			i++
		} else {
			builder.WriteRune(r)
			i += size
		}
	}

	return builder.String()
}

func extractGoogleText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var sb strings.Builder

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}

		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}

	return sb.String()
}

func extractGoogleUsage(resp *genai.GenerateContentResponse) (promptTokens, completionTokens int) {
	if resp == nil || resp.UsageMetadata == nil {
		return 0, 0
	}

	return int(resp.UsageMetadata.PromptTokenCount), int(resp.UsageMetadata.CandidatesTokenCount)
}
