// Package summarize turns a CachedPage into a recall-optimized Summary by
// asking the AI façade to distill the page's offers, asks, calls to action,
// and entities, following the same prompt-hash cache-invalidation scheme the
// engine uses for every AI-derived artifact.
package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lueurxax/extraction-engine/ai"
	"github.com/lueurxax/extraction-engine/model"
)

const (
	defaultMaxRetries      = 2
	defaultMaxContentChars = 12_000
)

// Config tunes a Summarizer.
type Config struct {
	MaxRetries      int
	MaxContentChars int
}

// DefaultConfig returns the library's default tuning.
func DefaultConfig() Config {
	return Config{MaxRetries: defaultMaxRetries, MaxContentChars: defaultMaxContentChars}
}

// Summarizer produces model.Summary values via the AI façade.
type Summarizer struct {
	client ai.Client
	cfg    Config
}

// New constructs a Summarizer against client.
func New(client ai.Client, cfg Config) *Summarizer {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}

	if cfg.MaxContentChars <= 0 {
		cfg.MaxContentChars = defaultMaxContentChars
	}

	return &Summarizer{client: client, cfg: cfg}
}

// summaryResponse mirrors the JSON shape the summarize prompt asks for.
type summaryResponse struct {
	Summary string `json:"summary"`
	Signals struct {
		Offers        []string `json:"offers"`
		Asks          []string `json:"asks"`
		CallsToAction []string `json:"calls_to_action"`
		Entities      []string `json:"entities"`
	} `json:"signals"`
	Language string `json:"language"`
}

// Summarize asks the AI façade to summarize page, attaching the content hash
// and current prompt hash so the pipeline can key and invalidate the result.
func (s *Summarizer) Summarize(ctx context.Context, page model.CachedPage) (model.Summary, error) {
	content := page.Content
	if len(content) > s.cfg.MaxContentChars {
		content = content[:s.cfg.MaxContentChars]
	}

	prompt := formatSummarizePrompt(page.URL, content)

	raw, err := ai.CompleteJSON(ctx, s.client, "", prompt, s.cfg.MaxRetries)
	if err != nil {
		return model.Summary{}, fmt.Errorf("summarize: %w", err)
	}

	var parsed summaryResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return model.Summary{}, fmt.Errorf("summarize: parse response: %w", err)
	}

	return model.Summary{
		URL:     page.URL,
		SiteURL: page.SiteURL,
		Text:    parsed.Summary,
		Signals: model.Signals{
			Offers:        parsed.Signals.Offers,
			Asks:          parsed.Signals.Asks,
			CallsToAction: parsed.Signals.CallsToAction,
			Entities:      parsed.Signals.Entities,
		},
		Language:    parsed.Language,
		CreatedAt:   time.Now().UTC(),
		PromptHash:  PromptHash(),
		ContentHash: page.ContentHash,
	}, nil
}
