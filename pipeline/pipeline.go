// Package pipeline orchestrates one ingest call end to end: discovery,
// content-hash cache probing, bounded-concurrency summarization, embedding,
// and persistence. It is the only place in the engine that fans ingest work
// out across goroutines.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lueurxax/extraction-engine/ai"
	"github.com/lueurxax/extraction-engine/ingest"
	"github.com/lueurxax/extraction-engine/model"
	"github.com/lueurxax/extraction-engine/store"
	"github.com/lueurxax/extraction-engine/summarize"
)

// Pipeline runs the Discover → hash → summarize → embed → persist sequence
// described for Index.Ingest.
type Pipeline struct {
	store      store.PageStore
	summarizer *summarize.Summarizer
	embedder   ai.Client
	logger     *zerolog.Logger
}

// New constructs a Pipeline. embedder may be the same ai.Client the
// summarizer uses, or a different provider if the caller wants to split the
// work across backends.
func New(s store.PageStore, summarizer *summarize.Summarizer, embedder ai.Client, logger *zerolog.Logger) *Pipeline {
	return &Pipeline{store: s, summarizer: summarizer, embedder: embedder, logger: logger}
}

// Ingest runs Discover against ingestor, then the full summarize/embed/
// persist sequence over the resulting pages.
func (p *Pipeline) Ingest(ctx context.Context, config model.DiscoverConfig, ingestor ingest.Ingestor, cfg model.IngestorConfig) (model.IngestResult, error) {
	pages, err := ingestor.Discover(ctx, config)
	if err != nil {
		return model.IngestResult{}, fmt.Errorf("pipeline: discover: %w", err)
	}

	return p.process(ctx, pages, cfg)
}

// IngestURLs runs FetchSpecific against ingestor for the given urls, then the
// same summarize/embed/persist sequence. This is the entry point Detective
// and direct user submissions use.
func (p *Pipeline) IngestURLs(ctx context.Context, urls []string, ingestor ingest.Ingestor, cfg model.IngestorConfig) (model.IngestResult, error) {
	pages, err := ingestor.FetchSpecific(ctx, urls)
	if err != nil {
		return model.IngestResult{}, fmt.Errorf("pipeline: fetch specific: %w", err)
	}

	return p.process(ctx, pages, cfg)
}

// process runs steps 2-6 of the ingest algorithm over a candidate page set.
func (p *Pipeline) process(ctx context.Context, pages []model.RawPage, cfg model.IngestorConfig) (model.IngestResult, error) {
	result := model.IngestResult{}

	candidates := make([]model.RawPage, 0, len(pages))

	for _, page := range pages {
		if page.HasContent() {
			candidates = append(candidates, page)
		}
	}

	result.PagesCrawled = len(candidates)

	cached := make([]model.CachedPage, 0, len(candidates))

	for _, page := range candidates {
		cp := toCachedPage(page)

		if err := p.store.StorePage(ctx, cp); err != nil {
			p.warn(err, page.URL, "failed to store page")
			continue
		}

		cached = append(cached, cp)
	}

	toSummarize := make([]model.CachedPage, 0, len(cached))
	currentPromptHash := summarize.PromptHash()

	for _, cp := range cached {
		if cfg.SkipUnchanged && !cfg.ForceResummarize {
			existing, found, err := p.store.GetSummary(ctx, cp.URL, cp.ContentHash)
			if err == nil && found && existing.PromptHash == currentPromptHash {
				result.PagesSkipped++
				continue
			}
		}

		toSummarize = append(toSummarize, cp)
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = model.DefaultIngestorConfig().Concurrency
	}

	summarized := p.summarizeAndEmbed(ctx, toSummarize, concurrency)
	result.PagesSummarized = len(summarized)

	for _, summary := range summarized {
		if err := p.store.StoreSummary(ctx, summary); err != nil {
			p.warn(err, summary.URL, "failed to store summary")
			continue
		}

		if len(summary.Embedding) > 0 {
			if err := p.store.StoreEmbedding(ctx, summary.URL, summary.Embedding); err != nil {
				p.warn(err, summary.URL, "failed to store embedding")
			}
		}
	}

	return result, nil
}

// summarizeAndEmbed fans summarization and embedding out across at most
// concurrency goroutines. A failure on one page is logged and dropped; it
// never cancels its siblings.
func (p *Pipeline) summarizeAndEmbed(ctx context.Context, pages []model.CachedPage, concurrency int) []model.Summary {
	var (
		mu  sync.Mutex
		out []model.Summary
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)

	for _, cp := range pages {
		cp := cp

		group.Go(func() error {
			select {
			case <-groupCtx.Done():
				return nil
			default:
			}

			summary, err := p.summarizer.Summarize(groupCtx, cp)
			if err != nil {
				p.warn(err, cp.URL, "failed to summarize page")
				return nil
			}

			embedding, err := p.embedder.Embed(groupCtx, summary.EmbeddingText())
			if err != nil {
				p.warn(err, cp.URL, "failed to embed summary")
			} else {
				summary.Embedding = embedding.Vector
			}

			mu.Lock()
			out = append(out, summary)
			mu.Unlock()

			return nil
		})
	}

	// Errors are handled per-task above and every task returns nil, so Wait
	// never reports an error; callers detect cancellation themselves via ctx.
	_ = group.Wait()

	return out
}

func (p *Pipeline) warn(err error, url, msg string) {
	if p.logger == nil {
		return
	}

	p.logger.Warn().Err(err).Str("url", url).Msg(msg)
}

func toCachedPage(page model.RawPage) model.CachedPage {
	return model.CachedPage{
		URL:         page.URL,
		SiteURL:     model.SiteURL(page.URL),
		Content:     page.Content,
		Title:       page.Title,
		ContentType: page.ContentType,
		ContentHash: model.ContentHash(page.Content),
		Metadata:    page.Metadata,
		FetchedAt:   page.FetchedAt,
	}
}
