// Package extraction is the top-level engine: it wires ingest, recall,
// and extraction together behind a small surface (Ingest/Search/Extract)
// over a caller-supplied store and AI façade.
package extraction

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lueurxax/extraction-engine/ai"
	"github.com/lueurxax/extraction-engine/extract"
	"github.com/lueurxax/extraction-engine/ingest"
	"github.com/lueurxax/extraction-engine/model"
	"github.com/lueurxax/extraction-engine/pipeline"
	"github.com/lueurxax/extraction-engine/recall"
	"github.com/lueurxax/extraction-engine/store"
	"github.com/lueurxax/extraction-engine/summarize"
)

// Options tunes the behavior of a new Index. Zero-value fields fall back
// to each subpackage's own defaults.
type Options struct {
	Logger       *zerolog.Logger
	SummarizeCfg summarize.Config
	RecallCfg    recall.Config
	GroundingCfg extract.Config
}

// Index is the engine's entry point: a store plus an AI façade, wired
// into an ingest pipeline and an extraction pipeline.
type Index struct {
	store     store.PageStore
	ai        ai.Client
	pipeline  *pipeline.Pipeline
	extractor *extract.Extractor
	logger    *zerolog.Logger
}

// New constructs an Index over s (persistence) and client (the AI façade
// used for summarization, embedding, and extraction prompts).
func New(s store.PageStore, client ai.Client, opts Options) (*Index, error) {
	if s == nil {
		return nil, ErrNoStore
	}

	if client == nil {
		return nil, ErrNoAIClient
	}

	summarizeCfg := opts.SummarizeCfg
	if summarizeCfg == (summarize.Config{}) {
		summarizeCfg = summarize.DefaultConfig()
	}

	recallCfg := opts.RecallCfg
	if recallCfg == (recall.Config{}) {
		recallCfg = recall.DefaultConfig()
	}

	groundingCfg := opts.GroundingCfg
	if groundingCfg == (extract.Config{}) {
		groundingCfg = extract.DefaultConfig()
	}

	summarizer := summarize.New(client, summarizeCfg)

	return &Index{
		store:     s,
		ai:        client,
		pipeline:  pipeline.New(s, summarizer, client, opts.Logger),
		extractor: extract.New(client, s, groundingCfg, recallCfg),
		logger:    opts.Logger,
	}, nil
}

// Ingest discovers pages starting from config.URL via ingestor, caches
// and summarizes them, and returns the resulting counts.
func (idx *Index) Ingest(ctx context.Context, config model.DiscoverConfig, ingestor ingest.Ingestor, cfg model.IngestorConfig) (model.IngestResult, error) {
	result, err := idx.pipeline.Ingest(ctx, config, ingestor, cfg)
	if err != nil {
		return result, fmt.Errorf("extraction: ingest: %w", err)
	}

	return result, nil
}

// IngestURLs fetches a specific set of URLs (or, for a push-based
// Ingestor like a newsletter queue, a specific set of message IDs) via
// ingestor, caches and summarizes them, and returns the resulting counts.
func (idx *Index) IngestURLs(ctx context.Context, urls []string, ingestor ingest.Ingestor, cfg model.IngestorConfig) (model.IngestResult, error) {
	result, err := idx.pipeline.IngestURLs(ctx, urls, ingestor, cfg)
	if err != nil {
		return result, fmt.Errorf("extraction: ingest urls: %w", err)
	}

	return result, nil
}

// searchSemanticWeight mirrors recall.DefaultConfig's semantic/keyword
// balance, kept separate since Search fuses raw PageRefs rather than
// already-fetched Summaries.
const searchSemanticWeight = 0.6

// Search runs RRF-fused semantic+keyword recall over cached pages,
// returning lightweight references without invoking the AI façade beyond
// embedding the query.
func (idx *Index) Search(ctx context.Context, query string, limit int, filter model.QueryFilter) ([]model.PageRef, error) {
	embedding, err := idx.ai.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("extraction: search: embed query: %w", err)
	}

	refs, err := store.HybridSearchQuery(ctx, idx.store, query, embedding.Vector, limit, searchSemanticWeight, filter)
	if err != nil {
		return nil, fmt.Errorf("extraction: search: %w", err)
	}

	return refs, nil
}

// Extract runs the full evidence-grounded extraction pipeline for query:
// classify intent, recall candidates, partition, extract per partition,
// grade and filter.
func (idx *Index) Extract(ctx context.Context, query string, filter model.QueryFilter, hints []string) ([]model.Extraction, error) {
	extractions, err := idx.extractor.Extract(ctx, query, filter, hints)
	if err != nil {
		return nil, fmt.Errorf("extraction: extract: %w", err)
	}

	return extractions, nil
}

// Store returns the underlying store.PageStore, for callers that need
// direct access (e.g. a host's admin tooling, or wiring a readiness probe).
func (idx *Index) Store() store.PageStore {
	return idx.store
}
