// Package store defines the storage abstractions the engine persists
// through: raw pages, recall-optimized summaries, vector embeddings, and
// keyword search. Each capability is its own interface; PageStore and
// HybridSearch compose them the way Go composes interfaces — any
// implementation satisfying the union of methods automatically satisfies
// the composite, with no explicit glue code required.
package store

import (
	"context"

	"github.com/lueurxax/extraction-engine/model"
)

// PageCache persists RawPage content as CachedPage rows keyed by URL.
type PageCache interface {
	GetPage(ctx context.Context, url string) (model.CachedPage, bool, error)
	StorePage(ctx context.Context, page model.CachedPage) error
	GetPages(ctx context.Context, urls []string) ([]model.CachedPage, error)
	GetPagesForSite(ctx context.Context, siteURL string) ([]model.CachedPage, error)
	DeletePage(ctx context.Context, url string) error
	CountPages(ctx context.Context, siteURL string) (int, error)
}

// SummaryCache persists recall-optimized summaries keyed by (url, content_hash).
type SummaryCache interface {
	// GetSummary returns (summary, false, nil) if no summary exists for the
	// given content hash — including the case where the page's content has
	// changed since the summary was produced.
	GetSummary(ctx context.Context, url, contentHash string) (model.Summary, bool, error)
	StoreSummary(ctx context.Context, summary model.Summary) error
	GetSummariesForSite(ctx context.Context, siteURL string) ([]model.Summary, error)
	GetSummaries(ctx context.Context, filter model.QueryFilter) ([]model.Summary, error)
	DeleteSummary(ctx context.Context, url, contentHash string) error
	// InvalidateStaleSummaries removes every summary whose prompt_hash does
	// not match currentPromptHash, returning the count removed.
	InvalidateStaleSummaries(ctx context.Context, currentPromptHash string) (int, error)
}

// EmbeddingStore persists and searches fixed-dimension vectors.
type EmbeddingStore interface {
	StoreEmbedding(ctx context.Context, url string, vector []float32) error
	GetEmbedding(ctx context.Context, url string) ([]float32, bool, error)
	SearchSimilar(ctx context.Context, vector []float32, limit int, filter model.QueryFilter) ([]model.PageRef, error)
	SearchSimilarThreshold(ctx context.Context, vector []float32, minScore float32, limit int, filter model.QueryFilter) ([]model.PageRef, error)
	DeleteEmbedding(ctx context.Context, url string) error
}

// KeywordSearch performs lexical search over raw page content.
type KeywordSearch interface {
	KeywordSearch(ctx context.Context, query string, limit int, filter model.QueryFilter) ([]model.PageRef, error)
}

// PageStore composes the three page-lifecycle capabilities. Any type that
// implements PageCache, SummaryCache, and EmbeddingStore automatically
// satisfies PageStore.
type PageStore interface {
	PageCache
	SummaryCache
	EmbeddingStore
}

// HybridSearch composes semantic and keyword search.
type HybridSearch interface {
	EmbeddingStore
	KeywordSearch
}

// SearchSimilarThresholdDefault is the default implementation of
// SearchSimilarThreshold available to EmbeddingStore implementations that
// don't have a more efficient native path: search 2x the limit, then filter
// by the threshold and truncate.
func SearchSimilarThresholdDefault(ctx context.Context, es EmbeddingStore, vector []float32, minScore float32, limit int, filter model.QueryFilter) ([]model.PageRef, error) {
	refs, err := es.SearchSimilar(ctx, vector, limit*2, filter)
	if err != nil {
		return nil, err
	}

	out := make([]model.PageRef, 0, limit)

	for _, ref := range refs {
		if ref.Score < minScore {
			continue
		}

		out = append(out, ref)

		if len(out) == limit {
			break
		}
	}

	return out, nil
}

// HybridSearchQuery runs semantic and keyword search against hs, fusing the
// two rankings with Reciprocal Rank Fusion (§4.6). It is the free-function
// default behavior any HybridSearch implementation gets without having to
// reimplement fusion itself.
func HybridSearchQuery(ctx context.Context, hs HybridSearch, query string, queryEmbedding []float32, limit int, semanticWeight float32, filter model.QueryFilter) ([]model.PageRef, error) {
	semantic, err := hs.SearchSimilar(ctx, queryEmbedding, limit*2, filter)
	if err != nil {
		return nil, err
	}

	keyword, err := hs.KeywordSearch(ctx, query, limit*2, filter)
	if err != nil {
		return nil, err
	}

	fused := ReciprocalRankFusion(semantic, keyword, semanticWeight, 1-semanticWeight)
	if len(fused) > limit {
		fused = fused[:limit]
	}

	return fused, nil
}
