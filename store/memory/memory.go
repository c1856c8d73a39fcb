// Package memory is an in-process PageStore/HybridSearch implementation
// backed by guarded maps. It exists for tests and for callers that don't
// need durability, so pipeline and extraction logic can be exercised
// without a database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/lueurxax/extraction-engine/model"
	"github.com/lueurxax/extraction-engine/store"
)

// Store is a thread-safe in-memory implementation of store.PageStore and
// store.HybridSearch.
type Store struct {
	mu         sync.RWMutex
	pages      map[string]model.CachedPage
	summaries  map[summaryKey]model.Summary
	embeddings map[string][]float32
}

type summaryKey struct {
	url         string
	contentHash string
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		pages:      make(map[string]model.CachedPage),
		summaries:  make(map[summaryKey]model.Summary),
		embeddings: make(map[string][]float32),
	}
}

// GetPage implements store.PageCache.
func (s *Store) GetPage(_ context.Context, url string) (model.CachedPage, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	page, ok := s.pages[url]

	return page, ok, nil
}

// StorePage implements store.PageCache.
func (s *Store) StorePage(_ context.Context, page model.CachedPage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pages[page.URL] = page

	return nil
}

// GetPages implements store.PageCache.
func (s *Store) GetPages(_ context.Context, urls []string) ([]model.CachedPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.CachedPage, 0, len(urls))

	for _, url := range urls {
		if page, ok := s.pages[url]; ok {
			out = append(out, page)
		}
	}

	return out, nil
}

// GetPagesForSite implements store.PageCache.
func (s *Store) GetPagesForSite(_ context.Context, siteURL string) ([]model.CachedPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.CachedPage

	for _, page := range s.pages {
		if page.SiteURL == siteURL {
			out = append(out, page)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })

	return out, nil
}

// DeletePage implements store.PageCache.
func (s *Store) DeletePage(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pages, url)

	return nil
}

// CountPages implements store.PageCache.
func (s *Store) CountPages(_ context.Context, siteURL string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0

	for _, page := range s.pages {
		if page.SiteURL == siteURL {
			count++
		}
	}

	return count, nil
}

// GetSummary implements store.SummaryCache.
func (s *Store) GetSummary(_ context.Context, url, contentHash string) (model.Summary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, ok := s.summaries[summaryKey{url: url, contentHash: contentHash}]

	return summary, ok, nil
}

// StoreSummary implements store.SummaryCache.
func (s *Store) StoreSummary(_ context.Context, summary model.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.summaries[summaryKey{url: summary.URL, contentHash: summary.ContentHash}] = summary

	return nil
}

// GetSummariesForSite implements store.SummaryCache.
func (s *Store) GetSummariesForSite(_ context.Context, siteURL string) ([]model.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Summary

	for _, summary := range s.summaries {
		if summary.SiteURL == siteURL {
			out = append(out, summary)
		}
	}

	sortSummaries(out)

	return out, nil
}

// GetSummaries implements store.SummaryCache.
func (s *Store) GetSummaries(_ context.Context, filter model.QueryFilter) ([]model.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Summary

	for _, summary := range s.summaries {
		if filter.Matches(summary.SiteURL, summary.Language) {
			out = append(out, summary)
		}
	}

	sortSummaries(out)

	return out, nil
}

func sortSummaries(summaries []model.Summary) {
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].URL < summaries[j].URL })
}

// DeleteSummary implements store.SummaryCache.
func (s *Store) DeleteSummary(_ context.Context, url, contentHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.summaries, summaryKey{url: url, contentHash: contentHash})

	return nil
}

// InvalidateStaleSummaries implements store.SummaryCache.
func (s *Store) InvalidateStaleSummaries(_ context.Context, currentPromptHash string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0

	for key, summary := range s.summaries {
		if summary.PromptHash != currentPromptHash {
			delete(s.summaries, key)

			removed++
		}
	}

	return removed, nil
}

// StoreEmbedding implements store.EmbeddingStore.
func (s *Store) StoreEmbedding(_ context.Context, url string, vector []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.embeddings[url] = vector

	return nil
}

// GetEmbedding implements store.EmbeddingStore.
func (s *Store) GetEmbedding(_ context.Context, url string) ([]float32, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vector, ok := s.embeddings[url]

	return vector, ok, nil
}

// SearchSimilar implements store.EmbeddingStore.
func (s *Store) SearchSimilar(_ context.Context, vector []float32, limit int, filter model.QueryFilter) ([]model.PageRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refs := make([]model.PageRef, 0, len(s.embeddings))

	for url, candidate := range s.embeddings {
		page, ok := s.pages[url]
		if ok && !filter.Matches(page.SiteURL, "") {
			continue
		}

		refs = append(refs, model.PageRef{
			URL:     url,
			SiteURL: page.SiteURL,
			Title:   page.Title,
			Score:   store.CosineSimilarity(vector, candidate),
		})
	}

	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].Score != refs[j].Score {
			return refs[i].Score > refs[j].Score
		}

		return refs[i].URL < refs[j].URL
	})

	if limit > 0 && len(refs) > limit {
		refs = refs[:limit]
	}

	return refs, nil
}

// SearchSimilarThreshold implements store.EmbeddingStore using the package
// default (search 2x, filter, truncate).
func (s *Store) SearchSimilarThreshold(ctx context.Context, vector []float32, minScore float32, limit int, filter model.QueryFilter) ([]model.PageRef, error) {
	return store.SearchSimilarThresholdDefault(ctx, s, vector, minScore, limit, filter)
}

// DeleteEmbedding implements store.EmbeddingStore.
func (s *Store) DeleteEmbedding(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.embeddings, url)

	return nil
}

// KeywordSearch implements store.KeywordSearch with a simple substring
// scorer over cached page content: the fraction of lowercase query terms
// (len > 2) appearing as a substring of the lowercase page content.
func (s *Store) KeywordSearch(_ context.Context, query string, limit int, filter model.QueryFilter) ([]model.PageRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	terms := keywordTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}

	var refs []model.PageRef

	for _, page := range s.pages {
		if !filter.Matches(page.SiteURL, "") {
			continue
		}

		score := termOverlap(terms, strings.ToLower(page.Content))
		if score <= 0 {
			continue
		}

		refs = append(refs, model.PageRef{URL: page.URL, SiteURL: page.SiteURL, Title: page.Title, Score: score})
	}

	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].Score != refs[j].Score {
			return refs[i].Score > refs[j].Score
		}

		return refs[i].URL < refs[j].URL
	})

	if limit > 0 && len(refs) > limit {
		refs = refs[:limit]
	}

	return refs, nil
}

func keywordTerms(query string) []string {
	var terms []string

	for _, word := range strings.Fields(strings.ToLower(query)) {
		if len(word) > 2 {
			terms = append(terms, word)
		}
	}

	return terms
}

func termOverlap(terms []string, text string) float32 {
	matched := 0

	for _, term := range terms {
		if strings.Contains(text, term) {
			matched++
		}
	}

	return float32(matched) / float32(len(terms))
}

var (
	_ store.PageStore    = (*Store)(nil)
	_ store.HybridSearch = (*Store)(nil)
)
