package model

import "time"

// Signals carries the recall-optimized structured facets extracted from a
// page: what it offers, what it asks for, its calls to action, and the key
// entities it names.
type Signals struct {
	Offers        []string `json:"offers"`
	Asks          []string `json:"asks"`
	CallsToAction []string `json:"calls_to_action"`
	Entities      []string `json:"entities"`
}

// Summary is the recall-optimized record derived from a CachedPage.
type Summary struct {
	URL         string
	SiteURL     string
	Text        string
	Signals     Signals
	Language    string
	CreatedAt   time.Time
	PromptHash  string
	ContentHash string
	Embedding   []float32
}

// EmbeddingText is the text that gets embedded for recall: the prose
// concatenated with the flattened signal lists, so a query that matches a
// signal word (an offer, an ask, a CTA) ranks the summary even when the
// prose itself does not mention it.
func (s Summary) EmbeddingText() string {
	text := s.Text
	for _, list := range [][]string{s.Signals.Offers, s.Signals.Asks, s.Signals.CallsToAction, s.Signals.Entities} {
		for _, item := range list {
			text += " " + item
		}
	}

	return text
}

// PageRef is a lightweight, ordered search result.
type PageRef struct {
	URL     string
	Title   string
	SiteURL string
	Score   float32
}

// QueryFilter constrains recall and extraction to a subset of the indexed
// content. A zero-value QueryFilter matches everything.
type QueryFilter struct {
	SiteURLPrefixes []string
	Languages       []string
}

// Matches reports whether a summary satisfies the filter.
func (f QueryFilter) Matches(siteURL, language string) bool {
	if len(f.SiteURLPrefixes) > 0 {
		ok := false

		for _, prefix := range f.SiteURLPrefixes {
			if hasPrefix(siteURL, prefix) {
				ok = true
				break
			}
		}

		if !ok {
			return false
		}
	}

	if len(f.Languages) > 0 {
		ok := false

		for _, lang := range f.Languages {
			if lang == language {
				ok = true
				break
			}
		}

		if !ok {
			return false
		}
	}

	return true
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// IngestResult summarizes one ingest call.
type IngestResult struct {
	PagesCrawled    int
	PagesSummarized int
	PagesSkipped    int
}

// IngestorConfig tunes a single ingest call.
type IngestorConfig struct {
	Concurrency       int
	ForceResummarize  bool
	SkipUnchanged     bool
}

// DefaultIngestorConfig returns the library's default tuning: a concurrency
// of 5, matching the ingest pipeline's fan-out bound.
func DefaultIngestorConfig() IngestorConfig {
	return IngestorConfig{Concurrency: defaultIngestConcurrency}
}

const defaultIngestConcurrency = 5
