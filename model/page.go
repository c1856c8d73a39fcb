// Package model defines the entities shared across the extraction engine:
// raw and cached pages, recall-optimized summaries, search results, and the
// extraction result tree. It has no dependencies on any other engine package
// so every component (store, ai, ingest, recall, extract, detective) can
// depend on it without creating import cycles.
package model

import (
	"strings"
	"time"
)

// RawPage is produced by an Ingestor before it has been summarized or
// embedded. It is a short-lived value, consumed by the ingest pipeline and
// discarded once a Summary has been derived from it.
type RawPage struct {
	URL         string
	Content     string
	Title       string
	ContentType string
	FetchedAt   time.Time
	Metadata    map[string]string
}

// NewRawPage builds a RawPage with the metadata map initialized.
func NewRawPage(url, content string) RawPage {
	return RawPage{
		URL:       url,
		Content:   content,
		FetchedAt: time.Now().UTC(),
		Metadata:  map[string]string{},
	}
}

// WithTitle sets the page title and returns the page for chaining.
func (p RawPage) WithTitle(title string) RawPage {
	p.Title = title
	return p
}

// WithContentType sets the content type and returns the page for chaining.
func (p RawPage) WithContentType(contentType string) RawPage {
	p.ContentType = contentType
	return p
}

// WithMetadata adds a metadata key/value pair and returns the page for chaining.
func (p RawPage) WithMetadata(key, value string) RawPage {
	if p.Metadata == nil {
		p.Metadata = map[string]string{}
	}

	p.Metadata[key] = value

	return p
}

// HasContent reports whether the page carries any non-whitespace content.
func (p RawPage) HasContent() bool {
	return strings.TrimSpace(p.Content) != ""
}

// CachedPage is the persisted form of a RawPage: it adds a stable content
// hash (used to detect changes and key summaries) and the derived site URL.
type CachedPage struct {
	URL         string
	SiteURL     string
	Content     string
	Title       string
	ContentType string
	ContentHash string
	Metadata    map[string]string
	FetchedAt   time.Time
}

// DiscoverConfig configures an Ingestor.Discover call.
type DiscoverConfig struct {
	URL             string
	Limit           int
	MaxDepth        int
	IncludePatterns []string
	ExcludePatterns []string
	Options         map[string]string
}

// NewDiscoverConfig returns a DiscoverConfig seeded with the library defaults
// (limit 100, max depth 2), ready for further chaining.
func NewDiscoverConfig(url string) DiscoverConfig {
	return DiscoverConfig{
		URL:      url,
		Limit:    defaultDiscoverLimit,
		MaxDepth: defaultDiscoverMaxDepth,
		Options:  map[string]string{},
	}
}

const (
	defaultDiscoverLimit    = 100
	defaultDiscoverMaxDepth = 2
)

// WithLimit sets the page limit and returns the config for chaining.
func (c DiscoverConfig) WithLimit(limit int) DiscoverConfig {
	c.Limit = limit
	return c
}

// WithMaxDepth sets the crawl depth and returns the config for chaining.
func (c DiscoverConfig) WithMaxDepth(depth int) DiscoverConfig {
	c.MaxDepth = depth
	return c
}

// WithOption adds a source-specific discovery option.
func (c DiscoverConfig) WithOption(key, value string) DiscoverConfig {
	if c.Options == nil {
		c.Options = map[string]string{}
	}

	c.Options[key] = value

	return c
}
