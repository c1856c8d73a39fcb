package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/lueurxax/extraction-engine/model"
)

const (
	defaultFetchTimeout  = 30 * time.Second
	defaultMaxRedirects  = 10
	maxResponseBytes     = 10 * 1024 * 1024
	maxExtractedRunes    = 100_000
	minAcceptableContent = 100
	defaultUserAgent     = "extraction-engine/1.0 (+https://github.com/lueurxax/extraction-engine)"
)

// HTTPIngestor fetches plain web pages over HTTP. An RSS/Atom response is
// parsed as a feed, falling back to raw text if parsing fails; HTML content
// comes from readability-grade article extraction, falling back to raw
// tag-stripped text. JSON-LD and OpenGraph data supply only the title,
// description and language, not the content.
type HTTPIngestor struct {
	client     *http.Client
	feedParser *gofeed.Parser
	userAgent  string
	logger     *zerolog.Logger
}

// NewHTTPIngestor constructs an HTTPIngestor. An empty userAgent falls back
// to the engine's default identifying string.
func NewHTTPIngestor(userAgent string, logger *zerolog.Logger) *HTTPIngestor {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &HTTPIngestor{
		client: &http.Client{
			Timeout: defaultFetchTimeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= defaultMaxRedirects {
					return fmt.Errorf("ingest: too many redirects")
				}

				return nil
			},
		},
		feedParser: gofeed.NewParser(),
		userAgent:  userAgent,
		logger:     logger,
	}
}

// Discover starts at config.URL and follows same-domain links breadth-first
// up to config.MaxDepth, stopping once config.Limit pages have been
// collected. IncludePatterns/ExcludePatterns are glob patterns matched
// against each candidate URL's path.
func (h *HTTPIngestor) Discover(ctx context.Context, config model.DiscoverConfig) ([]model.RawPage, error) {
	limit := config.Limit
	if limit <= 0 {
		limit = 1
	}

	type queued struct {
		url   string
		depth int
	}

	seen := map[string]bool{config.URL: true}
	queue := []queued{{url: config.URL, depth: 0}}

	var pages []model.RawPage

	for len(queue) > 0 && len(pages) < limit {
		select {
		case <-ctx.Done():
			return pages, fmt.Errorf("ingest: discover: %w", ctx.Err())
		default:
		}

		item := queue[0]
		queue = queue[1:]

		page, links, err := h.fetchAndExtract(ctx, item.url)
		if err != nil {
			if h.logger != nil {
				h.logger.Warn().Err(err).Str("url", item.url).Msg("skipping page during discovery")
			}

			continue
		}

		if page.HasContent() {
			pages = append(pages, page)
		}

		if item.depth >= config.MaxDepth {
			continue
		}

		for _, link := range links {
			if len(pages)+len(queue) >= limit*2 {
				break
			}

			if seen[link] || !matchesPatterns(link, config.IncludePatterns, config.ExcludePatterns) || !sameDomain(config.URL, link) {
				continue
			}

			seen[link] = true
			queue = append(queue, queued{url: link, depth: item.depth + 1})
		}
	}

	if len(pages) > limit {
		pages = pages[:limit]
	}

	return pages, nil
}

// FetchSpecific fetches each URL independently; per-URL failures are logged
// and skipped rather than propagated.
func (h *HTTPIngestor) FetchSpecific(ctx context.Context, urls []string) ([]model.RawPage, error) {
	pages := make([]model.RawPage, 0, len(urls))

	for _, u := range urls {
		select {
		case <-ctx.Done():
			return pages, fmt.Errorf("ingest: fetch specific: %w", ctx.Err())
		default:
		}

		page, _, err := h.fetchAndExtract(ctx, u)
		if err != nil {
			if h.logger != nil {
				h.logger.Warn().Err(err).Str("url", u).Msg("failed to fetch url")
			}

			continue
		}

		if page.HasContent() {
			pages = append(pages, page)
		}
	}

	return pages, nil
}

// fetchAndExtract fetches rawURL and runs the extraction fallback chain,
// returning the page plus any same-document links discovered for crawl
// expansion.
func (h *HTTPIngestor) fetchAndExtract(ctx context.Context, rawURL string) (model.RawPage, []string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return model.RawPage{}, nil, fmt.Errorf("ingest: parse url: %w", err)
	}

	body, contentType, err := h.fetch(ctx, rawURL)
	if err != nil {
		return model.RawPage{}, nil, err
	}

	var (
		page  model.RawPage
		links []string
	)

	switch {
	case isFeedContentType(contentType):
		page, err = h.extractFeed(parsed, body)
		if err != nil {
			page = extractRawTextPage(parsed, body)
		}
	default:
		page, links = h.extractHTML(parsed, body)
	}

	if len(page.Content) < minAcceptableContent {
		return model.RawPage{}, nil, fmt.Errorf("ingest: content too short: %d chars", len(page.Content))
	}

	return page, links, nil
}

func (h *HTTPIngestor) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("ingest: create request: %w", err)
	}

	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("ingest: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("ingest: http status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !isAcceptableContentType(contentType) {
		return nil, "", fmt.Errorf("ingest: unsupported content type %q", contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, "", fmt.Errorf("ingest: read body: %w", err)
	}

	return body, contentType, nil
}

func (h *HTTPIngestor) extractHTML(parsed *url.URL, body []byte) (model.RawPage, []string) {
	htmlContent := string(body)

	article, err := readability.FromReader(strings.NewReader(htmlContent), parsed)

	var text, title string

	if err == nil {
		text = extractArticleText(article)
		title = article.Title
	}

	jsonLD := extractJSONLD(htmlContent)
	ogTitleVal := extractMetaContent(htmlContent, "og:title")
	ogDescVal := extractMetaContent(htmlContent, "og:description")
	ogLocaleVal := extractMetaContent(htmlContent, "og:locale")

	if text == "" {
		text = extractRawText(htmlContent)
	}

	finalTitle := coalesce(jsonLD.Headline, ogTitleVal, title, extractHTMLTitle(htmlContent))

	page := model.NewRawPage(parsed.String(), truncateRunes(text, maxExtractedRunes)).
		WithTitle(finalTitle).
		WithContentType("text/html")

	if desc := coalesce(jsonLD.Description, ogDescVal); desc != "" {
		page = page.WithMetadata("description", desc)
	}

	lang := detectLanguage(jsonLD.Language, ogLocaleVal, finalTitle+" "+text)
	if lang != "" {
		page = page.WithMetadata("language", lang)
	}

	return page, extractLinks(htmlContent, parsed)
}

func (h *HTTPIngestor) extractFeed(parsed *url.URL, body []byte) (model.RawPage, error) {
	feed, err := h.feedParser.ParseString(string(body))
	if err != nil {
		return model.RawPage{}, fmt.Errorf("ingest: parse feed: %w", err)
	}

	var title, content string

	if len(feed.Items) > 0 {
		item := feed.Items[0]
		title = item.Title
		content = item.Content

		if content == "" {
			content = item.Description
		}
	} else {
		title = feed.Title
		content = feed.Description
	}

	text := extractRawText(content)

	page := model.NewRawPage(parsed.String(), truncateRunes(text, maxExtractedRunes)).
		WithTitle(title).
		WithContentType("application/rss+xml")

	return page, nil
}

func extractRawTextPage(parsed *url.URL, body []byte) model.RawPage {
	htmlContent := string(body)
	title := extractHTMLTitle(htmlContent)
	text := extractRawText(htmlContent)

	return model.NewRawPage(parsed.String(), truncateRunes(text, maxExtractedRunes)).
		WithTitle(title).
		WithContentType("text/html")
}

func extractArticleText(article readability.Article) string {
	return strings.TrimSpace(article.TextContent)
}

func isFeedContentType(contentType string) bool {
	ct := strings.ToLower(contentType)

	return strings.Contains(ct, "application/rss") ||
		strings.Contains(ct, "application/atom") ||
		strings.Contains(ct, "application/xml") ||
		strings.Contains(ct, "text/xml")
}

func isAcceptableContentType(contentType string) bool {
	ct := strings.ToLower(contentType)

	return strings.Contains(ct, "text/html") ||
		strings.Contains(ct, "application/xhtml") ||
		isFeedContentType(contentType)
}

func matchesPatterns(rawURL string, include, exclude []string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	for _, pattern := range exclude {
		if ok, _ := path.Match(pattern, u.Path); ok {
			return false
		}
	}

	if len(include) == 0 {
		return true
	}

	for _, pattern := range include {
		if ok, _ := path.Match(pattern, u.Path); ok {
			return true
		}
	}

	return false
}

func sameDomain(a, b string) bool {
	ua, errA := url.Parse(a)
	ub, errB := url.Parse(b)

	if errA != nil || errB != nil {
		return false
	}

	return normalizeHost(ua.Host) == normalizeHost(ub.Host)
}

func normalizeHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}

func truncateRunes(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}

	return string(runes[:maxRunes])
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}

var (
	_ Ingestor = (*HTTPIngestor)(nil)
)
