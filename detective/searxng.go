package detective

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	searxngDefaultTimeout    = 30 * time.Second
	searxngSearchPath        = "/search"
	searxngResponseFormat    = "json"
	searxngCategoriesGeneral = "general"
	defaultSearxngRateLimit  = 1 // requests per second
	defaultSearxngRateBurst  = 2
)

var errSearxngUnexpectedStatus = errors.New("detective: searxng unexpected status")

// SearxngConfig configures a SearxngSearcher.
type SearxngConfig struct {
	BaseURL string
	Timeout time.Duration
	Engines []string // optional: limit to specific engines, e.g. ["google", "duckduckgo"]
	// RateLimit and RateBurst tune the client-side rate limiter protecting
	// the configured SearxNG instance from being hammered by gap-fill
	// retries; both default if unset.
	RateLimit float64
	RateBurst int
}

// SearxngSearcher is a WebSearcher backed by a self-hosted SearxNG
// metasearch instance.
type SearxngSearcher struct {
	baseURL     string
	httpClient  *http.Client
	engines     []string
	rateLimiter *rate.Limiter
}

// NewSearxngSearcher constructs a SearxngSearcher from cfg.
func NewSearxngSearcher(cfg SearxngConfig) *SearxngSearcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = searxngDefaultTimeout
	}

	limit := cfg.RateLimit
	if limit <= 0 {
		limit = defaultSearxngRateLimit
	}

	burst := cfg.RateBurst
	if burst <= 0 {
		burst = defaultSearxngRateBurst
	}

	return &SearxngSearcher{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient:  &http.Client{Timeout: timeout},
		engines:     cfg.Engines,
		rateLimiter: rate.NewLimiter(rate.Limit(limit), burst),
	}
}

// Search implements WebSearcher.
func (s *SearxngSearcher) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("detective: searxng rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.buildSearchURL(query), nil)
	if err != nil {
		return nil, fmt.Errorf("detective: build searxng request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detective: searxng request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", errSearxngUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("detective: read searxng response: %w", err)
	}

	return parseSearxngResponse(body)
}

func (s *SearxngSearcher) buildSearchURL(query string) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", searxngResponseFormat)
	params.Set("categories", searxngCategoriesGeneral)

	if len(s.engines) > 0 {
		params.Set("engines", strings.Join(s.engines, ","))
	}

	return s.baseURL + searxngSearchPath + "?" + params.Encode()
}

type searxngResponse struct {
	Results []searxngResult `json:"results"`
}

type searxngResult struct {
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Score   float32 `json:"score"`
}

func parseSearxngResponse(body []byte) ([]SearchResult, error) {
	var resp searxngResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("detective: parse searxng json: %w", err)
	}

	results := make([]SearchResult, 0, len(resp.Results))

	for _, item := range resp.Results {
		if item.URL == "" {
			continue
		}

		results = append(results, SearchResult{
			URL:     item.URL,
			Title:   item.Title,
			Snippet: item.Content,
			Score:   item.Score,
		})
	}

	return results, nil
}

var _ WebSearcher = (*SearxngSearcher)(nil)
