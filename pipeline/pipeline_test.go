package pipeline

import (
	"context"
	"testing"

	"github.com/lueurxax/extraction-engine/ai"
	"github.com/lueurxax/extraction-engine/model"
	"github.com/lueurxax/extraction-engine/store/memory"
	"github.com/lueurxax/extraction-engine/summarize"
)

const stubSummaryJSON = `{
	"summary": "Overview of the page.",
	"signals": {"offers": ["a"], "asks": [], "calls_to_action": [], "entities": []},
	"language": "en"
}`

type stubIngestor struct {
	pages []model.RawPage
}

func (s *stubIngestor) Discover(_ context.Context, _ model.DiscoverConfig) ([]model.RawPage, error) {
	return s.pages, nil
}

func (s *stubIngestor) FetchSpecific(_ context.Context, urls []string) ([]model.RawPage, error) {
	var out []model.RawPage

	for _, p := range s.pages {
		for _, u := range urls {
			if p.URL == u {
				out = append(out, p)
			}
		}
	}

	return out, nil
}

func newTestPipeline(t *testing.T) (*Pipeline, *memory.Store) {
	t.Helper()

	client := ai.NewMockClient(8).WithCompleteFunc(func(_ context.Context, _ []ai.Message) (ai.CompletionResult, error) {
		return ai.CompletionResult{Text: stubSummaryJSON}, nil
	})

	s := memory.New()
	summarizer := summarize.New(client, summarize.DefaultConfig())

	return New(s, summarizer, client, nil), s
}

func TestIngestSummarizesAndPersists(t *testing.T) {
	p, s := newTestPipeline(t)

	ingestor := &stubIngestor{pages: []model.RawPage{
		model.NewRawPage("https://example.com/a", "first page content"),
		model.NewRawPage("https://example.com/b", "second page content"),
	}}

	result, err := p.Ingest(context.Background(), model.NewDiscoverConfig("https://example.com/"), ingestor, model.DefaultIngestorConfig())
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if result.PagesCrawled != 2 {
		t.Errorf("PagesCrawled = %d, want 2", result.PagesCrawled)
	}

	if result.PagesSummarized != 2 {
		t.Errorf("PagesSummarized = %d, want 2", result.PagesSummarized)
	}

	summary, found, err := s.GetSummary(context.Background(), "https://example.com/a", model.ContentHash("first page content"))
	if err != nil || !found {
		t.Fatalf("GetSummary() found = %v, err = %v", found, err)
	}

	if len(summary.Embedding) == 0 {
		t.Error("expected embedding to be populated")
	}
}

func TestIngestSkipsUnchangedSummaries(t *testing.T) {
	p, _ := newTestPipeline(t)

	ingestor := &stubIngestor{pages: []model.RawPage{
		model.NewRawPage("https://example.com/a", "stable content"),
	}}

	cfg := model.DefaultIngestorConfig()
	cfg.SkipUnchanged = true

	first, err := p.Ingest(context.Background(), model.NewDiscoverConfig("https://example.com/"), ingestor, cfg)
	if err != nil {
		t.Fatalf("first Ingest() error = %v", err)
	}

	if first.PagesSummarized != 1 {
		t.Fatalf("first PagesSummarized = %d, want 1", first.PagesSummarized)
	}

	second, err := p.Ingest(context.Background(), model.NewDiscoverConfig("https://example.com/"), ingestor, cfg)
	if err != nil {
		t.Fatalf("second Ingest() error = %v", err)
	}

	if second.PagesSkipped != 1 {
		t.Errorf("second PagesSkipped = %d, want 1", second.PagesSkipped)
	}

	if second.PagesSummarized != 0 {
		t.Errorf("second PagesSummarized = %d, want 0", second.PagesSummarized)
	}
}

func TestIngestForceResummarizeBypassesSkip(t *testing.T) {
	p, _ := newTestPipeline(t)

	ingestor := &stubIngestor{pages: []model.RawPage{
		model.NewRawPage("https://example.com/a", "stable content"),
	}}

	cfg := model.DefaultIngestorConfig()
	cfg.SkipUnchanged = true

	if _, err := p.Ingest(context.Background(), model.NewDiscoverConfig("https://example.com/"), ingestor, cfg); err != nil {
		t.Fatalf("first Ingest() error = %v", err)
	}

	cfg.ForceResummarize = true

	second, err := p.Ingest(context.Background(), model.NewDiscoverConfig("https://example.com/"), ingestor, cfg)
	if err != nil {
		t.Fatalf("second Ingest() error = %v", err)
	}

	if second.PagesSummarized != 1 {
		t.Errorf("PagesSummarized = %d, want 1 (force_resummarize should bypass skip)", second.PagesSummarized)
	}
}

func TestIngestDropsEmptyContentPages(t *testing.T) {
	p, _ := newTestPipeline(t)

	ingestor := &stubIngestor{pages: []model.RawPage{
		model.NewRawPage("https://example.com/empty", "   "),
		model.NewRawPage("https://example.com/a", "real content"),
	}}

	result, err := p.Ingest(context.Background(), model.NewDiscoverConfig("https://example.com/"), ingestor, model.DefaultIngestorConfig())
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if result.PagesCrawled != 1 {
		t.Errorf("PagesCrawled = %d, want 1 (empty-content page should be dropped)", result.PagesCrawled)
	}
}

func TestIngestURLsUsesFetchSpecific(t *testing.T) {
	p, _ := newTestPipeline(t)

	ingestor := &stubIngestor{pages: []model.RawPage{
		model.NewRawPage("https://example.com/a", "content a"),
		model.NewRawPage("https://example.com/b", "content b"),
	}}

	result, err := p.IngestURLs(context.Background(), []string{"https://example.com/a"}, ingestor, model.DefaultIngestorConfig())
	if err != nil {
		t.Fatalf("IngestURLs() error = %v", err)
	}

	if result.PagesCrawled != 1 {
		t.Errorf("PagesCrawled = %d, want 1", result.PagesCrawled)
	}
}
