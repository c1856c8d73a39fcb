package ingest

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/lueurxax/extraction-engine/model"
	"github.com/lueurxax/extraction-engine/validator"
)

type stubIngestor struct {
	discoverPages []model.RawPage
	discoverErr   error
	fetchPages    map[string]model.RawPage
}

func (s *stubIngestor) Discover(_ context.Context, _ model.DiscoverConfig) ([]model.RawPage, error) {
	return s.discoverPages, s.discoverErr
}

func (s *stubIngestor) FetchSpecific(_ context.Context, urls []string) ([]model.RawPage, error) {
	pages := make([]model.RawPage, 0, len(urls))

	for _, u := range urls {
		if p, ok := s.fetchPages[u]; ok {
			pages = append(pages, p)
		}
	}

	return pages, nil
}

func publicResolver(_ context.Context, _ string) ([]net.IP, error) {
	return []net.IP{net.ParseIP("93.184.216.34")}, nil
}

func privateResolver(_ context.Context, _ string) ([]net.IP, error) {
	return []net.IP{net.ParseIP("10.0.0.5")}, nil
}

func TestValidatedIngestorDiscoverRejectsBadStartURL(t *testing.T) {
	inner := &stubIngestor{}
	v := validator.New().WithResolver(publicResolver)
	vi := NewValidatedIngestor(inner, v, nil)

	_, err := vi.Discover(context.Background(), model.NewDiscoverConfig("http://localhost/admin"))
	if err == nil {
		t.Fatal("expected error for blocked start url")
	}
}

func TestValidatedIngestorDiscoverFiltersPostFetchRedirects(t *testing.T) {
	inner := &stubIngestor{
		discoverPages: []model.RawPage{
			model.NewRawPage("https://good.example.com/page", "content"),
			model.NewRawPage("https://evil.example.com/page", "content"),
		},
	}

	v := validator.New().
		WithResolver(func(_ context.Context, host string) ([]net.IP, error) {
			if host == "evil.example.com" {
				return []net.IP{net.ParseIP("10.0.0.1")}, nil
			}

			return []net.IP{net.ParseIP("93.184.216.34")}, nil
		})

	vi := NewValidatedIngestor(inner, v, nil)

	pages, err := vi.Discover(context.Background(), model.NewDiscoverConfig("https://good.example.com/"))
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	if len(pages) != 1 || pages[0].URL != "https://good.example.com/page" {
		t.Errorf("Discover() = %+v, want only the good.example.com page", pages)
	}
}

func TestValidatedIngestorFetchSpecificDropsBlockedURLs(t *testing.T) {
	inner := &stubIngestor{
		fetchPages: map[string]model.RawPage{
			"https://good.example.com/a": model.NewRawPage("https://good.example.com/a", "content"),
		},
	}

	v := validator.New().WithResolver(publicResolver)
	vi := NewValidatedIngestor(inner, v, nil)

	pages, err := vi.FetchSpecific(context.Background(), []string{
		"https://good.example.com/a",
		"http://localhost/secret",
	})
	if err != nil {
		t.Fatalf("FetchSpecific() error = %v", err)
	}

	if len(pages) != 1 || pages[0].URL != "https://good.example.com/a" {
		t.Errorf("FetchSpecific() = %+v, want only the allowed page", pages)
	}
}

func TestValidatedIngestorFetchSpecificAllBlockedReturnsEmpty(t *testing.T) {
	inner := &stubIngestor{fetchPages: map[string]model.RawPage{}}
	v := validator.New().WithResolver(privateResolver)
	vi := NewValidatedIngestor(inner, v, nil)

	pages, err := vi.FetchSpecific(context.Background(), []string{"https://internal.example.com/a"})
	if err != nil {
		t.Fatalf("FetchSpecific() error = %v", err)
	}

	if len(pages) != 0 {
		t.Errorf("FetchSpecific() = %+v, want empty", pages)
	}
}

func TestFetchOneReturnsErrorWhenNotFound(t *testing.T) {
	inner := &stubIngestor{fetchPages: map[string]model.RawPage{}}

	_, err := FetchOne(context.Background(), inner, "https://example.com/missing")
	if !errors.Is(err, ErrDiscoveryFailed) {
		t.Errorf("FetchOne() error = %v, want ErrDiscoveryFailed", err)
	}
}

func TestFetchOneReturnsPage(t *testing.T) {
	inner := &stubIngestor{
		fetchPages: map[string]model.RawPage{
			"https://example.com/a": model.NewRawPage("https://example.com/a", "content"),
		},
	}

	page, err := FetchOne(context.Background(), inner, "https://example.com/a")
	if err != nil {
		t.Fatalf("FetchOne() error = %v", err)
	}

	if page.URL != "https://example.com/a" {
		t.Errorf("FetchOne() URL = %q", page.URL)
	}
}
