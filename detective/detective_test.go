package detective

import (
	"context"
	"testing"
)

func TestMockWebSearcherReturnsRegisteredResults(t *testing.T) {
	m := NewMockWebSearcher().WithURLs("volunteer coordinator email", "https://a.example/contact", "https://b.example/about")

	results, err := m.Search(context.Background(), "volunteer coordinator email")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(results) != 2 || results[0].URL != "https://a.example/contact" {
		t.Fatalf("results = %+v", results)
	}
}

func TestMockWebSearcherUnknownQueryReturnsEmpty(t *testing.T) {
	m := NewMockWebSearcher()

	results, err := m.Search(context.Background(), "nothing registered")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(results) != 0 {
		t.Fatalf("results = %+v, want empty", results)
	}
}

func TestSearchWithLimitTruncates(t *testing.T) {
	m := NewMockWebSearcher().WithURLs("q", "https://a.example", "https://b.example", "https://c.example")

	results, err := SearchWithLimit(context.Background(), m, "q", 2)
	if err != nil {
		t.Fatalf("SearchWithLimit: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
}

func TestSearchWithLimitDefaultsWhenZero(t *testing.T) {
	urls := make([]string, 0, defaultSearchLimit+5)
	for i := 0; i < defaultSearchLimit+5; i++ {
		urls = append(urls, "https://a.example/"+string(rune('a'+i)))
	}

	m := NewMockWebSearcher().WithURLs("q", urls...)

	results, err := SearchWithLimit(context.Background(), m, "q", 0)
	if err != nil {
		t.Fatalf("SearchWithLimit: %v", err)
	}

	if len(results) != defaultSearchLimit {
		t.Fatalf("results = %d, want default limit %d", len(results), defaultSearchLimit)
	}
}
