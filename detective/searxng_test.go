package detective

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearxngSearcherParsesResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "food bank volunteer" {
			t.Fatalf("query = %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"results": [
				{"url": "https://a.example/food", "title": "Food Bank", "content": "snippet", "score": 0.9},
				{"url": "", "title": "dropped, no url"}
			]
		}`))
	}))
	defer server.Close()

	searcher := NewSearxngSearcher(SearxngConfig{BaseURL: server.URL, RateLimit: 1000, RateBurst: 10})

	results, err := searcher.Search(context.Background(), "food bank volunteer")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(results) != 1 || results[0].URL != "https://a.example/food" || results[0].Title != "Food Bank" {
		t.Fatalf("results = %+v", results)
	}
}

func TestSearxngSearcherErrorsOnNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	searcher := NewSearxngSearcher(SearxngConfig{BaseURL: server.URL, RateLimit: 1000, RateBurst: 10})

	if _, err := searcher.Search(context.Background(), "q"); err == nil {
		t.Fatal("expected error on 500 response")
	}
}
