package summarize

import (
	"context"
	"testing"

	"github.com/lueurxax/extraction-engine/ai"
	"github.com/lueurxax/extraction-engine/model"
)

const stubSummaryJSON = `{
	"summary": "A volunteer organization offering tutoring and seeking donations.",
	"signals": {
		"offers": ["tutoring"],
		"asks": ["donations"],
		"calls_to_action": ["sign up"],
		"entities": ["Example Org"]
	},
	"language": "en"
}`

func TestSummarizeParsesResponse(t *testing.T) {
	client := ai.NewMockClient(8).WithCompleteFunc(func(_ context.Context, _ []ai.Message) (ai.CompletionResult, error) {
		return ai.CompletionResult{Text: stubSummaryJSON}, nil
	})

	s := New(client, DefaultConfig())

	page := model.CachedPage{URL: "https://example.com/a", SiteURL: "https://example.com", Content: "some content", ContentHash: "abc123"}

	summary, err := s.Summarize(context.Background(), page)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if summary.URL != page.URL {
		t.Errorf("URL = %q, want %q", summary.URL, page.URL)
	}

	if summary.ContentHash != page.ContentHash {
		t.Errorf("ContentHash = %q, want %q", summary.ContentHash, page.ContentHash)
	}

	if summary.PromptHash != PromptHash() {
		t.Errorf("PromptHash = %q, want %q", summary.PromptHash, PromptHash())
	}

	if len(summary.Signals.Offers) != 1 || summary.Signals.Offers[0] != "tutoring" {
		t.Errorf("Signals.Offers = %v, want [tutoring]", summary.Signals.Offers)
	}

	if summary.Language != "en" {
		t.Errorf("Language = %q, want %q", summary.Language, "en")
	}
}

func TestSummarizeTruncatesLongContent(t *testing.T) {
	var capturedPrompt string

	client := ai.NewMockClient(8).WithCompleteFunc(func(_ context.Context, msgs []ai.Message) (ai.CompletionResult, error) {
		capturedPrompt = msgs[len(msgs)-1].Content
		return ai.CompletionResult{Text: stubSummaryJSON}, nil
	})

	cfg := Config{MaxRetries: 2, MaxContentChars: 10}
	s := New(client, cfg)

	longContent := "0123456789abcdefghij"
	page := model.CachedPage{URL: "https://example.com/a", Content: longContent}

	if _, err := s.Summarize(context.Background(), page); err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if len(capturedPrompt) == 0 {
		t.Fatal("expected prompt to be captured")
	}

	if containsFull(capturedPrompt, longContent) {
		t.Error("expected content to be truncated in prompt")
	}
}

func TestPromptHashIsStable(t *testing.T) {
	if PromptHash() != PromptHash() {
		t.Error("PromptHash() should be deterministic")
	}

	if len(PromptHash()) != 64 {
		t.Errorf("PromptHash() length = %d, want 64", len(PromptHash()))
	}
}

func containsFull(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}

	return false
}
