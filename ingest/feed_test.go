package ingest

import (
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
)

func TestItemToPageUsesContentOverDescription(t *testing.T) {
	item := &gofeed.Item{
		Title:       "Entry One",
		Link:        "https://example.com/entry-1",
		Content:     "<p>full content</p>",
		Description: "short description",
	}

	page := itemToPage(item)

	if page.Title != "Entry One" {
		t.Errorf("Title = %q, want %q", page.Title, "Entry One")
	}

	if page.Content != "full content" {
		t.Errorf("Content = %q, want %q", page.Content, "full content")
	}
}

func TestItemToPageFallsBackToDescription(t *testing.T) {
	item := &gofeed.Item{
		Title:       "Entry Two",
		Link:        "https://example.com/entry-2",
		Description: "only a description",
	}

	page := itemToPage(item)

	if page.Content != "only a description" {
		t.Errorf("Content = %q, want %q", page.Content, "only a description")
	}
}

func TestItemToPageCapturesAuthor(t *testing.T) {
	item := &gofeed.Item{
		Title:   "Entry Three",
		Link:    "https://example.com/entry-3",
		Content: "body",
		Authors: []*gofeed.Person{{Name: "Jane Doe"}},
	}

	page := itemToPage(item)

	if page.Metadata["author"] != "Jane Doe" {
		t.Errorf("author metadata = %q, want %q", page.Metadata["author"], "Jane Doe")
	}
}

func TestResolvePublishedDatePrefersParsed(t *testing.T) {
	parsed := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	item := &gofeed.Item{PublishedParsed: &parsed, Published: "garbage"}

	if got := resolvePublishedDate(item); !got.Equal(parsed) {
		t.Errorf("resolvePublishedDate() = %v, want %v", got, parsed)
	}
}

func TestResolvePublishedDateParsesLooseFormat(t *testing.T) {
	item := &gofeed.Item{Published: "March 1, 2024"}

	got := resolvePublishedDate(item)
	if got.Year() != 2024 || got.Month() != time.March {
		t.Errorf("resolvePublishedDate() = %v, want March 2024", got)
	}
}

func TestResolvePublishedDateFallsBackToNow(t *testing.T) {
	item := &gofeed.Item{}

	before := time.Now().UTC()
	got := resolvePublishedDate(item)

	if got.Before(before.Add(-time.Minute)) {
		t.Errorf("resolvePublishedDate() = %v, expected near now", got)
	}
}
