package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/lueurxax/extraction-engine/model"
)

func TestNewsletterIngestorDiscoverDrainsQueue(t *testing.T) {
	n := NewNewsletterIngestor(nil)
	n.Enqueue(EmailMessage{ID: "1", Subject: "First", TextBody: "hello there", SubscriptionID: "sub-a"})
	n.Enqueue(EmailMessage{ID: "2", Subject: "Second", TextBody: "world again", SubscriptionID: "sub-a"})

	pages, err := n.Discover(context.Background(), model.NewDiscoverConfig(""))
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	if len(pages) != 2 {
		t.Fatalf("Discover() returned %d pages, want 2", len(pages))
	}

	if pages[0].Title != "First" || pages[1].Title != "Second" {
		t.Errorf("Discover() pages out of order: %+v", pages)
	}

	again, err := n.Discover(context.Background(), model.NewDiscoverConfig(""))
	if err != nil {
		t.Fatalf("second Discover() error = %v", err)
	}

	if len(again) != 0 {
		t.Errorf("second Discover() returned %d pages, want 0 (queue should be drained)", len(again))
	}
}

func TestNewsletterIngestorDiscoverRespectsLimit(t *testing.T) {
	n := NewNewsletterIngestor(nil)
	for i := 0; i < 5; i++ {
		n.Enqueue(EmailMessage{ID: string(rune('a' + i)), TextBody: "body"})
	}

	pages, err := n.Discover(context.Background(), model.NewDiscoverConfig("").WithLimit(2))
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	if len(pages) != 2 {
		t.Fatalf("Discover() returned %d pages, want 2", len(pages))
	}
}

func TestNewsletterIngestorFetchSpecificByID(t *testing.T) {
	n := NewNewsletterIngestor(nil)
	n.Enqueue(EmailMessage{ID: "msg-1", Subject: "Digest", TextBody: "content", SubscriptionID: "sub-b"})

	pages, err := n.FetchSpecific(context.Background(), []string{"msg-1", "missing"})
	if err != nil {
		t.Fatalf("FetchSpecific() error = %v", err)
	}

	if len(pages) != 1 {
		t.Fatalf("FetchSpecific() returned %d pages, want 1", len(pages))
	}

	if !strings.HasPrefix(pages[0].URL, "newsletter://sub-b/") {
		t.Errorf("URL = %q, want newsletter://sub-b/ prefix", pages[0].URL)
	}
}

func TestMessageToPageFallsBackToHTML(t *testing.T) {
	msg := EmailMessage{
		ID:             "1",
		SubscriptionID: "sub-c",
		HTMLBody:       "<p>Hello <b>World</b></p>",
	}

	page := messageToPage(msg)

	if !strings.Contains(page.Content, "Hello") || !strings.Contains(page.Content, "World") {
		t.Errorf("Content = %q, expected to contain Hello and World", page.Content)
	}
}

func TestExtractSenderDomain(t *testing.T) {
	cases := map[string]string{
		"Newsletter <hello@example.com>": "example.com",
		"hello@example.com":              "example.com",
		"Bad Format":                     "",
	}

	for input, want := range cases {
		if got := ExtractSenderDomain(input); got != want {
			t.Errorf("ExtractSenderDomain(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSenderDomainMatches(t *testing.T) {
	if !SenderDomainMatches("mail.example.com", "example.com") {
		t.Error("expected subdomain to match")
	}

	if !SenderDomainMatches("example.com", "example.com") {
		t.Error("expected exact match")
	}

	if SenderDomainMatches("notexample.com", "example.com") {
		t.Error("expected no match for unrelated domain")
	}
}

func TestExtractConfirmationLink(t *testing.T) {
	html := `<p>Click <a href="https://example.com/confirm?token=abc">here to confirm your subscription</a>.</p>
	<p><a href="https://example.com/unrelated">unrelated link</a></p>`

	got := ExtractConfirmationLink(html)
	if got != "https://example.com/confirm?token=abc" {
		t.Errorf("ExtractConfirmationLink() = %q, want confirm link", got)
	}
}

func TestExtractConfirmationLinkNoMatch(t *testing.T) {
	html := `<p><a href="https://example.com/unrelated">click here</a></p>`

	if got := ExtractConfirmationLink(html); got != "" {
		t.Errorf("ExtractConfirmationLink() = %q, want empty", got)
	}
}

func TestHTMLToTextStripsTrackingPixelsAndFooter(t *testing.T) {
	html := `<html><body>
	<p>Main content here.</p>
	<img src="https://track.example.com/t.gif" width="1" height="1">
	<div>You are receiving this email because you subscribed.
	<a href="https://example.com/unsub">Unsubscribe from this list</a></div>
	</body></html>`

	text := htmlToText(html)

	if !strings.Contains(text, "Main content here.") {
		t.Errorf("expected main content preserved, got %q", text)
	}

	if strings.Contains(text, "Unsubscribe") || strings.Contains(text, "receiving this email") {
		t.Errorf("expected footer stripped, got %q", text)
	}
}
