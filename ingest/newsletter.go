package ingest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/extraction-engine/model"
)

// EmailMessage is a pre-fetched newsletter message handed to a
// NewsletterIngestor by the host application's mail intake (IMAP poller,
// webhook receiver, etc). The engine never fetches email itself.
type EmailMessage struct {
	ID             string
	From           string
	Subject        string
	HTMLBody       string
	TextBody       string
	SubscriptionID string
	ReceivedAt     time.Time
}

// NewsletterIngestor turns pre-fetched EmailMessages into RawPages. Unlike
// HTTPIngestor and FeedIngestor it has no network access of its own:
// messages are pushed in via Enqueue, and Discover/FetchSpecific drain that
// queue rather than performing any fetch.
type NewsletterIngestor struct {
	mu     sync.Mutex
	byID   map[string]EmailMessage
	order  []string
	logger *zerolog.Logger
}

// NewNewsletterIngestor returns an empty NewsletterIngestor.
func NewNewsletterIngestor(logger *zerolog.Logger) *NewsletterIngestor {
	return &NewsletterIngestor{byID: make(map[string]EmailMessage), logger: logger}
}

// Enqueue registers a message for later discovery/fetch.
func (n *NewsletterIngestor) Enqueue(msg EmailMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.byID[msg.ID]; !exists {
		n.order = append(n.order, msg.ID)
	}

	n.byID[msg.ID] = msg
}

// Discover drains up to config.Limit queued messages in enqueue order.
// config.URL, MaxDepth and the glob patterns don't apply to a message queue
// and are ignored.
func (n *NewsletterIngestor) Discover(_ context.Context, config model.DiscoverConfig) ([]model.RawPage, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	limit := config.Limit
	if limit <= 0 || limit > len(n.order) {
		limit = len(n.order)
	}

	pages := make([]model.RawPage, 0, limit)

	for i := 0; i < limit; i++ {
		id := n.order[i]
		pages = append(pages, messageToPage(n.byID[id]))
		delete(n.byID, id)
	}

	n.order = n.order[limit:]

	return pages, nil
}

// FetchSpecific looks messages up by ID (passed as the "urls" slice,
// matching the Ingestor contract's shape even though these aren't URLs).
// IDs not currently queued are silently skipped.
func (n *NewsletterIngestor) FetchSpecific(_ context.Context, ids []string) ([]model.RawPage, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	pages := make([]model.RawPage, 0, len(ids))

	for _, id := range ids {
		msg, ok := n.byID[id]
		if !ok {
			continue
		}

		pages = append(pages, messageToPage(msg))
		delete(n.byID, id)
		n.removeFromOrder(id)
	}

	return pages, nil
}

func (n *NewsletterIngestor) removeFromOrder(id string) {
	for i, existing := range n.order {
		if existing == id {
			n.order = append(n.order[:i], n.order[i+1:]...)
			return
		}
	}
}

func messageToPage(msg EmailMessage) model.RawPage {
	content := msg.TextBody
	if content == "" {
		content = htmlToText(msg.HTMLBody)
	}

	siteURL := "newsletter://" + msg.SubscriptionID

	page := model.NewRawPage(siteURL+"/"+msg.ID, content).
		WithTitle(msg.Subject).
		WithContentType("text/plain").
		WithMetadata("sender", msg.From).
		WithMetadata("subscription_id", msg.SubscriptionID)

	if !msg.ReceivedAt.IsZero() {
		page.FetchedAt = msg.ReceivedAt
	}

	return page
}

// ExtractSenderDomain pulls the domain out of a From header, handling both
// "Name <user@domain>" and bare "user@domain" forms.
func ExtractSenderDomain(from string) string {
	email := from

	if start := strings.Index(from, "<"); start != -1 {
		end := strings.Index(from, ">")
		if end == -1 || end < start {
			return ""
		}

		email = from[start+1 : end]
	}

	parts := strings.SplitN(strings.TrimSpace(email), "@", 2)
	if len(parts) != 2 {
		return ""
	}

	return strings.ToLower(parts[1])
}

// SenderDomainMatches reports whether senderDomain is expectedDomain or one
// of its subdomains.
func SenderDomainMatches(senderDomain, expectedDomain string) bool {
	sender := strings.ToLower(senderDomain)
	expected := strings.ToLower(expectedDomain)

	return sender == expected || strings.HasSuffix(sender, "."+expected)
}

// confirmationKeywords are phrases that, found near an anchor's href,
// mark it as a subscription-confirmation link.
var confirmationKeywords = []string{
	"confirm", "verify", "activate",
	"yes, subscribe", "complete your subscription", "confirm subscription",
}

// ExtractConfirmationLink scans an HTML email body for the first anchor
// whose surrounding text suggests it confirms a subscription, returning its
// href, or "" if none match.
func ExtractConfirmationLink(html string) string {
	lower := strings.ToLower(html)

	pos := 0

	for {
		hrefStart := strings.Index(lower[pos:], `href="`)
		if hrefStart == -1 {
			return ""
		}

		absStart := pos + hrefStart + len(`href="`)

		hrefEnd := strings.Index(html[absStart:], `"`)
		if hrefEnd == -1 {
			return ""
		}

		href := html[absStart : absStart+hrefEnd]

		contextStart := max(0, pos+hrefStart-100)
		contextEnd := min(len(lower), absStart+hrefEnd+100)
		context := lower[contextStart:contextEnd]

		for _, kw := range confirmationKeywords {
			if strings.Contains(context, kw) && strings.HasPrefix(href, "http") {
				return href
			}
		}

		pos = absStart + hrefEnd
	}
}

// htmlToText reduces a newsletter HTML body to plain text: strips
// style/script blocks, tracking pixels, and common unsubscribe footers,
// converts block-level tags to line breaks, then strips remaining markup.
func htmlToText(html string) string {
	html = removeTagBlock(html, "style")
	html = removeTagBlock(html, "script")
	html = removeTrackingPixels(html)
	html = removeUnsubscribeFooter(html)

	for _, tag := range []string{"</p>", "</div>", "</tr>", "<br>", "<br/>", "<br />"} {
		html = strings.ReplaceAll(html, tag, "\n")
	}

	text := extractRawText(html)

	return decodeEntities(text)
}

func removeTrackingPixels(html string) string {
	lower := strings.ToLower(html)

	var sb strings.Builder

	pos := 0

	for pos < len(html) {
		if strings.HasPrefix(lower[pos:], "<img") {
			end := strings.Index(html[pos:], ">")
			if end != -1 {
				tag := lower[pos : pos+end+1]

				isTracking := strings.Contains(tag, `width="1"`) ||
					strings.Contains(tag, `height="1"`) ||
					strings.Contains(tag, "tracking") ||
					strings.Contains(tag, "beacon") ||
					strings.Contains(tag, "pixel")

				if isTracking {
					pos += end + 1
					continue
				}
			}
		}

		sb.WriteByte(html[pos])
		pos++
	}

	return sb.String()
}

var unsubscribeFooterMarkers = []string{
	"unsubscribe from this list",
	"update your preferences",
	"you are receiving this email because",
	"to stop receiving these emails",
	"click here to unsubscribe",
	"manage your subscription",
}

func removeUnsubscribeFooter(html string) string {
	lower := strings.ToLower(html)

	for _, marker := range unsubscribeFooterMarkers {
		pos := strings.Index(lower, marker)
		if pos == -1 {
			continue
		}

		before := html[:pos]
		if idx := strings.LastIndex(before, "<tr"); idx != -1 {
			return html[:idx]
		}

		if idx := strings.LastIndex(before, "<div"); idx != -1 {
			return html[:idx]
		}

		return before
	}

	return html
}

var entityReplacer = strings.NewReplacer(
	"&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#39;", "'", "&nbsp;", " ",
)

func decodeEntities(s string) string {
	return entityReplacer.Replace(s)
}

var _ Ingestor = (*NewsletterIngestor)(nil)
