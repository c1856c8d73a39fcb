package model

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
)

// ContentHash is the stable SHA-256 digest over a page's content, used to
// key summaries and detect when a re-fetched page has actually changed.
func ContentHash(content string) string {
	h := sha256.Sum256([]byte(content))
	return hex.EncodeToString(h[:])
}

// PromptHash is the stable SHA-256 digest over a prompt template, used to
// invalidate cached summaries when the summarization prompt changes.
func PromptHash(prompt string) string {
	h := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(h[:])
}

// SiteURL derives the scheme://host root of a page URL. Pages with
// unparseable URLs get an empty site URL rather than an error, since the
// caller has already accepted the URL by the time this runs.
func SiteURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}

	return u.Scheme + "://" + u.Host
}
