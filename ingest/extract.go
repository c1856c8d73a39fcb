package ingest

import (
	"net/url"
	"strings"

	"golang.org/x/text/cases"
)

// jsonLDData holds the subset of schema.org Article fields the engine cares
// about, extracted from a page's JSON-LD script tag without a full JSON
// parse (the tag may embed HTML-unsafe characters a strict parser rejects).
type jsonLDData struct {
	Headline      string
	Description   string
	DatePublished string
	Language      string
}

func extractJSONLD(html string) jsonLDData {
	var data jsonLDData

	const (
		scriptStart = `<script type="application/ld+json">`
		scriptEnd   = `</script>`
	)

	idx := strings.Index(html, scriptStart)
	if idx == -1 {
		return data
	}

	start := idx + len(scriptStart)

	end := strings.Index(html[start:], scriptEnd)
	if end == -1 {
		return data
	}

	jsonStr := strings.TrimSpace(html[start : start+end])

	data.Headline = extractJSONField(jsonStr, "headline")
	data.Description = extractJSONField(jsonStr, "description")
	data.DatePublished = extractJSONField(jsonStr, "datePublished")
	data.Language = extractJSONField(jsonStr, "inLanguage")

	return data
}

func extractJSONField(jsonStr, field string) string {
	pattern := `"` + field + `"`

	idx := strings.Index(jsonStr, pattern)
	if idx == -1 {
		return ""
	}

	start := skipFieldPrefix(jsonStr, idx+len(pattern))
	if start == -1 {
		return ""
	}

	end := findStringEnd(jsonStr, start)
	if end == -1 {
		return ""
	}

	return jsonStr[start:end]
}

func skipFieldPrefix(s string, start int) int {
	for start < len(s) && (s[start] == ':' || s[start] == ' ' || s[start] == '\t' || s[start] == '\n') {
		start++
	}

	if start >= len(s) || s[start] != '"' {
		return -1
	}

	return start + 1
}

func findStringEnd(s string, start int) int {
	for i := start; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			continue
		}

		if s[i] == '"' {
			return i
		}
	}

	return -1
}

// extractMetaContent finds a <meta property="..."/name="..." content="..."/>
// tag's content value, trying property= and then name=; a tag that writes
// content= before the property/name attribute is not matched.
func extractMetaContent(html, property string) string {
	patterns := []string{
		`property="` + property + `" content="`,
		`name="` + property + `" content="`,
	}

	for _, prefix := range patterns {
		idx := strings.Index(html, prefix)
		if idx == -1 {
			continue
		}

		start := idx + len(prefix)

		end := strings.Index(html[start:], `"`)
		if end == -1 {
			continue
		}

		return html[start : start+end]
	}

	return ""
}

// extractHTMLTitle extracts the content of the <title> tag.
func extractHTMLTitle(html string) string {
	const (
		titleStart = "<title>"
		titleEnd   = "</title>"
	)

	lowerHTML := strings.ToLower(html)

	startIdx := strings.Index(lowerHTML, titleStart)
	if startIdx == -1 {
		return ""
	}

	startIdx += len(titleStart)
	if startIdx >= len(html) {
		return ""
	}

	endIdx := strings.Index(lowerHTML[startIdx:], titleEnd)
	if endIdx == -1 {
		return ""
	}

	return strings.TrimSpace(html[startIdx : startIdx+endIdx])
}

// extractLinks pulls every href out of an HTML document and resolves it
// against base, deduping and dropping non-http(s) schemes.
func extractLinks(html string, base *url.URL) []string {
	var links []string

	seen := make(map[string]bool)

	for _, href := range findHrefs(html) {
		link := resolveLink(href, base)
		if link == "" || seen[link] {
			continue
		}

		seen[link] = true
		links = append(links, link)
	}

	return links
}

func findHrefs(html string) []string {
	var hrefs []string

	idx := 0

	for {
		hrefStart := strings.Index(html[idx:], `href="`)
		if hrefStart == -1 {
			break
		}

		idx += hrefStart + len(`href="`)

		hrefEnd := strings.Index(html[idx:], `"`)
		if hrefEnd == -1 {
			break
		}

		href := html[idx : idx+hrefEnd]
		if href != "" && href != "#" {
			hrefs = append(hrefs, href)
		}

		idx += hrefEnd + 1
	}

	return hrefs
}

func resolveLink(href string, base *url.URL) string {
	if strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "#") {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}

	resolved.Fragment = ""

	return resolved.String()
}

// extractRawText strips tags and non-content blocks from html, returning
// normalized visible text. This is the last resort in the extraction
// fallback chain, used when readability finds no article content.
func extractRawText(html string) string {
	html = removeTagBlock(html, "script")
	html = removeTagBlock(html, "style")
	html = removeTagBlock(html, "noscript")
	html = removeTagBlock(html, "nav")
	html = removeTagBlock(html, "header")
	html = removeTagBlock(html, "footer")

	var sb strings.Builder

	inTag := false

	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false

			sb.WriteRune(' ')
		case !inTag:
			sb.WriteRune(r)
		}
	}

	return normalizeWhitespace(sb.String())
}

func removeTagBlock(html, tag string) string {
	startTag := "<" + tag
	endTag := "</" + tag + ">"

	result := html

	for {
		lower := strings.ToLower(result)

		startIdx := strings.Index(lower, startTag)
		if startIdx == -1 {
			break
		}

		endIdx := strings.Index(lower[startIdx:], endTag)
		if endIdx == -1 {
			result = result[:startIdx]
			break
		}

		endPos := startIdx + endIdx + len(endTag)
		if endPos > len(result) {
			result = result[:startIdx]
			break
		}

		result = result[:startIdx] + result[endPos:]
	}

	return result
}

func normalizeWhitespace(s string) string {
	var sb strings.Builder

	prevSpace := true

	for _, r := range s {
		isSpace := r == ' ' || r == '\t' || r == '\n' || r == '\r'

		switch {
		case isSpace && !prevSpace:
			sb.WriteRune(' ')
			prevSpace = true
		case !isSpace:
			sb.WriteRune(r)
			prevSpace = false
		}
	}

	return strings.TrimSpace(sb.String())
}

// stopwords is a minimal per-language stopword set, enough to break ties
// between a handful of common source languages without pulling in a full
// language-identification model.
var stopwords = map[string][]string{
	"en": {"the", "and", "of", "to", "is", "in", "for", "with"},
	"es": {"el", "la", "de", "que", "y", "en", "los", "para"},
	"fr": {"le", "la", "de", "et", "les", "des", "pour", "est"},
	"de": {"der", "die", "das", "und", "ist", "den", "mit", "für"},
	"ru": {"и", "в", "не", "на", "что", "это", "как", "для"},
}

var caseFolder = cases.Fold()

// detectLanguage follows the fallback chain JSON-LD inLanguage → OpenGraph
// og:locale → stopword-overlap heuristic over the page text. jsonLDLang and
// ogLocale are trusted verbatim (normalized to their 2-letter prefix); the
// heuristic only runs when both are absent.
func detectLanguage(jsonLDLang, ogLocale, text string) string {
	const minLangCodeLen = 2

	if len(jsonLDLang) >= minLangCodeLen {
		return strings.ToLower(jsonLDLang[:minLangCodeLen])
	}

	if len(ogLocale) >= minLangCodeLen {
		return strings.ToLower(ogLocale[:minLangCodeLen])
	}

	return detectLanguageHeuristic(text)
}

func detectLanguageHeuristic(text string) string {
	folded := caseFolder.String(text)
	words := strings.Fields(folded)

	if len(words) == 0 {
		return ""
	}

	wordSet := make(map[string]int, len(words))
	for _, w := range words {
		wordSet[w]++
	}

	bestLang := ""
	bestScore := 0

	for lang, stops := range stopwords {
		score := 0

		for _, stop := range stops {
			score += wordSet[stop]
		}

		if score > bestScore {
			bestScore = score
			bestLang = lang
		}
	}

	return bestLang
}
