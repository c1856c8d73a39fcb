// Package recall implements hybrid semantic/keyword ranking over cached
// summaries: deciding per-query how much weight keyword matching deserves,
// scoring each side independently, and fusing the two rankings.
package recall

import (
	"sort"
	"strings"
	"unicode"

	"github.com/lueurxax/extraction-engine/model"
	"github.com/lueurxax/extraction-engine/store"
)

const (
	defaultLimit              = 50
	defaultSemanticWeight     = 0.6
	defaultSpecificTermBoost  = 1.5
	maxBoostedKeywordWeight   = 0.8
	minKeywordTermLen         = 2
	rrfK                      = 60.0
)

// Config tunes a hybrid recall pass.
type Config struct {
	Limit              int
	Hybrid             bool
	SemanticWeight     float32
	SpecificTermBoost  float32
}

// DefaultConfig matches the defaults of the recall engine this package ports.
func DefaultConfig() Config {
	return Config{
		Limit:             defaultLimit,
		Hybrid:            true,
		SemanticWeight:    defaultSemanticWeight,
		SpecificTermBoost: defaultSpecificTermBoost,
	}
}

// Scored pairs a summary with its ranking score.
type Scored struct {
	Score   float32
	Summary model.Summary
}

// HasSpecificTerms reports whether query contains tokens that keyword search
// handles better than semantic search: quoted phrases, digits, proper nouns
// past the first word, or kebab/snake-case identifiers.
func HasSpecificTerms(query string) bool {
	if strings.Contains(query, `"`) {
		return true
	}

	words := strings.Fields(query)

	for _, w := range words {
		if strings.ContainsAny(w, "0123456789") {
			return true
		}

		if strings.ContainsAny(w, "-_") {
			return true
		}
	}

	for _, w := range words[min(1, len(words)):] {
		r := []rune(w)
		if len(r) > 0 && unicode.IsUpper(r[0]) {
			return true
		}
	}

	return false
}

func min(a, b int) int {
	if a < b {
		return a
	}

	return b
}

// CalculateWeights returns (semanticWeight, keywordWeight) for query under
// cfg. Hybrid=false pins to semantic-only; specific terms boost the keyword
// share up to maxBoostedKeywordWeight.
func CalculateWeights(query string, cfg Config) (float32, float32) {
	if !cfg.Hybrid {
		return 1.0, 0.0
	}

	baseSemantic := cfg.SemanticWeight
	baseKeyword := 1.0 - cfg.SemanticWeight

	if !HasSpecificTerms(query) {
		return baseSemantic, baseKeyword
	}

	boostedKeyword := baseKeyword * cfg.SpecificTermBoost
	if boostedKeyword > maxBoostedKeywordWeight {
		boostedKeyword = maxBoostedKeywordWeight
	}

	return 1.0 - boostedKeyword, boostedKeyword
}

// RankByEmbedding scores summaries by cosine similarity to queryEmbedding,
// skipping summaries with no embedding, sorted descending and truncated to
// limit.
func RankByEmbedding(queryEmbedding []float32, summaries []model.Summary, limit int) []Scored {
	scored := make([]Scored, 0, len(summaries))

	for _, s := range summaries {
		if len(s.Embedding) == 0 {
			continue
		}

		scored = append(scored, Scored{Score: store.CosineSimilarity(queryEmbedding, s.Embedding), Summary: s})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}

	return scored
}

// KeywordMatch returns the fraction of query terms longer than
// minKeywordTermLen that appear as a substring of text, case-insensitively.
func KeywordMatch(query, text string) float32 {
	terms := keywordTerms(query)
	if len(terms) == 0 {
		return 0
	}

	lowerText := strings.ToLower(text)

	matched := 0

	for _, term := range terms {
		if strings.Contains(lowerText, term) {
			matched++
		}
	}

	return float32(matched) / float32(len(terms))
}

func keywordTerms(query string) []string {
	var terms []string

	for _, w := range strings.Fields(strings.ToLower(query)) {
		if len(w) > minKeywordTermLen {
			terms = append(terms, w)
		}
	}

	return terms
}

// RankByKeyword scores summaries by averaging the keyword match against the
// summary text and against its signal text, dropping zero scores, sorted
// descending and truncated to limit.
func RankByKeyword(query string, summaries []model.Summary, limit int) []Scored {
	scored := make([]Scored, 0, len(summaries))

	for _, s := range summaries {
		textScore := KeywordMatch(query, s.Text)

		var signalParts []string
		for _, list := range [][]string{s.Signals.Offers, s.Signals.Asks, s.Signals.CallsToAction, s.Signals.Entities} {
			signalParts = append(signalParts, list...)
		}

		signalScore := KeywordMatch(query, strings.Join(signalParts, " "))
		score := (textScore + signalScore) / 2.0

		if score <= 0 {
			continue
		}

		scored = append(scored, Scored{Score: score, Summary: s})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}

	return scored
}

// HybridRank fuses semantic and keyword rankings with Reciprocal Rank Fusion,
// keyed by URL, truncated to limit.
func HybridRank(semantic, keyword []Scored, semanticWeight, keywordWeight float32, limit int) []model.Summary {
	scores := make(map[string]float32)
	summaries := make(map[string]model.Summary)
	order := make([]string, 0, len(semantic)+len(keyword))

	accumulate := func(results []Scored, weight float32) {
		for rank, r := range results {
			if _, seen := scores[r.Summary.URL]; !seen {
				order = append(order, r.Summary.URL)
				summaries[r.Summary.URL] = r.Summary
			}

			scores[r.Summary.URL] += weight / (rrfK + float32(rank) + 1.0)
		}
	}

	accumulate(semantic, semanticWeight)
	accumulate(keyword, keywordWeight)

	sort.SliceStable(order, func(i, j int) bool { return scores[order[i]] > scores[order[j]] })

	if limit > 0 && len(order) > limit {
		order = order[:limit]
	}

	out := make([]model.Summary, 0, len(order))
	for _, url := range order {
		out = append(out, summaries[url])
	}

	return out
}

// HybridRecall runs the full pipeline: compute weights from the query,
// over-fetch both rankings to 2x the limit, then fuse.
func HybridRecall(query string, queryEmbedding []float32, summaries []model.Summary, cfg Config) []model.Summary {
	semanticWeight, keywordWeight := CalculateWeights(query, cfg)

	semantic := RankByEmbedding(queryEmbedding, summaries, cfg.Limit*2)
	keyword := RankByKeyword(query, summaries, cfg.Limit*2)

	return HybridRank(semantic, keyword, semanticWeight, keywordWeight, cfg.Limit)
}
