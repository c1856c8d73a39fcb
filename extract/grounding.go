// Package extract turns recalled pages into an evidence-grounded Extraction:
// classifying the query, partitioning recalled pages into distinct items,
// extracting claims per partition through the AI façade, then grading,
// filtering, and reconciling the claims into a final result.
package extract

import (
	"sort"
	"strings"
	"time"

	"github.com/lueurxax/extraction-engine/model"
)

const (
	defaultVerifiedThreshold = 2
	topicKeyWords            = 3
)

// Config tunes grounding calculation and claim filtering.
type Config struct {
	// StrictMode discards ASSUMED claims instead of downgrading the grade.
	StrictMode bool
	// VerifiedThreshold is the minimum source count for a VERIFIED grade.
	VerifiedThreshold int
}

// DefaultConfig matches the grounding defaults of the engine this package ports.
func DefaultConfig() Config {
	return Config{StrictMode: true, VerifiedThreshold: defaultVerifiedThreshold}
}

// CalculateGrounding derives the overall GroundingGrade for an extraction,
// in precedence order: any conflict forces CONFLICTED; an ASSUMED claim in
// non-strict mode forces INFERRED; any INFERRED claim forces INFERRED;
// otherwise VERIFIED if enough distinct sources contributed, else
// SINGLE_SOURCE.
func CalculateGrounding(sources []model.Source, conflicts []model.Conflict, claims []model.Claim, cfg Config) model.GroundingGrade {
	if len(conflicts) > 0 {
		return model.GradeConflicted
	}

	hasAssumed := false
	hasInferred := false

	for _, c := range claims {
		switch c.Grounding {
		case model.GroundingAssumed:
			hasAssumed = true
		case model.GroundingInferred:
			hasInferred = true
		}
	}

	if hasAssumed && !cfg.StrictMode {
		return model.GradeInferred
	}

	if hasInferred {
		return model.GradeInferred
	}

	if len(sources) >= cfg.VerifiedThreshold {
		return model.GradeVerified
	}

	return model.GradeSingleSource
}

// FilterClaims drops ASSUMED claims when cfg.StrictMode is set; otherwise it
// returns claims unchanged.
func FilterClaims(claims []model.Claim, cfg Config) []model.Claim {
	if !cfg.StrictMode {
		return claims
	}

	filtered := make([]model.Claim, 0, len(claims))

	for _, c := range claims {
		if c.Grounding != model.GroundingAssumed {
			filtered = append(filtered, c)
		}
	}

	return filtered
}

// DetectConflicts groups claims that carry evidence by a topic key (their
// first three whitespace-separated words, lowercased) and flags any topic
// whose claims have more than one distinct statement text. The claims'
// source URLs are not compared.
func DetectConflicts(claims []model.Claim) []model.Conflict {
	byTopic := make(map[string][]model.Claim)
	order := make([]string, 0)

	for _, c := range claims {
		key := topicKey(c.Statement)

		if _, seen := byTopic[key]; !seen {
			order = append(order, key)
		}

		byTopic[key] = append(byTopic[key], c)
	}

	var conflicts []model.Conflict

	for _, topic := range order {
		topicClaims := byTopic[topic]
		if len(topicClaims) < 2 {
			continue
		}

		var sourced []model.ConflictingClaim

		statements := make(map[string]struct{})

		for _, c := range topicClaims {
			if len(c.Evidence) == 0 {
				continue
			}

			sourced = append(sourced, model.ConflictingClaim{
				Statement: c.Statement,
				SourceURL: c.Evidence[0].SourceURL,
			})
			statements[c.Statement] = struct{}{}
		}

		if len(statements) > 1 {
			conflicts = append(conflicts, model.Conflict{Topic: topic, Claims: sourced})
		}
	}

	return conflicts
}

func topicKey(statement string) string {
	words := strings.Fields(statement)
	if len(words) > topicKeyWords {
		words = words[:topicKeyWords]
	}

	return strings.ToLower(strings.Join(words, " "))
}

// AggregateSources counts evidence per source URL across claims and assigns
// roles by rank: the most-cited source is Primary, the second
// Corroborating, the rest Supporting.
func AggregateSources(claims []model.Claim, fetchedAt time.Time) []model.Source {
	counts := make(map[string]int)
	order := make([]string, 0)

	for _, c := range claims {
		for _, e := range c.Evidence {
			if _, seen := counts[e.SourceURL]; !seen {
				order = append(order, e.SourceURL)
			}

			counts[e.SourceURL]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })

	sources := make([]model.Source, 0, len(order))

	for i, url := range order {
		sources = append(sources, model.Source{
			URL:       url,
			FetchedAt: fetchedAt,
			Role:      roleForRank(i),
			Metadata:  map[string]string{},
		})
	}

	return sources
}

func roleForRank(rank int) model.SourceRole {
	switch rank {
	case 0:
		return model.SourceRolePrimary
	case 1:
		return model.SourceRoleCorroborating
	default:
		return model.SourceRoleSupporting
	}
}
