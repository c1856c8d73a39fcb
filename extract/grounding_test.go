package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lueurxax/extraction-engine/model"
)

func mockSource(url string) model.Source {
	return model.Source{URL: url, FetchedAt: time.Now(), Role: model.SourceRolePrimary, Metadata: map[string]string{}}
}

func mockClaim(statement string, grounding model.Grounding, sourceURL string) model.Claim {
	return model.Claim{
		Statement: statement,
		Evidence:  []model.Evidence{{Quote: statement, SourceURL: sourceURL}},
		Grounding: grounding,
	}
}

func TestCalculateGroundingVerified(t *testing.T) {
	sources := []model.Source{mockSource("url1"), mockSource("url2")}
	claims := []model.Claim{mockClaim("Test", model.GroundingDirect, "url1")}

	grade := CalculateGrounding(sources, nil, claims, DefaultConfig())
	assert.Equal(t, model.GradeVerified, grade)
}

func TestCalculateGroundingSingleSource(t *testing.T) {
	sources := []model.Source{mockSource("url1")}
	claims := []model.Claim{mockClaim("Test", model.GroundingDirect, "url1")}

	grade := CalculateGrounding(sources, nil, claims, DefaultConfig())
	assert.Equal(t, model.GradeSingleSource, grade)
}

func TestCalculateGroundingConflicted(t *testing.T) {
	sources := []model.Source{mockSource("url1"), mockSource("url2")}
	conflicts := []model.Conflict{{Topic: "Schedule"}}

	grade := CalculateGrounding(sources, conflicts, nil, DefaultConfig())
	assert.Equal(t, model.GradeConflicted, grade)
}

func TestCalculateGroundingInferred(t *testing.T) {
	sources := []model.Source{mockSource("url1"), mockSource("url2")}
	claims := []model.Claim{mockClaim("Test", model.GroundingInferred, "url1")}

	grade := CalculateGrounding(sources, nil, claims, DefaultConfig())
	assert.Equal(t, model.GradeInferred, grade)
}

func TestFilterClaimsStrictMode(t *testing.T) {
	claims := []model.Claim{
		mockClaim("Direct", model.GroundingDirect, "url1"),
		mockClaim("Assumed", model.GroundingAssumed, "url2"),
		mockClaim("Inferred", model.GroundingInferred, "url3"),
	}

	filtered := FilterClaims(claims, Config{StrictMode: true})

	assert.Len(t, filtered, 2)

	for _, c := range filtered {
		assert.NotEqual(t, model.GroundingAssumed, c.Grounding)
	}
}

func TestAggregateSources(t *testing.T) {
	claims := []model.Claim{
		mockClaim("A", model.GroundingDirect, "url1"),
		mockClaim("B", model.GroundingDirect, "url1"),
		mockClaim("C", model.GroundingDirect, "url2"),
	}

	sources := AggregateSources(claims, time.Now())

	assert.Len(t, sources, 2)
	assert.Equal(t, "url1", sources[0].URL)
	assert.Equal(t, model.SourceRolePrimary, sources[0].Role)
}

func TestDetectConflicts(t *testing.T) {
	claims := []model.Claim{
		mockClaim("Event starts at 5pm", model.GroundingDirect, "url1"),
		mockClaim("Event starts at 7pm", model.GroundingDirect, "url2"),
	}

	conflicts := DetectConflicts(claims)

	assert.Len(t, conflicts, 1)
	assert.Equal(t, "event starts at", conflicts[0].Topic)
}
