package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lueurxax/extraction-engine/model"
)

func TestCosineSimilarity_Identity(t *testing.T) {
	a := []float32{1, 2, 3}
	assert.InDelta(t, float32(1.0), CosineSimilarity(a, a), 1e-6)
}

func TestCosineSimilarity_Opposite(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-1, -2, -3}
	assert.InDelta(t, float32(-1.0), CosineSimilarity(a, b), 1e-6)
}

func TestCosineSimilarity_MismatchedOrZero(t *testing.T) {
	assert.Equal(t, float32(0), CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}))
	assert.Equal(t, float32(0), CosineSimilarity(nil, nil))
	assert.Equal(t, float32(0), CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}

func TestReciprocalRankFusion_TopOfBothListsWins(t *testing.T) {
	listA := []model.PageRef{{URL: "url1"}, {URL: "url2"}}
	listB := []model.PageRef{{URL: "url2"}, {URL: "url3"}}

	fused := ReciprocalRankFusion(listA, listB, 0.5, 0.5)

	require := assert.New(t)
	require.NotEmpty(fused)
	require.Equal("url2", fused[0].URL, "url appearing in both lists should fuse to first place")
}

func TestReciprocalRankFusion_EmptyInputs(t *testing.T) {
	assert.Empty(t, ReciprocalRankFusion(nil, nil, 1, 0))
}
