package store

import (
	"math"
	"sort"

	"github.com/lueurxax/extraction-engine/model"
)

// rrfK is the Reciprocal Rank Fusion smoothing constant: rank r on a list
// contributes weight/(rrfK+r+1) to the fused score. K=60 is the standard
// value from the RRF literature and is fixed by the spec, not tunable.
const rrfK = 60.0

// CosineSimilarity computes dot(a,b)/(‖a‖·‖b‖), returning 0 when the vectors
// have mismatched lengths or either has zero norm (P5 cosine bounds).
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float32

	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}

// ReciprocalRankFusion merges two ranked PageRef lists, keyed by URL. Each
// result at 0-based rank r in a list contributes weight/(K+r+1) to that
// URL's fused score; scores from both lists sum. The result is sorted by
// fused score descending; Go's sort.SliceStable preserves the relative
// input order of ties (P6 RRF stability).
func ReciprocalRankFusion(resultsA, resultsB []model.PageRef, weightA, weightB float32) []model.PageRef {
	scores := make(map[string]float32)
	refs := make(map[string]model.PageRef)
	order := make([]string, 0, len(resultsA)+len(resultsB))

	accumulate := func(results []model.PageRef, weight float32) {
		for rank, ref := range results {
			if _, seen := scores[ref.URL]; !seen {
				order = append(order, ref.URL)
				refs[ref.URL] = ref
			}

			scores[ref.URL] += weight / (rrfK + float32(rank) + 1.0)
		}
	}

	accumulate(resultsA, weightA)
	accumulate(resultsB, weightB)

	fused := make([]model.PageRef, 0, len(order))
	for _, url := range order {
		ref := refs[url]
		ref.Score = scores[url]
		fused = append(fused, ref)
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})

	return fused
}
