package extract

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lueurxax/extraction-engine/ai"
	"github.com/lueurxax/extraction-engine/model"
)

const partitionMaxRetries = 2

type partitionResponse struct {
	Title     string   `json:"title"`
	URLs      []string `json:"urls"`
	Rationale string   `json:"rationale"`
}

// Partition asks client to group summaries into the distinct items query is
// asking about. A page may appear in more than one partition.
func Partition(ctx context.Context, client ai.Client, query string, summaries []model.Summary) ([]model.Partition, error) {
	pairs := make([]summaryPair, 0, len(summaries))
	for _, s := range summaries {
		pairs = append(pairs, summaryPair{URL: s.URL, Text: s.Text})
	}

	raw, err := ai.CompleteJSON(ctx, client, "", formatPartitionPrompt(query, pairs), partitionMaxRetries)
	if err != nil {
		return nil, fmt.Errorf("extract: partition: %w", err)
	}

	var parsed []partitionResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("extract: partition: parse response: %w", err)
	}

	partitions := make([]model.Partition, 0, len(parsed))
	for _, p := range parsed {
		partitions = append(partitions, model.Partition{Title: p.Title, URLs: p.URLs, Rationale: p.Rationale})
	}

	return partitions, nil
}
