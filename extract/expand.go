package extract

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lueurxax/extraction-engine/ai"
)

const expandMaxRetries = 2

// ExpandQuery asks client for 5-10 related search terms, used to widen
// keyword recall for a query whose initial hit count is too thin to trust.
func ExpandQuery(ctx context.Context, client ai.Client, query string) ([]string, error) {
	raw, err := ai.CompleteJSON(ctx, client, "", formatExpandQueryPrompt(query), expandMaxRetries)
	if err != nil {
		return nil, fmt.Errorf("extract: expand query: %w", err)
	}

	var terms []string
	if err := json.Unmarshal([]byte(raw), &terms); err != nil {
		return nil, fmt.Errorf("extract: expand query: parse response: %w", err)
	}

	return terms, nil
}
