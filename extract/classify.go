package extract

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lueurxax/extraction-engine/ai"
	"github.com/lueurxax/extraction-engine/model"
)

// lowConfidenceThreshold is the confidence floor below which a
// classification is treated as unreliable and defaulted to Collection, the
// safest strategy (it returns everything relevant rather than committing to
// a single answer or a synthesized narrative).
const lowConfidenceThreshold = 0.5

const classifyMaxRetries = 2

type classifyResponse struct {
	Strategy   string  `json:"strategy"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Classify asks client to classify query's intent. Low-confidence results
// are overridden to StrategyCollection rather than trusted as-is.
func Classify(ctx context.Context, client ai.Client, query string) (model.QueryClassification, error) {
	raw, err := ai.CompleteJSON(ctx, client, "", formatClassifyQueryPrompt(query), classifyMaxRetries)
	if err != nil {
		return model.QueryClassification{}, fmt.Errorf("extract: classify: %w", err)
	}

	var parsed classifyResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return model.QueryClassification{}, fmt.Errorf("extract: classify: parse response: %w", err)
	}

	strategy := model.QueryStrategy(parsed.Strategy)
	if parsed.Confidence < lowConfidenceThreshold {
		strategy = model.StrategyCollection
	}

	switch strategy {
	case model.StrategyCollection, model.StrategySingular, model.StrategyNarrative:
	default:
		strategy = model.StrategyCollection
	}

	return model.QueryClassification{
		Strategy:   strategy,
		Confidence: parsed.Confidence,
		Reasoning:  parsed.Reasoning,
	}, nil
}
