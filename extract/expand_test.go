package extract

import (
	"context"
	"testing"

	"github.com/lueurxax/extraction-engine/ai"
)

func TestExpandQueryParsesTerms(t *testing.T) {
	client := ai.NewMockClient(4).WithCompleteFunc(jsonResult(`["food bank","pantry","free groceries"]`))

	terms, err := ExpandQuery(context.Background(), client, "food assistance")
	if err != nil {
		t.Fatalf("ExpandQuery: %v", err)
	}

	if len(terms) != 3 || terms[1] != "pantry" {
		t.Fatalf("terms = %v, want 3 terms including pantry", terms)
	}
}

func TestExpandQueryPropagatesClientError(t *testing.T) {
	client := ai.NewMockClient(4).WithCompleteFunc(func(_ context.Context, _ []ai.Message) (ai.CompletionResult, error) {
		return ai.CompletionResult{}, errBoom
	})

	if _, err := ExpandQuery(context.Background(), client, "q"); err == nil {
		t.Fatal("expected error from failing client")
	}
}
