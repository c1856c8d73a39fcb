package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteJSONReturnsValidJSONOnFirstTry(t *testing.T) {
	client := NewMockClient(4)

	out, err := CompleteJSON(context.Background(), client, "", "describe the page", 2)
	require.NoError(t, err)
	assert.True(t, IsValidJSON(out))
}

func TestCompleteJSONRetriesOnMalformedResponse(t *testing.T) {
	attempts := 0

	client := NewMockClient(4).WithCompleteFunc(func(_ context.Context, _ []Message) (CompletionResult, error) {
		attempts++
		if attempts == 1 {
			return CompletionResult{Text: "not json at all"}, nil
		}

		return CompletionResult{Text: `{"fixed":true}`}, nil
	})

	out, err := CompleteJSON(context.Background(), client, "", "prompt", 2)
	require.NoError(t, err)
	assert.Equal(t, `{"fixed":true}`, out)
	assert.Equal(t, 2, attempts)
}

func TestCompleteJSONExhaustsRetries(t *testing.T) {
	client := NewMockClient(4).WithCompleteFunc(func(_ context.Context, _ []Message) (CompletionResult, error) {
		return CompletionResult{Text: "never valid"}, nil
	})

	_, err := CompleteJSON(context.Background(), client, "", "prompt", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidJSON)
}

func TestMockClientEmbedIsDeterministic(t *testing.T) {
	client := NewMockClient(16)

	first, err := client.Embed(context.Background(), "same text")
	require.NoError(t, err)

	second, err := client.Embed(context.Background(), "same text")
	require.NoError(t, err)

	assert.Equal(t, first.Vector, second.Vector)
	assert.Len(t, first.Vector, 16)
}

func TestMockClientEmbedDiffersByInput(t *testing.T) {
	client := NewMockClient(16)

	a, err := client.Embed(context.Background(), "alpha")
	require.NoError(t, err)

	b, err := client.Embed(context.Background(), "beta")
	require.NoError(t, err)

	assert.NotEqual(t, a.Vector, b.Vector)
}
