package ai

import (
	"context"
	"hash/fnv"
)

const (
	mockLCGMultiplier = 6364136223846793005
	mockLCGIncrement  = 1442695040888963407
	mockSeedShift     = 33
	mockFloatScale    = 0x40000000
	mockSqrtIterations = 10
)

// MockClient is a deterministic Provider for tests and local development
// without API keys. Embeddings are derived from the input text's hash and
// Complete echoes the last message, so the same input always reproduces the
// same output.
type MockClient struct {
	dimensions  int
	completeFn  func(ctx context.Context, messages []Message) (CompletionResult, error)
}

// NewMockClient returns a MockClient producing embeddings of dimensions
// length. If dimensions <= 0, defaultEmbeddingDimension is used.
func NewMockClient(dimensions int) *MockClient {
	if dimensions <= 0 {
		dimensions = defaultEmbeddingDimension
	}

	return &MockClient{dimensions: dimensions}
}

// WithCompleteFunc overrides the default echo behavior of Complete, letting
// tests script specific JSON responses per call.
func (m *MockClient) WithCompleteFunc(fn func(ctx context.Context, messages []Message) (CompletionResult, error)) *MockClient {
	m.completeFn = fn
	return m
}

func (m *MockClient) Name() ProviderName       { return ProviderMock }
func (m *MockClient) IsAvailable() bool        { return true }
func (m *MockClient) Priority() int            { return PriorityMock }
func (m *MockClient) EmbeddingDimensions() int { return m.dimensions }

// Complete implements Client. Absent an override, it echoes the last user
// message back wrapped as a minimal JSON object, which satisfies most
// JSON-mode callers in tests.
func (m *MockClient) Complete(ctx context.Context, messages []Message) (CompletionResult, error) {
	if m.completeFn != nil {
		return m.completeFn(ctx, messages)
	}

	var last string
	if len(messages) > 0 {
		last = messages[len(messages)-1].Content
	}

	return CompletionResult{
		Text:     `{"mock":true,"echo":"` + truncate(last, 64) + `"}`,
		Provider: ProviderMock,
		Model:    "mock",
	}, nil
}

// Embed implements Client, generating a deterministic unit vector from
// text's FNV hash via a linear congruential generator.
func (m *MockClient) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, m.dimensions)
	for i := range vec {
		seed = seed*mockLCGMultiplier + mockLCGIncrement
		vec[i] = float32(int64(seed>>mockSeedShift)-mockFloatScale) / float32(mockFloatScale)
	}

	vec = normalizeVector(vec)

	return EmbeddingResult{
		Vector:     vec,
		Dimensions: m.dimensions,
		Provider:   ProviderMock,
	}, nil
}

func normalizeVector(vec []float32) []float32 {
	var sum float32
	for _, v := range vec {
		sum += v * v
	}

	if sum == 0 {
		return vec
	}

	norm := sqrt32(sum)
	for i := range vec {
		vec[i] /= norm
	}

	return vec
}

func sqrt32(x float32) float32 {
	if x <= 0 {
		return 0
	}

	z := x
	for i := 0; i < mockSqrtIterations; i++ {
		z = (z + x/z) / 2
	}

	return z
}
