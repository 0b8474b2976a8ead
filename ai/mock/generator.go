package mock

import (
	"context"
	"sync/atomic"

	"github.com/poiesic/resolvit/ai"
)

// DefaultConfidence is reported by the default MockAnswerGenerator.
const DefaultConfidence = 0.9

// MockAnswerGenerator is a test double for ai.AnswerGenerator.
type MockAnswerGenerator struct {
	// GenerateAnswerFunc is called by GenerateAnswer if set.
	// If nil, the first source's text is returned and cited.
	GenerateAnswerFunc func(ctx context.Context, req ai.AnswerRequest) (*ai.GeneratedAnswer, error)

	callCount atomic.Int64
}

// NewMockAnswerGenerator creates a mock generator with default behavior.
func NewMockAnswerGenerator() *MockAnswerGenerator {
	return &MockAnswerGenerator{}
}

// GenerateAnswer returns a canned answer built from req.
func (m *MockAnswerGenerator) GenerateAnswer(ctx context.Context, req ai.AnswerRequest) (*ai.GeneratedAnswer, error) {
	m.callCount.Add(1)

	if m.GenerateAnswerFunc != nil {
		return m.GenerateAnswerFunc(ctx, req)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(req.Sources) == 0 {
		return &ai.GeneratedAnswer{}, nil
	}

	first := req.Sources[0]
	return &ai.GeneratedAnswer{
		Answer:     first.Text,
		Confidence: DefaultConfidence,
		Citations:  []string{first.Ref},
	}, nil
}

// CallCount returns the number of times GenerateAnswer was called.
func (m *MockAnswerGenerator) CallCount() int {
	return int(m.callCount.Load())
}
