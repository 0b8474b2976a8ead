package mock

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/poiesic/resolvit/ai"
)

// MockRelevanceScorer is a test double for ai.RelevanceScorer.
type MockRelevanceScorer struct {
	// ScoreRelevanceFunc is called by ScoreRelevance if set.
	// If nil, candidates are rated by word overlap with the question.
	ScoreRelevanceFunc func(ctx context.Context, question string, candidates []ai.Candidate) ([]ai.Rating, error)

	callCount atomic.Int64
}

// NewMockRelevanceScorer creates a mock scorer with default behavior.
func NewMockRelevanceScorer() *MockRelevanceScorer {
	return &MockRelevanceScorer{}
}

// ScoreRelevance rates each candidate 0-10.
func (m *MockRelevanceScorer) ScoreRelevance(ctx context.Context, question string, candidates []ai.Candidate) ([]ai.Rating, error) {
	m.callCount.Add(1)

	if m.ScoreRelevanceFunc != nil {
		return m.ScoreRelevanceFunc(ctx, question, candidates)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	words := strings.Fields(strings.ToLower(question))
	ratings := make([]ai.Rating, 0, len(candidates))
	for _, c := range candidates {
		haystack := strings.ToLower(c.Title + " " + c.Text)
		hits := 0
		for _, w := range words {
			if strings.Contains(haystack, strings.Trim(w, ".,!?;:\"'()")) {
				hits++
			}
		}
		score := 0
		if len(words) > 0 {
			score = hits * 10 / len(words)
		}
		ratings = append(ratings, ai.Rating{Ref: c.Ref, Score: score})
	}
	return ratings, nil
}

// CallCount returns the number of times ScoreRelevance was called.
func (m *MockRelevanceScorer) CallCount() int {
	return int(m.callCount.Load())
}
