package mock

import (
	"context"
	"sync/atomic"
)

// MockRewriter is a test double for ai.Rewriter.
type MockRewriter struct {
	// RewriteFunc is called by Rewrite if set. If nil, text is returned unchanged.
	RewriteFunc func(ctx context.Context, question, text string) (string, error)

	callCount atomic.Int64
}

// NewMockRewriter creates a mock rewriter that echoes its input.
func NewMockRewriter() *MockRewriter {
	return &MockRewriter{}
}

// Rewrite returns text, or the result of RewriteFunc.
func (m *MockRewriter) Rewrite(ctx context.Context, question, text string) (string, error) {
	m.callCount.Add(1)

	if m.RewriteFunc != nil {
		return m.RewriteFunc(ctx, question, text)
	}
	return text, nil
}

// CallCount returns the number of times Rewrite was called.
func (m *MockRewriter) CallCount() int {
	return int(m.callCount.Load())
}
