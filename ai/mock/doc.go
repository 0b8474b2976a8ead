// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.RelevanceScorer,
// ai.AnswerGenerator, ai.Rewriter and ai.AIProvider for use in unit tests. The
// mocks allow tests to run without external AI service dependencies and enable
// controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	embeddings, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	gen := mock.NewMockAnswerGenerator()
//	gen.GenerateAnswerFunc = func(ctx context.Context, req ai.AnswerRequest) (*ai.GeneratedAnswer, error) {
//	    return nil, errors.New("backend down")
//	}
//
//	// Check call counts
//	count := gen.CallCount()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockRelevanceScorer: Rates candidates by word overlap with the question
//   - MockAnswerGenerator: Answers with the first source's text and cites it
//   - MockRewriter: Returns the text unchanged
//   - MockProvider: Aggregates mock embedder, scorer and generator
//
// All mocks are safe for concurrent use.
package mock
