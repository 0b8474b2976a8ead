package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// RelevanceScorer asks a model how well each candidate answers a question.
// Implementations must be thread-safe for concurrent use.
type RelevanceScorer interface {
	// ScoreRelevance rates every candidate from 0 (irrelevant) to 10 (directly
	// answers the question). Candidates the model does not mention are absent
	// from the result. Ratings outside 0-10 are clamped.
	ScoreRelevance(ctx context.Context, question string, candidates []Candidate) ([]Rating, error)
}

// AnswerGenerator synthesizes a grounded answer from supplied sources.
// Implementations must be thread-safe for concurrent use.
type AnswerGenerator interface {
	// GenerateAnswer writes an answer using only req.Sources and reports its
	// confidence and the Refs of the sources it relied on.
	GenerateAnswer(ctx context.Context, req AnswerRequest) (*GeneratedAnswer, error)
}

// Rewriter lightly reformats an existing answer so it reads as a reply to the
// question without adding facts.
type Rewriter interface {
	Rewrite(ctx context.Context, question, text string) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages the services so they share configuration.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// RelevanceScorer returns the model-based relevance scoring service.
	RelevanceScorer() RelevanceScorer

	// AnswerGenerator returns the primary answer synthesis service.
	AnswerGenerator() AnswerGenerator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
