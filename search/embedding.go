package search

import (
	"context"
	"log/slog"

	"github.com/poiesic/resolvit/ai"
	"github.com/poiesic/resolvit/core"
)

// EmbeddingSearcher ranks documents by cosine similarity between the question
// embedding and stored document vectors.
type EmbeddingSearcher struct {
	corpus   Corpus
	embedder ai.Embedder
	floor    float32
	logger   *slog.Logger
}

var _ DocumentStrategy = (*EmbeddingSearcher)(nil)

// NewEmbeddingSearcher creates a vector searcher. Default floor is DefaultEmbeddingFloor.
func NewEmbeddingSearcher(corpus Corpus, embedder ai.Embedder, opts ...Option) (*EmbeddingSearcher, error) {
	if corpus == nil {
		return nil, ErrCorpusRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	o, err := buildOptions(DefaultEmbeddingFloor, "embedding-searcher", opts)
	if err != nil {
		return nil, err
	}
	return &EmbeddingSearcher{corpus: corpus, embedder: embedder, floor: o.floor, logger: o.logger}, nil
}

// Strategy returns core.StrategyEmbedding.
func (s *EmbeddingSearcher) Strategy() core.Strategy { return core.StrategyEmbedding }

// Search embeds the question and returns documents whose similarity clears
// the floor. An embedding failure yields no matches unless ctx itself is done.
func (s *EmbeddingSearcher) Search(ctx context.Context, query string, maxResults int) ([]core.MatchResult, error) {
	vec, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Warn("query embedding failed; treating as no match", "err", err)
		return nil, nil
	}
	if len(vec) == 0 {
		return nil, nil
	}

	similar, err := s.corpus.FindSimilarDocuments(ctx, core.NormalizeVector(vec), s.floor, maxResults)
	if err != nil {
		return nil, corpusError("find similar documents", err)
	}

	matches := make([]core.MatchResult, 0, len(similar))
	for _, sd := range similar {
		matches = append(matches, core.MatchResult{
			Item:     sd.Document,
			Score:    core.ClampScore(sd.Score),
			Strategy: core.StrategyEmbedding,
		})
	}

	matches = core.TopMatches(matches, s.floor, maxResults)
	s.logger.Debug("embedding search", "matches", len(matches))
	return matches, nil
}
