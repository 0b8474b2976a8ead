package search

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strconv"

	"github.com/poiesic/resolvit/ai"
	"github.com/poiesic/resolvit/core"
)

// SemanticSearcher asks a relevance-scoring model to rate documents.
type SemanticSearcher struct {
	corpus        Corpus
	scorer        ai.RelevanceScorer
	floor         float32
	maxCandidates int
	logger        *slog.Logger
}

var _ DocumentStrategy = (*SemanticSearcher)(nil)

// NewSemanticSearcher creates a model-backed searcher. Default floor is DefaultSemanticFloor.
func NewSemanticSearcher(corpus Corpus, scorer ai.RelevanceScorer, opts ...Option) (*SemanticSearcher, error) {
	if corpus == nil {
		return nil, ErrCorpusRequired
	}
	if scorer == nil {
		return nil, ErrScorerRequired
	}
	o, err := buildOptions(DefaultSemanticFloor, "semantic-searcher", opts)
	if err != nil {
		return nil, err
	}
	return &SemanticSearcher{
		corpus:        corpus,
		scorer:        scorer,
		floor:         o.floor,
		maxCandidates: o.maxCandidates,
		logger:        o.logger,
	}, nil
}

// Strategy returns core.StrategyAISearch.
func (s *SemanticSearcher) Strategy() core.Strategy { return core.StrategyAISearch }

// Search rates candidate documents with the model; score is rating/10.
// When the corpus is larger than the candidate budget, candidates are picked
// by keyword overlap first. A model failure yields no matches unless ctx
// itself is done.
func (s *SemanticSearcher) Search(ctx context.Context, query string, maxResults int) ([]core.MatchResult, error) {
	docs, err := s.corpus.ListDocuments(ctx, "")
	if err != nil {
		return nil, corpusError("list documents", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	docs = s.selectCandidates(query, docs)
	candidates := make([]ai.Candidate, len(docs))
	byRef := make(map[string]*core.Document, len(docs))
	for i, d := range docs {
		ref := "d" + strconv.Itoa(i+1)
		candidates[i] = ai.Candidate{Ref: ref, Title: d.Title, Text: d.Body}
		byRef[ref] = d
	}

	ratings, err := s.scorer.ScoreRelevance(ctx, query, candidates)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Warn("relevance scoring failed; treating as no match", "err", err)
		return nil, nil
	}

	matches := make([]core.MatchResult, 0, len(ratings))
	for _, r := range ratings {
		d, ok := byRef[r.Ref]
		if !ok {
			continue
		}
		score := core.ClampScore(float32(r.Score) / 10)
		matches = append(matches, core.MatchResult{Item: d, Score: score, Strategy: core.StrategyAISearch})
	}

	matches = core.TopMatches(matches, s.floor, maxResults)
	s.logger.Debug("semantic search", "candidates", len(candidates), "matches", len(matches))
	return matches, nil
}

func (s *SemanticSearcher) selectCandidates(query string, docs []*core.Document) []*core.Document {
	if len(docs) <= s.maxCandidates {
		return docs
	}
	queryTokens := tokenizeAndFilter(query)
	type scored struct {
		doc   *core.Document
		score float32
	}
	ranked := make([]scored, len(docs))
	for i, d := range docs {
		ranked[i] = scored{doc: d, score: keywordScore(queryTokens, d)}
	}
	slices.SortStableFunc(ranked, func(a, b scored) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(a.doc.Id, b.doc.Id)
	})

	out := make([]*core.Document, s.maxCandidates)
	for i := range out {
		out[i] = ranked[i].doc
	}
	return out
}
