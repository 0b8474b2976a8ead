package search

import (
	"context"
	"log/slog"

	"github.com/poiesic/resolvit/core"
)

const (
	exactHitWeight   = 1.0
	partialHitWeight = 0.5
	titleBonus       = 0.2
)

// KeywordSearcher ranks documents by token overlap with the question.
type KeywordSearcher struct {
	corpus Corpus
	floor  float32
	logger *slog.Logger
}

var _ DocumentStrategy = (*KeywordSearcher)(nil)

// NewKeywordSearcher creates a keyword searcher. Default floor is DefaultKeywordFloor.
func NewKeywordSearcher(corpus Corpus, opts ...Option) (*KeywordSearcher, error) {
	if corpus == nil {
		return nil, ErrCorpusRequired
	}
	o, err := buildOptions(DefaultKeywordFloor, "keyword-searcher", opts)
	if err != nil {
		return nil, err
	}
	return &KeywordSearcher{corpus: corpus, floor: o.floor, logger: o.logger}, nil
}

// Strategy returns core.StrategyKeyword.
func (s *KeywordSearcher) Strategy() core.Strategy { return core.StrategyKeyword }

// Search scores every document and returns those clearing the floor.
func (s *KeywordSearcher) Search(ctx context.Context, query string, maxResults int) ([]core.MatchResult, error) {
	docs, err := s.corpus.ListDocuments(ctx, "")
	if err != nil {
		return nil, corpusError("list documents", err)
	}

	queryTokens := tokenizeAndFilter(query)
	matches := make([]core.MatchResult, 0, len(docs))
	for _, d := range docs {
		score := keywordScore(queryTokens, d)
		if score > 0 {
			matches = append(matches, core.MatchResult{Item: d, Score: score, Strategy: core.StrategyKeyword})
		}
	}

	matches = core.TopMatches(matches, s.floor, maxResults)
	s.logger.Debug("keyword search", "documents", len(docs), "matches", len(matches))
	return matches, nil
}

// keywordScore is the weighted fraction of query tokens found in the document,
// exact hits counting fully and prefix hits half, plus a bonus for the share
// of tokens found in the title. Capped at 1.
func keywordScore(queryTokens []string, d *core.Document) float32 {
	q := tokenSet(queryTokens)
	if len(q) == 0 {
		return 0
	}
	title := tokenSet(tokenizeAndFilter(d.Title))
	body := tokenSet(tokenizeAndFilter(d.Title + " " + d.Body))

	var total float32
	titleHits := 0
	for t := range q {
		switch {
		case has(body, t):
			total += exactHitWeight
		case partialMatch(t, body):
			total += partialHitWeight
		}
		if has(title, t) || partialMatch(t, title) {
			titleHits++
		}
	}
	n := float32(len(q))
	return core.ClampScore(total/n + titleBonus*float32(titleHits)/n)
}

func has(set map[string]struct{}, t string) bool {
	_, ok := set[t]
	return ok
}
