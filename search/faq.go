package search

import (
	"context"
	"log/slog"

	"github.com/poiesic/resolvit/core"
)

// FAQMatcher scores curated FAQ entries against a question.
type FAQMatcher struct {
	corpus       Corpus
	minScore     float32
	answerWeight float32
	logger       *slog.Logger
}

// NewFAQMatcher creates a matcher over the corpus FAQ entries.
// WithFloor sets the minimum similarity, default DefaultFAQMinSimilarity.
func NewFAQMatcher(corpus Corpus, opts ...Option) (*FAQMatcher, error) {
	if corpus == nil {
		return nil, ErrCorpusRequired
	}
	o, err := buildOptions(DefaultFAQMinSimilarity, "faq-matcher", opts)
	if err != nil {
		return nil, err
	}
	return &FAQMatcher{
		corpus:       corpus,
		minScore:     o.floor,
		answerWeight: o.answerWeight,
		logger:       o.logger,
	}, nil
}

// Match returns up to maxResults ranked FAQ matches at or above the minimum
// similarity. A non-positive maxResults returns every match.
func (m *FAQMatcher) Match(ctx context.Context, query string, maxResults int) ([]core.MatchResult, error) {
	entries, err := m.corpus.ListFAQs(ctx, "")
	if err != nil {
		return nil, corpusError("list faqs", err)
	}

	normQuery := normalizeText(query)
	queryTokens := tokenizeAndFilter(query)
	if normQuery == "" {
		return nil, nil
	}

	matches := make([]core.MatchResult, 0, len(entries))
	for _, e := range entries {
		score := m.score(normQuery, queryTokens, e)
		if score < m.minScore || score == 0 {
			continue
		}
		matches = append(matches, core.MatchResult{Item: e, Score: score, Strategy: core.StrategyFAQ})
	}

	matches = core.TopMatches(matches, m.minScore, maxResults)
	m.logger.Debug("faq match", "entries", len(entries), "matches", len(matches))
	return matches, nil
}

// score is the larger of the question similarity and the weighted share of
// query tokens found in the answer. Identical normalized questions score 1.
func (m *FAQMatcher) score(normQuery string, queryTokens []string, e *core.FAQEntry) float32 {
	normQuestion := normalizeText(e.Question)
	if normQuestion == normQuery {
		return 1
	}

	questionSim := (tokenDice(queryTokens, tokenizeAndFilter(e.Question)) + bigramDice(normQuery, normQuestion)) / 2
	answerSim := m.answerWeight * coverage(queryTokens, tokenSet(tokenizeAndFilter(e.Answer)))
	return core.ClampScore(max(questionSim, answerSim))
}
