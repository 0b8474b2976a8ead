package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/resolvit/core"
	"github.com/poiesic/resolvit/storage"
)

// Corpus is the read access searching needs. storage.KnowledgeRepository
// satisfies it.
type Corpus interface {
	ListFAQs(ctx context.Context, category string) ([]*core.FAQEntry, error)
	ListDocuments(ctx context.Context, category string) ([]*core.Document, error)
	FindSimilarDocuments(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]storage.SimilarDocument, error)
}

// DocumentStrategy is one of the closed set of document search strategies.
type DocumentStrategy interface {
	// Strategy identifies the implementation.
	Strategy() core.Strategy

	// Search returns up to maxResults ranked matches that clear the
	// strategy's floor. An empty result is not an error.
	Search(ctx context.Context, query string, maxResults int) ([]core.MatchResult, error)
}

// Defaults used when no option overrides them.
const (
	DefaultFAQMinSimilarity = 0.3
	DefaultAnswerWeight     = 0.5
	DefaultSemanticFloor    = 0.6
	DefaultKeywordFloor     = 0.5
	DefaultEmbeddingFloor   = 0.6
	DefaultMaxCandidates    = 20
)

type options struct {
	floor         float32
	answerWeight  float32
	maxCandidates int
	logger        *slog.Logger
}

// Option configures a matcher or searcher.
type Option func(*options) error

// WithFloor sets the minimum score a result needs to be returned.
func WithFloor(floor float32) Option {
	return func(o *options) error {
		if floor < 0 || floor > 1 {
			return fmt.Errorf("%w: %v", ErrInvalidFloor, floor)
		}
		o.floor = floor
		return nil
	}
}

// WithAnswerWeight scales how much an answer-text hit counts for an FAQ
// entry relative to a question hit. Only FAQMatcher uses it.
func WithAnswerWeight(w float32) Option {
	return func(o *options) error {
		o.answerWeight = core.ClampScore(w)
		return nil
	}
}

// WithMaxCandidates bounds how many documents are sent to the relevance
// model. Only SemanticSearcher uses it.
func WithMaxCandidates(n int) Option {
	return func(o *options) error {
		if n > 0 {
			o.maxCandidates = n
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

func buildOptions(floor float32, component string, opts []Option) (*options, error) {
	o := &options{
		floor:         floor,
		answerWeight:  DefaultAnswerWeight,
		maxCandidates: DefaultMaxCandidates,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	o.logger = o.logger.With("component", component)
	return o, nil
}

func corpusError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrCorpusUnavailable, op, err)
}
