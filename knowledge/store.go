// Package knowledge is the read-only knowledge store the resolution pipeline
// queries. It runs the FAQ matcher and the document strategies over a
// repository and maps failures onto the store error taxonomy.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/resolvit/core"
	"github.com/poiesic/resolvit/search"
	"github.com/poiesic/resolvit/storage"
)

var (
	// ErrStoreUnavailable is returned when the underlying data source cannot
	// be read. It is fatal for the current query.
	ErrStoreUnavailable = errors.New("knowledge store unavailable")

	// ErrNoMatch is returned when nothing clears a strategy's floor.
	ErrNoMatch = errors.New("no match")

	// ErrRepositoryRequired is returned when no repository is provided.
	ErrRepositoryRequired = errors.New("knowledge repository required")

	// ErrDuplicateStrategy is returned when a document strategy is registered twice.
	ErrDuplicateStrategy = errors.New("document strategy registered twice")
)

// Store answers FAQ and document lookups for the orchestrator.
type Store struct {
	repo       storage.KnowledgeRepository
	faq        *search.FAQMatcher
	strategies map[core.Strategy]search.DocumentStrategy
	logger     *slog.Logger
}

// Option configures a Store.
type Option func(*Store) error

// WithFAQMatcher replaces the default FAQ matcher.
func WithFAQMatcher(m *search.FAQMatcher) Option {
	return func(s *Store) error {
		s.faq = m
		return nil
	}
}

// WithDocumentStrategy registers a document strategy. A keyword strategy
// replaces the default one; registering any other strategy twice is an error.
func WithDocumentStrategy(ds search.DocumentStrategy) Option {
	return func(s *Store) error {
		if ds == nil {
			return nil
		}
		kind := ds.Strategy()
		if _, exists := s.strategies[kind]; exists && kind != core.StrategyKeyword {
			return fmt.Errorf("%w: %s", ErrDuplicateStrategy, kind)
		}
		s.strategies[kind] = ds
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewStore creates a store over repo. The FAQ matcher and keyword searcher are
// always available; AI and embedding search only when registered.
func NewStore(repo storage.KnowledgeRepository, opts ...Option) (*Store, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}

	faq, err := search.NewFAQMatcher(repo)
	if err != nil {
		return nil, err
	}
	keyword, err := search.NewKeywordSearcher(repo)
	if err != nil {
		return nil, err
	}

	s := &Store{
		repo:       repo,
		faq:        faq,
		strategies: map[core.Strategy]search.DocumentStrategy{core.StrategyKeyword: keyword},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "knowledge-store")
	return s, nil
}

// FindFAQ returns up to maxResults ranked FAQ matches.
func (s *Store) FindFAQ(ctx context.Context, query string, maxResults int) ([]core.MatchResult, error) {
	matches, err := s.faq.Match(ctx, query, maxResults)
	if err != nil {
		return nil, s.mapError("faq lookup", err)
	}
	if len(matches) == 0 {
		return nil, ErrNoMatch
	}
	return matches, nil
}

// FindDocuments returns up to maxResults ranked document matches produced by
// strategy. A strategy that is not configured reports ErrNoMatch.
func (s *Store) FindDocuments(ctx context.Context, query string, maxResults int, strategy core.Strategy) ([]core.MatchResult, error) {
	ds, ok := s.strategies[strategy]
	if !ok {
		s.logger.Debug("document strategy not configured", "strategy", strategy)
		return nil, ErrNoMatch
	}
	matches, err := ds.Search(ctx, query, maxResults)
	if err != nil {
		return nil, s.mapError(strategy.String(), err)
	}
	if len(matches) == 0 {
		return nil, ErrNoMatch
	}
	return matches, nil
}

// HasStrategy reports whether a document strategy is configured.
func (s *Store) HasStrategy(strategy core.Strategy) bool {
	_, ok := s.strategies[strategy]
	return ok
}

// Stats returns process-wide corpus statistics.
func (s *Store) Stats(ctx context.Context) (core.KnowledgeStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return stats, s.mapError("stats", err)
	}
	return stats, nil
}

// ListFAQs returns the FAQ entries of a category, or all when category is empty.
func (s *Store) ListFAQs(ctx context.Context, category string) ([]*core.FAQEntry, error) {
	entries, err := s.repo.ListFAQs(ctx, category)
	if err != nil {
		return nil, s.mapError("list faqs", err)
	}
	return entries, nil
}

// mapError passes context errors through and reports everything else as
// ErrStoreUnavailable.
func (s *Store) mapError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	s.logger.Error("knowledge store failure", "op", op, "err", err)
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
