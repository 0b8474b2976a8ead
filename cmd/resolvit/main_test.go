package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/resolvit"
	"github.com/poiesic/resolvit/ai/mock"
	"github.com/poiesic/resolvit/config"
	"github.com/poiesic/resolvit/core"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseLevel("verbose")
	assert.ErrorContains(t, err, "invalid log level")
}

func TestBuildReembedConfig(t *testing.T) {
	cfg, err := buildReembedConfig(50, 10, 3, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 10, cfg.ReportInterval)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryDelay)

	tests := []struct {
		name                      string
		batch, report, maxRetries int
		delay                     time.Duration
		wantErr                   string
	}{
		{"zero batch", 0, 10, 3, time.Second, "batch-size"},
		{"zero interval", 10, 0, 3, time.Second, "report-interval"},
		{"zero retries", 10, 10, 0, time.Second, "max-retries"},
		{"negative delay", 10, 10, 3, -time.Second, "retry-delay"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildReembedConfig(tt.batch, tt.report, tt.maxRetries, tt.delay)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestImportFile(t *testing.T) {
	sys, err := resolvit.Open(config.Default(), resolvit.InMemory(), resolvit.WithAIProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer sys.Close()

	pipeline, err := sys.NewIngestionPipeline()
	require.NoError(t, err)
	defer pipeline.Release()

	path := filepath.Join(t.TempDir(), "knowledge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`faqs:
  - question: When is payday?
    answer: The last working day of the month.
`), 0o644))

	result, err := importFile(context.Background(), pipeline, path)
	require.NoError(t, err)
	assert.Len(t, result.FAQs, 1)
	pipeline.Wait()

	faqs, err := sys.KnowledgeRepository().ListFAQs(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, faqs, 1)
	assert.Equal(t, "When is payday?", faqs[0].Question)

	_, err = importFile(context.Background(), pipeline, filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

type strategyStore struct {
	faqCalls int
	docCalls []core.Strategy
	limit    int
}

func (s *strategyStore) FindFAQ(_ context.Context, _ string, maxResults int) ([]core.MatchResult, error) {
	s.faqCalls++
	s.limit = maxResults
	return []core.MatchResult{{Item: &core.FAQEntry{Id: 1, Question: "When is payday?"}, Score: 1, Strategy: core.StrategyFAQ}}, nil
}

func (s *strategyStore) FindDocuments(_ context.Context, _ string, maxResults int, strategy core.Strategy) ([]core.MatchResult, error) {
	s.docCalls = append(s.docCalls, strategy)
	s.limit = maxResults
	return []core.MatchResult{{Item: &core.Document{Id: 2, Title: "Payroll schedule"}, Score: 0.7, Strategy: strategy}}, nil
}

func TestSearchStrategy(t *testing.T) {
	ctx := context.Background()

	t.Run("faq", func(t *testing.T) {
		store := &strategyStore{}
		matches, err := searchStrategy(ctx, store, "faq_search", "payday", 3)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "FAQ: When is payday?", matchLabel(matches[0]))
		assert.Equal(t, 1, store.faqCalls)
		assert.Empty(t, store.docCalls)
		assert.Equal(t, 3, store.limit)
	})

	t.Run("document strategies", func(t *testing.T) {
		for _, strategy := range core.DocumentStrategies {
			store := &strategyStore{}
			matches, err := searchStrategy(ctx, store, strategy.String(), "payroll", 5)
			require.NoError(t, err)
			assert.Equal(t, "Document: Payroll schedule", matchLabel(matches[0]))
			assert.Equal(t, []core.Strategy{strategy}, store.docCalls)
			assert.Zero(t, store.faqCalls)
		}
	})

	t.Run("unknown strategy", func(t *testing.T) {
		store := &strategyStore{}
		_, err := searchStrategy(ctx, store, "fuzzy_search", "payroll", 5)
		assert.ErrorContains(t, err, `unknown strategy "fuzzy_search"`)
		assert.Zero(t, store.faqCalls)
		assert.Empty(t, store.docCalls)
	})

	t.Run("invalid limit", func(t *testing.T) {
		_, err := searchStrategy(ctx, &strategyStore{}, "keyword_search", "payroll", 0)
		assert.ErrorContains(t, err, "limit must be positive")
	})
}

func TestSearchStrategy_AgainstStore(t *testing.T) {
	sys, err := resolvit.Open(config.Default(), resolvit.InMemory(), resolvit.WithAIProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer sys.Close()

	ctx := context.Background()
	_, err = sys.KnowledgeRepository().AddFAQs(ctx, &core.FAQEntry{
		Question: "When is payday?",
		Answer:   "The last working day of the month.",
	})
	require.NoError(t, err)

	matches, err := searchStrategy(ctx, sys.Store(), "faq_search", "When is payday?", 5)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "FAQ: When is payday?", matchLabel(matches[0]))
	assert.Equal(t, core.StrategyFAQ, matches[0].Strategy)
}
