package search

import (
	"context"
	"testing"

	"github.com/poiesic/resolvit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFAQMatcher(t *testing.T) {
	repo, _ := newTestCorpus(t)

	t.Run("valid configuration", func(t *testing.T) {
		m, err := NewFAQMatcher(repo)
		require.NoError(t, err)
		assert.InDelta(t, DefaultFAQMinSimilarity, m.minScore, 1e-6)
	})

	t.Run("nil corpus", func(t *testing.T) {
		_, err := NewFAQMatcher(nil)
		assert.Equal(t, ErrCorpusRequired, err)
	})

	t.Run("floor out of range", func(t *testing.T) {
		_, err := NewFAQMatcher(repo, WithFloor(1.5))
		assert.ErrorIs(t, err, ErrInvalidFloor)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		m, err := NewFAQMatcher(repo, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, m.logger)
	})
}

func TestFAQMatcher_IdenticalQuestionIsTopMatch(t *testing.T) {
	repo, _ := newTestCorpus(t)
	faqs := seedFAQs(t, repo)
	m, err := NewFAQMatcher(repo)
	require.NoError(t, err)

	for _, q := range []string{"How to create an Employee?", "how to create an employee", "  HOW TO CREATE AN EMPLOYEE!! "} {
		t.Run(q, func(t *testing.T) {
			matches, err := m.Match(context.Background(), q, 3)
			require.NoError(t, err)
			require.NotEmpty(t, matches)
			assert.Equal(t, faqs[0].Id, matches[0].Item.ItemID())
			assert.Equal(t, float32(1), matches[0].Score)
			assert.Equal(t, core.StrategyFAQ, matches[0].Strategy)
		})
	}
}

func TestFAQMatcher_UnrelatedQueryMatchesNothing(t *testing.T) {
	repo, _ := newTestCorpus(t)
	seedFAQs(t, repo)
	m, err := NewFAQMatcher(repo)
	require.NoError(t, err)

	matches, err := m.Match(context.Background(), "quantum chromodynamics lattice", 3)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFAQMatcher_AnswerHitIsWeighted(t *testing.T) {
	repo, _ := newTestCorpus(t)
	faqs := seedFAQs(t, repo)
	m, err := NewFAQMatcher(repo)
	require.NoError(t, err)

	matches, err := m.Match(context.Background(), "fill out the form", 3)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, faqs[0].Id, matches[0].Item.ItemID())
	assert.InDelta(t, 0.5, matches[0].Score, 1e-6)
}

func TestFAQMatcher_RanksAndLimits(t *testing.T) {
	repo, _ := newTestCorpus(t)
	seedFAQs(t, repo)
	m, err := NewFAQMatcher(repo, WithFloor(0))
	require.NoError(t, err)

	all, err := m.Match(context.Background(), "employee", 0)
	require.NoError(t, err)
	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, core.CompareMatches(all[i-1], all[i]), 0)
	}

	one, err := m.Match(context.Background(), "employee", 1)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, all[0].Item.ItemID(), one[0].Item.ItemID())
}

func TestFAQMatcher_IsDeterministic(t *testing.T) {
	repo, _ := newTestCorpus(t)
	seedFAQs(t, repo)
	m, err := NewFAQMatcher(repo, WithFloor(0))
	require.NoError(t, err)

	first, err := m.Match(context.Background(), "employee record", 0)
	require.NoError(t, err)
	for range 5 {
		again, err := m.Match(context.Background(), "employee record", 0)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestFAQMatcher_CorpusFailure(t *testing.T) {
	repo, backend := newTestCorpus(t)
	m, err := NewFAQMatcher(repo)
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	_, err = m.Match(context.Background(), "anything", 3)
	assert.ErrorIs(t, err, ErrCorpusUnavailable)
}
