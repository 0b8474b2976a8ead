package compose

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/resolvit/ai/mock"
	"github.com/poiesic/resolvit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallback_NoMatches(t *testing.T) {
	_, err := NewFallback().Compose(context.Background(), core.Query{Text: "q"}, nil)
	assert.ErrorIs(t, err, ErrNoMatches)
}

func TestFallback_ExtractsTopRankedItem(t *testing.T) {
	matches := testMatches()
	// Supply out of order; the FAQ entry still ranks first.
	reversed := []core.MatchResult{matches[1], matches[0]}

	out, err := NewFallback().Compose(context.Background(), core.Query{Text: "How to create an Employee?"}, reversed)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, NameFallback, out.Composer)
	assert.Equal(t, "Employee > Employees > Create > Fill out the form", out.Text)
	assert.InDelta(t, 0.95, out.Confidence, 1e-6)
	require.Len(t, out.Cited, 1)
	assert.Equal(t, core.ID(1), out.Cited[0].Item.ItemID())
}

func TestFallback_Rewriter(t *testing.T) {
	q := core.Query{Text: "How to create an Employee?"}
	verbatim := "Employee > Employees > Create > Fill out the form"

	tests := []struct {
		name    string
		rewrite func(ctx context.Context, question, text string) (string, error)
		want    string
	}{
		{
			name: "rewritten",
			rewrite: func(ctx context.Context, question, text string) (string, error) {
				return "To add one, open Employee > Employees > Create > Fill out the form.", nil
			},
			want: "To add one, open Employee > Employees > Create > Fill out the form.",
		},
		{
			name: "error uses verbatim",
			rewrite: func(ctx context.Context, question, text string) (string, error) {
				return "", errors.New("rewriter offline")
			},
			want: verbatim,
		},
		{
			name: "empty uses verbatim",
			rewrite: func(ctx context.Context, question, text string) (string, error) {
				return "   ", nil
			},
			want: verbatim,
		},
		{
			name: "altered menu path uses verbatim",
			rewrite: func(ctx context.Context, question, text string) (string, error) {
				return "Go to People > Add.", nil
			},
			want: verbatim,
		},
		{
			name: "timeout uses verbatim",
			rewrite: func(ctx context.Context, question, text string) (string, error) {
				<-ctx.Done()
				return "", ctx.Err()
			},
			want: verbatim,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rw := mock.NewMockRewriter()
			rw.RewriteFunc = tt.rewrite
			f := NewFallback(WithRewriter(rw), WithRewriteTimeout(20*time.Millisecond))

			out, err := f.Compose(context.Background(), q, testMatches())
			require.NoError(t, err)
			assert.True(t, out.Success)
			assert.Equal(t, tt.want, out.Text)
			// Rewritten or not, the answer is the top item's content.
			assert.InDelta(t, 0.95, out.Confidence, 1e-6)
			assert.Equal(t, 1, rw.CallCount())
		})
	}
}

func TestFallback_DocumentExcerpt(t *testing.T) {
	body := "Welcome to the handbook. Our offices open at nine. Parental leave lasts sixteen weeks. Expense claims are due monthly."
	matches := []core.MatchResult{{
		Item:     &core.Document{Id: 5, Title: "Handbook", Body: body},
		Score:    0.65,
		Strategy: core.StrategyEmbedding,
	}}

	out, err := NewFallback(WithMaxExcerptRunes(40)).Compose(context.Background(), core.Query{Text: "How long is parental leave?"}, matches)
	require.NoError(t, err)
	assert.Equal(t, "Parental leave lasts sixteen weeks.", out.Text)
	assert.InDelta(t, 0.65, out.Confidence, 1e-6)
}

func TestFallback_ShortDocumentIsVerbatim(t *testing.T) {
	matches := []core.MatchResult{{
		Item:     &core.Document{Id: 5, Title: "Payroll", Body: "  Salaries are paid monthly.  "},
		Score:    0.6,
		Strategy: core.StrategyKeyword,
	}}
	out, err := NewFallback().Compose(context.Background(), core.Query{Text: "When is payday?"}, matches)
	require.NoError(t, err)
	assert.Equal(t, "Salaries are paid monthly.", out.Text)
}

func TestPreservesMenuPaths(t *testing.T) {
	assert.True(t, preservesMenuPaths("No path here.", "Anything"))
	assert.True(t, preservesMenuPaths("Go to Leave > Requests > New.", "Open Leave > Requests > New please"))
	assert.False(t, preservesMenuPaths("Go to Leave > Requests > New.", "Open Leave > New"))
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("One. Two! Three?\nFour 3.5 units")
	assert.Equal(t, []string{"One.", "Two!", "Three?", "Four 3.5 units"}, got)
	assert.True(t, strings.HasPrefix(bestExcerpt("four", "One. Two. Four units.", 100), "Four"))
}
