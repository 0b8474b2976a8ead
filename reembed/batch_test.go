package reembed

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/resolvit/ai/mock"
	"github.com/poiesic/resolvit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchProcessor_EmptyBatch(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	bp := NewBatchProcessor(nil, embedder, 1, time.Millisecond)

	stored, err := bp.ProcessFAQs(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, stored)
	stored, err = bp.ProcessDocuments(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, stored)
	assert.Zero(t, embedder.CallCount())
}

func TestBatchProcessor_CountMismatchIsNotRetried(t *testing.T) {
	repo := setupTestRepository(t, 2, 0)
	faqs, err := repo.ListFAQs(context.Background(), "")
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
		return [][]float32{{1, 0}}, nil
	}
	bp := NewBatchProcessor(repo, embedder, 3, time.Millisecond)

	_, err = bp.ProcessFAQs(context.Background(), faqs)
	assert.ErrorIs(t, err, errEmbeddingMismatch)
	assert.Equal(t, 1, embedder.CallCount())
}

func TestBatchProcessor_DeletedDocumentIsSkipped(t *testing.T) {
	repo := setupTestRepository(t, 0, 0)
	bp := NewBatchProcessor(repo, mock.NewMockEmbedder(), 1, time.Millisecond)

	stored, err := bp.ProcessDocuments(context.Background(), []*core.Document{{Id: 42, Title: "Ghost", Body: "Gone"}})
	require.NoError(t, err)
	assert.Zero(t, stored)
}

func TestBatchProcessor_EditedEntryKeepsNewText(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepository(t, 2, 0)
	listed, err := repo.ListFAQs(ctx, "")
	require.NoError(t, err)
	require.Len(t, listed, 2)

	// Same question, new answer: the listed copy is now stale.
	edited := &core.FAQEntry{Question: listed[0].Question, Answer: "Revised answer"}
	_, err = repo.AddFAQs(ctx, edited)
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	bp := NewBatchProcessor(repo, embedder, 1, time.Millisecond)

	stored, err := bp.ProcessFAQs(ctx, listed)
	require.NoError(t, err)
	assert.Equal(t, 1, stored)

	current, err := repo.GetFAQ(ctx, listed[0].Id)
	require.NoError(t, err)
	assert.Equal(t, "Revised answer", current.Answer)
	assert.Nil(t, current.Vector)

	other, err := repo.GetFAQ(ctx, listed[1].Id)
	require.NoError(t, err)
	assert.NotNil(t, other.Vector)
}
