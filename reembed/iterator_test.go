package reembed

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/resolvit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemIterator_Batches(t *testing.T) {
	repo := setupTestRepository(t, 5, 3)
	it := NewItemIterator(repo, 2)
	ctx := context.Background()

	var faqBatches []int
	require.NoError(t, it.ForEachFAQ(ctx, func(entries []*core.FAQEntry) error {
		faqBatches = append(faqBatches, len(entries))
		return nil
	}))
	assert.Equal(t, []int{2, 2, 1}, faqBatches)

	var docBatches []int
	require.NoError(t, it.ForEachDocument(ctx, func(docs []*core.Document) error {
		docBatches = append(docBatches, len(docs))
		return nil
	}))
	assert.Equal(t, []int{2, 1}, docBatches)
}

func TestItemIterator_DefaultBatchSize(t *testing.T) {
	it := NewItemIterator(nil, 0)
	assert.Equal(t, DefaultBatchSize, it.batchSize)
}

func TestItemIterator_StopsOnError(t *testing.T) {
	repo := setupTestRepository(t, 5, 0)
	it := NewItemIterator(repo, 2)
	boom := errors.New("boom")

	calls := 0
	err := it.ForEachFAQ(context.Background(), func([]*core.FAQEntry) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestItemIterator_CanceledBeforeStart(t *testing.T) {
	repo := setupTestRepository(t, 1, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewItemIterator(repo, 2).ForEachFAQ(ctx, func([]*core.FAQEntry) error {
		t.Fatal("callback should not run")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
