package reembed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/poiesic/resolvit/ai"
	"github.com/poiesic/resolvit/core"
	"github.com/poiesic/resolvit/storage"
)

// errEmbeddingMismatch marks a reply with the wrong number of vectors.
var errEmbeddingMismatch = errors.New("embedding count mismatch")

// BatchProcessor embeds batches of knowledge items and stores the vectors.
type BatchProcessor struct {
	repo     storage.KnowledgeRepository
	embedder ai.Embedder
	retry    *retrier
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts for each embedding call and vector write
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.KnowledgeRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:     repo,
		embedder: embedder,
		retry:    newRetrier(maxRetries, retryBaseDelay, nil),
	}
}

// ProcessFAQs re-embeds entries from their question and answer. It returns
// how many vectors were stored; entries edited or deleted since they were
// listed are skipped.
func (bp *BatchProcessor) ProcessFAQs(ctx context.Context, entries []*core.FAQEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	ids := make([]core.ID, len(entries))
	texts := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.Id
		texts[i] = e.EmbeddingText()
	}

	updates, err := bp.embed(ctx, ids, texts)
	if err != nil {
		return 0, err
	}
	var stored int
	err = bp.retry.do(ctx, "store faq vectors", func(ctx context.Context) error {
		var err error
		stored, err = bp.repo.SetFAQVectors(ctx, updates...)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to update faq entries: %w", err)
	}
	return stored, nil
}

// ProcessDocuments re-embeds documents from their title and body.
func (bp *BatchProcessor) ProcessDocuments(ctx context.Context, docs []*core.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	ids := make([]core.ID, len(docs))
	texts := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.Id
		texts[i] = d.EmbeddingText()
	}

	updates, err := bp.embed(ctx, ids, texts)
	if err != nil {
		return 0, err
	}
	var stored int
	err = bp.retry.do(ctx, "store document vectors", func(ctx context.Context) error {
		var err error
		stored, err = bp.repo.SetDocumentVectors(ctx, updates...)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to update documents: %w", err)
	}
	return stored, nil
}

// embed returns one normalized vector update per text, retrying failed calls.
func (bp *BatchProcessor) embed(ctx context.Context, ids []core.ID, texts []string) ([]storage.VectorUpdate, error) {
	var embeddings [][]float32
	err := bp.retry.do(ctx, "embed", func(ctx context.Context) error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		if err == nil && len(embeddings) != len(texts) {
			err = fmt.Errorf("%w: expected %d, got %d", errEmbeddingMismatch, len(texts), len(embeddings))
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}

	updates := make([]storage.VectorUpdate, len(ids))
	for i, id := range ids {
		updates[i] = storage.VectorUpdate{ID: id, Text: texts[i], Vector: core.NormalizeVector(embeddings[i])}
	}
	return updates, nil
}
