package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/resolvit/ai"
	"github.com/poiesic/resolvit/core"
	"github.com/poiesic/resolvit/storage"
)

// embedBatchSize bounds the texts sent in one embedding request.
const embedBatchSize = 32

// embeddingProcessor generates unit-length embeddings for knowledge items.
type embeddingProcessor struct {
	repo     storage.KnowledgeRepository
	embedder ai.Embedder
	logger   *slog.Logger
}

var _ processor = (*embeddingProcessor)(nil)

// newEmbeddingProcessor creates a new embedding processor.
func newEmbeddingProcessor(repo storage.KnowledgeRepository, embedder ai.Embedder, logger *slog.Logger) (processor, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		repo:     repo,
		embedder: embedder,
		logger:   logger.With("processor", "embeddings"),
	}, nil
}

// process embeds the FAQ entries and documents in b.
func (ep *embeddingProcessor) process(ctx context.Context, b batch) error {
	ep.logger.Info("processing items for embeddings", "faqs", len(b.faqs), "documents", len(b.documents))

	for chunk := range slices.Chunk(b.faqs, embedBatchSize) {
		if err := ep.embedFAQs(ctx, chunk); err != nil {
			return err
		}
	}
	for chunk := range slices.Chunk(b.documents, embedBatchSize) {
		if err := ep.embedDocuments(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (ep *embeddingProcessor) embedFAQs(ctx context.Context, ids []core.ID) error {
	texts := make([]string, 0, len(ids))
	for _, id := range ids {
		entry, err := ep.repo.GetFAQ(ctx, id)
		if err != nil {
			ep.logger.Error("error retrieving faq entry", "id", id, "err", err)
			return err
		}
		texts = append(texts, entry.EmbeddingText())
	}

	vectors, err := ep.embed(ctx, texts)
	if err != nil {
		return err
	}
	stored, err := ep.repo.SetFAQVectors(ctx, vectorUpdates(ids, texts, vectors)...)
	if err != nil {
		return err
	}
	ep.logSkipped("faq entries", len(ids)-stored)
	return nil
}

func (ep *embeddingProcessor) embedDocuments(ctx context.Context, ids []core.ID) error {
	texts := make([]string, 0, len(ids))
	for _, id := range ids {
		doc, err := ep.repo.GetDocument(ctx, id)
		if err != nil {
			ep.logger.Error("error retrieving document", "id", id, "err", err)
			return err
		}
		texts = append(texts, doc.EmbeddingText())
	}

	vectors, err := ep.embed(ctx, texts)
	if err != nil {
		return err
	}
	stored, err := ep.repo.SetDocumentVectors(ctx, vectorUpdates(ids, texts, vectors)...)
	if err != nil {
		return err
	}
	ep.logSkipped("documents", len(ids)-stored)
	return nil
}

// logSkipped notes items that changed while they were being embedded. A newer
// import has already scheduled their replacement vectors.
func (ep *embeddingProcessor) logSkipped(kind string, n int) {
	if n > 0 {
		ep.logger.Debug("skipped stale embeddings", "kind", kind, "count", n)
	}
}

func vectorUpdates(ids []core.ID, texts []string, vectors [][]float32) []storage.VectorUpdate {
	updates := make([]storage.VectorUpdate, len(ids))
	for i, id := range ids {
		updates[i] = storage.VectorUpdate{ID: id, Text: texts[i], Vector: vectors[i]}
	}
	return updates
}

// embed returns one normalized vector per text.
func (ep *embeddingProcessor) embed(ctx context.Context, texts []string) ([][]float32, error) {
	ep.logger.Debug("generating embeddings", "texts", len(texts))
	embeddings, err := ep.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		ep.logger.Error("error generating embeddings", "err", err)
		return nil, err
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding result mismatch. expected %d, received %d", len(texts), len(embeddings))
	}
	for i := range embeddings {
		embeddings[i] = core.NormalizeVector(embeddings[i])
	}
	return embeddings, nil
}
