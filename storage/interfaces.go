package storage

import (
	"context"

	"github.com/poiesic/resolvit/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// SimilarDocument pairs a stored document with its similarity to a query vector.
type SimilarDocument struct {
	Document *core.Document
	Score    float32
}

// VectorUpdate carries an embedding computed from an item's EmbeddingText.
// Text is the text the vector was computed from; the vector is only stored
// while the item still embeds to that text.
type VectorUpdate struct {
	ID     core.ID
	Text   string
	Vector []float32
}

// KnowledgeRepository provides operations for managing FAQ entries and documents.
// The resolution pipeline only reads through it; writes come from import and
// reembed tooling.
type KnowledgeRepository interface {
	Repository

	// AddFAQs upserts FAQ entries. Entries with ID=0 get a content-based ID
	// derived from the normalized question, so re-importing the same question
	// replaces the existing entry. InsertedAt is preserved across upserts.
	AddFAQs(ctx context.Context, entries ...*core.FAQEntry) ([]*core.FAQEntry, error)

	// UpdateFAQs updates existing FAQ entries.
	// Returns ErrNotFound if any entry doesn't exist.
	UpdateFAQs(ctx context.Context, entries ...*core.FAQEntry) ([]*core.FAQEntry, error)

	// DeleteFAQs removes FAQ entries by their IDs.
	// Returns ErrNotFound if any entry doesn't exist.
	DeleteFAQs(ctx context.Context, ids ...core.ID) error

	// GetFAQ retrieves a single FAQ entry by ID.
	// Returns ErrNotFound if the entry doesn't exist.
	GetFAQ(ctx context.Context, id core.ID) (*core.FAQEntry, error)

	// ListFAQs returns all FAQ entries ordered by ID. A non-empty category
	// restricts the result to that category (case-insensitive).
	ListFAQs(ctx context.Context, category string) ([]*core.FAQEntry, error)

	// AddDocuments upserts documents keyed by normalized title.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// UpdateDocuments updates existing documents.
	// Returns ErrNotFound if any document doesn't exist.
	UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// DeleteDocuments removes documents by their IDs.
	DeleteDocuments(ctx context.Context, ids ...core.ID) error

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// ListDocuments returns all documents ordered by ID, optionally filtered
	// by category.
	ListDocuments(ctx context.Context, category string) ([]*core.Document, error)

	// SetFAQVectors stores vectors on FAQ entries without touching any other
	// field. Updates for entries that were deleted, or whose question or answer
	// changed since Text was captured, are skipped. Returns how many vectors
	// were stored.
	SetFAQVectors(ctx context.Context, updates ...VectorUpdate) (int, error)

	// SetDocumentVectors is SetFAQVectors for documents.
	SetDocumentVectors(ctx context.Context, updates ...VectorUpdate) (int, error)

	// FindSimilarDocuments finds documents whose embedding is similar to vector.
	// Returns documents with similarity >= minSimilarity, up to limit results,
	// highest similarity first. Documents without embeddings are skipped.
	FindSimilarDocuments(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]SimilarDocument, error)

	// Stats returns corpus-wide counts used as health metrics.
	Stats(ctx context.Context) (core.KnowledgeStats, error)
}

// ConversationRepository is the append-only log of resolved turns.
type ConversationRepository interface {
	// AppendTurn stores a new turn, assigning its ID. The turn is never
	// modified afterwards.
	AppendTurn(ctx context.Context, turn *core.ConversationTurn) (*core.ConversationTurn, error)

	// GetTurns returns every turn of a conversation in append order.
	GetTurns(ctx context.Context, conversationID string) ([]*core.ConversationTurn, error)

	// GetRecentTurns returns up to limit of the most recent turns of a
	// conversation, oldest first.
	GetRecentTurns(ctx context.Context, conversationID string, limit int) ([]*core.ConversationTurn, error)

	// Close releases resources held by the repository.
	Close() error
}
