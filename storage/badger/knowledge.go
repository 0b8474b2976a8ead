package badger

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/resolvit/core"
	"github.com/poiesic/resolvit/storage"
)

// KnowledgeRepository implements storage.KnowledgeRepository for BadgerDB.
type KnowledgeRepository struct {
	backend *Backend
}

var _ storage.KnowledgeRepository = (*KnowledgeRepository)(nil)

// NewKnowledgeRepository creates a new KnowledgeRepository.
func NewKnowledgeRepository(backend *Backend) (*KnowledgeRepository, error) {
	return &KnowledgeRepository{
		backend: backend,
	}, nil
}

// Close releases resources. KnowledgeRepository has no resources to release.
func (r *KnowledgeRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *KnowledgeRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddFAQs upserts FAQ entries keyed by normalized question.
func (r *KnowledgeRepository) AddFAQs(ctx context.Context, entries ...*core.FAQEntry) ([]*core.FAQEntry, error) {
	for _, entry := range entries {
		if err := core.ValidateFAQEntry(entry); err != nil {
			return nil, err
		}
	}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, entry := range entries {
			if entry.Id == 0 {
				entry.Id = core.IDFromContent(core.FAQKey(entry.Question))
			}
			key := makeFAQKey(entry.Id)

			old, err := readFAQ(tx, key)
			if err != nil {
				return err
			}
			if old != nil {
				entry.InsertedAt = old.InsertedAt
			} else if entry.InsertedAt.IsZero() {
				entry.InsertedAt = now
			}
			entry.UpdatedAt = now

			if err := tx.Set(key, storage.MarshalFAQEntry(entry)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// UpdateFAQs updates existing FAQ entries.
func (r *KnowledgeRepository) UpdateFAQs(ctx context.Context, entries ...*core.FAQEntry) ([]*core.FAQEntry, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, entry := range entries {
			key := makeFAQKey(entry.Id)
			old, err := readFAQ(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			entry.InsertedAt = old.InsertedAt
			entry.UpdatedAt = time.Now().UTC()
			if err := tx.Set(key, storage.MarshalFAQEntry(entry)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteFAQs removes FAQ entries by their IDs.
func (r *KnowledgeRepository) DeleteFAQs(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeFAQKey(id)
			entry, err := readFAQ(tx, key)
			if err != nil {
				return err
			}
			if entry == nil {
				return storage.ErrNotFound
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetFAQ retrieves a single FAQ entry by ID.
func (r *KnowledgeRepository) GetFAQ(ctx context.Context, id core.ID) (*core.FAQEntry, error) {
	var result *core.FAQEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readFAQ(tx, makeFAQKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ListFAQs returns FAQ entries ordered by ID, optionally filtered by category.
func (r *KnowledgeRepository) ListFAQs(ctx context.Context, category string) ([]*core.FAQEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var results []*core.FAQEntry
	err := r.scan(faqRecordPrefix, func(val []byte) error {
		entry, err := storage.UnmarshalFAQEntry(val)
		if err != nil {
			return err
		}
		if matchesCategory(entry.Category, category) {
			results = append(results, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(results, func(a, b *core.FAQEntry) int {
		return cmp.Compare(a.Id, b.Id)
	})
	return results, nil
}

// AddDocuments upserts documents keyed by normalized title.
func (r *KnowledgeRepository) AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	for _, doc := range docs {
		if err := core.ValidateDocument(doc); err != nil {
			return nil, err
		}
	}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, doc := range docs {
			if doc.Id == 0 {
				doc.Id = core.IDFromContent(core.DocumentKey(doc.Title))
			}
			key := makeDocumentKey(doc.Id)

			old, err := readDocument(tx, key)
			if err != nil {
				return err
			}
			if old != nil {
				doc.InsertedAt = old.InsertedAt
			} else if doc.InsertedAt.IsZero() {
				doc.InsertedAt = now
			}
			doc.UpdatedAt = now

			if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// UpdateDocuments updates existing documents.
func (r *KnowledgeRepository) UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, doc := range docs {
			key := makeDocumentKey(doc.Id)
			old, err := readDocument(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			doc.InsertedAt = old.InsertedAt
			doc.UpdatedAt = time.Now().UTC()
			if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// DeleteDocuments removes documents by their IDs.
func (r *KnowledgeRepository) DeleteDocuments(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeDocumentKey(id)
			doc, err := readDocument(tx, key)
			if err != nil {
				return err
			}
			if doc == nil {
				return storage.ErrNotFound
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetDocument retrieves a single document by ID.
func (r *KnowledgeRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ListDocuments returns documents ordered by ID, optionally filtered by category.
func (r *KnowledgeRepository) ListDocuments(ctx context.Context, category string) ([]*core.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var results []*core.Document
	err := r.scan(docRecordPrefix, func(val []byte) error {
		doc, err := storage.UnmarshalDocument(val)
		if err != nil {
			return err
		}
		if matchesCategory(doc.Category, category) {
			results = append(results, doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(results, func(a, b *core.Document) int {
		return cmp.Compare(a.Id, b.Id)
	})
	return results, nil
}

// maxConflictRetries bounds how often a vector write is retried after a
// concurrent upsert touched the same keys.
const maxConflictRetries = 5

// SetFAQVectors stores vectors on FAQ entries that still embed to the text
// the vector was computed from.
func (r *KnowledgeRepository) SetFAQVectors(ctx context.Context, updates ...storage.VectorUpdate) (int, error) {
	return r.setVectors(ctx, updates, func(tx *badger.Txn, u storage.VectorUpdate) (bool, error) {
		key := makeFAQKey(u.ID)
		entry, err := readFAQ(tx, key)
		if err != nil || entry == nil || entry.EmbeddingText() != u.Text {
			return false, err
		}
		entry.Vector = u.Vector
		return true, tx.Set(key, storage.MarshalFAQEntry(entry))
	})
}

// SetDocumentVectors stores vectors on documents that still embed to the
// text the vector was computed from.
func (r *KnowledgeRepository) SetDocumentVectors(ctx context.Context, updates ...storage.VectorUpdate) (int, error) {
	return r.setVectors(ctx, updates, func(tx *badger.Txn, u storage.VectorUpdate) (bool, error) {
		key := makeDocumentKey(u.ID)
		doc, err := readDocument(tx, key)
		if err != nil || doc == nil || doc.EmbeddingText() != u.Text {
			return false, err
		}
		doc.Vector = u.Vector
		return true, tx.Set(key, storage.MarshalDocument(doc))
	})
}

// setVectors applies updates in one write transaction. The records are read
// inside the transaction, so an upsert committed in between makes the commit
// fail with badger.ErrConflict and the whole batch is re-evaluated.
func (r *KnowledgeRepository) setVectors(ctx context.Context, updates []storage.VectorUpdate, apply func(*badger.Txn, storage.VectorUpdate) (bool, error)) (int, error) {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		stored := 0
		err := r.backend.WithTx(func(tx *badger.Txn) error {
			for _, u := range updates {
				ok, err := apply(tx, u)
				if err != nil {
					return err
				}
				if ok {
					stored++
				}
			}
			return tx.Commit()
		}, true)
		if errors.Is(err, badger.ErrConflict) && attempt < maxConflictRetries {
			r.backend.logger.Debug("vector write conflicted, retrying", "attempt", attempt+1)
			continue
		}
		if err != nil {
			return 0, err
		}
		return stored, nil
	}
}

// FindSimilarDocuments finds documents whose embedding is similar to vector.
// Stored vectors are normalized at ingestion, so the dot product is the
// cosine similarity.
func (r *KnowledgeRepository) FindSimilarDocuments(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]storage.SimilarDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var results []storage.SimilarDocument

	err := r.scan(docRecordPrefix, func(val []byte) error {
		doc, err := storage.UnmarshalDocument(val)
		if err != nil {
			return err
		}
		// Skip documents without embeddings
		if len(doc.Vector) == 0 {
			return nil
		}
		similarity := dotProduct(vector, doc.Vector)
		if similarity >= minSimilarity {
			results = append(results, storage.SimilarDocument{Document: doc, Score: similarity})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending, ID ascending on ties
	slices.SortFunc(results, func(a, b storage.SimilarDocument) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return cmp.Compare(a.Document.Id, b.Document.Id)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Stats returns corpus counts and the sorted set of categories.
func (r *KnowledgeRepository) Stats(ctx context.Context) (core.KnowledgeStats, error) {
	var stats core.KnowledgeStats
	categories := make(map[string]struct{})

	faqs, err := r.ListFAQs(ctx, "")
	if err != nil {
		return stats, err
	}
	for _, f := range faqs {
		stats.FAQCount++
		if len(f.Vector) > 0 {
			stats.EmbeddedFAQs++
		}
		if f.Category != "" {
			categories[f.Category] = struct{}{}
		}
	}

	docs, err := r.ListDocuments(ctx, "")
	if err != nil {
		return stats, err
	}
	for _, d := range docs {
		stats.DocumentCount++
		if len(d.Vector) > 0 {
			stats.EmbeddedDocuments++
		}
		if d.Category != "" {
			categories[d.Category] = struct{}{}
		}
	}

	stats.Categories = make([]string, 0, len(categories))
	for c := range categories {
		stats.Categories = append(stats.Categories, c)
	}
	slices.Sort(stats.Categories)
	return stats, nil
}

// Helper methods

// scan calls fn with the value of every record under prefix.
func (r *KnowledgeRepository) scan(prefix string, fn func(val []byte) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := iter.Item().Value(fn); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

func matchesCategory(have, want string) bool {
	return want == "" || strings.EqualFold(have, want)
}

// readFAQ reads an FAQ entry from the transaction.
func readFAQ(tx *badger.Txn, key []byte) (*core.FAQEntry, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var entry *core.FAQEntry
	err = item.Value(func(val []byte) error {
		var err error
		entry, err = storage.UnmarshalFAQEntry(val)
		return err
	})
	return entry, err
}

// readDocument reads a document from the transaction.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var err error
		doc, err = storage.UnmarshalDocument(val)
		return err
	})
	return doc, err
}
