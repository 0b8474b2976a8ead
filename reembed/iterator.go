// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"
	"slices"

	"github.com/poiesic/resolvit/core"
	"github.com/poiesic/resolvit/storage"
)

const (
	// DefaultBatchSize is the default number of items to embed in each batch
	DefaultBatchSize = 100
)

// ItemIterator walks the knowledge store in batches.
type ItemIterator struct {
	repo      storage.KnowledgeRepository
	batchSize int
}

// NewItemIterator creates a new item iterator.
// batchSize: number of items in each batch (must be > 0)
func NewItemIterator(repo storage.KnowledgeRepository, batchSize int) *ItemIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ItemIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEachFAQ calls fn for each batch of FAQ entries, in ID order.
// Iteration stops on the first error from fn. Context cancellation is
// checked between batches.
func (it *ItemIterator) ForEachFAQ(ctx context.Context, fn func([]*core.FAQEntry) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := it.repo.ListFAQs(ctx, "")
	if err != nil {
		return err
	}
	return forEachBatch(ctx, entries, it.batchSize, fn)
}

// ForEachDocument calls fn for each batch of documents, in ID order.
func (it *ItemIterator) ForEachDocument(ctx context.Context, fn func([]*core.Document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	docs, err := it.repo.ListDocuments(ctx, "")
	if err != nil {
		return err
	}
	return forEachBatch(ctx, docs, it.batchSize, fn)
}

func forEachBatch[T any](ctx context.Context, items []T, size int, fn func([]T) error) error {
	for batch := range slices.Chunk(items, size) {
		if err := fn(batch); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}
