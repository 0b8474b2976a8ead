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
	"fmt"
	"io"
	"time"

	"github.com/poiesic/resolvit/ai"
	"github.com/poiesic/resolvit/core"
	"github.com/poiesic/resolvit/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of items to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of items)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for each embedding call
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Summary reports what a run re-embedded. Stale counts items that were
// edited or deleted mid-run and therefore kept the vector of their new
// version.
type Summary struct {
	FAQs      int
	Documents int
	Stale     int
	Elapsed   time.Duration
}

// Reembedder re-embeds every FAQ entry and document in a knowledge store.
type Reembedder struct {
	repo      storage.KnowledgeRepository
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *ItemIterator
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(repo storage.KnowledgeRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		repo:      repo,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(repo, embedder, config.MaxRetries, config.RetryDelay),
		iterator:  NewItemIterator(repo, config.BatchSize),
	}, nil
}

// Run re-embeds FAQ entries first, then documents.
// Progress is reported to the configured writer.
func (r *Reembedder) Run(ctx context.Context) (*Summary, error) {
	stats, err := r.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count knowledge items: %w", err)
	}

	total := stats.FAQCount + stats.DocumentCount
	if total == 0 {
		fmt.Fprintf(r.progress, "No knowledge items found (0 items)\n")
		return &Summary{}, nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d FAQ entries and %d documents (batch size: %d)\n",
		stats.FAQCount, stats.DocumentCount, r.config.BatchSize)

	prog := newProgress(r.progress, stats, r.config.ReportInterval)
	err = r.iterator.ForEachFAQ(ctx, func(entries []*core.FAQEntry) error {
		stored, err := r.processor.ProcessFAQs(ctx, entries)
		if err != nil {
			return fmt.Errorf("failed to process faq batch: %w", err)
		}
		prog.faqsDone(len(entries), len(entries)-stored)
		return nil
	})
	if err != nil {
		return prog.snapshot(), err
	}

	err = r.iterator.ForEachDocument(ctx, func(docs []*core.Document) error {
		stored, err := r.processor.ProcessDocuments(ctx, docs)
		if err != nil {
			return fmt.Errorf("failed to process document batch: %w", err)
		}
		prog.documentsDone(len(docs), len(docs)-stored)
		return nil
	})
	if err != nil {
		return prog.snapshot(), err
	}

	summary := prog.finish()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d FAQ entries and %d documents in %v",
		summary.FAQs, summary.Documents, summary.Elapsed.Round(time.Second))
	if summary.Stale > 0 {
		fmt.Fprintf(r.progress, " (%d changed during the run and kept their newer vectors)", summary.Stale)
	}
	fmt.Fprintln(r.progress)
	return summary, nil
}
