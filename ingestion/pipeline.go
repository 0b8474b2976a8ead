package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/resolvit/ai"
	"github.com/poiesic/resolvit/core"
	"github.com/poiesic/resolvit/storage"
)

// Pipeline imports knowledge items and embeds them in the background.
type Pipeline struct {
	repo          storage.KnowledgeRepository
	embedder      ai.Embedder
	embeddingPool *ants.Pool
	embeddingProc processor
	pending       sync.WaitGroup
	logger        *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.embeddingPool = pool
		return nil
	}
}

// WithEmbedder enables embedding of imported items. Without an embedder,
// items are stored without vectors and only the text strategies find them.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(p *Pipeline) error {
		p.embedder = embedder
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(repo storage.KnowledgeRepository, opts ...Option) (*Pipeline, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		repo:          repo,
		embeddingPool: pool,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	if p.embedder != nil {
		proc, err := newEmbeddingProcessor(repo, p.embedder, p.logger)
		if err != nil {
			p.Release()
			return nil, err
		}
		p.embeddingProc = proc
	}
	return p, nil
}

// IngestResult reports the items written by one import.
type IngestResult struct {
	FAQs      []*core.FAQEntry
	Documents []*core.Document
}

// Ingest upserts the file's FAQ entries and documents, then schedules their
// embedding. Re-importing an item with the same question or title replaces
// it. Errors during async embedding are logged but do not fail the import.
func (p *Pipeline) Ingest(ctx context.Context, kf *KnowledgeFile) (*IngestResult, error) {
	result := &IngestResult{}
	if kf == nil {
		return result, nil
	}

	var b batch
	if faqs := kf.FAQEntries(); len(faqs) > 0 {
		added, err := p.repo.AddFAQs(ctx, faqs...)
		if err != nil {
			return nil, err
		}
		result.FAQs = added
		for _, f := range added {
			b.faqs = append(b.faqs, f.Id)
		}
	}
	if docs := kf.DocumentEntries(); len(docs) > 0 {
		added, err := p.repo.AddDocuments(ctx, docs...)
		if err != nil {
			return nil, err
		}
		result.Documents = added
		for _, d := range added {
			b.documents = append(b.documents, d.Id)
		}
	}

	p.logger.Info("imported knowledge", "faqs", len(result.FAQs), "documents", len(result.Documents))
	p.schedule(b)
	return result, nil
}

func (p *Pipeline) schedule(b batch) {
	if p.embeddingProc == nil || b.empty() {
		return
	}
	p.pending.Add(1)
	err := p.embeddingPool.Submit(func() {
		defer p.pending.Done()
		if err := p.embeddingProc.process(context.Background(), b); err != nil {
			p.logger.Error("error processing embeddings", "err", err)
		}
	})
	if err != nil {
		p.pending.Done()
		p.logger.Error("error scheduling embeddings", "err", err)
	}
}

// Wait blocks until every scheduled embedding task has finished.
func (p *Pipeline) Wait() {
	p.pending.Wait()
}

// Release waits for pending work and releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	p.pending.Wait()
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
}
