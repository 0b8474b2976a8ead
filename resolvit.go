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


// Package resolvit wires the knowledge store, search strategies, composers
// and resolver into a single System.
package resolvit

import (
	"errors"
	"io"
	"log/slog"

	"github.com/poiesic/resolvit/ai"
	"github.com/poiesic/resolvit/ai/lite"
	"github.com/poiesic/resolvit/ai/openai"
	"github.com/poiesic/resolvit/compose"
	"github.com/poiesic/resolvit/config"
	"github.com/poiesic/resolvit/ingestion"
	"github.com/poiesic/resolvit/knowledge"
	"github.com/poiesic/resolvit/reembed"
	"github.com/poiesic/resolvit/resolve"
	"github.com/poiesic/resolvit/search"
	"github.com/poiesic/resolvit/server"
	"github.com/poiesic/resolvit/storage"
	"github.com/poiesic/resolvit/storage/badger"
	"github.com/poiesic/resolvit/storage/sqlite"
)

type System struct {
	settings      *config.Settings
	backend       *badger.Backend
	knowledgeRepo storage.KnowledgeRepository
	turns         storage.ConversationRepository
	provider      ai.AIProvider
	embedder      ai.Embedder
	store         *knowledge.Store
	resolver      *resolve.Resolver
	logger        *slog.Logger
}

// Option configures a System.
type Option func(*options)

type options struct {
	provider ai.AIProvider
	rewriter ai.Rewriter
	monitor  resolve.Monitor
	inMemory bool
	logger   *slog.Logger
}

// WithAIProvider replaces the OpenAI-compatible provider built from settings.
func WithAIProvider(p ai.AIProvider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithRewriter replaces the fallback rewriter built from settings.
func WithRewriter(r ai.Rewriter) Option {
	return func(o *options) {
		o.rewriter = r
	}
}

// WithMonitor observes every resolution.
func WithMonitor(m resolve.Monitor) Option {
	return func(o *options) {
		o.monitor = m
	}
}

// InMemory keeps the knowledge store in memory. Useful for tests.
func InMemory() Option {
	return func(o *options) {
		o.inMemory = true
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Open builds a System from settings. Nil settings use config.Default().
func Open(settings *config.Settings, opts ...Option) (*System, error) {
	if settings == nil {
		settings = config.Default()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	sys := &System{settings: settings, logger: o.logger}
	if err := sys.open(o); err != nil {
		if closeErr := sys.Close(); closeErr != nil {
			o.logger.Error("error releasing partially opened system", "err", closeErr)
		}
		return nil, err
	}
	return sys, nil
}

func (s *System) open(o *options) error {
	var err error
	s.backend, err = badger.OpenBackend(s.settings.Database.Path, o.inMemory)
	if err != nil {
		return err
	}
	knowledgeRepo, err := badger.NewKnowledgeRepository(s.backend)
	if err != nil {
		return err
	}
	s.knowledgeRepo = knowledgeRepo

	switch s.settings.Database.ConversationLog {
	case config.ConversationLogSQLite:
		s.turns, err = sqlite.OpenConversationRepository(s.settings.Database.SQLitePath)
	default:
		var turns *badger.ConversationRepository
		turns, err = badger.NewConversationRepository(s.backend)
		if err == nil {
			s.turns = turns
		}
	}
	if err != nil {
		return err
	}

	aiConfig := s.settings.AIConfig()
	s.provider = o.provider
	if s.provider == nil {
		s.provider, err = openai.NewProvider(aiConfig)
		if err != nil {
			return err
		}
	}
	s.embedder = s.provider.Embedder()
	if ttl := s.settings.AI.EmbeddingCacheTTL; ttl > 0 {
		s.embedder = ai.NewCachingEmbedder(s.embedder, ttl)
	}

	s.store, err = s.newStore()
	if err != nil {
		return err
	}

	primary, err := compose.NewPrimary(s.provider.AnswerGenerator(),
		compose.WithRateLimit(s.settings.AI.RequestsPerSecond, s.settings.AI.Burst),
		compose.WithMaxHistory(s.settings.Server.HistoryTurns),
		compose.WithPrimaryLogger(s.logger))
	if err != nil {
		return err
	}

	rewriter := o.rewriter
	if rewriter == nil && aiConfig.RewriterEnabled() {
		rewriter, err = lite.NewRewriter(aiConfig)
		if err != nil {
			return err
		}
	}
	fallback := compose.NewFallback(compose.WithRewriter(rewriter), compose.WithFallbackLogger(s.logger))

	s.resolver, err = resolve.NewResolver(s.store, primary, fallback,
		resolve.WithConfig(s.settings.ResolveConfig()),
		resolve.WithConversationLog(s.turns),
		resolve.WithMonitor(o.monitor),
		resolve.WithLogger(s.logger))
	return err
}

func (s *System) newStore() (*knowledge.Store, error) {
	sc := s.settings.Search

	faq, err := search.NewFAQMatcher(s.knowledgeRepo, search.WithFloor(sc.FAQMinSimilarity), search.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	keyword, err := search.NewKeywordSearcher(s.knowledgeRepo, search.WithFloor(sc.KeywordFloor), search.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	storeOpts := []knowledge.Option{
		knowledge.WithFAQMatcher(faq),
		knowledge.WithDocumentStrategy(keyword),
		knowledge.WithLogger(s.logger),
	}

	if sc.EnableSemantic {
		semantic, err := search.NewSemanticSearcher(s.knowledgeRepo, s.provider.RelevanceScorer(),
			search.WithFloor(sc.SemanticFloor),
			search.WithMaxCandidates(sc.SemanticMaxCandidates),
			search.WithLogger(s.logger))
		if err != nil {
			return nil, err
		}
		storeOpts = append(storeOpts, knowledge.WithDocumentStrategy(semantic))
	}
	if sc.EnableEmbedding {
		embedding, err := search.NewEmbeddingSearcher(s.knowledgeRepo, s.embedder,
			search.WithFloor(sc.EmbeddingFloor),
			search.WithLogger(s.logger))
		if err != nil {
			return nil, err
		}
		storeOpts = append(storeOpts, knowledge.WithDocumentStrategy(embedding))
	}
	return knowledge.NewStore(s.knowledgeRepo, storeOpts...)
}

// Close releases the provider, repositories and backend.
func (s *System) Close() error {
	var errs []error
	if s.provider != nil {
		if err := s.provider.Close(); err != nil {
			s.logger.Error("error closing AI provider", "err", err)
		}
	}
	if s.turns != nil {
		if err := s.turns.Close(); err != nil {
			s.logger.Error("error closing conversation log", "err", err)
			errs = append(errs, err)
		}
	}
	if s.knowledgeRepo != nil {
		if err := s.knowledgeRepo.Close(); err != nil {
			s.logger.Error("error closing knowledge repository", "err", err)
			errs = append(errs, err)
		}
	}
	if s.backend != nil {
		if err := s.backend.Close(); err != nil {
			s.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *System) Settings() *config.Settings {
	return s.settings
}

func (s *System) Resolver() *resolve.Resolver {
	return s.resolver
}

func (s *System) Store() *knowledge.Store {
	return s.store
}

func (s *System) KnowledgeRepository() storage.KnowledgeRepository {
	return s.knowledgeRepo
}

func (s *System) ConversationRepository() storage.ConversationRepository {
	return s.turns
}

// NewIngestionPipeline creates an import pipeline. Imported items are embedded
// when the embedding strategy is enabled.
func (s *System) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	base := []ingestion.Option{ingestion.WithLogger(s.logger)}
	if s.settings.Search.EnableEmbedding {
		base = append(base, ingestion.WithEmbedder(s.provider.Embedder()))
	}
	return ingestion.NewPipeline(s.knowledgeRepo, append(base, opts...)...)
}

// NewReembedder creates a reembedder writing progress to w.
func (s *System) NewReembedder(cfg *reembed.Config, w io.Writer) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(s.knowledgeRepo, s.provider.Embedder(), cfg, w)
}

// NewServer creates the HTTP intake over this system.
func (s *System) NewServer(opts ...server.Option) (*server.Server, error) {
	base := []server.Option{
		server.WithConversationLog(s.turns),
		server.WithHistoryTurns(s.settings.Server.HistoryTurns),
		server.WithLogger(s.logger),
	}
	return server.New(s.resolver, s.store, append(base, opts...)...)
}
