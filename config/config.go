// Package config loads resolvit settings from defaults, a YAML file, a .env
// file and RESOLVIT_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/resolvit/ai"
	"github.com/poiesic/resolvit/resolve"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable override, e.g.
// RESOLVIT_AI_CHAT_MODEL overrides ai.chat_model.
const EnvPrefix = "RESOLVIT"

// Conversation log backends.
const (
	ConversationLogBadger = "badger"
	ConversationLogSQLite = "sqlite"
)

// Settings is the complete resolvit configuration.
type Settings struct {
	Database DatabaseSettings `yaml:"database" mapstructure:"database"`
	AI       AISettings       `yaml:"ai" mapstructure:"ai"`
	Search   SearchSettings   `yaml:"search" mapstructure:"search"`
	Resolve  ResolveSettings  `yaml:"resolve" mapstructure:"resolve"`
	Server   ServerSettings   `yaml:"server" mapstructure:"server"`
}

// DatabaseSettings locates the knowledge store and the conversation log.
type DatabaseSettings struct {
	Path            string `yaml:"path" mapstructure:"path"`
	ConversationLog string `yaml:"conversation_log" mapstructure:"conversation_log"`
	SQLitePath      string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// AISettings configures the model-backed services.
type AISettings struct {
	EmbeddingHost     string        `yaml:"embedding_host" mapstructure:"embedding_host"`
	ChatHost          string        `yaml:"chat_host" mapstructure:"chat_host"`
	RewriterHost      string        `yaml:"rewriter_host" mapstructure:"rewriter_host"`
	APIKey            string        `yaml:"api_key" mapstructure:"api_key"`
	EmbeddingModel    string        `yaml:"embedding_model" mapstructure:"embedding_model"`
	ChatModel         string        `yaml:"chat_model" mapstructure:"chat_model"`
	RewriterModel     string        `yaml:"rewriter_model" mapstructure:"rewriter_model"`
	MaxAnswerTokens   int           `yaml:"max_answer_tokens" mapstructure:"max_answer_tokens"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	EmbeddingCacheTTL time.Duration `yaml:"embedding_cache_ttl" mapstructure:"embedding_cache_ttl"`
}

// SearchSettings holds per-strategy similarity floors and toggles for the
// model-backed strategies.
type SearchSettings struct {
	FAQMinSimilarity      float32 `yaml:"faq_min_similarity" mapstructure:"faq_min_similarity"`
	SemanticFloor         float32 `yaml:"semantic_floor" mapstructure:"semantic_floor"`
	KeywordFloor          float32 `yaml:"keyword_floor" mapstructure:"keyword_floor"`
	EmbeddingFloor        float32 `yaml:"embedding_floor" mapstructure:"embedding_floor"`
	SemanticMaxCandidates int     `yaml:"semantic_max_candidates" mapstructure:"semantic_max_candidates"`
	EnableSemantic        bool    `yaml:"enable_semantic" mapstructure:"enable_semantic"`
	EnableEmbedding       bool    `yaml:"enable_embedding" mapstructure:"enable_embedding"`
}

// ResolveSettings mirrors resolve.Config.
type ResolveSettings struct {
	FAQConfidenceFloor  float32       `yaml:"faq_confidence_floor" mapstructure:"faq_confidence_floor"`
	AcceptanceThreshold float32       `yaml:"acceptance_threshold" mapstructure:"acceptance_threshold"`
	MaxMatches          int           `yaml:"max_matches" mapstructure:"max_matches"`
	LookupTimeout       time.Duration `yaml:"lookup_timeout" mapstructure:"lookup_timeout"`
	SemanticTimeout     time.Duration `yaml:"semantic_timeout" mapstructure:"semantic_timeout"`
	PrimaryTimeout      time.Duration `yaml:"primary_timeout" mapstructure:"primary_timeout"`
	FallbackTimeout     time.Duration `yaml:"fallback_timeout" mapstructure:"fallback_timeout"`
}

// ServerSettings configures the HTTP intake.
type ServerSettings struct {
	Addr         string `yaml:"addr" mapstructure:"addr"`
	HistoryTurns int    `yaml:"history_turns" mapstructure:"history_turns"`
}

// Default returns the built-in settings.
func Default() *Settings {
	aiDefaults := ai.DefaultConfig()
	rc := resolve.DefaultConfig()
	return &Settings{
		Database: DatabaseSettings{
			Path:            "resolvit.db",
			ConversationLog: ConversationLogBadger,
			SQLitePath:      "conversations.sqlite",
		},
		AI: AISettings{
			EmbeddingHost:     aiDefaults.EmbeddingHost,
			ChatHost:          aiDefaults.ChatHost,
			RewriterHost:      aiDefaults.RewriterHost,
			APIKey:            aiDefaults.APIKey,
			EmbeddingModel:    aiDefaults.EmbeddingModel,
			ChatModel:         aiDefaults.ChatModel,
			RewriterModel:     aiDefaults.RewriterModel,
			MaxAnswerTokens:   aiDefaults.MaxAnswerTokens,
			RequestsPerSecond: 2,
			Burst:             4,
			EmbeddingCacheTTL: 10 * time.Minute,
		},
		Search: SearchSettings{
			FAQMinSimilarity:      0.3,
			SemanticFloor:         0.6,
			KeywordFloor:          0.5,
			EmbeddingFloor:        0.6,
			SemanticMaxCandidates: 20,
			EnableSemantic:        true,
			EnableEmbedding:       true,
		},
		Resolve: ResolveSettings{
			FAQConfidenceFloor:  rc.FAQConfidenceFloor,
			AcceptanceThreshold: rc.AcceptanceThreshold,
			MaxMatches:          rc.MaxMatches,
			LookupTimeout:       rc.LookupTimeout,
			SemanticTimeout:     rc.SemanticTimeout,
			PrimaryTimeout:      rc.PrimaryTimeout,
			FallbackTimeout:     rc.FallbackTimeout,
		},
		Server: ServerSettings{
			Addr:         ":8080",
			HistoryTurns: 4,
		},
	}
}

// Load reads settings. An empty path searches for config.yaml in the working
// directory and in ~/.resolvit. A missing config file is not an error; a
// missing explicit path is.
func Load(path string) (*Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".resolvit"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// setDefaults registers every key so environment overrides apply even when
// the key is absent from the config file.
func setDefaults(v *viper.Viper, d *Settings) {
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("database.conversation_log", d.Database.ConversationLog)
	v.SetDefault("database.sqlite_path", d.Database.SQLitePath)

	v.SetDefault("ai.embedding_host", d.AI.EmbeddingHost)
	v.SetDefault("ai.chat_host", d.AI.ChatHost)
	v.SetDefault("ai.rewriter_host", d.AI.RewriterHost)
	v.SetDefault("ai.api_key", d.AI.APIKey)
	v.SetDefault("ai.embedding_model", d.AI.EmbeddingModel)
	v.SetDefault("ai.chat_model", d.AI.ChatModel)
	v.SetDefault("ai.rewriter_model", d.AI.RewriterModel)
	v.SetDefault("ai.max_answer_tokens", d.AI.MaxAnswerTokens)
	v.SetDefault("ai.requests_per_second", d.AI.RequestsPerSecond)
	v.SetDefault("ai.burst", d.AI.Burst)
	v.SetDefault("ai.embedding_cache_ttl", d.AI.EmbeddingCacheTTL)

	v.SetDefault("search.faq_min_similarity", d.Search.FAQMinSimilarity)
	v.SetDefault("search.semantic_floor", d.Search.SemanticFloor)
	v.SetDefault("search.keyword_floor", d.Search.KeywordFloor)
	v.SetDefault("search.embedding_floor", d.Search.EmbeddingFloor)
	v.SetDefault("search.semantic_max_candidates", d.Search.SemanticMaxCandidates)
	v.SetDefault("search.enable_semantic", d.Search.EnableSemantic)
	v.SetDefault("search.enable_embedding", d.Search.EnableEmbedding)

	v.SetDefault("resolve.faq_confidence_floor", d.Resolve.FAQConfidenceFloor)
	v.SetDefault("resolve.acceptance_threshold", d.Resolve.AcceptanceThreshold)
	v.SetDefault("resolve.max_matches", d.Resolve.MaxMatches)
	v.SetDefault("resolve.lookup_timeout", d.Resolve.LookupTimeout)
	v.SetDefault("resolve.semantic_timeout", d.Resolve.SemanticTimeout)
	v.SetDefault("resolve.primary_timeout", d.Resolve.PrimaryTimeout)
	v.SetDefault("resolve.fallback_timeout", d.Resolve.FallbackTimeout)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.history_turns", d.Server.HistoryTurns)
}

// Validate checks cross-field constraints not covered by the component
// configs.
func (s *Settings) Validate() error {
	switch s.Database.ConversationLog {
	case ConversationLogBadger, ConversationLogSQLite:
	default:
		return fmt.Errorf("config: database.conversation_log must be %q or %q, got %q",
			ConversationLogBadger, ConversationLogSQLite, s.Database.ConversationLog)
	}
	for name, f := range map[string]float32{
		"search.faq_min_similarity": s.Search.FAQMinSimilarity,
		"search.semantic_floor":     s.Search.SemanticFloor,
		"search.keyword_floor":      s.Search.KeywordFloor,
		"search.embedding_floor":    s.Search.EmbeddingFloor,
	} {
		if f < 0 || f > 1 {
			return fmt.Errorf("config: %s must be within [0,1]", name)
		}
	}
	if s.Server.HistoryTurns < 0 {
		return errors.New("config: server.history_turns must not be negative")
	}
	return s.ResolveConfig().Validate()
}

// AIConfig converts the AI settings to an ai.Config.
func (s *Settings) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(s.AI.EmbeddingHost),
		ai.WithChatHost(s.AI.ChatHost),
		ai.WithRewriterHost(s.AI.RewriterHost),
		ai.WithAPIKey(s.AI.APIKey),
		ai.WithEmbeddingModel(s.AI.EmbeddingModel),
		ai.WithChatModel(s.AI.ChatModel),
		ai.WithRewriterModel(s.AI.RewriterModel),
		ai.WithMaxAnswerTokens(s.AI.MaxAnswerTokens),
	)
}

// ResolveConfig converts the resolve settings to a resolve.Config.
func (s *Settings) ResolveConfig() resolve.Config {
	cfg := resolve.DefaultConfig()
	cfg.FAQConfidenceFloor = s.Resolve.FAQConfidenceFloor
	cfg.AcceptanceThreshold = s.Resolve.AcceptanceThreshold
	cfg.MaxMatches = s.Resolve.MaxMatches
	cfg.LookupTimeout = s.Resolve.LookupTimeout
	cfg.SemanticTimeout = s.Resolve.SemanticTimeout
	cfg.PrimaryTimeout = s.Resolve.PrimaryTimeout
	cfg.FallbackTimeout = s.Resolve.FallbackTimeout
	return cfg
}
