// Package server exposes the resolver over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/poiesic/resolvit/core"
	"github.com/poiesic/resolvit/resolve"
	"github.com/poiesic/resolvit/storage"
)

// DefaultHistoryTurns is how many prior turns are passed to the resolver.
const DefaultHistoryTurns = 4

var (
	// ErrResolverRequired is returned when no resolver is provided.
	ErrResolverRequired = errors.New("resolver required")

	// ErrKnowledgeRequired is returned when no knowledge source is provided.
	ErrKnowledgeRequired = errors.New("knowledge source required")
)

// Resolver answers queries. *resolve.Resolver satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, query core.Query) (*resolve.Response, error)
}

// Knowledge exposes read-only corpus views. *knowledge.Store satisfies it.
type Knowledge interface {
	Stats(ctx context.Context) (core.KnowledgeStats, error)
	ListFAQs(ctx context.Context, category string) ([]*core.FAQEntry, error)
}

// Server is the HTTP intake for the resolution pipeline.
type Server struct {
	echo         *echo.Echo
	resolver     Resolver
	knowledge    Knowledge
	turns        storage.ConversationRepository
	historyTurns int
	newID        func() string
	started      time.Time
	logger       *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithConversationLog enables conversation history: prior turns are passed to
// the resolver and served by GET /api/conversations/:id.
func WithConversationLog(turns storage.ConversationRepository) Option {
	return func(s *Server) {
		s.turns = turns
	}
}

// WithHistoryTurns sets how many prior turns accompany a query.
func WithHistoryTurns(n int) Option {
	return func(s *Server) {
		if n >= 0 {
			s.historyTurns = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a server and registers its routes.
func New(resolver Resolver, knowledge Knowledge, opts ...Option) (*Server, error) {
	if resolver == nil {
		return nil, ErrResolverRequired
	}
	if knowledge == nil {
		return nil, ErrKnowledgeRequired
	}

	s := &Server{
		echo:         echo.New(),
		resolver:     resolver,
		knowledge:    knowledge,
		historyTurns: DefaultHistoryTurns,
		newID:        newConversationID,
		started:      time.Now(),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency)
			return nil
		},
	}))
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	api := s.echo.Group("/api")
	api.POST("/chat", s.chat)
	api.GET("/conversations/:id", s.conversation)
	api.GET("/health", s.health)
	api.GET("/faqs", s.faqs)
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
