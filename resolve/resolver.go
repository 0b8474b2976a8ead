// Package resolve implements the tiered resolution pipeline: FAQ lookup,
// then document strategies in priority order, then the primary composer with
// a fallback, ending in either an answer or a fixed no-answer response.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/resolvit/compose"
	"github.com/poiesic/resolvit/core"
	"github.com/poiesic/resolvit/knowledge"
	"github.com/poiesic/resolvit/storage"
)

var (
	// ErrStoreRequired is returned when no knowledge store is provided.
	ErrStoreRequired = errors.New("knowledge store required")

	// ErrComposerRequired is returned when either composer is missing.
	ErrComposerRequired = errors.New("primary and fallback composers required")

	// ErrInvalidQuery is returned for queries that cannot be resolved.
	ErrInvalidQuery = errors.New("invalid query")
)

// KnowledgeStore is the lookup surface the resolver needs.
// *knowledge.Store satisfies it.
type KnowledgeStore interface {
	FindFAQ(ctx context.Context, query string, maxResults int) ([]core.MatchResult, error)
	FindDocuments(ctx context.Context, query string, maxResults int, strategy core.Strategy) ([]core.MatchResult, error)
}

// Resolver runs the resolution state machine. It holds no per-query state and
// is safe for concurrent use.
type Resolver struct {
	store    KnowledgeStore
	primary  compose.Composer
	fallback compose.Composer
	turns    storage.ConversationRepository
	config   Config
	monitor  Monitor
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver) error

// WithConfig replaces the default thresholds and timeouts.
func WithConfig(cfg Config) Option {
	return func(r *Resolver) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		r.config = cfg
		return nil
	}
}

// WithConversationLog appends every completed turn to repo.
func WithConversationLog(repo storage.ConversationRepository) Option {
	return func(r *Resolver) error {
		r.turns = repo
		return nil
	}
}

// WithMonitor observes every resolution.
func WithMonitor(m Monitor) Option {
	return func(r *Resolver) error {
		if m == nil {
			m = noopMonitor{}
		}
		r.monitor = m
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithClock overrides the source of turn timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) error {
		if now != nil {
			r.now = now
		}
		return nil
	}
}

// NewResolver creates a resolver over store with the two composers.
func NewResolver(store KnowledgeStore, primary, fallback compose.Composer, opts ...Option) (*Resolver, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if primary == nil || fallback == nil {
		return nil, ErrComposerRequired
	}

	r := &Resolver{
		store:    store,
		primary:  primary,
		fallback: fallback,
		config:   DefaultConfig(),
		monitor:  noopMonitor{},
		now:      func() time.Time { return time.Now().UTC() },
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "resolver")
	return r, nil
}

// Config returns the active configuration.
func (r *Resolver) Config() Config {
	return r.config
}

// Resolve answers query.
//
// The returned Response is always well formed. Errors are returned only for
// an invalid query, a knowledge store outage (together with the unavailable
// response) and cancellation of ctx, in which case no turn is recorded.
func (r *Resolver) Resolve(ctx context.Context, query core.Query) (*Response, error) {
	if err := core.ValidateQuery(query); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	r.monitor.Start(query)
	r.monitor.EnterState(StateStart)
	logger := r.logger.With("conversation", query.ConversationID)

	matches, strategy, err := r.lookup(ctx, logger, query.Text)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		r.monitor.EnterState(StateDoneUnavailable)
		logger.Error("knowledge store unavailable", "err", err)
		resp := r.unavailableResponse(query)
		r.monitor.Finish(resp)
		return resp, err
	}

	var resp *Response
	if len(matches) == 0 {
		resp = r.noAnswerResponse(query, core.StrategyLabelExhausted)
	} else {
		resp, err = r.compose(ctx, logger, query, matches, strategy)
		if err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.appendTurn(ctx, logger, query, resp)
	r.monitor.Finish(resp)
	return resp, nil
}

// lookup walks FAQ lookup and the document strategies. It returns the
// accepted matches and the strategy that produced them, no matches when every
// strategy is exhausted, or an error for a store outage or cancellation.
func (r *Resolver) lookup(ctx context.Context, logger *slog.Logger, text string) ([]core.MatchResult, core.Strategy, error) {
	r.monitor.EnterState(StateFAQLookup)
	matches, err := r.stage(ctx, r.config.LookupTimeout, core.StrategyFAQ, func(sctx context.Context) ([]core.MatchResult, error) {
		return r.store.FindFAQ(sctx, text, r.config.MaxMatches)
	})
	if err != nil {
		return nil, 0, err
	}
	if accepted := core.TopMatches(matches, r.config.FAQConfidenceFloor, r.config.MaxMatches); len(accepted) > 0 {
		return accepted, core.StrategyFAQ, nil
	}
	if len(matches) > 0 {
		logger.Debug("faq matches below confidence floor", "best", matches[0].Score, "floor", r.config.FAQConfidenceFloor)
	}

	for _, strategy := range core.DocumentStrategies {
		r.monitor.EnterState(StateDocLookup)
		timeout := r.config.LookupTimeout
		if strategy == core.StrategyAISearch {
			timeout = r.config.SemanticTimeout
		}
		matches, err := r.stage(ctx, timeout, strategy, func(sctx context.Context) ([]core.MatchResult, error) {
			return r.store.FindDocuments(sctx, text, r.config.MaxMatches, strategy)
		})
		if err != nil {
			return nil, 0, err
		}
		if accepted := core.TopMatches(matches, 0, r.config.MaxMatches); len(accepted) > 0 {
			return accepted, strategy, nil
		}
	}
	return nil, 0, nil
}

// stage runs one lookup under its own deadline. No-match and stage timeouts
// yield no matches; a store outage or cancellation of ctx is an error.
func (r *Resolver) stage(ctx context.Context, timeout time.Duration, strategy core.Strategy, fn func(context.Context) ([]core.MatchResult, error)) ([]core.MatchResult, error) {
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	matches, err := fn(sctx)
	r.monitor.StageMatches(strategy, matches, err)
	switch {
	case err == nil:
		return matches, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case errors.Is(err, knowledge.ErrStoreUnavailable):
		return nil, err
	case errors.Is(err, knowledge.ErrNoMatch):
		return nil, nil
	case errors.Is(err, context.DeadlineExceeded):
		r.logger.Warn("lookup stage timed out", "strategy", strategy, "timeout", timeout)
		return nil, nil
	default:
		r.logger.Warn("lookup stage failed", "strategy", strategy, "err", err)
		return nil, nil
	}
}

// compose runs the primary composer and, when it fails or is not confident
// enough, the fallback.
func (r *Resolver) compose(ctx context.Context, logger *slog.Logger, query core.Query, matches []core.MatchResult, strategy core.Strategy) (*Response, error) {
	r.monitor.EnterState(StateComposePrimary)
	outcome, err := r.runComposer(ctx, r.primary, r.config.PrimaryTimeout, query, matches)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	switch {
	case err != nil:
		logger.Warn("primary composer failed; using fallback", "err", err)
	case !accepted(outcome, r.config.AcceptanceThreshold):
		logger.Warn("primary composer below acceptance threshold; using fallback",
			"confidence", outcome.Confidence,
			"threshold", r.config.AcceptanceThreshold)
	default:
		return r.successResponse(query, outcome, strategy), nil
	}

	r.monitor.EnterState(StateComposeFallback)
	outcome, err = r.runComposer(ctx, r.fallback, r.config.FallbackTimeout, query, matches)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil || !outcome.Success || outcome.Text == "" || len(outcome.Cited) == 0 {
		if err != nil {
			logger.Warn("fallback composer produced no answer", "err", err)
		}
		return r.noAnswerResponse(query, strategy.String()), nil
	}
	return r.successResponse(query, outcome, strategy), nil
}

func (r *Resolver) runComposer(ctx context.Context, c compose.Composer, timeout time.Duration, query core.Query, matches []core.MatchResult) (*core.ComposerOutcome, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	outcome, err := c.Compose(cctx, query, matches)
	if err == nil && outcome == nil {
		err = fmt.Errorf("%s composer returned no outcome", c.Name())
	}
	r.monitor.ComposerOutcome(c.Name(), outcome, err)
	return outcome, err
}

func accepted(o *core.ComposerOutcome, threshold float32) bool {
	return o.Success && o.Text != "" && len(o.Cited) > 0 && o.Confidence >= threshold
}

func (r *Resolver) successResponse(query core.Query, outcome *core.ComposerOutcome, strategy core.Strategy) *Response {
	r.monitor.EnterState(StateDoneSuccess)
	resp := newResponse(query.ConversationID)
	resp.Success = true
	resp.Text = outcome.Text
	resp.Confidence = core.ClampScore(outcome.Confidence)
	resp.Strategy = strategy.String()
	resp.Composer = outcome.Composer
	for _, m := range outcome.Cited {
		resp.cite(m)
	}
	return resp
}

func (r *Resolver) noAnswerResponse(query core.Query, strategy string) *Response {
	r.monitor.EnterState(StateDoneNoAnswer)
	resp := newResponse(query.ConversationID)
	resp.Text = r.config.NoAnswerMessage
	resp.Strategy = strategy
	return resp
}

func (r *Resolver) unavailableResponse(query core.Query) *Response {
	resp := newResponse(query.ConversationID)
	resp.Text = r.config.UnavailableMessage
	resp.Strategy = core.StrategyLabelUnavailable
	return resp
}

// appendTurn records the resolved turn. Failures are logged only.
func (r *Resolver) appendTurn(ctx context.Context, logger *slog.Logger, query core.Query, resp *Response) {
	if r.turns == nil {
		return
	}
	turn := &core.ConversationTurn{
		ConversationID: query.ConversationID,
		UserID:         query.UserID,
		Query:          query.Text,
		Response:       resp.Text,
		Citations:      resp.Citations(),
		Strategy:       resp.Strategy,
		Composer:       resp.Composer,
		Confidence:     resp.Confidence,
		Success:        resp.Success,
		Timestamp:      r.now(),
	}
	stored, err := r.turns.AppendTurn(ctx, turn)
	if err != nil {
		logger.Error("failed to append conversation turn", "err", err)
		return
	}
	resp.TurnID = stored.Id
}
