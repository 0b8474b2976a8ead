package compose

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/poiesic/resolvit/ai"
	"github.com/poiesic/resolvit/core"
	"golang.org/x/time/rate"
)

// DefaultMaxHistory is how many prior exchanges Primary forwards to the model.
const DefaultMaxHistory = 4

// Primary synthesizes answers with an answer-generation model.
type Primary struct {
	generator  ai.AnswerGenerator
	limiter    *rate.Limiter
	maxHistory int
	logger     *slog.Logger
}

var _ Composer = (*Primary)(nil)

// PrimaryOption configures a Primary composer.
type PrimaryOption func(*Primary)

// WithRateLimit bounds calls to the backing service. A non-positive rate
// disables limiting.
func WithRateLimit(requestsPerSecond float64, burst int) PrimaryOption {
	return func(p *Primary) {
		if requestsPerSecond <= 0 {
			p.limiter = nil
			return
		}
		p.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), max(burst, 1))
	}
}

// WithMaxHistory sets how many prior exchanges are forwarded. Zero sends none.
func WithMaxHistory(n int) PrimaryOption {
	return func(p *Primary) {
		p.maxHistory = max(n, 0)
	}
}

// WithPrimaryLogger sets a custom logger.
func WithPrimaryLogger(logger *slog.Logger) PrimaryOption {
	return func(p *Primary) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPrimary creates a primary composer over generator.
func NewPrimary(generator ai.AnswerGenerator, opts ...PrimaryOption) (*Primary, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	p := &Primary{
		generator:  generator,
		maxHistory: DefaultMaxHistory,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "primary-composer")
	return p, nil
}

// Name returns NamePrimary.
func (p *Primary) Name() string { return NamePrimary }

// Compose asks the model for an answer grounded in matches. Citations that do
// not reference a supplied match are discarded; an answer left with no valid
// citation reports zero confidence and no success.
func (p *Primary) Compose(ctx context.Context, query core.Query, matches []core.MatchResult) (*core.ComposerOutcome, error) {
	if len(matches) == 0 {
		return nil, ErrNoMatches
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, classify(ctx, err)
		}
	}

	req, byRef := p.buildRequest(query, matches)
	generated, err := p.generator.GenerateAnswer(ctx, req)
	if err != nil {
		return nil, classify(ctx, err)
	}

	outcome := &core.ComposerOutcome{
		Text:     generated.Answer,
		Composer: NamePrimary,
	}
	seen := make(map[string]struct{}, len(generated.Citations))
	for _, ref := range generated.Citations {
		m, ok := byRef[ref]
		if !ok {
			p.logger.Debug("dropping citation of unknown source", "ref", ref)
			continue
		}
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		outcome.Cited = append(outcome.Cited, m)
	}

	if outcome.Text != "" && len(outcome.Cited) > 0 {
		outcome.Success = true
		outcome.Confidence = core.ClampScore(generated.Confidence)
	}

	p.logger.Debug("primary composed",
		"success", outcome.Success,
		"confidence", outcome.Confidence,
		"cited", len(outcome.Cited))
	return outcome, nil
}

func (p *Primary) buildRequest(query core.Query, matches []core.MatchResult) (ai.AnswerRequest, map[string]core.MatchResult) {
	req := ai.AnswerRequest{Question: query.Text}

	history := query.History
	if len(history) > p.maxHistory {
		history = history[len(history)-p.maxHistory:]
	}
	for _, h := range history {
		req.History = append(req.History, ai.Exchange{Question: h.Query, Answer: h.Response})
	}

	byRef := make(map[string]core.MatchResult, len(matches))
	for i, m := range matches {
		ref := "s" + strconv.Itoa(i+1)
		byRef[ref] = m
		req.Sources = append(req.Sources, ai.Source{
			Ref:      ref,
			Kind:     m.Item.Kind().String(),
			Title:    itemTitle(m.Item),
			Text:     m.Item.Text(),
			Category: m.Item.ItemCategory(),
		})
	}
	return req, byRef
}
