package openai

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/poiesic/resolvit/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// RelevanceScorer implements ai.RelevanceScorer with an OpenAI-compatible chat model.
type RelevanceScorer struct {
	client llms.Model
	logger *slog.Logger
}

type ratingsReply struct {
	Ratings []struct {
		Ref   string  `json:"ref"`
		Score float64 `json:"score"`
	} `json:"ratings"`
}

func newChatClient(config *ai.Config) (*openai.LLM, error) {
	return openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.ChatModel),
	)
}

func newRelevanceScorer(config *ai.Config) (*RelevanceScorer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client, err := newChatClient(config)
	if err != nil {
		return nil, err
	}
	return &RelevanceScorer{
		client: client,
		logger: slog.Default().With("component", "openai-scorer"),
	}, nil
}

// NewRelevanceScorer creates a relevance scorer using the provided configuration.
func NewRelevanceScorer(config *ai.Config) (ai.RelevanceScorer, error) {
	return newRelevanceScorer(config)
}

// ScoreRelevance rates each candidate against the question.
func (s *RelevanceScorer) ScoreRelevance(ctx context.Context, question string, candidates []ai.Candidate) ([]ai.Rating, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	s.logger.Debug("scoring candidates", "count", len(candidates))

	var reply ratingsReply
	if err := chatJSON(ctx, s.client, s.logger, relevanceSystemPrompt, buildRelevancePrompt(question, candidates), 0, &reply); err != nil {
		return nil, err
	}
	return collectRatings(reply, candidates), nil
}

// collectRatings keeps the first rating per known ref, clamped to 0-10,
// in candidate order.
func collectRatings(reply ratingsReply, candidates []ai.Candidate) []ai.Rating {
	scores := make(map[string]int, len(reply.Ratings))
	for _, r := range reply.Ratings {
		ref := strings.TrimSpace(strings.Trim(r.Ref, "[]"))
		if _, seen := scores[ref]; seen {
			continue
		}
		scores[ref] = clampRating(r.Score)
	}

	ratings := make([]ai.Rating, 0, len(candidates))
	for _, c := range candidates {
		if score, ok := scores[c.Ref]; ok {
			ratings = append(ratings, ai.Rating{Ref: c.Ref, Score: score})
		}
	}
	return ratings
}

func clampRating(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Round(min(max(v, 0), 10)))
}
