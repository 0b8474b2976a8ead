package openai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/resolvit/ai"
	"github.com/tmc/langchaingo/llms"
)

// AnswerGenerator implements ai.AnswerGenerator with an OpenAI-compatible chat model.
type AnswerGenerator struct {
	client    llms.Model
	maxTokens int
	logger    *slog.Logger
}

type answerReply struct {
	Answer     string   `json:"answer"`
	Confidence float64  `json:"confidence"`
	Citations  []string `json:"citations"`
}

func newAnswerGenerator(config *ai.Config) (*AnswerGenerator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client, err := newChatClient(config)
	if err != nil {
		return nil, err
	}
	return &AnswerGenerator{
		client:    client,
		maxTokens: config.MaxAnswerTokens,
		logger:    slog.Default().With("component", "openai-generator"),
	}, nil
}

// NewAnswerGenerator creates an answer generator using the provided configuration.
func NewAnswerGenerator(config *ai.Config) (ai.AnswerGenerator, error) {
	return newAnswerGenerator(config)
}

// GenerateAnswer asks the model for a grounded answer over req.Sources.
func (g *AnswerGenerator) GenerateAnswer(ctx context.Context, req ai.AnswerRequest) (*ai.GeneratedAnswer, error) {
	g.logger.Debug("generating answer", "sources", len(req.Sources), "history", len(req.History))

	var reply answerReply
	if err := chatJSON(ctx, g.client, g.logger, answerSystemPrompt, buildAnswerPrompt(req), g.maxTokens, &reply); err != nil {
		return nil, err
	}
	return toGeneratedAnswer(reply), nil
}

func toGeneratedAnswer(reply answerReply) *ai.GeneratedAnswer {
	out := &ai.GeneratedAnswer{
		Answer:     strings.TrimSpace(reply.Answer),
		Confidence: normalizeConfidence(reply.Confidence),
	}
	seen := make(map[string]struct{}, len(reply.Citations))
	for _, c := range reply.Citations {
		c = strings.TrimSpace(strings.Trim(c, "[]"))
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out.Citations = append(out.Citations, c)
	}
	return out
}
