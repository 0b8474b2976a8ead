// Package lite provides the lightweight fallback rewriter backed by a small
// OpenAI-compatible chat model.
package lite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/resolvit/ai"
	"github.com/sashabaranov/go-openai"
)

// ErrEmptyRewrite is returned when the model replies with no text.
var ErrEmptyRewrite = errors.New("rewriter returned empty text")

const rewriteSystemPrompt = `Rewrite the knowledge base answer so it reads as a direct reply to the employee's question.
Do not add, remove or change any facts. Keep menu paths such as "Employee > Employees > Create" exactly as written.
Reply with the rewritten answer only.`

// Rewriter implements ai.Rewriter using go-openai.
type Rewriter struct {
	client    *openai.Client
	model     string
	maxTokens int
	logger    *slog.Logger
}

var _ ai.Rewriter = (*Rewriter)(nil)

// NewRewriter creates a rewriter against config.RewriterHost.
func NewRewriter(config *ai.Config) (ai.Rewriter, error) {
	config.Normalize()
	if !config.RewriterEnabled() {
		return nil, errors.New("ai config: RewriterHost and RewriterModel are required for the rewriter")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	clientConfig.BaseURL = config.RewriterHost

	return &Rewriter{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     config.RewriterModel,
		maxTokens: config.MaxAnswerTokens,
		logger:    slog.Default().With("component", "lite-rewriter"),
	}, nil
}

// Rewrite asks the model to reformat text as an answer to question.
func (r *Rewriter) Rewrite(ctx context.Context, question, text string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: rewriteSystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Question: %s\n\nAnswer: %s", strings.TrimSpace(question), strings.TrimSpace(text)),
			},
		},
		MaxTokens:   r.maxTokens,
		Temperature: 0.2,
	}

	resp, err := r.client.CreateChatCompletion(ctx, req)
	if err != nil {
		r.logger.Warn("rewrite failed", "err", err)
		return "", fmt.Errorf("rewriter API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyRewrite
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ErrEmptyRewrite
	}
	return out, nil
}
