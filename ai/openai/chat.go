package openai

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// maxParseAttempts bounds how often a malformed JSON reply is re-requested.
const maxParseAttempts = 3

// errNoChoices is returned when the model replies without any choice.
var errNoChoices = errors.New("model returned no choices")

// chatJSON sends a system/user prompt pair in JSON mode and decodes the reply
// into out. Transport errors are returned immediately; unparseable replies
// are retried.
func chatJSON(ctx context.Context, client llms.Model, logger *slog.Logger, system, user string, maxTokens int, out any) error {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(system)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(user)},
		},
	}

	opts := []llms.CallOption{llms.WithTemperature(0.0), llms.WithJSONMode()}
	if maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(maxTokens))
	}

	var lastErr error
	for attempt := 0; attempt < maxParseAttempts; attempt++ {
		response, err := client.GenerateContent(ctx, content, opts...)
		if err != nil {
			logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return err
		}
		if len(response.Choices) < 1 {
			return errNoChoices
		}

		responseText := repairJSON(stripCodeFence(response.Choices[0].Content))
		if err := json.Unmarshal([]byte(responseText), out); err != nil {
			lastErr = err
			logger.Warn("error parsing model response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}
		return nil
	}

	logger.Error("failed to parse model response after retries", "err", lastErr)
	return lastErr
}

// stripCodeFence removes a markdown code fence wrapped around a reply.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
