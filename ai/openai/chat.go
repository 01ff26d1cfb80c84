package openai

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/poiesic/hybrid/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// jsonAttempts is how many times a JSON-mode request is retried when the
// reply does not decode.
const jsonAttempts = 3

// newChatModel creates the langchaingo client shared by every chat-backed service.
func newChatModel(config *ai.Config) (llms.Model, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken(config.Token),
		openai.WithModel(config.ChatModel),
	)
}

// generate sends a system and a human message and returns the first choice.
func generate(ctx context.Context, model llms.Model, system, human string, opts ...llms.CallOption) (string, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(system)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(human)},
		},
	}

	response, err := model.GenerateContent(ctx, content, opts...)
	if err != nil {
		return "", err
	}
	if len(response.Choices) < 1 {
		return "", ai.ErrEmptyResponse
	}
	return response.Choices[0].Content, nil
}

// generateJSON asks for a JSON reply and decodes it into v, retrying on
// malformed JSON. Transport errors are returned immediately.
func generateJSON(ctx context.Context, model llms.Model, logger *slog.Logger, system, human string, v any) error {
	var lastErr error
	for attempt := 1; attempt <= jsonAttempts; attempt++ {
		reply, err := generate(ctx, model, system, human, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			logger.Error("failed to generate content", "attempt", attempt, "err", err)
			return err
		}

		cleaned := cleanJSON(reply)
		if err := json.Unmarshal([]byte(cleaned), v); err != nil {
			lastErr = err
			logger.Warn("error parsing model response",
				"attempt", attempt,
				"response", cleaned,
				"err", err)
			continue
		}
		return nil
	}

	logger.Error("failed to parse model response after retries", "err", lastErr)
	return lastErr
}
