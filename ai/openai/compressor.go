package openai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/hybrid/ai"
	"github.com/tmc/langchaingo/llms"
)

// PassageExtractor implements ai.PassageExtractor using OpenAI-compatible chat APIs.
type PassageExtractor struct {
	client llms.Model
	logger *slog.Logger
}

func newPassageExtractor(client llms.Model) *PassageExtractor {
	return &PassageExtractor{
		client: client,
		logger: slog.Default().With("component", "openai-compressor"),
	}
}

// NewPassageExtractor creates a passage extractor using the provided configuration.
//
// Returns ai.PassageExtractor interface to enforce abstraction.
func NewPassageExtractor(config *ai.Config) (ai.PassageExtractor, error) {
	client, err := newChatModel(config)
	if err != nil {
		return nil, err
	}
	return newPassageExtractor(client), nil
}

// Extract asks the model for the sentences of passage relevant to query.
func (p *PassageExtractor) Extract(ctx context.Context, query, passage string) (string, bool, error) {
	reply, err := generate(ctx, p.client, extractionPrompt, buildQueryPassageMessage(query, passage),
		llms.WithTemperature(0.0))
	if err != nil {
		return "", false, err
	}
	extracted, relevant := parseExtraction(reply)
	if !relevant {
		p.logger.Debug("passage not relevant to query")
	}
	return extracted, relevant, nil
}

// parseExtraction treats the marker, or an empty reply, as no relevant content.
func parseExtraction(reply string) (string, bool) {
	reply = strings.TrimSpace(reply)
	if reply == "" || strings.EqualFold(strings.Trim(reply, ".\"'` "), notRelevantMarker) {
		return "", false
	}
	return reply, true
}
