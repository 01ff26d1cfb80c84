package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/poiesic/hybrid/ai"
	"github.com/tmc/langchaingo/llms"
)

// RelevanceScorer implements ai.RelevanceScorer using OpenAI-compatible chat APIs.
type RelevanceScorer struct {
	client llms.Model
	logger *slog.Logger
}

func newRelevanceScorer(client llms.Model) *RelevanceScorer {
	return &RelevanceScorer{
		client: client,
		logger: slog.Default().With("component", "openai-scorer"),
	}
}

// NewRelevanceScorer creates a relevance scorer using the provided configuration.
//
// Returns ai.RelevanceScorer interface to enforce abstraction.
func NewRelevanceScorer(config *ai.Config) (ai.RelevanceScorer, error) {
	client, err := newChatModel(config)
	if err != nil {
		return nil, err
	}
	return newRelevanceScorer(client), nil
}

// Score asks the model to grade passage against query.
func (s *RelevanceScorer) Score(ctx context.Context, query, passage string) (int, error) {
	reply, err := generate(ctx, s.client, relevancePrompt, buildQueryPassageMessage(query, passage),
		llms.WithTemperature(0.0), llms.WithMaxTokens(4))
	if err != nil {
		return 0, err
	}
	return parseScore(reply)
}

// parseScore reads the first integer in reply and checks it is within [1,10].
func parseScore(reply string) (int, error) {
	reply = strings.TrimSpace(reply)
	start := strings.IndexFunc(reply, func(r rune) bool { return r >= '0' && r <= '9' })
	if start < 0 || (start > 0 && reply[start-1] == '-') {
		return 0, fmt.Errorf("%w: %q", ai.ErrUnparseableScore, reply)
	}
	end := start
	for end < len(reply) && reply[end] >= '0' && reply[end] <= '9' {
		end++
	}
	// "7.5" is not an integer score
	if end < len(reply) && reply[end] == '.' && end+1 < len(reply) && reply[end+1] >= '0' && reply[end+1] <= '9' {
		return 0, fmt.Errorf("%w: %q", ai.ErrUnparseableScore, reply)
	}

	score, err := strconv.Atoi(reply[start:end])
	if err != nil || score < 1 || score > 10 {
		return 0, fmt.Errorf("%w: %q", ai.ErrUnparseableScore, reply)
	}
	return score, nil
}
