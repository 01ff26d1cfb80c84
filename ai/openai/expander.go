package openai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/hybrid/ai"
	"github.com/tmc/langchaingo/llms"
)

// QueryExpander implements ai.QueryExpander using OpenAI-compatible chat APIs.
type QueryExpander struct {
	client llms.Model
	logger *slog.Logger
}

type expansion struct {
	Queries []string `json:"queries"`
}

func newQueryExpander(client llms.Model) *QueryExpander {
	return &QueryExpander{
		client: client,
		logger: slog.Default().With("component", "openai-expander"),
	}
}

// NewQueryExpander creates a query expander using the provided configuration.
//
// Returns ai.QueryExpander interface to enforce abstraction.
func NewQueryExpander(config *ai.Config) (ai.QueryExpander, error) {
	client, err := newChatModel(config)
	if err != nil {
		return nil, err
	}
	return newQueryExpander(client), nil
}

// Expand asks the model for n rephrasings of query.
func (e *QueryExpander) Expand(ctx context.Context, query string, n int) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}

	var result expansion
	if err := generateJSON(ctx, e.client, e.logger, buildExpansionPrompt(n), collapseWhitespace(query), &result); err != nil {
		return nil, err
	}

	variants := make([]string, 0, len(result.Queries))
	for _, q := range result.Queries {
		if q = strings.TrimSpace(q); q != "" {
			variants = append(variants, q)
		}
	}
	if len(variants) > n {
		variants = variants[:n]
	}

	e.logger.Debug("expanded query", "requested", n, "returned", len(variants))
	return variants, nil
}
