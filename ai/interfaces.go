package ai

import (
	"context"

	"github.com/poiesic/hybrid/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// QueryExpander rewrites a query into alternative phrasings.
// Implementations must be thread-safe for concurrent use.
type QueryExpander interface {
	// Expand returns up to n alternative phrasings of query. The original
	// query is not required to be among them.
	Expand(ctx context.Context, query string, n int) ([]string, error)
}

// EntityExtractor finds named entities in text.
// Implementations must be thread-safe for concurrent use.
type EntityExtractor interface {
	// ExtractEntities returns the entities mentioned in text.
	// Returns an empty slice if none are found.
	ExtractEntities(ctx context.Context, text string) ([]ExtractedEntity, error)
}

// RelevanceScorer grades how well a passage answers a query.
// Implementations must be thread-safe for concurrent use.
type RelevanceScorer interface {
	// Score returns an integer in [1,10]. A reply that cannot be read as such
	// an integer is reported with ErrUnparseableScore.
	Score(ctx context.Context, query, passage string) (int, error)
}

// PassageExtractor reduces a passage to the sentences relevant to a query.
// Implementations must be thread-safe for concurrent use.
type PassageExtractor interface {
	// Extract returns the relevant content of passage. relevant is false when
	// the passage has nothing to do with the query.
	Extract(ctx context.Context, query, passage string) (extracted string, relevant bool, err error)
}

// ExtractedEntity is an entity identified in text.
type ExtractedEntity struct {
	// Name is the entity surface form, e.g. "Acme Corp".
	Name string
	// Type is the entity category.
	Type core.EntityType
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// QueryExpander returns the query expansion service.
	QueryExpander() QueryExpander

	// EntityExtractor returns the entity extraction service.
	EntityExtractor() EntityExtractor

	// RelevanceScorer returns the relevance scoring service.
	RelevanceScorer() RelevanceScorer

	// PassageExtractor returns the passage compression service.
	PassageExtractor() PassageExtractor

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
