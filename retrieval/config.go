package retrieval

import (
	"fmt"
	"time"
)

// Config holds the tunables of a retrieval pipeline.
type Config struct {
	// RRFK is the k constant of reciprocal rank fusion.
	RRFK int
	// BoostIncrement is added to the fused score of graph-confirmed candidates.
	BoostIncrement float64
	// RerankWindow is how many deduplicated candidates are sent for scoring.
	RerankWindow int
	// MinVariantLength is the shortest query variant kept, in characters.
	MinVariantLength int
	// MinCompressLength is the context length below which compression is skipped.
	MinCompressLength int
	// CandidateDepth is the top_k of each dense and sparse sub-query. The
	// request's top_k is used instead when larger.
	CandidateDepth int
	// RelatedEntityLimit caps the related entities followed per query entity
	// on complex queries.
	RelatedEntityLimit int

	SourceTimeout time.Duration
	// AnalyzerTimeout, RerankTimeout and CompressTimeout bound the
	// LLM-backed stages. The defaults add up to 10s per retrieval.
	AnalyzerTimeout time.Duration
	RerankTimeout   time.Duration
	CompressTimeout time.Duration

	// PoolSize bounds concurrent rerank and compression calls.
	PoolSize int
	// CacheSize is the number of query analyses kept. Zero disables caching.
	CacheSize int
}

// DefaultConfig returns the standard pipeline settings.
func DefaultConfig() Config {
	return Config{
		RRFK:               60,
		BoostIncrement:     0.1,
		RerankWindow:       15,
		MinVariantLength:   3,
		MinCompressLength:  200,
		CandidateDepth:     20,
		RelatedEntityLimit: 5,
		SourceTimeout:      150 * time.Millisecond,
		AnalyzerTimeout:    2 * time.Second,
		RerankTimeout:      4 * time.Second,
		CompressTimeout:    4 * time.Second,
		PoolSize:           8,
		CacheSize:          256,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	switch {
	case c.RRFK < 0:
		return fmt.Errorf("%w: rrf k cannot be negative", ErrInvalidConfig)
	case c.BoostIncrement < 0:
		return fmt.Errorf("%w: boost increment cannot be negative", ErrInvalidConfig)
	case c.RerankWindow <= 0:
		return fmt.Errorf("%w: rerank window must be greater than 0", ErrInvalidConfig)
	case c.MinVariantLength < 0:
		return fmt.Errorf("%w: min variant length cannot be negative", ErrInvalidConfig)
	case c.MinCompressLength < 0:
		return fmt.Errorf("%w: min compress length cannot be negative", ErrInvalidConfig)
	case c.CandidateDepth <= 0:
		return fmt.Errorf("%w: candidate depth must be greater than 0", ErrInvalidConfig)
	case c.RelatedEntityLimit < 0:
		return fmt.Errorf("%w: related entity limit cannot be negative", ErrInvalidConfig)
	case c.SourceTimeout <= 0, c.AnalyzerTimeout <= 0, c.RerankTimeout <= 0, c.CompressTimeout <= 0:
		return fmt.Errorf("%w: timeouts must be greater than 0", ErrInvalidConfig)
	case c.PoolSize <= 0:
		return fmt.Errorf("%w: pool size must be greater than 0", ErrInvalidConfig)
	case c.CacheSize < 0:
		return fmt.Errorf("%w: cache size cannot be negative", ErrInvalidConfig)
	}
	return nil
}
