// Package mock provides test double implementations of AI service interfaces.
//
// The mocks are safe for concurrent use, since the retrieval pipeline calls
// scorers and extractors from a worker pool.
//
// # Usage in Tests
//
//	scorer := mock.NewMockScorer()
//	scorer.ScoreFunc = func(ctx context.Context, q, passage string) (int, error) {
//	    return 9, nil
//	}
//	count := scorer.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockQueryExpander: Returns no variants
//   - MockEntityExtractor: Treats capitalized words as entities of type other
//   - MockScorer: Scores every passage 5
//   - MockPassageExtractor: Returns the passage unchanged
package mock
