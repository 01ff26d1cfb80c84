package corpus

import "errors"

var (
	// ErrPassageStoreRequired is returned when a passage store is not provided.
	ErrPassageStoreRequired = errors.New("passage store required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidRecord is returned for a fixture line that cannot be decoded
	// or does not describe a valid passage.
	ErrInvalidRecord = errors.New("invalid fixture record")

	// ErrEmbeddingMismatch is returned when the embedder returns a different
	// number of vectors than texts sent.
	ErrEmbeddingMismatch = errors.New("embedding count mismatch")
)
