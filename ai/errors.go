package ai

import "errors"

var (
	// ErrUnparseableScore indicates a relevance reply that is not an integer in [1,10].
	ErrUnparseableScore = errors.New("unparseable relevance score")

	// ErrEmptyResponse indicates the model returned no choices.
	ErrEmptyResponse = errors.New("model returned no choices")
)
