package badger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/hybrid/ai"
	"github.com/poiesic/hybrid/storage"
)

// DenseSearcher is a brute-force vector searcher over stored passages.
// Query and passage vectors are unit length, so the dot product is the
// cosine similarity.
type DenseSearcher struct {
	backend       *Backend
	embedder      ai.Embedder
	minSimilarity float32
	logger        *slog.Logger
}

var _ storage.Searcher = (*DenseSearcher)(nil)

// NewDenseSearcher creates a DenseSearcher. Passages scoring below
// minSimilarity are never returned.
func NewDenseSearcher(backend *Backend, embedder ai.Embedder, minSimilarity float32) *DenseSearcher {
	return &DenseSearcher{
		backend:       backend,
		embedder:      embedder,
		minSimilarity: minSimilarity,
		logger:        backend.logger.With("searcher", "dense"),
	}
}

// Search embeds text and returns the topK most similar passages.
func (s *DenseSearcher) Search(ctx context.Context, text string, topK int) ([]storage.SearchHit, error) {
	if text == "" {
		return nil, storage.ErrInvalidQuery
	}
	if topK <= 0 {
		return nil, nil
	}

	vector, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	query := normalizeVector(vector)

	var hits []storage.SearchHit
	err = s.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, []byte(passagePrefix+":"), true, func(_, val []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := storage.UnmarshalPassage(val)
			if err != nil {
				return err
			}
			if len(p.Vector) == 0 {
				return nil
			}
			if len(p.Vector) != len(query) {
				return fmt.Errorf("%w: passage %s has %d dimensions, query has %d",
					storage.ErrDimensionMismatch, p.ID, len(p.Vector), len(query))
			}
			similarity := dotProduct(query, p.Vector)
			if similarity < s.minSimilarity {
				return nil
			}
			hits = append(hits, passageHit(p, float64(similarity)))
			return nil
		})
	}, false)
	if err != nil {
		return nil, err
	}

	sortHits(hits)
	if len(hits) > topK {
		hits = hits[:topK]
	}
	s.logger.Debug("dense_search", "hits", len(hits))
	return hits, nil
}
