package badger

import (
	"github.com/poiesic/hybrid/ai"
)

// DefaultMinSimilarity is the cosine similarity below which the dense
// searcher drops a passage.
const DefaultMinSimilarity float32 = 0.0

// Corpus bundles the repositories and searchers sharing one Backend.
type Corpus struct {
	Backend     *Backend
	Passages    *PassageRepository
	Dense       *DenseSearcher
	Keyword     *KeywordSearcher
	Graph       *GraphStore
	Checkpoints *CheckpointRepository
}

// OpenCorpus opens the database at path and builds every repository on it.
// The embedder serves dense queries.
func OpenCorpus(path string, inMemory bool, embedder ai.Embedder, minSimilarity float32) (*Corpus, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}
	return &Corpus{
		Backend:     backend,
		Passages:    NewPassageRepository(backend),
		Dense:       NewDenseSearcher(backend, embedder, minSimilarity),
		Keyword:     NewKeywordSearcher(backend),
		Graph:       NewGraphStore(backend),
		Checkpoints: NewCheckpointRepository(backend),
	}, nil
}

// Close closes the underlying database.
func (c *Corpus) Close() error {
	return c.Backend.Close()
}
