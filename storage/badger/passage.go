package badger

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/hybrid/core"
	"github.com/poiesic/hybrid/storage"
)

// PassageRepository implements storage.PassageStore for BadgerDB. Writing a
// passage maintains the keyword postings and entity mentions the searchers
// and the graph store read.
type PassageRepository struct {
	backend *Backend
}

var _ storage.PassageStore = (*PassageRepository)(nil)

// NewPassageRepository creates a new PassageRepository.
func NewPassageRepository(backend *Backend) *PassageRepository {
	return &PassageRepository{backend: backend}
}

// PutPassages stores passages in one transaction. A passage whose ID already
// exists replaces the old one along with all of its index entries.
func (r *PassageRepository) PutPassages(ctx context.Context, passages ...*core.Passage) error {
	for _, p := range passages {
		if err := core.ValidatePassage(p); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		stats, err := readCorpusStats(tx)
		if err != nil {
			return err
		}

		for _, p := range passages {
			key := makePassageKey(p.ID)

			old, err := readPassage(tx, key)
			if err != nil {
				return err
			}
			if old != nil {
				if err := r.deleteIndexes(tx, old, &stats); err != nil {
					return err
				}
			}

			stored := *p
			if len(p.Vector) > 0 {
				stored.Vector = normalizeVector(p.Vector)
			}
			if err := tx.Set(key, storage.MarshalPassage(&stored)); err != nil {
				return err
			}

			if err := r.indexTerms(tx, p, &stats); err != nil {
				return err
			}
			if err := r.indexMentions(tx, p); err != nil {
				return err
			}
		}

		if err := tx.Set([]byte(corpusStatsKey), storage.MarshalCorpusStats(stats)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetPassage retrieves a passage by ID.
func (r *PassageRepository) GetPassage(ctx context.Context, id string) (*core.Passage, error) {
	var passage *core.Passage
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		passage, err = readPassage(tx, makePassageKey(id))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if passage == nil {
		return nil, storage.ErrNotFound
	}
	return passage, nil
}

// CountPassages returns the number of stored passages.
func (r *PassageRepository) CountPassages(ctx context.Context) (int, error) {
	var stats storage.CorpusStats
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		stats, err = readCorpusStats(tx)
		return err
	}, false)
	return int(stats.Passages), err
}

func (r *PassageRepository) indexTerms(tx *badger.Txn, p *core.Passage, stats *storage.CorpusStats) error {
	tokens := tokenize(p.Text)
	for term, freq := range termFrequencies(tokens) {
		if err := tx.Set(makePostingKey(term, p.ID), storage.MarshalInt(freq)); err != nil {
			return err
		}
		if err := tx.Set(makeTermListKey(p.ID, term), nil); err != nil {
			return err
		}
	}
	if err := tx.Set(makeLengthKey(p.ID), storage.MarshalInt(len(tokens))); err != nil {
		return err
	}
	stats.Passages++
	stats.TotalTokens += int64(len(tokens))
	return nil
}

func (r *PassageRepository) indexMentions(tx *badger.Txn, p *core.Passage) error {
	for _, e := range p.Entities {
		if entityKey(e.Name) == "" {
			continue
		}
		if err := tx.Set(makeMentionKey(e.Name, p.DocumentID, p.ID), storage.MarshalMention(e.Type, p.Page)); err != nil {
			return err
		}
		if err := tx.Set(makeDocEntityKey(p.DocumentID, e.Name), storage.MarshalEntityRef(e)); err != nil {
			return err
		}
	}
	return nil
}

// deleteIndexes removes every index entry written for old.
func (r *PassageRepository) deleteIndexes(tx *badger.Txn, old *core.Passage, stats *storage.CorpusStats) error {
	var termKeys [][]byte
	err := scanPrefix(tx, makeTermListPrefix(old.ID), false, func(key, _ []byte) error {
		termKeys = append(termKeys, key)
		return nil
	})
	if err != nil {
		return err
	}
	prefixLen := len(makeTermListPrefix(old.ID))
	for _, key := range termKeys {
		term := string(key[prefixLen:])
		if err := tx.Delete(makePostingKey(term, old.ID)); err != nil {
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
	}

	length, err := readInt(tx, makeLengthKey(old.ID))
	if err != nil {
		return err
	}
	if err := tx.Delete(makeLengthKey(old.ID)); err != nil {
		return err
	}
	stats.Passages--
	stats.TotalTokens -= int64(length)

	for _, e := range old.Entities {
		if entityKey(e.Name) == "" {
			continue
		}
		if err := tx.Delete(makeMentionKey(e.Name, old.DocumentID, old.ID)); err != nil {
			return err
		}
		// The document keeps the entity while another of its passages mentions it.
		docPrefix := []byte(string(makeMentionPrefix(e.Name)) + old.DocumentID + keySep)
		stillMentioned := false
		err := scanPrefix(tx, docPrefix, false, func(_, _ []byte) error {
			stillMentioned = true
			return errStopScan
		})
		if err != nil {
			return err
		}
		if !stillMentioned {
			if err := tx.Delete(makeDocEntityKey(old.DocumentID, e.Name)); err != nil {
				return err
			}
		}
	}
	return nil
}

func readPassage(tx *badger.Txn, key []byte) (*core.Passage, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var passage *core.Passage
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		passage, unmarshalErr = storage.UnmarshalPassage(val)
		return unmarshalErr
	})
	return passage, err
}

func readCorpusStats(tx *badger.Txn) (storage.CorpusStats, error) {
	item, err := tx.Get([]byte(corpusStatsKey))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.CorpusStats{}, nil
		}
		return storage.CorpusStats{}, err
	}
	var stats storage.CorpusStats
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		stats, unmarshalErr = storage.UnmarshalCorpusStats(val)
		return unmarshalErr
	})
	return stats, err
}

// readInt returns 0 for a missing key.
func readInt(tx *badger.Txn, key []byte) (int, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	var v int
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		v, unmarshalErr = storage.UnmarshalInt(val)
		return unmarshalErr
	})
	if err != nil {
		return 0, fmt.Errorf("read %q: %w", key, err)
	}
	return v, nil
}

// passageHit converts a stored passage into a search hit.
func passageHit(p *core.Passage, score float64) storage.SearchHit {
	return storage.SearchHit{
		ID:    p.ID,
		Score: score,
		Metadata: storage.HitMetadata{
			ParentID:    p.ParentID,
			DocumentID:  p.DocumentID,
			Page:        p.Page,
			Text:        p.Text,
			ContextText: p.ContextText,
		},
	}
}

// sortHits orders hits by score descending, then ID.
func sortHits(hits []storage.SearchHit) {
	slices.SortFunc(hits, func(a, b storage.SearchHit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
