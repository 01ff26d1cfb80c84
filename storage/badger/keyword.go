package badger

import (
	"context"
	"log/slog"
	"math"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/hybrid/storage"
)

// BM25 parameters.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// KeywordSearcher ranks passages by BM25 over the term postings written by
// PassageRepository.
type KeywordSearcher struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.Searcher = (*KeywordSearcher)(nil)

// NewKeywordSearcher creates a KeywordSearcher.
func NewKeywordSearcher(backend *Backend) *KeywordSearcher {
	return &KeywordSearcher{
		backend: backend,
		logger:  backend.logger.With("searcher", "keyword"),
	}
}

// Search returns the topK passages with the highest BM25 score for text.
// Passages sharing no term with the query are not returned.
func (s *KeywordSearcher) Search(ctx context.Context, text string, topK int) ([]storage.SearchHit, error) {
	if text == "" {
		return nil, storage.ErrInvalidQuery
	}
	if topK <= 0 {
		return nil, nil
	}

	terms := tokenize(text)
	slices.Sort(terms)
	terms = slices.Compact(terms)
	if len(terms) == 0 {
		return nil, nil
	}

	var hits []storage.SearchHit
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		stats, err := readCorpusStats(tx)
		if err != nil {
			return err
		}
		if stats.Passages == 0 {
			return nil
		}
		avgLen := float64(stats.TotalTokens) / float64(stats.Passages)
		if avgLen == 0 {
			avgLen = 1
		}

		scores := make(map[string]float64)
		lengths := make(map[string]int)
		for _, term := range terms {
			if err := ctx.Err(); err != nil {
				return err
			}
			postings, err := readPostings(tx, term)
			if err != nil {
				return err
			}
			if len(postings) == 0 {
				continue
			}
			df := float64(len(postings))
			idf := math.Log(1 + (float64(stats.Passages)-df+0.5)/(df+0.5))
			for id, tf := range postings {
				length, ok := lengths[id]
				if !ok {
					if length, err = readInt(tx, makeLengthKey(id)); err != nil {
						return err
					}
					lengths[id] = length
				}
				f := float64(tf)
				norm := f + bm25K1*(1-bm25B+bm25B*float64(length)/avgLen)
				scores[id] += idf * f * (bm25K1 + 1) / norm
			}
		}

		ranked := make([]storage.SearchHit, 0, len(scores))
		for id, score := range scores {
			ranked = append(ranked, storage.SearchHit{ID: id, Score: score})
		}
		sortHits(ranked)
		if len(ranked) > topK {
			ranked = ranked[:topK]
		}

		for _, h := range ranked {
			p, err := readPassage(tx, makePassageKey(h.ID))
			if err != nil {
				return err
			}
			if p == nil {
				s.logger.Warn("posting_without_passage", "passage_id", h.ID)
				continue
			}
			hits = append(hits, passageHit(p, h.Score))
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("keyword_search", "terms", len(terms), "hits", len(hits))
	return hits, nil
}

// readPostings returns the term frequency of term in each passage containing it.
func readPostings(tx *badger.Txn, term string) (map[string]int, error) {
	prefix := makePostingPrefix(term)
	postings := make(map[string]int)
	err := scanPrefix(tx, prefix, true, func(key, val []byte) error {
		tf, err := storage.UnmarshalInt(val)
		if err != nil {
			return err
		}
		postings[string(key[len(prefix):])] = tf
		return nil
	})
	return postings, err
}
