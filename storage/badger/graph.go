package badger

import (
	"cmp"
	"context"
	"maps"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/hybrid/core"
	"github.com/poiesic/hybrid/storage"
)

// GraphStore implements storage.GraphStore over the entity mentions written
// by PassageRepository. Two entities are related when a document mentions
// both.
type GraphStore struct {
	backend *Backend
}

var _ storage.GraphStore = (*GraphStore)(nil)

// NewGraphStore creates a new GraphStore.
func NewGraphStore(backend *Backend) *GraphStore {
	return &GraphStore{backend: backend}
}

// FindDocumentsMentioning returns the documents mentioning entity, ordered by
// document ID. Names are compared case-insensitively; with fuzzy set an
// indexed name containing the query, or contained in it, also matches.
func (g *GraphStore) FindDocumentsMentioning(ctx context.Context, entity string, fuzzy bool) ([]storage.DocumentMention, error) {
	query := entityKey(entity)
	if query == "" {
		return nil, storage.ErrInvalidQuery
	}

	prefix := makeMentionPrefix(entity)
	if fuzzy {
		prefix = makeMentionPrefix("")
	}

	pages := make(map[string]map[int]struct{})
	err := g.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, prefix, true, func(key, val []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			name, documentID, _, err := parseMentionKey(key)
			if err != nil {
				return err
			}
			if fuzzy && !fuzzyEntityMatch(name, query) {
				return nil
			}
			_, page, err := storage.UnmarshalMention(val)
			if err != nil {
				return err
			}
			docPages, ok := pages[documentID]
			if !ok {
				docPages = make(map[int]struct{})
				pages[documentID] = docPages
			}
			if page != nil {
				docPages[*page] = struct{}{}
			}
			return nil
		})
	}, false)
	if err != nil {
		return nil, err
	}

	mentions := make([]storage.DocumentMention, 0, len(pages))
	for _, documentID := range slices.Sorted(maps.Keys(pages)) {
		mentions = append(mentions, storage.DocumentMention{
			DocumentID: documentID,
			Pages:      slices.Sorted(maps.Keys(pages[documentID])),
		})
	}
	return mentions, nil
}

// FindRelatedEntities walks co-mention edges breadth first from entity for up
// to hops steps. Each related entity's SharedDocumentCount counts the
// documents it shares with the entity it was first reached from. Results are
// ordered by shared count descending, then name.
func (g *GraphStore) FindRelatedEntities(ctx context.Context, entity string, hops, limit int) ([]storage.RelatedEntity, error) {
	seed := entityKey(entity)
	if seed == "" {
		return nil, storage.ErrInvalidQuery
	}
	hops = max(hops, 1)

	var related []storage.RelatedEntity
	err := g.backend.WithTx(func(tx *badger.Txn) error {
		visited := map[string]bool{seed: true}
		frontier := []string{seed}

		for hop := 0; hop < hops && len(frontier) > 0; hop++ {
			var next []string
			for _, from := range frontier {
				if err := ctx.Err(); err != nil {
					return err
				}
				documents, err := documentsMentioning(tx, from)
				if err != nil {
					return err
				}

				shared := make(map[string]int)
				refs := make(map[string]core.EntityMention)
				for _, documentID := range documents {
					prefix := makeDocEntityPrefix(documentID)
					err := scanPrefix(tx, prefix, true, func(key, val []byte) error {
						name := string(key[len(prefix):])
						if visited[name] {
							return nil
						}
						if _, ok := refs[name]; !ok {
							ref, err := storage.UnmarshalEntityRef(val)
							if err != nil {
								return err
							}
							refs[name] = ref
						}
						shared[name]++
						return nil
					})
					if err != nil {
						return err
					}
				}

				for _, name := range slices.Sorted(maps.Keys(shared)) {
					visited[name] = true
					next = append(next, name)
					related = append(related, storage.RelatedEntity{
						Name:                refs[name].Name,
						Type:                refs[name].Type,
						SharedDocumentCount: shared[name],
					})
				}
			}
			frontier = next
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(related, func(a, b storage.RelatedEntity) int {
		if c := cmp.Compare(b.SharedDocumentCount, a.SharedDocumentCount); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if limit > 0 && len(related) > limit {
		related = related[:limit]
	}
	return related, nil
}

// documentsMentioning returns the sorted IDs of documents mentioning the
// normalized entity name.
func documentsMentioning(tx *badger.Txn, entity string) ([]string, error) {
	seen := make(map[string]struct{})
	err := scanPrefix(tx, makeMentionPrefix(entity), false, func(key, _ []byte) error {
		_, documentID, _, err := parseMentionKey(key)
		if err != nil {
			return err
		}
		seen[documentID] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(seen)), nil
}
