package mock

import (
	"context"
	"sync"

	"github.com/poiesic/hybrid/storage"
)

// MockGraphStore is a test double for storage.GraphStore.
type MockGraphStore struct {
	// FindDocumentsFunc is called by FindDocumentsMentioning if set.
	// If nil, Mentions[entity] is returned.
	FindDocumentsFunc func(ctx context.Context, entity string, fuzzy bool) ([]storage.DocumentMention, error)

	// FindRelatedFunc is called by FindRelatedEntities if set.
	// If nil, Related[entity] is returned, truncated to limit.
	FindRelatedFunc func(ctx context.Context, entity string, hops, limit int) ([]storage.RelatedEntity, error)

	Mentions map[string][]storage.DocumentMention
	Related  map[string][]storage.RelatedEntity

	mu           sync.Mutex
	lookupCalls  int
	relatedCalls int
}

// NewMockGraphStore creates an empty mock graph.
func NewMockGraphStore() *MockGraphStore {
	return &MockGraphStore{
		Mentions: make(map[string][]storage.DocumentMention),
		Related:  make(map[string][]storage.RelatedEntity),
	}
}

// FindDocumentsMentioning returns the injected mentions for entity.
func (m *MockGraphStore) FindDocumentsMentioning(ctx context.Context, entity string, fuzzy bool) ([]storage.DocumentMention, error) {
	m.mu.Lock()
	m.lookupCalls++
	m.mu.Unlock()

	if m.FindDocumentsFunc != nil {
		return m.FindDocumentsFunc(ctx, entity, fuzzy)
	}
	return m.Mentions[entity], nil
}

// FindRelatedEntities returns the injected related entities for entity.
func (m *MockGraphStore) FindRelatedEntities(ctx context.Context, entity string, hops, limit int) ([]storage.RelatedEntity, error) {
	m.mu.Lock()
	m.relatedCalls++
	m.mu.Unlock()

	if m.FindRelatedFunc != nil {
		return m.FindRelatedFunc(ctx, entity, hops, limit)
	}
	related := m.Related[entity]
	if limit > 0 && len(related) > limit {
		related = related[:limit]
	}
	return related, nil
}

// LookupCalls returns the number of FindDocumentsMentioning calls.
func (m *MockGraphStore) LookupCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookupCalls
}

// RelatedCalls returns the number of FindRelatedEntities calls.
func (m *MockGraphStore) RelatedCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.relatedCalls
}
