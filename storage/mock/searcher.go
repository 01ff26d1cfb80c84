// Package mock provides test doubles for the storage collaborators.
package mock

import (
	"context"
	"sync"

	"github.com/poiesic/hybrid/storage"
)

// MockSearcher is a test double for storage.Searcher.
type MockSearcher struct {
	// SearchFunc is called by Search if set. If nil, Hits is returned for
	// every query, truncated to topK.
	SearchFunc func(ctx context.Context, text string, topK int) ([]storage.SearchHit, error)

	// Hits is the default result list.
	Hits []storage.SearchHit

	mu      sync.Mutex
	queries []string
}

// NewMockSearcher creates a mock searcher returning hits for every query.
func NewMockSearcher(hits ...storage.SearchHit) *MockSearcher {
	return &MockSearcher{Hits: hits}
}

// Search records the query and returns the injected result.
func (m *MockSearcher) Search(ctx context.Context, text string, topK int) ([]storage.SearchHit, error) {
	m.mu.Lock()
	m.queries = append(m.queries, text)
	m.mu.Unlock()

	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, text, topK)
	}
	hits := m.Hits
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return append([]storage.SearchHit(nil), hits...), nil
}

// CallCount returns the number of times Search was called.
func (m *MockSearcher) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

// Queries returns every query text seen so far, in call order.
func (m *MockSearcher) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

// Reset clears recorded queries and injected behavior.
func (m *MockSearcher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = nil
	m.SearchFunc = nil
}

// Hit builds a SearchHit; a convenience for table-driven tests.
func Hit(id, parentID, documentID string, page *int) storage.SearchHit {
	return storage.SearchHit{
		ID: id,
		Metadata: storage.HitMetadata{
			ParentID:    parentID,
			DocumentID:  documentID,
			Page:        page,
			Text:        "text of " + id,
			ContextText: "context of " + id,
		},
	}
}
