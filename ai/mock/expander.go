package mock

import (
	"context"
	"sync"
)

// MockQueryExpander is a test double for ai.QueryExpander.
type MockQueryExpander struct {
	// ExpandFunc is called by Expand if set. If nil, no variants are returned.
	ExpandFunc func(ctx context.Context, query string, n int) ([]string, error)

	mu        sync.Mutex
	callCount int
}

// NewMockQueryExpander creates a mock expander that returns no variants.
func NewMockQueryExpander() *MockQueryExpander {
	return &MockQueryExpander{}
}

// Expand returns injected variants, or none by default.
func (m *MockQueryExpander) Expand(ctx context.Context, query string, n int) ([]string, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.ExpandFunc != nil {
		return m.ExpandFunc(ctx, query, n)
	}
	return []string{}, nil
}

// CallCount returns the number of times Expand was called.
func (m *MockQueryExpander) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockQueryExpander) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.ExpandFunc = nil
}
