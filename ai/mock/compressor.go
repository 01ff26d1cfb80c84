package mock

import (
	"context"
	"sync"
)

// MockPassageExtractor is a test double for ai.PassageExtractor.
type MockPassageExtractor struct {
	// ExtractFunc is called by Extract if set. If nil, the passage is
	// returned unchanged and marked relevant.
	ExtractFunc func(ctx context.Context, query, passage string) (string, bool, error)

	mu        sync.Mutex
	callCount int
}

// NewMockPassageExtractor creates a mock extractor that echoes its input.
func NewMockPassageExtractor() *MockPassageExtractor {
	return &MockPassageExtractor{}
}

// Extract returns the injected result, or the passage itself by default.
func (m *MockPassageExtractor) Extract(ctx context.Context, query, passage string) (string, bool, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, query, passage)
	}
	return passage, true, nil
}

// CallCount returns the number of times Extract was called.
func (m *MockPassageExtractor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockPassageExtractor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.ExtractFunc = nil
}
