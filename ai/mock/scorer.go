package mock

import (
	"context"
	"sync"
)

// MockScorer is a test double for ai.RelevanceScorer.
type MockScorer struct {
	// ScoreFunc is called by Score if set. If nil, every passage scores 5.
	ScoreFunc func(ctx context.Context, query, passage string) (int, error)

	mu        sync.Mutex
	callCount int
	passages  []string
}

// NewMockScorer creates a mock scorer returning a neutral 5.
func NewMockScorer() *MockScorer {
	return &MockScorer{}
}

// Score returns the injected score, or 5 by default.
func (m *MockScorer) Score(ctx context.Context, query, passage string) (int, error) {
	m.mu.Lock()
	m.callCount++
	m.passages = append(m.passages, passage)
	m.mu.Unlock()

	if m.ScoreFunc != nil {
		return m.ScoreFunc(ctx, query, passage)
	}
	return 5, nil
}

// CallCount returns the number of times Score was called.
func (m *MockScorer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Passages returns every passage scored so far, in call order.
func (m *MockScorer) Passages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.passages...)
}

// Reset clears recorded calls and injected behavior.
func (m *MockScorer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.passages = nil
	m.ScoreFunc = nil
}
