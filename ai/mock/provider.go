// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package mock

import "github.com/poiesic/hybrid/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates one mock of each service.
type MockProvider struct {
	embedder   *MockEmbedder
	expander   *MockQueryExpander
	extractor  *MockEntityExtractor
	scorer     *MockScorer
	compressor *MockPassageExtractor
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use the GetMock* methods to access concrete types for test assertions.
func NewMockProvider() ai.AIProvider {
	return NewMockProviderWithServices(
		NewMockEmbedder(),
		NewMockQueryExpander(),
		NewMockEntityExtractor(),
		NewMockScorer(),
		NewMockPassageExtractor(),
	)
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
func NewMockProviderWithServices(
	embedder *MockEmbedder,
	expander *MockQueryExpander,
	extractor *MockEntityExtractor,
	scorer *MockScorer,
	compressor *MockPassageExtractor,
) ai.AIProvider {
	return &MockProvider{
		embedder:   embedder,
		expander:   expander,
		extractor:  extractor,
		scorer:     scorer,
		compressor: compressor,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// QueryExpander returns the mock expander.
func (p *MockProvider) QueryExpander() ai.QueryExpander {
	return p.expander
}

// EntityExtractor returns the mock entity extractor.
func (p *MockProvider) EntityExtractor() ai.EntityExtractor {
	return p.extractor
}

// RelevanceScorer returns the mock scorer.
func (p *MockProvider) RelevanceScorer() ai.RelevanceScorer {
	return p.scorer
}

// PassageExtractor returns the mock passage extractor.
func (p *MockProvider) PassageExtractor() ai.PassageExtractor {
	return p.compressor
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockExpander returns the underlying mock expander for test assertions.
func (p *MockProvider) GetMockExpander() *MockQueryExpander {
	return p.expander
}

// GetMockExtractor returns the underlying mock entity extractor for test assertions.
func (p *MockProvider) GetMockExtractor() *MockEntityExtractor {
	return p.extractor
}

// GetMockScorer returns the underlying mock scorer for test assertions.
func (p *MockProvider) GetMockScorer() *MockScorer {
	return p.scorer
}

// GetMockCompressor returns the underlying mock passage extractor for test assertions.
func (p *MockProvider) GetMockCompressor() *MockPassageExtractor {
	return p.compressor
}
