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


// Package ai provides abstractions for the language-model collaborators
// used by the hybrid retrieval engine.
//
// # Interfaces
//
//   - Embedder: Generates vector embeddings from text
//   - QueryExpander: Rewrites a query into alternative phrasings
//   - EntityExtractor: Finds named entities in a query or passage
//   - RelevanceScorer: Grades a passage against a query on a 1-10 scale
//   - PassageExtractor: Keeps only the query-relevant sentences of a passage
//   - AIProvider: Aggregates the services for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// INTERFACE types to enforce abstraction and prevent accidental coupling to
// concrete implementations.
//
//	provider, err := openai.NewProvider(config)  // returns ai.AIProvider
//
// Test utility constructors (mock.NewMockEmbedder, mock.NewMockScorer, ...)
// return CONCRETE types to enable test assertions and behavior injection via
// the mock's public fields and methods (CallCount, Reset, etc.).
//
//	scorer := mock.NewMockScorer()
//	scorer.ScoreFunc = func(ctx context.Context, q, p string) (int, error) { return 9, nil }
//	count := scorer.CallCount()
//
// # Usage Example
//
//	config := ai.DefaultConfig()
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	variants, err := provider.QueryExpander().Expand(ctx, "who audits acme", 3)
//	entities, err := provider.EntityExtractor().ExtractEntities(ctx, "who audits acme")
package ai
