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
package retrieval

import "errors"

var (
	// ErrDenseSearcherRequired is returned when a dense searcher is not provided.
	ErrDenseSearcherRequired = errors.New("dense searcher required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrEmptyQuery is returned when a retrieval request has a blank query.
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrInvalidTopK is returned when a retrieval request asks for fewer than one result.
	ErrInvalidTopK = errors.New("top_k must be greater than 0")

	// ErrRequiredSourceFailed wraps the failure of the dense source, without
	// which no retrieval can succeed.
	ErrRequiredSourceFailed = errors.New("required source failed")

	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = errors.New("invalid retrieval config")

	// ErrRerankUnavailable is returned by Reranker.Rerank when no candidate
	// could be scored.
	ErrRerankUnavailable = errors.New("relevance scorer unavailable")
)
