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


// Package storage defines the search collaborators the retrieval engine
// consumes, and the passage persistence used by the local reference backend.
//
// # Collaborators
//
//   - Searcher: ranked passage search; dense and sparse sources share it
//   - GraphStore: entity-to-document lookups and related-entity traversal
//   - PassageStore: writes pre-chunked passages and their derived indexes
//
// The badger sub-package implements all three on a single BadgerDB instance
// for development and tests. Production deployments put a vector index,
// a keyword engine and a graph database behind the same interfaces.
//
// # Thread Safety
//
// All implementations must be thread-safe: the engine queries the dense,
// sparse and graph collaborators concurrently, and fans each query variant
// out in parallel.
//
// # Context Support
//
// All methods accept context.Context for cancellation and timeout support.
// Source adapters bound every call with a short deadline.
package storage
