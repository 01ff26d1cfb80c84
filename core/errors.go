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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidCandidate indicates a Candidate failed validation.
	ErrInvalidCandidate = errors.New("invalid candidate")

	// ErrInvalidGraphResult indicates a GraphLookupResult failed validation.
	ErrInvalidGraphResult = errors.New("invalid graph lookup result")

	// ErrInvalidPassage indicates a stored Passage failed validation.
	ErrInvalidPassage = errors.New("invalid passage")

	// ErrEmptyID indicates the ID field is empty.
	ErrEmptyID = errors.New("id cannot be empty")

	// ErrEmptyDocumentID indicates the DocumentID field is empty.
	ErrEmptyDocumentID = errors.New("document id cannot be empty")

	// ErrEmptyContent indicates the Text field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidPage indicates a negative page number.
	ErrInvalidPage = errors.New("page cannot be negative")

	// ErrInvalidMatchKind indicates an unknown MatchKind value.
	ErrInvalidMatchKind = errors.New("invalid match kind")

	// ErrInvalidComplexity indicates a string that names no Complexity.
	ErrInvalidComplexity = errors.New("invalid complexity")

	// ErrMissingRelatedEntity indicates an indirect match without the entity it was reached through.
	ErrMissingRelatedEntity = errors.New("indirect match requires related entity")

	// ErrUnknownEntityType indicates a string that names no EntityType.
	ErrUnknownEntityType = errors.New("unknown entity type")
)
