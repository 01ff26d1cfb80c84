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

import "fmt"

// ValidateCandidate validates a Candidate produced by a source adapter.
//
// Validation rules:
//   - ID must not be empty
//   - DocumentID must not be empty
//   - Page, when present, must not be negative
//
// NOT validated (populated by later stages):
//   - FusedScore, GraphEvidence, RelevanceScore, CompressedText
func ValidateCandidate(c *Candidate) error {
	if c == nil {
		return fmt.Errorf("%w: candidate is nil", ErrInvalidCandidate)
	}
	if c.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCandidate, ErrEmptyID)
	}
	if c.DocumentID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCandidate, ErrEmptyDocumentID)
	}
	if c.Page != nil && *c.Page < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidCandidate, ErrInvalidPage)
	}
	return nil
}

// ValidateGraphLookupResult validates a graph lookup result.
//
// Validation rules:
//   - DocumentID must not be empty
//   - MatchKind must be direct or indirect
//   - Indirect matches must name the entity they were reached through
//   - Pages must not be negative
func ValidateGraphLookupResult(r *GraphLookupResult) error {
	if r == nil {
		return fmt.Errorf("%w: result is nil", ErrInvalidGraphResult)
	}
	if r.DocumentID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidGraphResult, ErrEmptyDocumentID)
	}
	switch r.MatchKind {
	case MatchDirect:
	case MatchIndirect:
		if r.RelatedTo == "" {
			return fmt.Errorf("%w: %w", ErrInvalidGraphResult, ErrMissingRelatedEntity)
		}
	default:
		return fmt.Errorf("%w: %w: value %d", ErrInvalidGraphResult, ErrInvalidMatchKind, r.MatchKind)
	}
	for _, p := range r.Pages {
		if p < 0 {
			return fmt.Errorf("%w: %w", ErrInvalidGraphResult, ErrInvalidPage)
		}
	}
	return nil
}

// ValidatePassage validates a passage before it is written to a backend.
//
// Validation rules:
//   - ID, DocumentID and Text must not be empty
//   - Page, when present, must not be negative
//   - Entity types must be declared EntityType values
//
// NOT validated:
//   - Vector (empty until embedded)
//   - ParentID (empty means the passage is its own group)
func ValidatePassage(p *Passage) error {
	if p == nil {
		return fmt.Errorf("%w: passage is nil", ErrInvalidPassage)
	}
	if p.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPassage, ErrEmptyID)
	}
	if p.DocumentID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPassage, ErrEmptyDocumentID)
	}
	if p.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPassage, ErrEmptyContent)
	}
	if p.Page != nil && *p.Page < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPassage, ErrInvalidPage)
	}
	for _, e := range p.Entities {
		if !e.Type.Valid() {
			return fmt.Errorf("%w: %w: %d", ErrInvalidPassage, ErrUnknownEntityType, e.Type)
		}
	}
	return nil
}
