package core

import (
	"encoding/binary"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier used for index keys.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Source names a retrieval source that can produce or confirm a candidate.
type Source string

const (
	SourceDense  Source = "dense"
	SourceSparse Source = "sparse"
	SourceGraph  Source = "graph"
)

// MatchKind distinguishes entities named in the query from entities reached
// by traversing the graph.
type MatchKind int

const (
	// MatchDirect is a document mentioning an entity extracted from the query.
	MatchDirect MatchKind = iota + 1
	// MatchIndirect is a document mentioning an entity related to a query entity.
	MatchIndirect
)

func (m MatchKind) String() string {
	switch m {
	case MatchDirect:
		return "direct"
	case MatchIndirect:
		return "indirect"
	default:
		return "unknown"
	}
}

// ParseMatchKind maps "direct" or "indirect" to its MatchKind.
func ParseMatchKind(s string) (MatchKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "direct":
		return MatchDirect, nil
	case "indirect":
		return MatchIndirect, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMatchKind, s)
}

func (m MatchKind) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *MatchKind) UnmarshalText(text []byte) error {
	kind, err := ParseMatchKind(string(text))
	if err != nil {
		return err
	}
	*m = kind
	return nil
}

// Complexity is the query complexity signal produced by analysis.
type Complexity int

const (
	ComplexitySimple Complexity = iota + 1
	ComplexityMedium
	ComplexityComplex
)

func (c Complexity) String() string {
	switch c {
	case ComplexitySimple:
		return "simple"
	case ComplexityMedium:
		return "medium"
	case ComplexityComplex:
		return "complex"
	default:
		return "unknown"
	}
}

// ParseComplexity maps "simple", "medium" or "complex" to its Complexity.
func ParseComplexity(s string) (Complexity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "simple":
		return ComplexitySimple, nil
	case "medium":
		return ComplexityMedium, nil
	case "complex":
		return ComplexityComplex, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidComplexity, s)
}

func (c Complexity) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Complexity) UnmarshalText(text []byte) error {
	complexity, err := ParseComplexity(string(text))
	if err != nil {
		return err
	}
	*c = complexity
	return nil
}

// ComplexityFromEntityCount maps the number of distinct query entities to a
// complexity: 0 is simple, 1 is medium, 2 or more is complex.
func ComplexityFromEntityCount(n int) Complexity {
	switch {
	case n <= 0:
		return ComplexitySimple
	case n == 1:
		return ComplexityMedium
	default:
		return ComplexityComplex
	}
}

// GraphEvidence records why the graph source confirmed a candidate.
// RelatedTo and SharedDocumentCount are set only for indirect matches.
type GraphEvidence struct {
	MatchedEntity       string     `json:"matched_entity"`
	EntityType          EntityType `json:"entity_type"`
	MatchKind           MatchKind  `json:"match_kind"`
	RelatedTo           string     `json:"related_to,omitempty"`
	SharedDocumentCount int        `json:"shared_document_count,omitempty"`
}

// GraphLookupResult is one document (and optionally a set of pages) found by
// the graph source for one entity.
type GraphLookupResult struct {
	DocumentID          string
	Pages               []int // empty when the document has no page structure
	MatchedEntity       string
	EntityType          EntityType
	MatchKind           MatchKind
	RelatedTo           string
	SharedDocumentCount int
}

// Evidence returns the evidence payload carried by this lookup result.
func (r *GraphLookupResult) Evidence() *GraphEvidence {
	return &GraphEvidence{
		MatchedEntity:       r.MatchedEntity,
		EntityType:          r.EntityType,
		MatchKind:           r.MatchKind,
		RelatedTo:           r.RelatedTo,
		SharedDocumentCount: r.SharedDocumentCount,
	}
}

// Candidate is one retrievable child passage moving through the pipeline.
type Candidate struct {
	ID          string
	ParentID    string
	DocumentID  string
	Page        *int
	Text        string
	ContextText string

	// SourceTags is kept sorted and free of duplicates; use AddSource.
	SourceTags []Source
	RankScores map[Source]float64
	FusedScore float64

	GraphEvidence  *GraphEvidence
	RelevanceScore *int
	CompressedText *string
}

// GroupKey returns the parent grouping key, falling back to the candidate's own ID.
func (c *Candidate) GroupKey() string {
	if c.ParentID != "" {
		return c.ParentID
	}
	return c.ID
}

// AddSource records that s produced or confirmed the candidate.
func (c *Candidate) AddSource(s Source) {
	i, found := slices.BinarySearch(c.SourceTags, s)
	if found {
		return
	}
	c.SourceTags = slices.Insert(c.SourceTags, i, s)
}

// HasSource reports whether s is among the candidate's source tags.
func (c *Candidate) HasSource(s Source) bool {
	_, found := slices.BinarySearch(c.SourceTags, s)
	return found
}

// Clone returns a deep copy of the candidate.
func (c *Candidate) Clone() *Candidate {
	out := *c
	if c.Page != nil {
		page := *c.Page
		out.Page = &page
	}
	out.SourceTags = slices.Clone(c.SourceTags)
	if c.RankScores != nil {
		out.RankScores = maps.Clone(c.RankScores)
	}
	if c.GraphEvidence != nil {
		ev := *c.GraphEvidence
		out.GraphEvidence = &ev
	}
	if c.RelevanceScore != nil {
		score := *c.RelevanceScore
		out.RelevanceScore = &score
	}
	if c.CompressedText != nil {
		text := *c.CompressedText
		out.CompressedText = &text
	}
	return &out
}

// PageOf returns a pointer to a copy of page, for populating optional fields.
func PageOf(page int) *int {
	return &page
}

// Passage is a pre-chunked child passage held by a corpus backend.
type Passage struct {
	ID          string
	ParentID    string
	DocumentID  string
	Page        *int
	Text        string
	ContextText string
	Vector      []float32
	Entities    []EntityMention
}
