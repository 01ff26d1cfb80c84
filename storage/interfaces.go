package storage

import (
	"context"
	"time"

	"github.com/poiesic/hybrid/core"
)

// Searcher is a ranked passage search collaborator. Dense (vector) and
// sparse (keyword) sources share this shape.
// Implementations must be thread-safe and support concurrent access.
type Searcher interface {
	// Search returns up to topK hits for text, best first.
	Search(ctx context.Context, text string, topK int) ([]SearchHit, error)
}

// SearcherFunc adapts a function to the Searcher interface.
type SearcherFunc func(ctx context.Context, text string, topK int) ([]SearchHit, error)

// Search calls f.
func (f SearcherFunc) Search(ctx context.Context, text string, topK int) ([]SearchHit, error) {
	return f(ctx, text, topK)
}

// SearchHit is one ranked result from a Searcher.
type SearchHit struct {
	ID       string
	Score    float64
	Metadata HitMetadata
}

// HitMetadata is the passage data a search collaborator returns with each hit.
type HitMetadata struct {
	ParentID    string
	DocumentID  string
	Page        *int
	Text        string
	ContextText string
}

// GraphStore is the entity graph collaborator.
// Implementations must be thread-safe and support concurrent access.
type GraphStore interface {
	// FindDocumentsMentioning returns the documents that mention entity,
	// with the pages the mentions fall on. With fuzzy set, near matches
	// of the entity name also count.
	FindDocumentsMentioning(ctx context.Context, entity string, fuzzy bool) ([]DocumentMention, error)

	// FindRelatedEntities returns up to limit entities within hops of entity,
	// most shared documents first.
	FindRelatedEntities(ctx context.Context, entity string, hops, limit int) ([]RelatedEntity, error)
}

// DocumentMention is a document in which an entity appears.
// Pages is empty when the document has no page structure.
type DocumentMention struct {
	DocumentID string
	Pages      []int
}

// RelatedEntity is an entity reached from another through shared documents.
type RelatedEntity struct {
	Name                string
	Type                core.EntityType
	SharedDocumentCount int
}

// PassageStore persists pre-chunked passages for a corpus backend.
type PassageStore interface {
	// PutPassages writes passages and updates every index derived from them.
	// Existing passages with the same ID are replaced.
	PutPassages(ctx context.Context, passages ...*core.Passage) error

	// GetPassage returns a passage by ID, or ErrNotFound.
	GetPassage(ctx context.Context, id string) (*core.Passage, error)

	// CountPassages returns the number of stored passages.
	CountPassages(ctx context.Context) (int, error)
}

// CheckpointStore records how far a named corpus load has progressed so an
// interrupted load can resume.
type CheckpointStore interface {
	// SaveCheckpoint persists a checkpoint, stamping UpdatedAt.
	SaveCheckpoint(ctx context.Context, checkpoint *Checkpoint) error

	// LoadCheckpoint returns the checkpoint for name, or nil, nil if none exists.
	LoadCheckpoint(ctx context.Context, name string) (*Checkpoint, error)
}

// Checkpoint is the number of records a named load has committed.
type Checkpoint struct {
	Name      string
	Offset    int64
	UpdatedAt time.Time
}
