package retrieval

import (
	"cmp"
	"slices"

	"github.com/poiesic/hybrid/core"
)

// Stage names a pipeline stage.
type Stage string

const (
	StageAnalyze  Stage = "analyze"
	StageSources  Stage = "sources"
	StageFuse     Stage = "fuse"
	StageBoost    Stage = "boost"
	StageDedupe   Stage = "dedupe"
	StageRerank   Stage = "rerank"
	StageCompress Stage = "compress"
)

// Request is one retrieval call.
type Request struct {
	Query    string
	TopK     int
	UseGraph bool
	Compress bool
}

// Response is the ranked result of a retrieval call.
type Response struct {
	// RetrievalID identifies the call in logs and traces.
	RetrievalID string   `json:"retrieval_id"`
	Results     []Result `json:"results"`
	// FailedSources lists optional sources that failed; their evidence is
	// missing from Results.
	FailedSources []core.Source `json:"failed_sources"`
	// SkippedStages lists enrichment stages that fell back to their
	// degraded behavior.
	SkippedStages []Stage         `json:"skipped_stages"`
	Complexity    core.Complexity `json:"complexity"`
	Variants      []string        `json:"variants"`
}

// Result is one ranked passage with its provenance.
type Result struct {
	ID             string              `json:"id"`
	ParentID       string              `json:"parent_id,omitempty"`
	DocumentID     string              `json:"document_id"`
	Page           *int                `json:"page"`
	Text           string              `json:"text"`
	CompressedText *string             `json:"compressed_text,omitempty"`
	RelevanceScore *int                `json:"relevance_score"`
	FusedScore     float64             `json:"fused_score"`
	SourceTags     []core.Source       `json:"source_tags"`
	GraphEvidence  *core.GraphEvidence `json:"graph_evidence"`
}

func newResult(c *core.Candidate) Result {
	c = c.Clone()
	return Result{
		ID:             c.ID,
		ParentID:       c.ParentID,
		DocumentID:     c.DocumentID,
		Page:           c.Page,
		Text:           c.Text,
		CompressedText: c.CompressedText,
		RelevanceScore: c.RelevanceScore,
		FusedScore:     c.FusedScore,
		SourceTags:     c.SourceTags,
		GraphEvidence:  c.GraphEvidence,
	}
}

// sortByFused orders candidates by fused score descending, then ID.
func sortByFused(candidates []*core.Candidate) {
	slices.SortStableFunc(candidates, func(a, b *core.Candidate) int {
		switch {
		case a.FusedScore > b.FusedScore:
			return -1
		case a.FusedScore < b.FusedScore:
			return 1
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func cloneAll(candidates []*core.Candidate) []*core.Candidate {
	out := make([]*core.Candidate, len(candidates))
	for i, c := range candidates {
		out[i] = c.Clone()
	}
	return out
}

func truncate(candidates []*core.Candidate, n int) []*core.Candidate {
	if len(candidates) > n {
		return candidates[:n]
	}
	return candidates
}
