package retrieval

import (
	"github.com/poiesic/hybrid/core"
)

func cand(id, parentID, documentID string, page *int, fused float64) *core.Candidate {
	return &core.Candidate{
		ID:          id,
		ParentID:    parentID,
		DocumentID:  documentID,
		Page:        page,
		Text:        "text of " + id,
		ContextText: "context of " + id,
		FusedScore:  fused,
		RankScores:  map[core.Source]float64{},
	}
}

func ids(candidates []*core.Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.ID
	}
	return out
}

func resultIDs(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ID
	}
	return out
}
