package retrieval

import "github.com/poiesic/hybrid/core"

// RankedList is one source's candidates, best first.
type RankedList struct {
	Source     core.Source
	Candidates []*core.Candidate
}

// Fuse merges the dense and sparse lists with reciprocal rank fusion.
func Fuse(dense, sparse []*core.Candidate, k int) []*core.Candidate {
	return FuseLists(k,
		RankedList{Source: core.SourceDense, Candidates: dense},
		RankedList{Source: core.SourceSparse, Candidates: sparse},
	)
}

// FuseLists merges ranked lists with reciprocal rank fusion. Each candidate's
// fused score is the sum of 1/(k+rank) over the lists it appears in, with
// 1-based ranks; its rank in each list is kept in RankScores. Output is
// ordered by fused score descending, then ID. Inputs are not modified: the
// first occurrence of each ID is cloned and carries the tags of every list
// it appears in.
func FuseLists(k int, lists ...RankedList) []*core.Candidate {
	byID := make(map[string]*core.Candidate)
	var fused []*core.Candidate

	for _, list := range lists {
		for i, c := range list.Candidates {
			rank := i + 1
			f, ok := byID[c.ID]
			if !ok {
				f = c.Clone()
				f.FusedScore = 0
				f.SourceTags = nil
				f.RankScores = make(map[core.Source]float64, len(lists))
				byID[c.ID] = f
				fused = append(fused, f)
			} else if _, seen := f.RankScores[list.Source]; seen {
				// A list repeating an ID contributes its best rank only.
				continue
			}
			f.FusedScore += 1.0 / float64(k+rank)
			f.RankScores[list.Source] = float64(rank)
			f.AddSource(list.Source)
		}
	}

	sortByFused(fused)
	return fused
}
