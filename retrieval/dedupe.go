package retrieval

import "github.com/poiesic/hybrid/core"

// Dedupe keeps one candidate per parent group (the parent ID, or the
// candidate's own ID when it has none): the one with the highest fused
// score, the earliest in input order on ties. Output is ordered by fused
// score descending, then ID.
func Dedupe(candidates []*core.Candidate) []*core.Candidate {
	slot := make(map[string]int, len(candidates))
	out := make([]*core.Candidate, 0, len(candidates))
	for _, c := range candidates {
		key := c.GroupKey()
		i, ok := slot[key]
		if !ok {
			slot[key] = len(out)
			out = append(out, c)
			continue
		}
		if c.FusedScore > out[i].FusedScore {
			out[i] = c
		}
	}
	sortByFused(out)
	return out
}
