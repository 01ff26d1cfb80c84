package retrieval

import "github.com/poiesic/hybrid/core"

// graphMatch is the graph evidence gathered for one document.
type graphMatch struct {
	pages    map[int]struct{}
	evidence *core.GraphEvidence
}

// Boost adds increment to the fused score of every candidate confirmed by
// the graph results and re-sorts the list. A candidate with a page is
// confirmed when its page is among the pages resolved for its document; a
// candidate without a page is confirmed when its document resolved no pages
// at all. Confirmed candidates gain the graph source tag and, unless they
// already carry evidence, the document's best evidence: direct before
// indirect, then the highest shared document count. Returns the list and
// the number of candidates boosted. A negative increment is treated as 0.
func Boost(fused []*core.Candidate, results []core.GraphLookupResult, increment float64) ([]*core.Candidate, int) {
	if len(results) == 0 {
		return fused, 0
	}
	increment = max(increment, 0)

	matches := make(map[string]*graphMatch)
	for i := range results {
		r := &results[i]
		m, ok := matches[r.DocumentID]
		if !ok {
			m = &graphMatch{pages: make(map[int]struct{})}
			matches[r.DocumentID] = m
		}
		for _, p := range r.Pages {
			m.pages[p] = struct{}{}
		}
		if betterEvidence(r, m.evidence) {
			m.evidence = r.Evidence()
		}
	}

	boosted := 0
	for _, c := range fused {
		m, ok := matches[c.DocumentID]
		if !ok || !m.confirms(c) {
			continue
		}
		c.FusedScore += increment
		c.AddSource(core.SourceGraph)
		if c.RankScores == nil {
			c.RankScores = make(map[core.Source]float64)
		}
		c.RankScores[core.SourceGraph] = increment
		if c.GraphEvidence == nil {
			ev := *m.evidence
			c.GraphEvidence = &ev
		}
		boosted++
	}

	sortByFused(fused)
	return fused, boosted
}

func (m *graphMatch) confirms(c *core.Candidate) bool {
	if c.Page == nil {
		return len(m.pages) == 0
	}
	_, ok := m.pages[*c.Page]
	return ok
}

func betterEvidence(r *core.GraphLookupResult, current *core.GraphEvidence) bool {
	switch {
	case current == nil:
		return true
	case r.MatchKind != current.MatchKind:
		return r.MatchKind == core.MatchDirect
	case r.MatchKind == core.MatchIndirect:
		return r.SharedDocumentCount > current.SharedDocumentCount
	}
	return false
}
