package retrieval

import (
	"testing"

	"github.com/poiesic/hybrid/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func direct(documentID, entity string, pages ...int) core.GraphLookupResult {
	return core.GraphLookupResult{
		DocumentID:    documentID,
		Pages:         pages,
		MatchedEntity: entity,
		EntityType:    core.EntityTypeOrganization,
		MatchKind:     core.MatchDirect,
	}
}

func indirect(documentID, entity, relatedTo string, shared int, pages ...int) core.GraphLookupResult {
	return core.GraphLookupResult{
		DocumentID:          documentID,
		Pages:               pages,
		MatchedEntity:       entity,
		EntityType:          core.EntityTypePerson,
		MatchKind:           core.MatchIndirect,
		RelatedTo:           relatedTo,
		SharedDocumentCount: shared,
	}
}

func TestBoost(t *testing.T) {
	t.Run("page level", func(t *testing.T) {
		onPage := cand("c22", "", "doc_A", core.PageOf(22), 0.0323)
		offPage := cand("c67", "", "doc_A", core.PageOf(67), 0.0323)

		out, boosted := Boost([]*core.Candidate{offPage, onPage},
			[]core.GraphLookupResult{direct("doc_A", "Acme", 15, 22, 45)}, 0.1)

		assert.Equal(t, 1, boosted)
		require.Equal(t, []string{"c22", "c67"}, ids(out))
		assert.InDelta(t, 0.1323, onPage.FusedScore, 1e-9)
		assert.InDelta(t, 0.0323, offPage.FusedScore, 1e-12)

		assert.True(t, onPage.HasSource(core.SourceGraph))
		assert.False(t, offPage.HasSource(core.SourceGraph))
		require.NotNil(t, onPage.GraphEvidence)
		assert.Equal(t, "Acme", onPage.GraphEvidence.MatchedEntity)
		assert.Nil(t, offPage.GraphEvidence)
	})

	t.Run("document level fallback", func(t *testing.T) {
		article := cand("a1", "", "article", nil, 0.01)
		out, boosted := Boost([]*core.Candidate{article},
			[]core.GraphLookupResult{direct("article", "Acme")}, 0.1)

		assert.Equal(t, 1, boosted)
		assert.InDelta(t, 0.11, out[0].FusedScore, 1e-12)
		assert.NotNil(t, out[0].GraphEvidence)
	})

	t.Run("pageless candidate not boosted when pages resolved", func(t *testing.T) {
		c := cand("a1", "", "doc", nil, 0.01)
		_, boosted := Boost([]*core.Candidate{c}, []core.GraphLookupResult{direct("doc", "Acme", 3)}, 0.1)
		assert.Zero(t, boosted)
		assert.Equal(t, 0.01, c.FusedScore)
	})

	t.Run("paged candidate not boosted by document level match", func(t *testing.T) {
		c := cand("a1", "", "doc", core.PageOf(3), 0.01)
		_, boosted := Boost([]*core.Candidate{c}, []core.GraphLookupResult{direct("doc", "Acme")}, 0.1)
		assert.Zero(t, boosted)
	})

	t.Run("pages union across results", func(t *testing.T) {
		p1 := cand("p1", "", "doc", core.PageOf(1), 0.01)
		p2 := cand("p2", "", "doc", core.PageOf(2), 0.01)
		_, boosted := Boost([]*core.Candidate{p1, p2}, []core.GraphLookupResult{
			direct("doc", "Acme", 1),
			indirect("doc", "Jane", "Acme", 2, 2),
		}, 0.1)
		assert.Equal(t, 2, boosted)
	})

	t.Run("direct evidence preferred over indirect", func(t *testing.T) {
		c := cand("c", "", "doc", nil, 0)
		Boost([]*core.Candidate{c}, []core.GraphLookupResult{
			indirect("doc", "Jane", "Acme", 4),
			direct("doc", "Acme"),
			indirect("doc", "Bob", "Acme", 9),
		}, 0.1)
		require.NotNil(t, c.GraphEvidence)
		assert.Equal(t, core.MatchDirect, c.GraphEvidence.MatchKind)
		assert.Equal(t, "Acme", c.GraphEvidence.MatchedEntity)
	})

	t.Run("indirect evidence with most shared documents", func(t *testing.T) {
		c := cand("c", "", "doc", nil, 0)
		Boost([]*core.Candidate{c}, []core.GraphLookupResult{
			indirect("doc", "Jane", "Acme", 4),
			indirect("doc", "Bob", "Acme", 9),
		}, 0.1)
		require.NotNil(t, c.GraphEvidence)
		assert.Equal(t, "Bob", c.GraphEvidence.MatchedEntity)
		assert.Equal(t, 9, c.GraphEvidence.SharedDocumentCount)
		assert.Equal(t, "Acme", c.GraphEvidence.RelatedTo)
	})

	t.Run("existing evidence kept", func(t *testing.T) {
		c := cand("c", "", "doc", nil, 0)
		c.GraphEvidence = &core.GraphEvidence{MatchedEntity: "Earlier", MatchKind: core.MatchIndirect, RelatedTo: "X"}
		Boost([]*core.Candidate{c}, []core.GraphLookupResult{direct("doc", "Acme")}, 0.1)
		assert.Equal(t, "Earlier", c.GraphEvidence.MatchedEntity)
	})

	t.Run("reorders after boost", func(t *testing.T) {
		high := cand("high", "", "other", nil, 0.05)
		low := cand("low", "", "doc", nil, 0.01)
		out, _ := Boost([]*core.Candidate{high, low}, []core.GraphLookupResult{direct("doc", "Acme")}, 0.1)
		assert.Equal(t, []string{"low", "high"}, ids(out))
	})

	t.Run("never decreases scores", func(t *testing.T) {
		cands := []*core.Candidate{
			cand("a", "", "doc", core.PageOf(1), 0.03),
			cand("b", "", "doc", core.PageOf(2), 0.02),
			cand("c", "", "x", nil, 0.01),
		}
		before := map[string]float64{"a": 0.03, "b": 0.02, "c": 0.01}
		out, _ := Boost(cands, []core.GraphLookupResult{direct("doc", "Acme", 2)}, -0.5)
		for _, c := range out {
			assert.GreaterOrEqual(t, c.FusedScore, before[c.ID])
		}
	})

	t.Run("no results", func(t *testing.T) {
		c := cand("a", "", "doc", nil, 0.01)
		out, boosted := Boost([]*core.Candidate{c}, nil, 0.1)
		assert.Zero(t, boosted)
		assert.Equal(t, 0.01, out[0].FusedScore)
	})
}
