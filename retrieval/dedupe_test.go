package retrieval

import (
	"testing"

	"github.com/poiesic/hybrid/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupe(t *testing.T) {
	t.Run("keeps highest scoring child per parent", func(t *testing.T) {
		out := Dedupe([]*core.Candidate{
			cand("c1", "p1", "doc", nil, 0.02),
			cand("c2", "p1", "doc", nil, 0.05),
			cand("c3", "p2", "doc", nil, 0.04),
			cand("c4", "p1", "doc", nil, 0.01),
		})
		assert.Equal(t, []string{"c2", "c3"}, ids(out))
	})

	t.Run("ties keep first in input order", func(t *testing.T) {
		out := Dedupe([]*core.Candidate{
			cand("z", "p1", "doc", nil, 0.03),
			cand("a", "p1", "doc", nil, 0.03),
		})
		assert.Equal(t, []string{"z"}, ids(out))
	})

	t.Run("missing parent groups by own id", func(t *testing.T) {
		out := Dedupe([]*core.Candidate{
			cand("a", "", "doc", nil, 0.03),
			cand("b", "", "doc", nil, 0.02),
		})
		assert.Equal(t, []string{"a", "b"}, ids(out))
	})

	t.Run("evidence survives on the winner", func(t *testing.T) {
		winner := cand("w", "p1", "doc", nil, 0.2)
		winner.GraphEvidence = &core.GraphEvidence{MatchedEntity: "Acme", MatchKind: core.MatchDirect}
		out := Dedupe([]*core.Candidate{cand("l", "p1", "doc", nil, 0.1), winner})
		require.Len(t, out, 1)
		assert.Same(t, winner, out[0])
		assert.Equal(t, "Acme", out[0].GraphEvidence.MatchedEntity)
	})

	t.Run("output resorted", func(t *testing.T) {
		out := Dedupe([]*core.Candidate{
			cand("a", "p1", "doc", nil, 0.01),
			cand("b", "p2", "doc", nil, 0.02),
			cand("c", "p1", "doc", nil, 0.09),
		})
		assert.Equal(t, []string{"c", "b"}, ids(out))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, Dedupe(nil))
	})
}
