package retrieval

import (
	"testing"

	"github.com/poiesic/hybrid/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuse(t *testing.T) {
	t.Run("dense and sparse overlap", func(t *testing.T) {
		dense := []*core.Candidate{cand("d1", "", "A", nil, 0), cand("d2", "", "A", nil, 0)}
		sparse := []*core.Candidate{cand("d2", "", "A", nil, 0), cand("d3", "", "B", nil, 0)}

		fused := Fuse(dense, sparse, 60)

		require.Equal(t, []string{"d2", "d1", "d3"}, ids(fused))
		assert.InDelta(t, 1.0/62+1.0/61, fused[0].FusedScore, 1e-12)
		assert.InDelta(t, 1.0/61, fused[1].FusedScore, 1e-12)
		assert.InDelta(t, 1.0/62, fused[2].FusedScore, 1e-12)

		assert.Equal(t, []core.Source{core.SourceDense, core.SourceSparse}, fused[0].SourceTags)
		assert.Equal(t, []core.Source{core.SourceDense}, fused[1].SourceTags)
		assert.Equal(t, []core.Source{core.SourceSparse}, fused[2].SourceTags)

		assert.Equal(t, map[core.Source]float64{core.SourceDense: 2, core.SourceSparse: 1}, fused[0].RankScores)
	})

	t.Run("equal scores break ties by id", func(t *testing.T) {
		dense := []*core.Candidate{cand("d3", "", "A", nil, 0)}
		sparse := []*core.Candidate{cand("d1", "", "B", nil, 0)}

		fused := Fuse(dense, sparse, 60)

		assert.Equal(t, []string{"d1", "d3"}, ids(fused))
		assert.Equal(t, fused[0].FusedScore, fused[1].FusedScore)
	})

	t.Run("every candidate appears once", func(t *testing.T) {
		dense := []*core.Candidate{cand("a", "", "A", nil, 0), cand("b", "", "A", nil, 0), cand("c", "", "A", nil, 0)}
		sparse := []*core.Candidate{cand("c", "", "A", nil, 0), cand("d", "", "A", nil, 0), cand("a", "", "A", nil, 0)}

		fused := Fuse(dense, sparse, 60)

		assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, ids(fused))
		for i := 1; i < len(fused); i++ {
			assert.GreaterOrEqual(t, fused[i-1].FusedScore, fused[i].FusedScore)
		}
	})

	t.Run("one empty list", func(t *testing.T) {
		fused := Fuse([]*core.Candidate{cand("a", "", "A", nil, 0), cand("b", "", "A", nil, 0)}, nil, 60)
		assert.Equal(t, []string{"a", "b"}, ids(fused))
		assert.InDelta(t, 1.0/61, fused[0].FusedScore, 1e-12)
	})

	t.Run("both empty", func(t *testing.T) {
		assert.Empty(t, Fuse(nil, nil, 60))
	})

	t.Run("inputs are not modified", func(t *testing.T) {
		d := cand("a", "", "A", nil, 0)
		d.AddSource(core.SourceDense)
		Fuse([]*core.Candidate{d}, []*core.Candidate{cand("a", "", "A", nil, 0)}, 60)
		assert.Zero(t, d.FusedScore)
		assert.Equal(t, []core.Source{core.SourceDense}, d.SourceTags)
	})

	t.Run("repeated id within a list counts once", func(t *testing.T) {
		dense := []*core.Candidate{cand("a", "", "A", nil, 0), cand("a", "", "A", nil, 0)}
		fused := Fuse(dense, nil, 60)
		require.Len(t, fused, 1)
		assert.InDelta(t, 1.0/61, fused[0].FusedScore, 1e-12)
	})

	t.Run("deterministic across runs", func(t *testing.T) {
		build := func() []string {
			dense := []*core.Candidate{cand("x", "", "A", nil, 0), cand("y", "", "A", nil, 0), cand("z", "", "A", nil, 0)}
			sparse := []*core.Candidate{cand("z", "", "A", nil, 0), cand("w", "", "A", nil, 0), cand("x", "", "A", nil, 0)}
			return ids(Fuse(dense, sparse, 60))
		}
		first := build()
		for range 5 {
			assert.Equal(t, first, build())
		}
	})
}
