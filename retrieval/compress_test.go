package retrieval

import (
	"context"
	"strings"
	"testing"

	"github.com/poiesic/hybrid/ai/mock"
	"github.com/poiesic/hybrid/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func longCand(id string) *core.Candidate {
	c := cand(id, "", "doc", nil, 0.1)
	c.ContextText = id + ": " + strings.Repeat("long context ", 30)
	return c
}

func TestCompressor(t *testing.T) {
	t.Run("short context copied verbatim", func(t *testing.T) {
		extractor := mock.NewMockPassageExtractor()
		comp := NewCompressor(extractor, newTestPool(t), nil, DefaultConfig(), nil)

		in := cand("a", "", "doc", nil, 0.1)
		out, degraded := comp.Compress(context.Background(), "q", []*core.Candidate{in})

		assert.False(t, degraded)
		require.Len(t, out, 1)
		require.NotNil(t, out[0].CompressedText)
		assert.Equal(t, in.ContextText, *out[0].CompressedText)
		assert.Zero(t, extractor.CallCount())
	})

	t.Run("long context extracted", func(t *testing.T) {
		extractor := mock.NewMockPassageExtractor()
		extractor.ExtractFunc = func(ctx context.Context, query, passage string) (string, bool, error) {
			return "the relevant sentence", true, nil
		}
		comp := NewCompressor(extractor, newTestPool(t), nil, DefaultConfig(), nil)

		in := longCand("a")
		out, _ := comp.Compress(context.Background(), "q", []*core.Candidate{in})

		require.Len(t, out, 1)
		assert.Equal(t, "the relevant sentence", *out[0].CompressedText)
		assert.Equal(t, "text of a", out[0].Text)
		assert.Nil(t, in.CompressedText, "input candidates are not modified")
	})

	t.Run("not relevant dropped", func(t *testing.T) {
		extractor := mock.NewMockPassageExtractor()
		extractor.ExtractFunc = func(ctx context.Context, query, passage string) (string, bool, error) {
			if strings.HasPrefix(passage, "b:") {
				return "", false, nil
			}
			return "kept", true, nil
		}
		comp := NewCompressor(extractor, newTestPool(t), nil, DefaultConfig(), nil)

		out, degraded := comp.Compress(context.Background(), "q",
			[]*core.Candidate{longCand("a"), longCand("b"), longCand("c")})

		assert.False(t, degraded)
		assert.Equal(t, []string{"a", "c"}, ids(out))
	})

	t.Run("error falls back to context", func(t *testing.T) {
		extractor := mock.NewMockPassageExtractor()
		extractor.ExtractFunc = func(ctx context.Context, query, passage string) (string, bool, error) {
			if strings.HasPrefix(passage, "a:") {
				return "", false, assert.AnError
			}
			return "kept", true, nil
		}
		comp := NewCompressor(extractor, newTestPool(t), nil, DefaultConfig(), nil)

		a, b := longCand("a"), longCand("b")
		out, degraded := comp.Compress(context.Background(), "q", []*core.Candidate{a, b})

		assert.False(t, degraded)
		require.Len(t, out, 2)
		assert.Equal(t, a.ContextText, *out[0].CompressedText)
		assert.Equal(t, "kept", *out[1].CompressedText)
	})

	t.Run("empty extraction falls back to context", func(t *testing.T) {
		extractor := mock.NewMockPassageExtractor()
		extractor.ExtractFunc = func(ctx context.Context, query, passage string) (string, bool, error) {
			return "  ", true, nil
		}
		comp := NewCompressor(extractor, newTestPool(t), nil, DefaultConfig(), nil)

		a := longCand("a")
		out, _ := comp.Compress(context.Background(), "q", []*core.Candidate{a})
		require.Len(t, out, 1)
		assert.Equal(t, a.ContextText, *out[0].CompressedText)
	})

	t.Run("all calls failing is degraded", func(t *testing.T) {
		extractor := mock.NewMockPassageExtractor()
		extractor.ExtractFunc = func(ctx context.Context, query, passage string) (string, bool, error) {
			return "", false, assert.AnError
		}
		comp := NewCompressor(extractor, newTestPool(t), nil, DefaultConfig(), nil)

		out, degraded := comp.Compress(context.Background(), "q",
			[]*core.Candidate{longCand("a"), cand("short", "", "doc", nil, 0.1)})

		assert.True(t, degraded)
		require.Len(t, out, 2)
		for _, c := range out {
			assert.Equal(t, c.ContextText, *c.CompressedText)
		}
	})

	t.Run("evidence preserved", func(t *testing.T) {
		comp := NewCompressor(mock.NewMockPassageExtractor(), newTestPool(t), nil, DefaultConfig(), nil)
		in := longCand("a")
		in.GraphEvidence = &core.GraphEvidence{MatchedEntity: "Acme", MatchKind: core.MatchDirect}
		out, _ := comp.Compress(context.Background(), "q", []*core.Candidate{in})
		require.Len(t, out, 1)
		assert.Equal(t, in.GraphEvidence, out[0].GraphEvidence)
	})
}

func TestCompressor_Idempotent(t *testing.T) {
	comp := NewCompressor(mock.NewMockPassageExtractor(), newTestPool(t), nil, DefaultConfig(), nil)
	in := []*core.Candidate{cand("a", "", "doc", nil, 0.1), cand("b", "", "doc", nil, 0.05)}

	once, _ := comp.Compress(context.Background(), "q", in)
	twice, _ := comp.Compress(context.Background(), "q", once)

	require.Len(t, twice, 2)
	for i := range twice {
		assert.Equal(t, in[i].ContextText, *twice[i].CompressedText)
		assert.Equal(t, *once[i].CompressedText, *twice[i].CompressedText)
	}
}
