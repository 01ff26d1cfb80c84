package retrieval

import (
	"context"
	"testing"

	"github.com/poiesic/hybrid/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsMonitor(t *testing.T) {
	t.Run("successful retrieval", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		monitor := NewMetricsMonitor(reg)
		p := newFixture().pipeline(t, WithMonitor(monitor))

		_, err := p.Retrieve(context.Background(), Request{Query: "Acme revenue", TopK: 3, UseGraph: true})
		require.NoError(t, err)

		assert.Equal(t, 1.0, testutil.ToFloat64(monitor.retrievals.WithLabelValues("ok")))
		assert.Equal(t, 0.0, testutil.ToFloat64(monitor.retrievals.WithLabelValues("degraded")))
		assert.Equal(t, 1.0, testutil.ToFloat64(monitor.graphBoosts))
		assert.Equal(t, 0, testutil.CollectAndCount(monitor.sourceFailures))
		assert.Positive(t, testutil.CollectAndCount(monitor.stageDuration, "hybrid_stage_duration_seconds"))
	})

	t.Run("degraded retrieval", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		monitor := NewMetricsMonitor(reg)
		f := newFixture()
		f.sparse.SearchFunc = func(ctx context.Context, text string, topK int) ([]storage.SearchHit, error) {
			return nil, assert.AnError
		}
		f.provider.GetMockScorer().ScoreFunc = func(ctx context.Context, query, passage string) (int, error) {
			return 0, assert.AnError
		}
		p := f.pipeline(t, WithMonitor(monitor))

		_, err := p.Retrieve(context.Background(), Request{Query: "revenue", TopK: 3})
		require.NoError(t, err)

		assert.Equal(t, 1.0, testutil.ToFloat64(monitor.retrievals.WithLabelValues("degraded")))
		assert.Equal(t, 1.0, testutil.ToFloat64(monitor.sourceFailures.WithLabelValues("sparse")))
		assert.Equal(t, 1.0, testutil.ToFloat64(monitor.stageSkipped.WithLabelValues(string(StageRerank))))
	})

	t.Run("failed retrieval", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		monitor := NewMetricsMonitor(reg)
		f := newFixture()
		f.dense.SearchFunc = func(ctx context.Context, text string, topK int) ([]storage.SearchHit, error) {
			return nil, assert.AnError
		}
		p := f.pipeline(t, WithMonitor(monitor))

		_, err := p.Retrieve(context.Background(), Request{Query: "revenue", TopK: 3})
		require.Error(t, err)

		assert.Equal(t, 1.0, testutil.ToFloat64(monitor.retrievals.WithLabelValues("error")))
		assert.Equal(t, 1.0, testutil.ToFloat64(monitor.sourceFailures.WithLabelValues("dense")))
	})

	t.Run("registered on the given registry", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		NewMetricsMonitor(reg)
		assert.Panics(t, func() { NewMetricsMonitor(reg) })
	})
}
