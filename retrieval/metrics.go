package retrieval

import (
	"time"

	"github.com/poiesic/hybrid/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsMonitor is a Monitor that records stage latency, candidate counts,
// source failures and graph boosts as Prometheus metrics.
type MetricsMonitor struct {
	stageDuration  *prometheus.HistogramVec
	candidates     *prometheus.HistogramVec
	sourceFailures *prometheus.CounterVec
	stageSkipped   *prometheus.CounterVec
	graphBoosts    prometheus.Counter
	retrievals     *prometheus.CounterVec
}

var _ Monitor = (*MetricsMonitor)(nil)

// NewMetricsMonitor creates the metrics and registers them with reg.
// Registering twice on the same registerer panics.
func NewMetricsMonitor(reg prometheus.Registerer) *MetricsMonitor {
	factory := promauto.With(reg)
	return &MetricsMonitor{
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hybrid_stage_duration_seconds",
			Help:    "Duration of retrieval pipeline stages in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"stage"}),

		candidates: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hybrid_candidates",
			Help:    "Number of candidates leaving each pipeline stage",
			Buckets: prometheus.ExponentialBuckets(1, 2, 9),
		}, []string{"stage"}),

		sourceFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hybrid_source_failures_total",
			Help: "Total number of failed source searches",
		}, []string{"source"}),

		stageSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hybrid_stage_skipped_total",
			Help: "Total number of enrichment stages that fell back to degraded behavior",
		}, []string{"stage"}),

		graphBoosts: factory.NewCounter(prometheus.CounterOpts{
			Name: "hybrid_graph_boosts_total",
			Help: "Total number of candidates boosted by graph evidence",
		}),

		retrievals: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hybrid_retrievals_total",
			Help: "Total number of retrieval calls",
		}, []string{"status"}),
	}
}

// Start is a no-op; retrievals are counted when they finish.
func (m *MetricsMonitor) Start(_, _ string) {}

// AfterAnalysis records analysis latency and counts degraded analyses as skipped.
func (m *MetricsMonitor) AfterAnalysis(analysis Analysis, elapsed time.Duration) {
	m.stageDuration.WithLabelValues(string(StageAnalyze)).Observe(elapsed.Seconds())
	if analysis.Degraded {
		m.stageSkipped.WithLabelValues(string(StageAnalyze)).Inc()
	}
}

// SourceCompleted records a source's latency and result count.
func (m *MetricsMonitor) SourceCompleted(source core.Source, results int, elapsed time.Duration) {
	m.stageDuration.WithLabelValues(string(source)).Observe(elapsed.Seconds())
	m.candidates.WithLabelValues(string(source)).Observe(float64(results))
}

// SourceFailed records a source's latency and increments its failure counter.
func (m *MetricsMonitor) SourceFailed(source core.Source, _ error, elapsed time.Duration) {
	m.stageDuration.WithLabelValues(string(source)).Observe(elapsed.Seconds())
	m.sourceFailures.WithLabelValues(string(source)).Inc()
}

// AfterFusion records fusion latency and the fused list size.
func (m *MetricsMonitor) AfterFusion(candidates []*core.Candidate, elapsed time.Duration) {
	m.observeStage(StageFuse, len(candidates), elapsed)
}

// AfterBoost records boost latency and adds the boosted candidates to the boost counter.
func (m *MetricsMonitor) AfterBoost(candidates []*core.Candidate, boosted int, elapsed time.Duration) {
	m.observeStage(StageBoost, len(candidates), elapsed)
	m.graphBoosts.Add(float64(boosted))
}

// AfterDedupe records deduplication latency and the surviving list size.
func (m *MetricsMonitor) AfterDedupe(candidates []*core.Candidate, elapsed time.Duration) {
	m.observeStage(StageDedupe, len(candidates), elapsed)
}

// AfterRerank records rerank latency and counts skipped reranks.
func (m *MetricsMonitor) AfterRerank(candidates []*core.Candidate, skipped bool, elapsed time.Duration) {
	m.observeStage(StageRerank, len(candidates), elapsed)
	if skipped {
		m.stageSkipped.WithLabelValues(string(StageRerank)).Inc()
	}
}

// AfterCompress records compression latency and counts degraded compressions.
func (m *MetricsMonitor) AfterCompress(candidates []*core.Candidate, skipped bool, elapsed time.Duration) {
	m.observeStage(StageCompress, len(candidates), elapsed)
	if skipped {
		m.stageSkipped.WithLabelValues(string(StageCompress)).Inc()
	}
}

// Finish counts the retrieval as ok, degraded or error.
func (m *MetricsMonitor) Finish(response *Response, err error) {
	if err != nil {
		m.retrievals.WithLabelValues("error").Inc()
		return
	}
	if len(response.FailedSources) > 0 || len(response.SkippedStages) > 0 {
		m.retrievals.WithLabelValues("degraded").Inc()
		return
	}
	m.retrievals.WithLabelValues("ok").Inc()
}

func (m *MetricsMonitor) observeStage(stage Stage, candidates int, elapsed time.Duration) {
	m.stageDuration.WithLabelValues(string(stage)).Observe(elapsed.Seconds())
	m.candidates.WithLabelValues(string(stage)).Observe(float64(candidates))
}
