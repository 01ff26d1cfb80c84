package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/hybrid/ai"
	"github.com/poiesic/hybrid/core"
	"github.com/poiesic/hybrid/retry"
	"github.com/poiesic/hybrid/storage"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const tracerName = "github.com/poiesic/hybrid/retrieval"

// Pipeline runs a query through analysis, the three sources, fusion, graph
// boosting, parent deduplication, reranking and compression. A Pipeline is
// safe for concurrent use; retrievals share no mutable candidate state.
type Pipeline struct {
	analyzer   *Analyzer
	dense      *SearchAdapter
	sparse     *SearchAdapter
	graph      *GraphAdapter
	reranker   *Reranker
	compressor *Compressor
	pool       *ants.Pool

	config  Config
	monitor Monitor
	tracer  trace.Tracer
	logger  *slog.Logger

	sparseSearcher storage.Searcher
	graphStore     storage.GraphStore
	policy         retry.Policy
	breaker        *gobreaker.Settings
	limiter        *rate.Limiter
	expansionCount int
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(p *Pipeline) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		p.config = cfg
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithMonitor sets the monitor observing every retrieval.
func WithMonitor(monitor Monitor) Option {
	return func(p *Pipeline) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		p.monitor = monitor
		return nil
	}
}

// WithSparseSearcher enables the keyword source.
func WithSparseSearcher(searcher storage.Searcher) Option {
	return func(p *Pipeline) error {
		p.sparseSearcher = searcher
		return nil
	}
}

// WithGraphStore enables the graph source.
func WithGraphStore(store storage.GraphStore) Option {
	return func(p *Pipeline) error {
		p.graphStore = store
		return nil
	}
}

// WithSourceRetryPolicy sets the retry policy of every source collaborator call.
// Default is retry.DefaultPolicy().
func WithSourceRetryPolicy(policy retry.Policy) Option {
	return func(p *Pipeline) error {
		if err := policy.Validate(); err != nil {
			return err
		}
		p.policy = policy
		return nil
	}
}

// WithCircuitBreakers gives each source its own circuit breaker built from
// settings. The breaker name is set to the source name.
func WithCircuitBreakers(settings gobreaker.Settings) Option {
	return func(p *Pipeline) error {
		p.breaker = &settings
		return nil
	}
}

// WithRateLimiter makes every rerank and compression call wait on limiter.
func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(p *Pipeline) error {
		p.limiter = limiter
		return nil
	}
}

// WithTracer sets the tracer stage spans are started on.
// Default is the global otel tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Pipeline) error {
		p.tracer = tracer
		return nil
	}
}

// WithQueryExpansions sets how many variants the analyzer asks for.
// Default is 3.
func WithQueryExpansions(n int) Option {
	return func(p *Pipeline) error {
		p.expansionCount = n
		return nil
	}
}

// NewPipeline creates a Pipeline searching dense, the one required source,
// with the collaborators of provider. Close releases its worker pool.
func NewPipeline(dense storage.Searcher, provider ai.AIProvider, opts ...Option) (*Pipeline, error) {
	if dense == nil {
		return nil, ErrDenseSearcherRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	p := &Pipeline{
		config:         DefaultConfig(),
		monitor:        &noopMonitor{},
		tracer:         otel.Tracer(tracerName),
		logger:         slog.Default(),
		policy:         retry.DefaultPolicy(),
		expansionCount: 3,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	var err error
	p.analyzer, err = NewAnalyzer(provider.QueryExpander(), provider.EntityExtractor(), p.config,
		WithExpansionCount(p.expansionCount),
		WithAnalyzerLogger(p.logger))
	if err != nil {
		return nil, err
	}

	if p.dense, err = NewSearchAdapter(core.SourceDense, dense, p.adapterOptions(core.SourceDense)...); err != nil {
		return nil, err
	}
	if p.sparseSearcher != nil {
		if p.sparse, err = NewSearchAdapter(core.SourceSparse, p.sparseSearcher, p.adapterOptions(core.SourceSparse)...); err != nil {
			return nil, err
		}
	}
	if p.graphStore != nil {
		if p.graph, err = NewGraphAdapter(p.graphStore, p.config.RelatedEntityLimit, p.adapterOptions(core.SourceGraph)...); err != nil {
			return nil, err
		}
	}

	p.pool, err = ants.NewPool(p.config.PoolSize)
	if err != nil {
		return nil, err
	}
	p.reranker = NewReranker(provider.RelevanceScorer(), p.pool, p.limiter, p.config, p.logger)
	p.compressor = NewCompressor(provider.PassageExtractor(), p.pool, p.limiter, p.config, p.logger)
	p.logger = p.logger.With("component", "retrieval")
	return p, nil
}

func (p *Pipeline) adapterOptions(source core.Source) []AdapterOption {
	opts := []AdapterOption{WithRetryPolicy(p.policy), WithAdapterLogger(p.logger)}
	if p.breaker != nil {
		settings := *p.breaker
		settings.Name = string(source)
		opts = append(opts, WithCircuitBreaker(gobreaker.NewCircuitBreaker(settings)))
	}
	return opts
}

// Analyzer returns the pipeline's query analyzer, for cache control.
func (p *Pipeline) Analyzer() *Analyzer {
	return p.analyzer
}

// Close releases the worker pool.
func (p *Pipeline) Close() {
	p.pool.Release()
}

// Retrieve runs one retrieval. It fails only on an invalid request or when
// the dense source fails; every other failure degrades the response and is
// reported in FailedSources or SkippedStages.
func (p *Pipeline) Retrieve(ctx context.Context, req Request) (*Response, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if req.TopK <= 0 {
		return nil, ErrInvalidTopK
	}

	id := uuid.NewString()
	logger := p.logger.With("retrieval_id", id)
	ctx, span := p.tracer.Start(ctx, "retrieval.retrieve", trace.WithAttributes(
		attribute.String("retrieval_id", id),
		attribute.Int("top_k", req.TopK),
		attribute.Bool("use_graph", req.UseGraph),
		attribute.Bool("compress", req.Compress),
	))
	defer span.End()

	p.monitor.Start(id, query)
	start := time.Now()

	resp, err := p.run(ctx, logger, id, query, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("retrieval_failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		p.monitor.Finish(nil, err)
		return nil, err
	}

	logger.Info("retrieval_completed",
		"results", len(resp.Results),
		"failed_sources", resp.FailedSources,
		"skipped_stages", resp.SkippedStages,
		"duration_ms", time.Since(start).Milliseconds())
	p.monitor.Finish(resp, nil)
	return resp, nil
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, id, query string, req Request) (*Response, error) {
	resp := &Response{RetrievalID: id}

	// Analysis
	stageCtx, span, start := p.startStage(ctx, StageAnalyze)
	analysis := p.analyzer.Analyze(stageCtx, query)
	p.endStage(span, logger, StageAnalyze, start, len(analysis.Variants))
	p.monitor.AfterAnalysis(analysis, time.Since(start))
	resp.Variants = analysis.Variants
	resp.Complexity = analysis.Complexity
	if analysis.Degraded {
		resp.SkippedStages = append(resp.SkippedStages, StageAnalyze)
	}

	// Sources
	found, err := p.searchSources(ctx, logger, analysis, req)
	if err != nil {
		return nil, err
	}
	resp.FailedSources = found.failed

	// Fusion
	_, span, start = p.startStage(ctx, StageFuse)
	candidates := Fuse(found.dense, found.sparse, p.config.RRFK)
	p.endStage(span, logger, StageFuse, start, len(candidates))
	p.monitor.AfterFusion(candidates, time.Since(start))

	// Graph boost
	if req.UseGraph {
		_, span, start = p.startStage(ctx, StageBoost)
		var boosted int
		candidates, boosted = Boost(candidates, found.graph, p.config.BoostIncrement)
		span.SetAttributes(attribute.Int("boosted", boosted))
		p.endStage(span, logger, StageBoost, start, len(candidates))
		p.monitor.AfterBoost(candidates, boosted, time.Since(start))
	}

	// Parent deduplication
	_, span, start = p.startStage(ctx, StageDedupe)
	candidates = Dedupe(candidates)
	p.endStage(span, logger, StageDedupe, start, len(candidates))
	p.monitor.AfterDedupe(candidates, time.Since(start))

	// Rerank
	stageCtx, span, start = p.startStage(ctx, StageRerank)
	ranked, err := p.reranker.Rerank(stageCtx, query, candidates, req.TopK)
	skipped := err != nil
	if skipped {
		logger.Warn("rerank_skipped", "error", err)
		span.RecordError(err)
		ranked = truncate(cloneAll(candidates), req.TopK)
		resp.SkippedStages = append(resp.SkippedStages, StageRerank)
	}
	p.endStage(span, logger, StageRerank, start, len(ranked))
	p.monitor.AfterRerank(ranked, skipped, time.Since(start))

	// Compression
	if req.Compress {
		stageCtx, span, start = p.startStage(ctx, StageCompress)
		var degraded bool
		ranked, degraded = p.compressor.Compress(stageCtx, query, ranked)
		if degraded {
			logger.Warn("compression_skipped")
			resp.SkippedStages = append(resp.SkippedStages, StageCompress)
		}
		p.endStage(span, logger, StageCompress, start, len(ranked))
		p.monitor.AfterCompress(ranked, degraded, time.Since(start))
	}

	resp.Results = make([]Result, len(ranked))
	for i, c := range ranked {
		resp.Results[i] = newResult(c)
	}
	return resp, nil
}

type sourceResults struct {
	dense  []*core.Candidate
	sparse []*core.Candidate
	graph  []core.GraphLookupResult
	failed []core.Source
}

// searchSources runs the enabled sources concurrently, each under the source
// timeout. A dense failure is returned as ErrRequiredSourceFailed; other
// failures are recorded.
func (p *Pipeline) searchSources(ctx context.Context, logger *slog.Logger, analysis Analysis, req Request) (*sourceResults, error) {
	ctx, span, start := p.startStage(ctx, StageSources)
	defer span.End()

	depth := max(req.TopK, p.config.CandidateDepth)
	out := &sourceResults{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	run := func(source core.Source, required bool, search func(ctx context.Context) (int, error)) {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(gctx, p.config.SourceTimeout)
			defer cancel()
			sctx, sspan := p.tracer.Start(sctx, "retrieval.source", trace.WithAttributes(attribute.String("source", string(source))))
			defer sspan.End()

			sourceStart := time.Now()
			n, err := search(sctx)
			elapsed := time.Since(sourceStart)
			if err != nil {
				sspan.RecordError(err)
				sspan.SetStatus(codes.Error, err.Error())
				p.monitor.SourceFailed(source, err, elapsed)
				if required {
					return fmt.Errorf("%w: %s: %w", ErrRequiredSourceFailed, source, err)
				}
				logger.Warn("source_failed", "source", string(source), "error", err, "duration_ms", elapsed.Milliseconds())
				mu.Lock()
				out.failed = append(out.failed, source)
				mu.Unlock()
				return nil
			}
			p.monitor.SourceCompleted(source, n, elapsed)
			logger.Debug("source_completed", "source", string(source), "results", n, "duration_ms", elapsed.Milliseconds())
			return nil
		})
	}

	run(core.SourceDense, true, func(ctx context.Context) (int, error) {
		candidates, err := p.dense.Search(ctx, analysis.Variants, depth)
		out.dense = candidates
		return len(candidates), err
	})
	if p.sparse != nil {
		run(core.SourceSparse, false, func(ctx context.Context) (int, error) {
			candidates, err := p.sparse.Search(ctx, analysis.Variants, depth)
			out.sparse = candidates
			return len(candidates), err
		})
	}
	if req.UseGraph && p.graph != nil && len(analysis.Entities) > 0 {
		run(core.SourceGraph, false, func(ctx context.Context) (int, error) {
			results, err := p.graph.Search(ctx, analysis.Entities, analysis.Complexity)
			out.graph = results
			return len(results), err
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	slices.Sort(out.failed)
	logger.Debug("sources_completed", "dense", len(out.dense), "sparse", len(out.sparse),
		"graph", len(out.graph), "duration_ms", time.Since(start).Milliseconds())
	return out, nil
}

func (p *Pipeline) startStage(ctx context.Context, stage Stage) (context.Context, trace.Span, time.Time) {
	ctx, span := p.tracer.Start(ctx, "retrieval."+string(stage))
	return ctx, span, time.Now()
}

func (p *Pipeline) endStage(span trace.Span, logger *slog.Logger, stage Stage, start time.Time, candidates int) {
	span.SetAttributes(attribute.Int("candidates", candidates))
	span.End()
	logger.Debug("stage_completed", "stage", string(stage), "candidates", candidates,
		"duration_ms", time.Since(start).Milliseconds())
}
