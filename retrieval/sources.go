package retrieval

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/hybrid/ai"
	"github.com/poiesic/hybrid/core"
	"github.com/poiesic/hybrid/retry"
	"github.com/poiesic/hybrid/storage"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"
)

// AdapterOption configures a source adapter.
type AdapterOption func(*adapterSettings) error

type adapterSettings struct {
	policy  retry.Policy
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// WithRetryPolicy sets the retry policy applied to each collaborator call.
// Default is retry.DefaultPolicy().
func WithRetryPolicy(policy retry.Policy) AdapterOption {
	return func(s *adapterSettings) error {
		if err := policy.Validate(); err != nil {
			return err
		}
		s.policy = policy
		return nil
	}
}

// WithCircuitBreaker routes collaborator calls through breaker. While the
// breaker is open every call fails immediately.
func WithCircuitBreaker(breaker *gobreaker.CircuitBreaker) AdapterOption {
	return func(s *adapterSettings) error {
		s.breaker = breaker
		return nil
	}
}

// WithAdapterLogger sets a custom logger.
// Default is slog.Default().
func WithAdapterLogger(logger *slog.Logger) AdapterOption {
	return func(s *adapterSettings) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

func newAdapterSettings(source core.Source, opts []AdapterOption) (adapterSettings, error) {
	s := adapterSettings{
		policy: retry.DefaultPolicy(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(&s); err != nil {
			return adapterSettings{}, err
		}
	}
	s.logger = s.logger.With("component", "source", "source", string(source))

	// Retrying into an open breaker or a finished context cannot succeed.
	retryable := s.policy.Retryable
	s.policy.Retryable = func(err error) bool {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) ||
			errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		return retryable == nil || retryable(err)
	}
	return s, nil
}

// call runs fn under the retry policy and, if set, the circuit breaker.
func call[T any](ctx context.Context, s adapterSettings, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		if s.breaker == nil {
			var err error
			result, err = fn(ctx)
			return err
		}
		v, err := s.breaker.Execute(func() (interface{}, error) {
			return fn(ctx)
		})
		if err != nil {
			return err
		}
		result = v.(T)
		return nil
	})
	return result, err
}

// SearchAdapter runs a ranked search collaborator once per query variant and
// pools the results into one ranked candidate list.
type SearchAdapter struct {
	source   core.Source
	searcher storage.Searcher
	settings adapterSettings
}

// NewSearchAdapter creates an adapter tagging its candidates with source.
func NewSearchAdapter(source core.Source, searcher storage.Searcher, opts ...AdapterOption) (*SearchAdapter, error) {
	if searcher == nil {
		return nil, fmt.Errorf("%s searcher required", source)
	}
	settings, err := newAdapterSettings(source, opts)
	if err != nil {
		return nil, err
	}
	return &SearchAdapter{source: source, searcher: searcher, settings: settings}, nil
}

// Source returns the source this adapter tags candidates with.
func (a *SearchAdapter) Source() core.Source {
	return a.source
}

type pooledHit struct {
	rank int
	hit  storage.SearchHit
}

// Search runs every variant concurrently with topK each. A candidate found
// by several variants keeps its best rank. The pooled list is ordered by
// best rank, then ID. The search fails only when every variant fails.
func (a *SearchAdapter) Search(ctx context.Context, variants []string, topK int) ([]*core.Candidate, error) {
	if len(variants) == 0 {
		return nil, nil
	}

	hits := make([][]storage.SearchHit, len(variants))
	errs := make([]error, len(variants))
	var g errgroup.Group
	for i, variant := range variants {
		g.Go(func() error {
			hits[i], errs[i] = call(ctx, a.settings, func(ctx context.Context) ([]storage.SearchHit, error) {
				return a.searcher.Search(ctx, variant, topK)
			})
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed == len(variants) {
		return nil, errors.Join(errs...)
	}
	if failed > 0 {
		a.settings.logger.Warn("variant_search_failed", "failed", failed, "variants", len(variants), "error", errors.Join(errs...))
	}

	best := make(map[string]pooledHit)
	for _, variantHits := range hits {
		for i, hit := range variantHits {
			rank := i + 1
			if prev, ok := best[hit.ID]; !ok || rank < prev.rank {
				best[hit.ID] = pooledHit{rank: rank, hit: hit}
			}
		}
	}

	pooled := make([]pooledHit, 0, len(best))
	for _, ph := range best {
		pooled = append(pooled, ph)
	}
	slices.SortFunc(pooled, func(x, y pooledHit) int {
		if c := cmp.Compare(x.rank, y.rank); c != 0 {
			return c
		}
		return cmp.Compare(x.hit.ID, y.hit.ID)
	})

	candidates := make([]*core.Candidate, 0, len(pooled))
	for _, ph := range pooled {
		c := a.candidate(ph.hit)
		if err := core.ValidateCandidate(c); err != nil {
			a.settings.logger.Warn("invalid_hit_dropped", "id", ph.hit.ID, "error", err)
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

func (a *SearchAdapter) candidate(hit storage.SearchHit) *core.Candidate {
	c := &core.Candidate{
		ID:          hit.ID,
		ParentID:    hit.Metadata.ParentID,
		DocumentID:  hit.Metadata.DocumentID,
		Text:        hit.Metadata.Text,
		ContextText: hit.Metadata.ContextText,
		RankScores:  map[core.Source]float64{},
	}
	if hit.Metadata.Page != nil {
		c.Page = core.PageOf(*hit.Metadata.Page)
	}
	c.AddSource(a.source)
	return c
}

// GraphAdapter looks up documents mentioning the query's entities.
type GraphAdapter struct {
	store        storage.GraphStore
	relatedLimit int
	settings     adapterSettings
}

// NewGraphAdapter creates a GraphAdapter following up to relatedLimit related
// entities per query entity on complex queries.
func NewGraphAdapter(store storage.GraphStore, relatedLimit int, opts ...AdapterOption) (*GraphAdapter, error) {
	if store == nil {
		return nil, errors.New("graph store required")
	}
	settings, err := newAdapterSettings(core.SourceGraph, opts)
	if err != nil {
		return nil, err
	}
	return &GraphAdapter{store: store, relatedLimit: relatedLimit, settings: settings}, nil
}

// Search performs a fuzzy direct lookup for every entity. For complex
// queries it also follows each entity's related entities one hop and looks
// up the documents mentioning them, producing indirect matches. A failed
// direct lookup fails the search; failed indirect lookups are dropped.
func (a *GraphAdapter) Search(ctx context.Context, entities []ai.ExtractedEntity, complexity core.Complexity) ([]core.GraphLookupResult, error) {
	if len(entities) == 0 {
		return nil, nil
	}

	direct := make([][]core.GraphLookupResult, len(entities))
	indirect := make([][]core.GraphLookupResult, len(entities))

	g, gctx := errgroup.WithContext(ctx)
	for i, entity := range entities {
		g.Go(func() error {
			results, err := a.direct(gctx, entity)
			if err != nil {
				return fmt.Errorf("lookup %q: %w", entity.Name, err)
			}
			direct[i] = results
			if complexity == core.ComplexityComplex {
				indirect[i] = a.indirect(gctx, entity)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []core.GraphLookupResult
	for _, results := range slices.Concat(direct, indirect) {
		for _, r := range results {
			if err := core.ValidateGraphLookupResult(&r); err != nil {
				a.settings.logger.Warn("invalid_graph_result_dropped", "document_id", r.DocumentID, "error", err)
				continue
			}
			out = append(out, r)
		}
	}
	return out, nil
}

func (a *GraphAdapter) direct(ctx context.Context, entity ai.ExtractedEntity) ([]core.GraphLookupResult, error) {
	mentions, err := call(ctx, a.settings, func(ctx context.Context) ([]storage.DocumentMention, error) {
		return a.store.FindDocumentsMentioning(ctx, entity.Name, true)
	})
	if err != nil {
		return nil, err
	}
	results := make([]core.GraphLookupResult, 0, len(mentions))
	for _, m := range mentions {
		results = append(results, core.GraphLookupResult{
			DocumentID:    m.DocumentID,
			Pages:         slices.Clone(m.Pages),
			MatchedEntity: entity.Name,
			EntityType:    entity.Type,
			MatchKind:     core.MatchDirect,
		})
	}
	return results, nil
}

func (a *GraphAdapter) indirect(ctx context.Context, entity ai.ExtractedEntity) []core.GraphLookupResult {
	related, err := call(ctx, a.settings, func(ctx context.Context) ([]storage.RelatedEntity, error) {
		return a.store.FindRelatedEntities(ctx, entity.Name, 1, a.relatedLimit)
	})
	if err != nil {
		a.settings.logger.Warn("related_entities_failed", "entity", entity.Name, "error", err)
		return nil
	}

	var results []core.GraphLookupResult
	for _, rel := range related {
		mentions, err := call(ctx, a.settings, func(ctx context.Context) ([]storage.DocumentMention, error) {
			return a.store.FindDocumentsMentioning(ctx, rel.Name, false)
		})
		if err != nil {
			a.settings.logger.Warn("related_lookup_failed", "entity", rel.Name, "related_to", entity.Name, "error", err)
			continue
		}
		for _, m := range mentions {
			results = append(results, core.GraphLookupResult{
				DocumentID:          m.DocumentID,
				Pages:               slices.Clone(m.Pages),
				MatchedEntity:       rel.Name,
				EntityType:          rel.Type,
				MatchKind:           core.MatchIndirect,
				RelatedTo:           entity.Name,
				SharedDocumentCount: rel.SharedDocumentCount,
			})
		}
	}
	return results
}
