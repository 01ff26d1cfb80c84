package retrieval

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/poiesic/hybrid/ai"
	"github.com/poiesic/hybrid/core"
	"golang.org/x/sync/errgroup"
)

// Analysis is the Query Analyzer's view of a query.
type Analysis struct {
	// Variants always starts with the original query.
	Variants   []string
	Complexity core.Complexity
	// Entities are the distinct entities found in the query.
	Entities []ai.ExtractedEntity
	// Degraded is set when a collaborator failed and the fallback analysis
	// was returned.
	Degraded bool
}

func (a Analysis) clone() Analysis {
	a.Variants = slices.Clone(a.Variants)
	a.Entities = slices.Clone(a.Entities)
	return a
}

// Analyzer produces query variants and a complexity signal. Successful
// analyses are cached by normalized query text.
type Analyzer struct {
	expander       ai.QueryExpander
	extractor      ai.EntityExtractor
	expansionCount int
	minLength      int
	timeout        time.Duration
	cache          *lru.Cache[string, Analysis]
	logger         *slog.Logger
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer) error

// WithExpansionCount sets how many variants are requested from the expander.
// Default is 3.
func WithExpansionCount(n int) AnalyzerOption {
	return func(a *Analyzer) error {
		if n < 0 {
			return errors.New("expansion count cannot be negative")
		}
		a.expansionCount = n
		return nil
	}
}

// WithAnalyzerLogger sets a custom logger.
// Default is slog.Default().
func WithAnalyzerLogger(logger *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// NewAnalyzer creates an Analyzer using cfg's variant length, timeout and
// cache size.
func NewAnalyzer(expander ai.QueryExpander, extractor ai.EntityExtractor, cfg Config, opts ...AnalyzerOption) (*Analyzer, error) {
	if expander == nil || extractor == nil {
		return nil, ErrAIProviderRequired
	}
	a := &Analyzer{
		expander:       expander,
		extractor:      extractor,
		expansionCount: 3,
		minLength:      cfg.MinVariantLength,
		timeout:        cfg.AnalyzerTimeout,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	a.logger = a.logger.With("component", "analyzer")

	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, Analysis](cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		a.cache = cache
	}
	return a, nil
}

// Analyze expands query into variants and grades its complexity. It never
// fails: when a collaborator errors or times out the analysis falls back to
// the original query alone at medium complexity.
func (a *Analyzer) Analyze(ctx context.Context, query string) Analysis {
	key := normalizeQuery(query)
	if a.cache != nil {
		if cached, ok := a.cache.Get(key); ok {
			return cached.clone()
		}
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var (
		expansions []string
		extracted  []ai.ExtractedEntity
		expandErr  error
		extractErr error
	)
	// Neither call cancels the other; each result is used on its own.
	var g errgroup.Group
	g.Go(func() error {
		expansions, expandErr = a.expander.Expand(ctx, query, a.expansionCount)
		return expandErr
	})
	g.Go(func() error {
		extracted, extractErr = a.extractor.ExtractEntities(ctx, query)
		return extractErr
	})
	if err := g.Wait(); err != nil {
		a.logger.Warn("analysis_failed", "query", query, "error", errors.Join(expandErr, extractErr))
		fallback := Analysis{
			Variants:   []string{query},
			Complexity: core.ComplexityMedium,
			Degraded:   true,
		}
		// Entities still serve direct graph lookups when only expansion failed.
		if extractErr == nil {
			fallback.Entities = distinctEntities(extracted)
		}
		return fallback
	}

	entities := distinctEntities(extracted)
	analysis := Analysis{
		Variants:   a.variants(query, expansions),
		Complexity: core.ComplexityFromEntityCount(len(entities)),
		Entities:   entities,
	}
	if a.cache != nil {
		a.cache.Add(key, analysis.clone())
	}
	a.logger.Debug("query_analyzed",
		"variants", len(analysis.Variants),
		"entities", len(entities),
		"complexity", analysis.Complexity.String())
	return analysis
}

// Forget evicts the cached analysis of query.
func (a *Analyzer) Forget(query string) {
	if a.cache != nil {
		a.cache.Remove(normalizeQuery(query))
	}
}

// Purge evicts every cached analysis.
func (a *Analyzer) Purge() {
	if a.cache != nil {
		a.cache.Purge()
	}
}

// variants puts the original query first, then each expansion that is long
// enough and not a case-insensitive duplicate of an earlier variant.
func (a *Analyzer) variants(query string, expansions []string) []string {
	out := []string{query}
	seen := map[string]bool{normalizeQuery(query): true}
	for _, v := range expansions {
		v = strings.TrimSpace(v)
		if utf8.RuneCountInString(v) < a.minLength {
			continue
		}
		key := normalizeQuery(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

// distinctEntities drops blank names and case-insensitive repeats, keeping
// the first occurrence.
func distinctEntities(entities []ai.ExtractedEntity) []ai.ExtractedEntity {
	var out []ai.ExtractedEntity
	seen := make(map[string]bool, len(entities))
	for _, e := range entities {
		key := normalizeQuery(e.Name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ai.ExtractedEntity{Name: strings.TrimSpace(e.Name), Type: e.Type})
	}
	return out
}

// normalizeQuery lowercases and collapses whitespace.
func normalizeQuery(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
