package retrieval

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/hybrid/ai"
	"github.com/poiesic/hybrid/core"
	"golang.org/x/time/rate"
)

// neutralScore is assigned when the scorer's reply cannot be used.
const neutralScore = 5

// Reranker orders the head of a candidate list by collaborator-graded
// relevance.
type Reranker struct {
	scorer  ai.RelevanceScorer
	pool    *ants.Pool
	limiter *rate.Limiter
	window  int
	timeout time.Duration
	logger  *slog.Logger
}

// NewReranker creates a Reranker scoring up to cfg.RerankWindow candidates
// per call on pool. limiter may be nil.
func NewReranker(scorer ai.RelevanceScorer, pool *ants.Pool, limiter *rate.Limiter, cfg Config, logger *slog.Logger) *Reranker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reranker{
		scorer:  scorer,
		pool:    pool,
		limiter: limiter,
		window:  cfg.RerankWindow,
		timeout: cfg.RerankTimeout,
		logger:  logger.With("component", "reranker"),
	}
}

// Rerank scores the first window candidates against query and returns clones
// ordered by relevance descending, then fused score, then ID, followed by
// the unscored remainder in input order, truncated to topK. Unparseable or
// out-of-range scores and failed calls become the neutral 5. When no call
// succeeds the result is ErrRerankUnavailable and the input should be used
// as is.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []*core.Candidate, topK int) ([]*core.Candidate, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	head := cloneAll(candidates[:min(r.window, len(candidates))])
	scores := make([]int, len(head))
	for i := range scores {
		scores[i] = neutralScore
	}
	errs := fanOut(ctx, r.pool, r.limiter, len(head), func(ctx context.Context, i int) error {
		score, err := r.scorer.Score(ctx, query, head[i].Text)
		switch {
		case errors.Is(err, ai.ErrUnparseableScore):
			r.logger.Debug("unparseable_score", "id", head[i].ID, "error", err)
			return nil
		case err != nil:
			return err
		case score < 1 || score > 10:
			r.logger.Debug("score_out_of_range", "id", head[i].ID, "score", score)
			return nil
		}
		scores[i] = score
		return nil
	})

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	joined := errors.Join(errs...)
	if failed == len(head) {
		return nil, fmt.Errorf("%w: %w", ErrRerankUnavailable, joined)
	}
	if failed > 0 {
		r.logger.Warn("scoring_failed", "failed", failed, "scored", len(head), "error", joined)
	}

	for i, c := range head {
		score := scores[i]
		c.RelevanceScore = &score
	}
	slices.SortStableFunc(head, func(a, b *core.Candidate) int {
		if c := cmp.Compare(*b.RelevanceScore, *a.RelevanceScore); c != 0 {
			return c
		}
		if c := cmp.Compare(b.FusedScore, a.FusedScore); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	out := append(head, cloneAll(candidates[len(head):])...)
	return truncate(out, topK), nil
}
