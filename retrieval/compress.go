package retrieval

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/hybrid/ai"
	"github.com/poiesic/hybrid/core"
	"golang.org/x/time/rate"
)

// Compressor reduces each candidate's context to the query-relevant part.
type Compressor struct {
	extractor ai.PassageExtractor
	pool      *ants.Pool
	limiter   *rate.Limiter
	minLength int
	timeout   time.Duration
	logger    *slog.Logger
}

// NewCompressor creates a Compressor running extraction calls on pool.
// limiter may be nil.
func NewCompressor(extractor ai.PassageExtractor, pool *ants.Pool, limiter *rate.Limiter, cfg Config, logger *slog.Logger) *Compressor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compressor{
		extractor: extractor,
		pool:      pool,
		limiter:   limiter,
		minLength: cfg.MinCompressLength,
		timeout:   cfg.CompressTimeout,
		logger:    logger.With("component", "compressor"),
	}
}

type compression int

const (
	compressVerbatim compression = iota
	compressExtracted
	compressIrrelevant
	compressFallback
)

// Compress returns clones of candidates with CompressedText set, in input
// order. Context shorter than the minimum length is copied verbatim.
// Candidates the extractor reports as not relevant are dropped. On an
// extractor error the uncompressed context is used. Text is never changed.
// degraded reports that every extraction call failed.
func (c *Compressor) Compress(ctx context.Context, query string, candidates []*core.Candidate) (out []*core.Candidate, degraded bool) {
	if len(candidates) == 0 {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	clones := cloneAll(candidates)
	outcomes := make([]compression, len(clones))

	var pending []int
	for i, cand := range clones {
		if utf8.RuneCountInString(cand.ContextText) < c.minLength {
			text := cand.ContextText
			cand.CompressedText = &text
			outcomes[i] = compressVerbatim
			continue
		}
		outcomes[i] = compressFallback
		pending = append(pending, i)
	}

	errs := fanOut(ctx, c.pool, c.limiter, len(pending), func(ctx context.Context, j int) error {
		cand := clones[pending[j]]
		extracted, relevant, err := c.extractor.Extract(ctx, query, cand.ContextText)
		switch {
		case err != nil:
			return err
		case !relevant:
			outcomes[pending[j]] = compressIrrelevant
		case strings.TrimSpace(extracted) == "":
			// falls back to the full context
		default:
			outcomes[pending[j]] = compressExtracted
			cand.CompressedText = &extracted
		}
		return nil
	})

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed > 0 {
		c.logger.Warn("extraction_failed", "failed", failed, "attempted", len(pending), "error", errors.Join(errs...))
	}

	out = make([]*core.Candidate, 0, len(clones))
	for i, cand := range clones {
		switch outcomes[i] {
		case compressIrrelevant:
			c.logger.Debug("candidate_not_relevant", "id", cand.ID)
			continue
		case compressFallback:
			text := cand.ContextText
			cand.CompressedText = &text
		}
		out = append(out, cand)
	}
	return out, len(pending) > 0 && failed == len(pending)
}
