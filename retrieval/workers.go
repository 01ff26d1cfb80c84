package retrieval

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/time/rate"
)

// fanOut runs task for indexes 0..n-1 on pool and waits for all of them.
// With a limiter set, each task first waits for a token. The returned slice
// holds each task's error.
func fanOut(ctx context.Context, pool *ants.Pool, limiter *rate.Limiter, n int, task func(ctx context.Context, i int) error) []error {
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					errs[i] = err
					return
				}
			}
			errs[i] = task(ctx, i)
		})
		if err != nil {
			wg.Done()
			errs[i] = err
		}
	}
	wg.Wait()
	return errs
}
