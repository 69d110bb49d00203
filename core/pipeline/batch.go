package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BatchResult is the outcome of one URL in a batch.
type BatchResult struct {
	Index    int
	URL      string
	Path     string
	Rows     int
	Err      error
	Duration time.Duration
}

// BatchFunc processes the URL at position i and returns the written path
// and row count.
type BatchFunc func(ctx context.Context, i int, url string) (path string, rows int, err error)

// RunBatch runs fn for every URL with at most workers in flight. A failing
// URL never stops its siblings; results come back in input order.
func RunBatch(ctx context.Context, urls []string, workers int, fn BatchFunc, logger *zap.Logger) []BatchResult {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	results := make([]BatchResult, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, u := range urls {
		g.Go(func() error {
			res := BatchResult{Index: i, URL: u}
			start := time.Now()

			if err := gctx.Err(); err != nil {
				res.Err = err
			} else {
				res.Path, res.Rows, res.Err = fn(gctx, i, u)
			}
			res.Duration = time.Since(start)

			if res.Err != nil {
				logger.Warn("document failed", zap.Int("index", i), zap.String("url", u), zap.Error(res.Err))
			} else {
				logger.Info("document done", zap.Int("index", i), zap.String("url", u),
					zap.Int("rows", res.Rows), zap.Duration("duration", res.Duration))
			}

			// each goroutine owns results[i]
			results[i] = res
			// errors live in results, so the group never cancels siblings
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Failed counts the results that carry an error.
func Failed(results []BatchResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
