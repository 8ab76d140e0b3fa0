package engine

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/IshaanNene/fetchkit/internal/types"
)

// FetchConcurrent fetches locators with at most maxConcurrentStreams fetches in flight.
//
// Results are returned in completion order once every launched fetch has finished.
// A failing locator is reported in its Result and never cancels the others.
// If ctx is cancelled, locators not yet started get a Result carrying ctx.Err(),
// and ctx.Err() is returned alongside the collected results.
func (e *Engine) FetchConcurrent(ctx context.Context, locators []string, maxConcurrentStreams int) ([]types.Result, error) {
	if maxConcurrentStreams <= 0 {
		return nil, types.InvalidArgument("maxConcurrentStreams must be >= 1, got %d", maxConcurrentStreams)
	}

	e.logger.Info("concurrent fetch starting",
		"locators", len(locators),
		"max_concurrent_streams", maxConcurrentStreams,
	)
	start := time.Now()

	var (
		mu      sync.Mutex
		results = make([]types.Result, 0, len(locators))
	)
	collect := func(r types.Result) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
		e.notify(r)
	}

	var g errgroup.Group
	g.SetLimit(maxConcurrentStreams)

	for _, raw := range locators {
		if err := ctx.Err(); err != nil {
			collect(types.Result{Locator: raw, Err: err})
			continue
		}
		raw := raw
		g.Go(func() error {
			r := e.fetchOne(ctx, raw)
			if r.Err != nil {
				e.logger.Warn("fetch failed", "locator", raw, "error", r.Err)
			}
			collect(r)
			return nil
		})
	}
	g.Wait()

	failed := len(types.Failures(results))
	e.logger.Info("concurrent fetch complete",
		"locators", len(locators),
		"ok", len(results)-failed,
		"failed", failed,
		"elapsed", time.Since(start),
	)

	return results, ctx.Err()
}
