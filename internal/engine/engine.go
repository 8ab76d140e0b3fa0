package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/IshaanNene/fetchkit/internal/config"
	"github.com/IshaanNene/fetchkit/internal/fetcher"
	"github.com/IshaanNene/fetchkit/internal/observability"
	"github.com/IshaanNene/fetchkit/internal/types"
)

// ResultCallback is called once per finished locator.
type ResultCallback func(r types.Result)

// Engine runs bulk fetches over a single Fetcher.
type Engine struct {
	cfg     *config.FetchConfig
	fetcher fetcher.Fetcher
	logger  *slog.Logger
	metrics *observability.Metrics
	limiter *rate.Limiter

	mu       sync.RWMutex
	onResult ResultCallback
}

// New creates a new Engine. A positive fetch.rate_limit paces every fetch.
func New(f fetcher.Fetcher, cfg *config.Config, logger *slog.Logger) *Engine {
	e := &Engine{
		cfg:     &cfg.Fetch,
		fetcher: f,
		logger:  logger.With("component", "engine"),
		metrics: observability.NewMetrics(logger),
	}
	if cfg.Fetch.RateLimit > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(cfg.Fetch.RateLimit), 1)
	}
	return e
}

// SetMetrics replaces the engine's metrics sink.
func (e *Engine) SetMetrics(m *observability.Metrics) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metrics = m
}

// Metrics returns the engine's metrics sink.
func (e *Engine) Metrics() *observability.Metrics {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.metrics
}

// OnResult registers a callback invoked after each locator finishes.
func (e *Engine) OnResult(cb ResultCallback) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onResult = cb
}

// FetchAll fetches locators strictly one at a time and returns their bodies in input order.
// The first failure aborts the run; no partial output is returned.
func (e *Engine) FetchAll(ctx context.Context, locators []string) ([]string, error) {
	bodies := make([]string, 0, len(locators))
	start := time.Now()

	for i, raw := range locators {
		r := e.fetchOne(ctx, raw)
		e.notify(r)
		if r.Err != nil {
			e.logger.Warn("sequential fetch aborted",
				"locator", raw,
				"index", i,
				"error", r.Err,
			)
			return nil, fmt.Errorf("fetch %d of %d: %w", i+1, len(locators), r.Err)
		}
		bodies = append(bodies, r.Body)
	}

	e.logger.Info("sequential fetch complete",
		"locators", len(locators),
		"elapsed", time.Since(start),
	)
	return bodies, nil
}

// fetchOne reads a single locator into a Result. It never panics on bad input.
func (e *Engine) fetchOne(ctx context.Context, raw string) types.Result {
	start := time.Now()
	result := types.Result{Locator: raw}

	loc, err := types.ParseLocator(raw)
	if err != nil {
		result.Err = err
		return result
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			result.Err = err
			return result
		}
	}

	fetchCtx := ctx
	if e.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, e.cfg.RequestTimeout)
		defer cancel()
	}

	metrics := e.Metrics()
	metrics.TrackStart()
	body, err := fetcher.ReadAll(fetchCtx, e.fetcher, loc)
	metrics.TrackDone(len(body), err)

	result.Duration = time.Since(start)
	if err != nil {
		result.Err = err
		return result
	}
	result.Body = string(body)

	e.logger.Debug("fetched",
		"locator", raw,
		"size", len(body),
		"duration", result.Duration,
	)
	return result
}

func (e *Engine) notify(r types.Result) {
	e.mu.RLock()
	cb := e.onResult
	e.mu.RUnlock()
	if cb != nil {
		cb(r)
	}
}
