package fetcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/IshaanNene/fetchkit/internal/config"
	"github.com/IshaanNene/fetchkit/internal/types"
)

// Router dispatches each locator to the fetcher registered for its scheme.
// Every stream it opens is capped at fetch.max_body_size decoded bytes.
type Router struct {
	mu          sync.RWMutex
	fetchers    map[string]Fetcher
	maxBodySize int64
}

// NewRouter creates a Router with the http, ftp and file transports registered.
func NewRouter(cfg *config.Config, logger *slog.Logger) *Router {
	r := &Router{
		fetchers:    make(map[string]Fetcher),
		maxBodySize: cfg.Fetch.MaxBodySize,
	}

	httpFetcher := NewHTTPFetcher(cfg, logger)
	r.Register(types.SchemeHTTP, httpFetcher)
	r.Register(types.SchemeHTTPS, httpFetcher)

	ftpFetcher := NewFTPFetcher(cfg, logger)
	r.Register(types.SchemeFTP, ftpFetcher)
	r.Register(types.SchemeFTPS, ftpFetcher)

	r.Register(types.SchemeFile, NewFileFetcher(logger))
	return r
}

// Register sets the fetcher for a scheme, replacing any previous one.
func (r *Router) Register(scheme string, f Fetcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetchers[scheme] = f
}

// Open dispatches to the fetcher for loc.Scheme.
func (r *Router) Open(ctx context.Context, loc *types.Locator) (io.ReadCloser, error) {
	r.mu.RLock()
	f, ok := r.fetchers[loc.Scheme]
	r.mu.RUnlock()

	if !ok {
		return nil, &types.FetchError{
			Locator: loc.Raw,
			Kind:    types.ErrInvalidArgument,
			Err:     errors.New("no fetcher for scheme " + loc.Scheme),
		}
	}
	stream, err := f.Open(ctx, loc)
	if err != nil {
		return nil, err
	}
	return LimitStream(stream, loc.Raw, r.maxBodySize), nil
}

// Close closes every registered fetcher once.
func (r *Router) Close() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	closed := make(map[Fetcher]bool)
	var errs []error
	for _, f := range r.fetchers {
		if closed[f] {
			continue
		}
		closed[f] = true
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Type returns the fetcher type identifier.
func (r *Router) Type() string {
	return "router"
}
