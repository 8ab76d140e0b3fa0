// Package fetchkit provides a public SDK for embedding fetchkit as a library.
//
// Example usage:
//
//	client, err := fetchkit.New(
//	    fetchkit.WithMaxConcurrentStreams(8),
//	    fetchkit.WithTimeout(10*time.Second),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	bodies, err := client.GetURLContent(ctx, urls)
//	results, err := client.GetURLContentConcurrent(ctx, urls, 4)
//	sum, err := client.Hash(ctx, "ftp://ftp.example.com/pub/file.iso")
package fetchkit

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/IshaanNene/fetchkit/internal/config"
	"github.com/IshaanNene/fetchkit/internal/engine"
	"github.com/IshaanNene/fetchkit/internal/fetcher"
	"github.com/IshaanNene/fetchkit/internal/hasher"
	"github.com/IshaanNene/fetchkit/internal/types"
)

// Result is the per-locator outcome of a concurrent fetch.
type Result = types.Result

// Digest is the outcome of an asynchronous hash.
type Digest = types.Digest

// Error kinds, for use with errors.Is.
var (
	ErrInvalidArgument     = types.ErrInvalidArgument
	ErrResourceUnavailable = types.ErrResourceUnavailable
	ErrTransport           = types.ErrTransport
)

// Fetcher opens a locator as a byte stream. Implement it to plug in a custom transport.
type Fetcher = fetcher.Fetcher

// Client is the high-level API for using fetchkit as a library.
type Client struct {
	cfg     *config.Config
	fetcher Fetcher
	engine  *engine.Engine
	hasher  *hasher.Hasher
	logger  *slog.Logger
}

type options struct {
	cfg     *config.Config
	logger  *slog.Logger
	fetcher Fetcher
}

// Option configures a Client.
type Option func(*options)

// WithMaxConcurrentStreams sets the bound used by GetURLContentThrottled.
func WithMaxConcurrentStreams(n int) Option {
	return func(o *options) { o.cfg.Fetch.MaxConcurrentStreams = n }
}

// WithTimeout sets the per-fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.cfg.Fetch.RequestTimeout = d }
}

// WithRateLimit paces fetches to at most rps requests per second.
func WithRateLimit(rps float64) Option {
	return func(o *options) { o.cfg.Fetch.RateLimit = rps }
}

// WithHashAlgorithm selects md5, sha1 or sha256.
func WithHashAlgorithm(name string) Option {
	return func(o *options) { o.cfg.Hash.Algorithm = name }
}

// WithUserAgent sets a custom User-Agent for HTTP fetches.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.cfg.Fetch.UserAgent = ua }
}

// WithLogger sets the logger. By default logs are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithFetcher replaces the built-in http/ftp/file transports.
func WithFetcher(f Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// New creates a Client with the given options.
func New(opts ...Option) (*Client, error) {
	o := &options{
		cfg:    config.DefaultConfig(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}
	if err := config.Validate(o.cfg); err != nil {
		return nil, types.InvalidArgument("%v", err)
	}

	f := o.fetcher
	if f == nil {
		f = fetcher.NewRouter(o.cfg, o.logger)
	}

	h, err := hasher.New(f, o.cfg.Hash.Algorithm, o.logger)
	if err != nil {
		return nil, err
	}

	h.SetTimeout(o.cfg.Fetch.RequestTimeout)

	e := engine.New(f, o.cfg, o.logger)
	h.SetMetrics(e.Metrics())

	return &Client{
		cfg:     o.cfg,
		fetcher: f,
		engine:  e,
		hasher:  h,
		logger:  o.logger,
	}, nil
}

// GetURLContent fetches locators one at a time and returns their bodies in input order.
func (c *Client) GetURLContent(ctx context.Context, locators []string) ([]string, error) {
	return c.engine.FetchAll(ctx, locators)
}

// GetURLContentConcurrent fetches locators with at most maxConcurrentStreams in flight.
// Results arrive in completion order.
func (c *Client) GetURLContentConcurrent(ctx context.Context, locators []string, maxConcurrentStreams int) ([]Result, error) {
	return c.engine.FetchConcurrent(ctx, locators, maxConcurrentStreams)
}

// GetURLContentThrottled fetches with the configured stream bound.
func (c *Client) GetURLContentThrottled(ctx context.Context, locators []string) ([]Result, error) {
	return c.engine.FetchConcurrent(ctx, locators, c.cfg.Fetch.MaxConcurrentStreams)
}

// Hash returns the lowercase hex digest of the resource.
func (c *Client) Hash(ctx context.Context, locator string) (string, error) {
	return c.hasher.Hash(ctx, locator)
}

// HashAsync hashes the resource on a new goroutine and delivers one Digest.
func (c *Client) HashAsync(ctx context.Context, locator string) <-chan Digest {
	return c.hasher.HashAsync(ctx, locator)
}

// Stats returns a snapshot of fetch and hash counters.
func (c *Client) Stats() map[string]int64 {
	return c.engine.Metrics().Snapshot()
}

// Close releases transport resources.
func (c *Client) Close() error {
	return c.fetcher.Close()
}
