// Package hasher computes content digests of http, ftp and local resources.
package hasher

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"time"

	"github.com/IshaanNene/fetchkit/internal/fetcher"
	"github.com/IshaanNene/fetchkit/internal/observability"
	"github.com/IshaanNene/fetchkit/internal/types"
)

// DefaultAlgorithm produces a 128-bit digest (32 hex characters).
const DefaultAlgorithm = "md5"

var algorithms = map[string]func() hash.Hash{
	"md5":    md5.New,
	"sha1":   sha1.New,
	"sha256": sha256.New,
}

// Hasher streams a resource through a hash function.
// It holds no per-call state, so one Hasher may serve concurrent callers.
type Hasher struct {
	fetcher   fetcher.Fetcher
	algorithm string
	newHash   func() hash.Hash
	timeout   time.Duration
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// New creates a Hasher. An empty algorithm selects DefaultAlgorithm.
func New(f fetcher.Fetcher, algorithm string, logger *slog.Logger) (*Hasher, error) {
	if algorithm == "" {
		algorithm = DefaultAlgorithm
	}
	newHash, ok := algorithms[algorithm]
	if !ok {
		return nil, types.InvalidArgument("unsupported hash algorithm %q", algorithm)
	}
	return &Hasher{
		fetcher:   f,
		algorithm: algorithm,
		newHash:   newHash,
		metrics:   observability.NewMetrics(logger),
		logger:    logger.With("component", "hasher", "algorithm", algorithm),
	}, nil
}

// SetMetrics replaces the hasher's metrics sink. Call before use.
func (h *Hasher) SetMetrics(m *observability.Metrics) {
	h.metrics = m
}

// SetTimeout bounds each Hash call, from open to the last byte. Call before use.
func (h *Hasher) SetTimeout(d time.Duration) {
	h.timeout = d
}

// Algorithm returns the configured hash algorithm name.
func (h *Hasher) Algorithm() string {
	return h.algorithm
}

// Hash returns the lowercase hex digest of the resource's full content.
func (h *Hasher) Hash(ctx context.Context, locator string) (string, error) {
	start := time.Now()

	loc, err := types.ParseLocator(locator)
	if err != nil {
		return "", err
	}

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	stream, err := h.fetcher.Open(ctx, loc)
	if err != nil {
		h.metrics.TrackHash(0, err)
		return "", err
	}
	defer stream.Close()

	digest := h.newHash()
	n, err := io.Copy(digest, stream)
	if err != nil {
		err = types.AsTransport(locator, fmt.Errorf("read after %d bytes: %w", n, err))
		h.metrics.TrackHash(n, err)
		return "", err
	}

	sum := hex.EncodeToString(digest.Sum(nil))
	h.metrics.TrackHash(n, nil)
	h.logger.Debug("hashed",
		"locator", locator,
		"size", n,
		"digest", sum,
		"duration", time.Since(start),
	)
	return sum, nil
}

// HashAsync runs Hash on its own goroutine.
// The returned channel receives exactly one Digest and is then closed.
func (h *Hasher) HashAsync(ctx context.Context, locator string) <-chan types.Digest {
	out := make(chan types.Digest, 1)
	go func() {
		defer close(out)
		sum, err := h.Hash(ctx, locator)
		out <- types.Digest{Locator: locator, Hex: sum, Err: err}
	}()
	return out
}
