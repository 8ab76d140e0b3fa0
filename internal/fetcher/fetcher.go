package fetcher

import (
	"context"
	"fmt"
	"io"

	"github.com/IshaanNene/fetchkit/internal/types"
)

// Fetcher opens a locator as a byte stream.
//
// Open failures are *types.FetchError with Kind ErrResourceUnavailable.
// The caller owns the returned stream and must close it.
type Fetcher interface {
	// Open connects to the resource and returns its content stream.
	Open(ctx context.Context, loc *types.Locator) (io.ReadCloser, error)

	// Close releases any resources held by the fetcher.
	Close() error

	// Type returns the fetcher type identifier.
	Type() string
}

// ReadAll opens loc, reads the whole stream and closes it on every path.
// Failures while reading are reported as ErrTransport.
func ReadAll(ctx context.Context, f Fetcher, loc *types.Locator) ([]byte, error) {
	stream, err := f.Open(ctx, loc)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	body, err := io.ReadAll(stream)
	if err != nil {
		return nil, types.AsTransport(loc.Raw, err)
	}
	return body, nil
}

// LimitStream fails reads with ErrTransport once rc yields more than limit bytes.
// A limit of zero or less leaves rc unlimited.
func LimitStream(rc io.ReadCloser, locator string, limit int64) io.ReadCloser {
	if limit <= 0 {
		return rc
	}
	return &cappedStream{ReadCloser: rc, locator: locator, limit: limit, remaining: limit}
}

type cappedStream struct {
	io.ReadCloser
	locator   string
	limit     int64
	remaining int64
}

func (s *cappedStream) Read(p []byte) (int, error) {
	if s.remaining < 0 {
		return 0, s.tooLarge()
	}
	// Read one byte past the cap so an exact-size body still ends in EOF.
	if int64(len(p)) > s.remaining+1 {
		p = p[:s.remaining+1]
	}
	n, err := s.ReadCloser.Read(p)
	s.remaining -= int64(n)
	if s.remaining < 0 {
		return n - 1, s.tooLarge()
	}
	return n, err
}

func (s *cappedStream) tooLarge() error {
	return types.Transport(s.locator, fmt.Errorf("body exceeds %d bytes", s.limit))
}
