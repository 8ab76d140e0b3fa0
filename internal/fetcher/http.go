package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/IshaanNene/fetchkit/internal/config"
	"github.com/IshaanNene/fetchkit/internal/types"
)

// HTTPFetcher implements Fetcher for http and https locators.
type HTTPFetcher struct {
	client    *http.Client
	logger    *slog.Logger
	userAgent string
}

// NewHTTPFetcher creates a new HTTP fetcher.
func NewHTTPFetcher(cfg *config.Config, logger *slog.Logger) *HTTPFetcher {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        cfg.Fetch.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Fetch.MaxIdleConns / 2,
		IdleConnTimeout:     cfg.Fetch.IdleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.Fetch.TLSInsecure,
		},
		DisableCompression: true, // decoded in decompressReader, including brotli
	}

	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if !cfg.Fetch.FollowRedirects {
			return http.ErrUseLastResponse
		}
		if len(via) >= cfg.Fetch.MaxRedirects {
			return fmt.Errorf("max redirects (%d) reached", cfg.Fetch.MaxRedirects)
		}
		return nil
	}

	ua := cfg.Fetch.UserAgent
	if ua == "" {
		ua = "fetchkit/" + config.Version
	}

	return &HTTPFetcher{
		client: &http.Client{
			Transport:     transport,
			CheckRedirect: redirectPolicy,
		},
		logger:    logger.With("component", "http_fetcher"),
		userAgent: ua,
	}
}

// Open issues a GET and returns the decoded response body.
func (f *HTTPFetcher) Open(ctx context.Context, loc *types.Locator) (io.ReadCloser, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, loc.String(), nil)
	if err != nil {
		return nil, types.Unavailable(loc.Raw, err)
	}
	httpReq.Header.Set("User-Agent", f.userAgent)
	httpReq.Header.Set("Accept", "*/*")
	httpReq.Header.Set("Accept-Encoding", "gzip, deflate, br")

	start := time.Now()
	httpResp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, types.Unavailable(loc.Raw, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		httpResp.Body.Close()
		return nil, &types.FetchError{
			Locator:    loc.Raw,
			StatusCode: httpResp.StatusCode,
			Kind:       types.ErrResourceUnavailable,
			Err:        fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, strings.TrimSpace(string(snippet))),
		}
	}

	var reader io.Reader = httpResp.Body
	decoded, err := decompressReader(httpResp.Header.Get("Content-Encoding"), reader)
	if err != nil {
		httpResp.Body.Close()
		return nil, types.Transport(loc.Raw, err)
	}

	f.logger.Debug("stream opened",
		"url", loc.String(),
		"status", httpResp.StatusCode,
		"encoding", httpResp.Header.Get("Content-Encoding"),
		"duration", time.Since(start),
	)

	stream := &httpStream{Reader: decoded, body: httpResp.Body}
	if decoded != reader {
		if c, ok := decoded.(io.Closer); ok {
			stream.decoder = c
		}
	}
	return stream, nil
}

// Close releases idle connections.
func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// Type returns the fetcher type identifier.
func (f *HTTPFetcher) Type() string {
	return "http"
}

// httpStream reads the decoded body and closes the decoder and the raw body.
type httpStream struct {
	io.Reader
	decoder io.Closer
	body    io.Closer
}

func (s *httpStream) Close() error {
	if s.decoder != nil {
		s.decoder.Close()
	}
	return s.body.Close()
}

// decompressReader wraps a reader with the appropriate decompressor.
// Handles gzip, deflate, and brotli (br) encodings.
func decompressReader(encoding string, reader io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}
