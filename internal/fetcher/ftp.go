package fetcher

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/IshaanNene/fetchkit/internal/config"
	"github.com/IshaanNene/fetchkit/internal/types"
)

const (
	defaultFTPPort  = "21"
	defaultFTPSPort = "990"
)

// FTPFetcher implements Fetcher for ftp and ftps locators.
// Each Open uses its own control connection; nothing is pooled.
type FTPFetcher struct {
	cfg    *config.FTPConfig
	logger *slog.Logger
}

// NewFTPFetcher creates a new FTP fetcher.
func NewFTPFetcher(cfg *config.Config, logger *slog.Logger) *FTPFetcher {
	return &FTPFetcher{
		cfg:    &cfg.FTP,
		logger: logger.With("component", "ftp_fetcher"),
	}
}

// Open logs in and starts a RETR transfer of the locator's path.
func (f *FTPFetcher) Open(ctx context.Context, loc *types.Locator) (io.ReadCloser, error) {
	opts := []ftp.DialOption{
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(f.cfg.DialTimeout),
		// Bounds the wait for the 226 reply when a stream is closed early.
		ftp.DialWithShutTimeout(f.cfg.DialTimeout),
	}
	// ftps:// is implicit TLS: the control channel is encrypted from the first byte.
	if loc.Scheme == types.SchemeFTPS {
		opts = append(opts, ftp.DialWithTLS(&tls.Config{
			ServerName:         loc.URL.Hostname(),
			InsecureSkipVerify: f.cfg.TLSInsecure,
		}))
	}

	addr := ftpAddress(loc.URL)
	conn, err := ftp.Dial(addr, opts...)
	if err != nil {
		return nil, types.Unavailable(loc.Raw, fmt.Errorf("dial %s: %w", addr, err))
	}

	user, pass := f.credentials(loc.URL)
	if err := conn.Login(user, pass); err != nil {
		conn.Quit()
		return nil, types.Unavailable(loc.Raw, fmt.Errorf("login as %q: %w", user, err))
	}

	resp, err := conn.Retr(loc.URL.Path)
	if err != nil {
		conn.Quit()
		return nil, types.Unavailable(loc.Raw, fmt.Errorf("retr %s: %w", loc.URL.Path, err))
	}

	f.logger.Debug("stream opened", "addr", addr, "path", loc.URL.Path, "user", user)

	// Cancelling ctx mid-transfer fails the pending read instead of hanging.
	stop := context.AfterFunc(ctx, func() {
		resp.SetDeadline(time.Now())
	})

	return &ftpStream{resp: resp, conn: conn, stop: stop}, nil
}

// Close is a no-op; connections are closed with their streams.
func (f *FTPFetcher) Close() error {
	return nil
}

// Type returns the fetcher type identifier.
func (f *FTPFetcher) Type() string {
	return "ftp"
}

// credentials prefers URL userinfo over the configured account.
func (f *FTPFetcher) credentials(u *url.URL) (string, string) {
	user, pass := f.cfg.Username, f.cfg.Password
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}
	return user, pass
}

// ftpAddress returns host:port, defaulting to 21 for ftp and 990 for ftps.
func ftpAddress(u *url.URL) string {
	port := u.Port()
	if port == "" {
		port = defaultFTPPort
		if u.Scheme == types.SchemeFTPS {
			port = defaultFTPSPort
		}
	}
	return net.JoinHostPort(u.Hostname(), port)
}

// ftpStream closes the data transfer and then the control connection.
type ftpStream struct {
	resp *ftp.Response
	conn *ftp.ServerConn
	stop func() bool
}

func (s *ftpStream) Read(p []byte) (int, error) {
	return s.resp.Read(p)
}

func (s *ftpStream) Close() error {
	s.stop()
	err := s.resp.Close()
	if qerr := s.conn.Quit(); err == nil {
		err = qerr
	}
	return err
}
