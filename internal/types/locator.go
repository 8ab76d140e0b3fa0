package types

import (
	"net/url"
	"path/filepath"
	"strings"
)

// Supported locator schemes.
const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
	SchemeFTP   = "ftp"
	SchemeFTPS  = "ftps"
	SchemeFile  = "file"
)

// Locator is a parsed resource address: a URL or a local filesystem path.
type Locator struct {
	// Raw is the string the caller supplied.
	Raw string

	// Scheme is one of the Scheme* constants.
	Scheme string

	// URL is the parsed form. Bare paths are converted to file:// URLs.
	URL *url.URL
}

// ParseLocator parses a URL or a bare filesystem path.
func ParseLocator(raw string) (*Locator, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, InvalidArgument("empty locator")
	}

	if isBarePath(trimmed) {
		abs, err := filepath.Abs(trimmed)
		if err != nil {
			return nil, InvalidArgument("locator %q: %v", raw, err)
		}
		return &Locator{
			Raw:    raw,
			Scheme: SchemeFile,
			URL:    &url.URL{Scheme: SchemeFile, Path: filepath.ToSlash(abs)},
		}, nil
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, InvalidArgument("locator %q: %v", raw, err)
	}
	scheme := strings.ToLower(u.Scheme)
	u.Scheme = scheme

	switch scheme {
	case SchemeHTTP, SchemeHTTPS, SchemeFTP, SchemeFTPS:
		if u.Host == "" {
			return nil, InvalidArgument("locator %q has no host", raw)
		}
	case SchemeFile:
		if u.Path == "" {
			return nil, InvalidArgument("locator %q has no path", raw)
		}
	default:
		return nil, InvalidArgument("locator %q: unsupported scheme %q", raw, u.Scheme)
	}

	return &Locator{Raw: raw, Scheme: scheme, URL: u}, nil
}

// String returns the normalized locator.
func (l *Locator) String() string {
	if l.URL == nil {
		return l.Raw
	}
	return l.URL.String()
}

// Path returns the local filesystem path for file locators.
func (l *Locator) Path() string {
	if l.URL == nil {
		return ""
	}
	return filepath.FromSlash(l.URL.Path)
}

// IsRemote reports whether the locator needs the network.
func (l *Locator) IsRemote() bool {
	return l.Scheme != SchemeFile
}

// isBarePath reports whether s has no URL scheme. A single letter before the
// colon is a Windows drive (C:\x), not a scheme.
func isBarePath(s string) bool {
	i := strings.IndexByte(s, ':')
	if i < 2 {
		return true
	}
	return !isScheme(s[:i])
}

// isScheme matches RFC 3986: ALPHA *( ALPHA / DIGIT / "+" / "-" / "." ).
func isScheme(s string) bool {
	for i, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return s != ""
}
