package types

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying every failure the fetchers and hasher report.
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrResourceUnavailable = errors.New("resource unavailable")
	ErrTransport           = errors.New("transport error")
)

// FetchError wraps a failure for a single locator.
// Kind is one of the sentinel errors above; Err is the underlying cause.
type FetchError struct {
	Locator    string
	StatusCode int
	Kind       error
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%v: %s (status %d): %v", e.Kind, e.Locator, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Locator, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is reports whether target is the error's kind, so errors.Is works with the sentinels.
func (e *FetchError) Is(target error) bool { return e.Kind != nil && target == e.Kind }

// Unavailable builds a FetchError for a locator that could not be opened.
func Unavailable(locator string, err error) *FetchError {
	return &FetchError{Locator: locator, Kind: ErrResourceUnavailable, Err: err}
}

// Transport builds a FetchError for a stream that failed after opening.
func Transport(locator string, err error) *FetchError {
	return &FetchError{Locator: locator, Kind: ErrTransport, Err: err}
}

// AsTransport classifies a read failure as ErrTransport unless it is already a FetchError.
func AsTransport(locator string, err error) error {
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	return Transport(locator, err)
}

// InvalidArgument builds an error wrapping ErrInvalidArgument.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// KindOf returns a short label for the error's classification.
func KindOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrResourceUnavailable):
		return "unavailable"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "error"
	}
}
