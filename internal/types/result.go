package types

import "time"

// Result is the outcome of fetching one locator: a body or an error, never both.
type Result struct {
	// Locator is the locator as supplied by the caller.
	Locator string

	// Body is the fetched content. Empty when Err is set.
	Body string

	// Err is the failure for this locator, if any.
	Err error

	// Duration is how long the fetch took.
	Duration time.Duration
}

// OK returns true if the fetch succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Bodies returns the bodies of the successful results, in result order.
func Bodies(results []Result) []string {
	bodies := make([]string, 0, len(results))
	for _, r := range results {
		if r.OK() {
			bodies = append(bodies, r.Body)
		}
	}
	return bodies
}

// Failures returns the failed results, in result order.
func Failures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.OK() {
			failed = append(failed, r)
		}
	}
	return failed
}

// Digest is the outcome of hashing one locator.
type Digest struct {
	Locator string
	Hex     string
	Err     error
}
