package crawler

import (
	"errors"
	"fmt"

	"github.com/jmylchreest/sitecrawl/internal/pattern"
	"github.com/jmylchreest/sitecrawl/internal/store"
	"github.com/jmylchreest/sitecrawl/pkg/fetcher"
)

// ErrorKind classifies run failures.
type ErrorKind string

const (
	KindFetch        ErrorKind = "fetch"
	KindStore        ErrorKind = "store"
	KindPattern      ErrorKind = "pattern"
	KindUnclassified ErrorKind = "unclassified"
)

// PatternError reports a pattern match whose result cannot be used, such as
// a non-numeric active page indicator. It means the site and its patterns
// no longer agree.
type PatternError struct {
	Pattern string
	Value   string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("pattern %q matched %q: %v", e.Pattern, e.Value, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// RunError aborts a run. URL is the page being processed when it happened.
type RunError struct {
	Kind ErrorKind
	URL  string
	Err  error
}

func (e *RunError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error at %s: %v", e.Kind, e.URL, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// classify wraps err into a *RunError of the matching kind.
func classify(url string, err error) *RunError {
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr
	}

	var (
		fetchErr *fetcher.FetchError
		storeErr *store.StoreError
		patErr   *PatternError
		exprErr  *pattern.Error
	)

	kind := KindUnclassified
	switch {
	case errors.As(err, &fetchErr):
		kind = KindFetch
	case errors.As(err, &storeErr):
		kind = KindStore
	case errors.As(err, &patErr), errors.As(err, &exprErr):
		kind = KindPattern
	}
	return &RunError{Kind: kind, URL: url, Err: err}
}
