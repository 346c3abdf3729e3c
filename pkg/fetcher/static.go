package fetcher

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/jmylchreest/sitecrawl/internal/logger"
)

// StaticFetcher uses Colly for static HTML fetching.
// It implements the Fetcher interface.
type StaticFetcher struct {
	config Config
}

// NewStatic creates a new static fetcher.
func NewStatic(cfg Config) *StaticFetcher {
	return &StaticFetcher{config: cfg.withDefaults()}
}

// Fetch retrieves page content using Colly. Only the user_agent option is
// honored; other keys are ignored.
func (f *StaticFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (Content, error) {
	logger.Debug("static fetch starting", "url", targetURL)
	userAgent := coalesce(opts.Get(OptionUserAgent), f.config.UserAgent)
	return collect(ctx, targetURL, targetURL, userAgent, f.config.Timeout)
}

// Close releases resources.
func (f *StaticFetcher) Close() error {
	return nil
}

// Type returns the fetcher type.
func (f *StaticFetcher) Type() string {
	return string(ModeStatic)
}

// collect fetches requestURL with a fresh collector and reports the result
// under targetURL. Non-2xx responses become a *FetchError.
func collect(ctx context.Context, targetURL, requestURL, userAgent string, timeout time.Duration) (Content, error) {
	result := Content{
		URL:       targetURL,
		FetchedAt: time.Now(),
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	// Status codes are checked below; colly alone rejects anything from 203 up.
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.ParseHTTPErrorResponse(),
	)
	c.SetRequestTimeout(timeout)

	c.OnResponse(func(r *colly.Response) {
		result.StatusCode = r.StatusCode
		result.ContentType = r.Headers.Get("Content-Type")
		result.HTML = string(r.Body)
		logger.Debug("fetch response received",
			"url", targetURL,
			"status", r.StatusCode,
			"body_size", len(r.Body))
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			result.StatusCode = r.StatusCode
		}
		logger.Debug("fetch error", "url", targetURL, "status", result.StatusCode, "error", err)
	})

	err := c.Visit(requestURL)
	result.Duration = time.Since(result.FetchedAt)
	if err != nil {
		return result, &FetchError{URL: targetURL, StatusCode: result.StatusCode, Err: err}
	}
	if result.StatusCode < 200 || result.StatusCode > 299 {
		return result, &FetchError{
			URL:        targetURL,
			StatusCode: result.StatusCode,
			Err:        errors.New(http.StatusText(result.StatusCode)),
		}
	}

	result.Title = pageTitle(result.HTML)
	return result, nil
}
