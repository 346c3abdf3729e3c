// Package fetcher defines the interface for web page fetching and the
// implementations sitecrawl ships with: a direct static fetcher, a fetcher
// that goes through a scraping proxy API, and a headless-browser fetcher.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Fetcher abstracts page fetching strategies.
type Fetcher interface {
	// Fetch retrieves page content from a URL.
	Fetch(ctx context.Context, url string, opts Options) (Content, error)

	// Close releases any resources (browser instances, etc.).
	Close() error

	// Type returns a string identifying the fetcher type (e.g., "static", "proxy").
	Type() string
}

// Options are opaque per-request parameters. They are passed through
// unmodified; each fetcher decides which keys it understands.
type Options map[string]string

// Get returns the value for key, or "" when absent.
func (o Options) Get(key string) string {
	if o == nil {
		return ""
	}
	return o[key]
}

// Clone returns a copy that can be modified without touching the original.
func (o Options) Clone() Options {
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Well-known option keys.
const (
	OptionUserAgent = "user_agent"
	OptionWaitFor   = "wait_for"
)

// Content represents fetched page data.
type Content struct {
	URL         string
	HTML        string
	Title       string
	StatusCode  int
	ContentType string
	FetchedAt   time.Time
	Duration    time.Duration
}

// FetchError reports a transport failure or a non-2xx response.
// Check with errors.As(err, &fetchErr).
type FetchError struct {
	URL        string
	StatusCode int // 0 for transport failures
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ErrUnknownMode is returned by New for an unsupported fetch mode.
var ErrUnknownMode = errors.New("unknown fetch mode")

// Mode selects a fetcher implementation.
type Mode string

const (
	ModeStatic  Mode = "static"
	ModeProxy   Mode = "proxy"
	ModeDynamic Mode = "dynamic"
)

// Config holds configuration shared by all fetchers.
type Config struct {
	Mode      Mode
	UserAgent string
	Timeout   time.Duration

	// Proxy API settings (ModeProxy only).
	ProxyAPIURL string
	ProxyAPIKey string

	// Browser settings (ModeDynamic only).
	ChromePath     string
	Stealth        bool
	AcceptLanguage string // Accept-Language header and navigator.languages
}

// Chrome user agent for better compatibility
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const defaultAcceptLanguage = "en-US,en;q=0.9"

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Mode:           ModeStatic,
		UserAgent:      defaultUserAgent,
		Timeout:        30 * time.Second,
		ProxyAPIURL:    DefaultProxyAPIURL,
		AcceptLanguage: defaultAcceptLanguage,
	}
}

// New creates the fetcher selected by cfg.Mode.
func New(cfg Config) (Fetcher, error) {
	switch cfg.Mode {
	case ModeStatic, "":
		return NewStatic(cfg), nil
	case ModeProxy:
		return NewProxy(cfg)
	case ModeDynamic:
		return NewDynamic(cfg)
	default:
		return nil, fmt.Errorf("%w: %s (use static, proxy or dynamic)", ErrUnknownMode, cfg.Mode)
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.UserAgent == "" {
		c.UserAgent = def.UserAgent
	}
	if c.Timeout == 0 {
		c.Timeout = def.Timeout
	}
	if c.ProxyAPIURL == "" {
		c.ProxyAPIURL = def.ProxyAPIURL
	}
	if c.AcceptLanguage == "" {
		c.AcceptLanguage = def.AcceptLanguage
	}
	return c
}

// coalesce returns the first non-empty string.
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
