package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/jmylchreest/sitecrawl/internal/logger"
)

// DefaultProxyAPIURL is the scraping proxy endpoint used when none is configured.
const DefaultProxyAPIURL = "https://api.zenrows.com/v1/"

// ErrMissingAPIKey is returned when the proxy fetcher has no API key.
var ErrMissingAPIKey = errors.New("proxy API key is not set")

// ProxyFetcher fetches pages through a scraping proxy API. The target URL,
// the API key and every request option are sent as query parameters, so
// options such as proxy_country, premium_proxy or block_resources reach the
// proxy unmodified.
type ProxyFetcher struct {
	config   Config
	endpoint *url.URL
}

// NewProxy creates a proxy API fetcher.
func NewProxy(cfg Config) (*ProxyFetcher, error) {
	cfg = cfg.withDefaults()
	if cfg.ProxyAPIKey == "" {
		return nil, ErrMissingAPIKey
	}
	endpoint, err := url.Parse(cfg.ProxyAPIURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy API URL: %w", err)
	}
	return &ProxyFetcher{config: cfg, endpoint: endpoint}, nil
}

// Fetch retrieves targetURL through the proxy API.
func (f *ProxyFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (Content, error) {
	requestURL := f.requestURL(targetURL, opts)
	logger.Debug("proxy fetch starting", "url", targetURL, "options", len(opts))
	return collect(ctx, targetURL, requestURL, f.config.UserAgent, f.config.Timeout)
}

func (f *ProxyFetcher) requestURL(targetURL string, opts Options) string {
	params := url.Values{}
	for k, v := range opts {
		params.Set(k, v)
	}
	params.Set("url", targetURL)
	params.Set("apikey", f.config.ProxyAPIKey)

	u := *f.endpoint
	u.RawQuery = params.Encode()
	return u.String()
}

// Close releases resources.
func (f *ProxyFetcher) Close() error {
	return nil
}

// Type returns the fetcher type.
func (f *ProxyFetcher) Type() string {
	return string(ModeProxy)
}
