package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jmylchreest/sitecrawl/internal/logger"
)

// DynamicFetcher uses chromedp for JavaScript-rendered pages.
type DynamicFetcher struct {
	config    Config
	allocCtx  context.Context
	cancelCtx context.CancelFunc
}

// NewDynamic creates a dynamic fetcher backed by a headless browser allocator.
// The browser itself starts lazily on the first fetch.
func NewDynamic(cfg Config) (*DynamicFetcher, error) {
	cfg = cfg.withDefaults()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocatorOptions(cfg)...)

	logger.Debug("dynamic fetcher created", "user_agent", cfg.UserAgent, "timeout", cfg.Timeout, "stealth", cfg.Stealth)

	return &DynamicFetcher{
		config:    cfg,
		allocCtx:  allocCtx,
		cancelCtx: cancelAlloc,
	}, nil
}

// Fetch renders targetURL in a fresh browser tab. The user_agent option
// overrides the browser's user agent for this tab, and wait_for names a CSS
// selector to wait for instead of body.
func (f *DynamicFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (Content, error) {
	logger.Debug("dynamic fetch starting", "url", targetURL)

	result := Content{
		URL:       targetURL,
		FetchedAt: time.Now(),
	}

	browserCtx, cancelBrowser := chromedp.NewContext(f.allocCtx)
	defer cancelBrowser()

	timeoutCtx, cancelTimeout := context.WithTimeout(browserCtx, f.config.Timeout)
	defer cancelTimeout()

	// Tie the tab to the caller's context as well.
	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	var html, title string
	actions := f.tabActions(targetURL, opts, &html, &title)
	err := chromedp.Run(timeoutCtx, actions...)
	result.Duration = time.Since(result.FetchedAt)
	if err != nil {
		logger.Debug("dynamic fetch browser automation failed", "url", targetURL, "error", err)
		return result, &FetchError{URL: targetURL, Err: fmt.Errorf("browser automation failed: %w", err)}
	}

	result.HTML = html
	result.Title = title
	result.StatusCode = 200 // chromedp doesn't easily expose status codes

	logger.Debug("dynamic fetch complete", "url", targetURL, "html_size", len(html))
	return result, nil
}

// tabActions builds the actions run in one tab.
func (f *DynamicFetcher) tabActions(targetURL string, opts Options, html, title *string) []chromedp.Action {
	var actions []chromedp.Action
	if ua := opts.Get(OptionUserAgent); ua != "" {
		actions = append(actions, overrideUserAgent(ua, f.config.AcceptLanguage))
	}
	if f.config.Stealth {
		actions = append(actions, injectStealth(f.config.AcceptLanguage))
	}
	return append(actions,
		chromedp.Navigate(targetURL),
		chromedp.WaitVisible(coalesce(opts.Get(OptionWaitFor), "body")),
		chromedp.OuterHTML("html", html),
		chromedp.Title(title),
	)
}

// Close releases browser resources.
func (f *DynamicFetcher) Close() error {
	if f.cancelCtx != nil {
		f.cancelCtx()
	}
	return nil
}

// Type returns the fetcher type.
func (f *DynamicFetcher) Type() string {
	return string(ModeDynamic)
}
