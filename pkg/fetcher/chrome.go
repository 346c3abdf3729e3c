package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/jmylchreest/sitecrawl/internal/logger"
)

// chromeCandidates are tried in order by findChrome.
var chromeCandidates = []string{
	"google-chrome-stable",
	"google-chrome",
	"chromium",
	"chromium-browser",
	"chrome",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	"/Applications/Chromium.app/Contents/MacOS/Chromium",
	"/snap/bin/chromium",
	`C:\Program Files\Google\Chrome\Application\chrome.exe`,
	`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
}

// findChrome returns the first Chrome or Chromium binary found, or "" to
// let chromedp use its own lookup.
func findChrome() string {
	for _, name := range chromeCandidates {
		if path, err := exec.LookPath(name); err == nil {
			logger.Debug("found chrome binary", "path", path)
			return path
		}
	}
	logger.Warn("no chrome binary found, dynamic fetching may fail")
	return ""
}

// chromePath prefers the configured binary over discovery.
func chromePath(cfg Config) string {
	if cfg.ChromePath != "" {
		return cfg.ChromePath
	}
	return findChrome()
}

// languageTags turns an Accept-Language value into its language tags, in
// order, without quality weights.
func languageTags(acceptLanguage string) []string {
	var tags []string
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag, _, _ := strings.Cut(part, ";")
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// stealthScript hides the most common headless browser tells and reports
// the configured languages.
func stealthScript(acceptLanguage string) string {
	languages, _ := json.Marshal(languageTags(acceptLanguage))
	return fmt.Sprintf(`(() => {
  Object.defineProperty(navigator, 'webdriver', {get: () => undefined, configurable: true});
  Object.defineProperty(navigator, 'languages', {get: () => %s, configurable: true});
  Object.defineProperty(navigator, 'plugins', {get: () => [1, 2, 3], configurable: true});
  window.chrome = window.chrome || {runtime: {}};
})();`, languages)
}

func allocatorOptions(cfg Config) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(1920, 1080),
	)
	if path := chromePath(cfg); path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	}
	if cfg.Stealth {
		opts = append(opts,
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
			chromedp.Flag("disable-infobars", true),
			chromedp.Flag("excludeSwitches", "enable-automation"),
			chromedp.Flag("accept-lang", cfg.AcceptLanguage),
		)
	}
	return opts
}

// injectStealth registers the stealth script to run before any page script.
func injectStealth(acceptLanguage string) chromedp.Action {
	script := stealthScript(acceptLanguage)
	return chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx)
		return err
	})
}

// overrideUserAgent sets the user agent of a single tab.
func overrideUserAgent(userAgent, acceptLanguage string) *emulation.SetUserAgentOverrideParams {
	return emulation.SetUserAgentOverride(userAgent).WithAcceptLanguage(acceptLanguage)
}
