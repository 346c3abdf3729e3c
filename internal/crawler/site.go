package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/jmylchreest/sitecrawl/pkg/fetcher"
)

// SitePatterns locate the structural elements of a site's listing pages.
// ActivePage and NextPage are optional.
type SitePatterns struct {
	TopicsURLs string `yaml:"topics_urls" json:"topics_urls" validate:"required"`
	MustExist  string `yaml:"must_exist" json:"must_exist" validate:"required"`
	Articles   string `yaml:"articles" json:"articles" validate:"required"`
	ActivePage string `yaml:"active_page,omitempty" json:"active_page,omitempty"`
	NextPage   string `yaml:"next_page,omitempty" json:"next_page,omitempty"`
}

// Target is a site to crawl.
type Target struct {
	SiteName               string          `yaml:"site_name" json:"site_name" validate:"required"`
	BaseURL                string          `yaml:"base_url" json:"base_url" validate:"required,url"`
	CrawlOptions           fetcher.Options `yaml:"crawl_options,omitempty" json:"crawl_options,omitempty"`
	ScrapeOptions          fetcher.Options `yaml:"scrape_options,omitempty" json:"scrape_options,omitempty"`
	BlacklistedURLs        []string        `yaml:"blacklisted_urls,omitempty" json:"blacklisted_urls,omitempty"`
	BlacklistedURLPatterns []string        `yaml:"blacklisted_url_patterns,omitempty" json:"blacklisted_url_patterns,omitempty"`
}

// PatternExtractor evaluates structural patterns against page content. A
// pattern that matches nothing is not an error.
type PatternExtractor interface {
	MatchAll(content, pattern string) ([]string, error)
	MatchOne(content, pattern string) (string, bool, error)
	MatchText(content, pattern string) ([]string, error)
}

var errNotANumber = errors.New("active page is not a number")

// site holds the compiled view of a Target used while crawling.
type site struct {
	target    Target
	patterns  SitePatterns
	base      *url.URL
	blacklist map[string]struct{}
	blockRes  []*regexp.Regexp
	matcher   PatternExtractor
}

func newSite(target Target, patterns SitePatterns, matcher PatternExtractor) (*site, error) {
	base, err := url.Parse(target.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("base url %q is not absolute", target.BaseURL)
	}

	s := &site{
		target:    target,
		patterns:  patterns,
		base:      base,
		blacklist: make(map[string]struct{}, len(target.BlacklistedURLs)),
		matcher:   matcher,
	}
	for _, u := range target.BlacklistedURLs {
		s.blacklist[u] = struct{}{}
	}
	for _, p := range target.BlacklistedURLPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("blacklisted url pattern %q: %w", p, err)
		}
		s.blockRes = append(s.blockRes, re)
	}
	return s, nil
}

// startURLs returns the listing pages linked from the landing page that
// belong to the site and are not blacklisted, in document order.
func (s *site) startURLs(content string) ([]string, error) {
	hrefs, err := s.matcher.MatchAll(content, s.patterns.TopicsURLs)
	if err != nil {
		return nil, err
	}

	var urls []string
	seen := make(map[string]struct{}, len(hrefs))
	for _, href := range hrefs {
		u, ok := s.resolve(href)
		if !ok || !strings.HasPrefix(u, s.target.BaseURL) || s.blocked(u) {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}
	return urls, nil
}

func (s *site) blocked(u string) bool {
	if _, ok := s.blacklist[u]; ok {
		return true
	}
	for _, re := range s.blockRes {
		if re.MatchString(u) {
			return true
		}
	}
	return false
}

// hasStructure reports whether content looks like one of the site's listing
// pages.
func (s *site) hasStructure(content string) (bool, error) {
	_, ok, err := s.matcher.MatchOne(content, s.patterns.MustExist)
	return ok, err
}

// pageLimitReached reports whether the page's active page indicator is past
// maxPages. The page number is also returned when one was found.
func (s *site) pageLimitReached(content string, maxPages int) (bool, int, error) {
	if s.patterns.ActivePage == "" || maxPages <= 0 {
		return false, 0, nil
	}
	_, ok, err := s.matcher.MatchOne(content, s.patterns.ActivePage)
	if err != nil || !ok {
		return false, 0, err
	}

	textPattern := s.patterns.ActivePage + "//text()"
	texts, err := s.matcher.MatchAll(content, textPattern)
	if err != nil {
		return false, 0, err
	}
	var raw string
	for _, t := range texts {
		if t = strings.TrimSpace(t); t != "" {
			raw = t
			break
		}
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return false, 0, &PatternError{Pattern: textPattern, Value: raw, Err: errNotANumber}
	}
	return page > maxPages, page, nil
}

// articleURLs returns the article links of a listing page in document order.
func (s *site) articleURLs(content string) ([]string, error) {
	hrefs, err := s.matcher.MatchAll(content, s.patterns.Articles)
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(hrefs))
	for _, href := range hrefs {
		if u, ok := s.resolve(href); ok {
			urls = append(urls, u)
		}
	}
	return urls, nil
}

// nextPage returns the absolute URL of the following listing page. The
// reason is set when there is none.
func (s *site) nextPage(content string) (next string, reason string, err error) {
	if s.patterns.NextPage == "" {
		return "", "no next page pattern", nil
	}
	_, ok, err := s.matcher.MatchOne(content, s.patterns.NextPage)
	if err != nil {
		return "", "", err
	}
	if !ok {
		return "", "last page", nil
	}
	href, ok, err := s.matcher.MatchOne(content, s.patterns.NextPage+"//a/@href")
	if err != nil {
		return "", "", err
	}
	if !ok || strings.TrimSpace(href) == "" {
		return "", "next page element has no link", nil
	}
	u, ok := s.resolve(href)
	if !ok {
		return "", "next page link is not a valid url", nil
	}
	return u, "", nil
}

// resolve makes href absolute against the site's base URL.
func (s *site) resolve(href string) (string, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	return s.base.ResolveReference(ref).String(), true
}
