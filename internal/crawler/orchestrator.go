package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jmylchreest/sitecrawl/internal/article"
	"github.com/jmylchreest/sitecrawl/internal/logger"
	"github.com/jmylchreest/sitecrawl/internal/pattern"
	"github.com/jmylchreest/sitecrawl/internal/store"
	"github.com/jmylchreest/sitecrawl/pkg/fetcher"
)

// ArticleStore is the part of the store the crawl loop writes through.
type ArticleStore interface {
	Exists(ctx context.Context, url string) (bool, error)
	Insert(ctx context.Context, doc store.Document) error
}

var (
	// ErrNoFetcher is returned by New when no fetcher was configured.
	ErrNoFetcher = errors.New("crawler: no fetcher configured")
	// ErrNoStore is returned by New when no store opener was configured.
	ErrNoStore = errors.New("crawler: no store configured")
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithFetcher sets the page fetcher.
func WithFetcher(f fetcher.Fetcher) Option {
	return func(o *Orchestrator) {
		o.fetcher = f
	}
}

// WithStore sets how the article store session is opened for each run.
func WithStore(open store.Opener) Option {
	return func(o *Orchestrator) {
		o.openStore = open
	}
}

// WithPatternExtractor replaces the default XPath extractor.
func WithPatternExtractor(p PatternExtractor) Option {
	return func(o *Orchestrator) {
		o.matcher = p
	}
}

// WithObserver sets the event sink. The default logs events.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		o.observer = obs
	}
}

// WithSkipOutdated stops the article that trips the date limit from being
// stored. By default it is stored before the batch stops.
func WithSkipOutdated(skip bool) Option {
	return func(o *Orchestrator) {
		o.skipOutdated = skip
	}
}

// WithRunID fixes the run ID instead of generating one per run.
func WithRunID(id string) Option {
	return func(o *Orchestrator) {
		o.runID = id
	}
}

// Orchestrator crawls one site. It is not safe for concurrent Runs.
type Orchestrator struct {
	site         *site
	scrape       article.ScrapePatterns
	fetcher      fetcher.Fetcher
	openStore    store.Opener
	matcher      PatternExtractor
	observer     Observer
	skipOutdated bool
	runID        string
}

// New creates an Orchestrator for target.
func New(target Target, patterns SitePatterns, scrape article.ScrapePatterns, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{scrape: scrape}
	for _, opt := range opts {
		opt(o)
	}

	if o.fetcher == nil {
		return nil, ErrNoFetcher
	}
	if o.openStore == nil {
		return nil, ErrNoStore
	}
	if o.matcher == nil {
		o.matcher = pattern.NewXPath()
	}
	if o.observer == nil {
		o.observer = NewLogObserver()
	}

	s, err := newSite(target, patterns, o.matcher)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", target.SiteName, err)
	}
	o.site = s
	return o, nil
}

// Run crawls the site once. Listing pages whose active page number exceeds
// maxNumPages are skipped; zero or less means no limit. A listing page's
// article batch stops at the first stored article dated before untilDate,
// and its pagination is then not followed.
//
// Any fetch, store or pattern failure aborts the run. Documents stored
// before the failure are kept.
func (o *Orchestrator) Run(ctx context.Context, maxNumPages int, untilDate string) (res Result) {
	runID := o.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	state := NewRunState(runID)
	start := time.Now()
	res = Result{Site: o.site.target.SiteName, RunID: runID}

	o.emit(state, Event{Type: EventRunStarted, URL: o.site.target.BaseURL})

	defer func() {
		if r := recover(); r != nil {
			res.Err = &RunError{Kind: KindUnclassified, Err: fmt.Errorf("panic: %v", r)}
		}
		res.Stats = state.Stats
		res.Duration = time.Since(start)
		if res.Err != nil {
			res.Status = StatusFailed
			o.emit(state, Event{Type: EventRunFailed, URL: res.Err.URL, Err: res.Err, Result: &res})
			return
		}
		res.Status = StatusSucceeded
		o.emit(state, Event{Type: EventRunFinished, Result: &res})
	}()

	res.Err = o.run(ctx, state, maxNumPages, untilDate)
	return res
}

func (o *Orchestrator) run(ctx context.Context, state *RunState, maxNumPages int, untilDate string) *RunError {
	baseURL := o.site.target.BaseURL

	home, err := o.fetch(ctx, state, baseURL, o.site.target.CrawlOptions)
	if err != nil {
		return classify(baseURL, err)
	}
	seeds, err := o.site.startURLs(home.HTML)
	if err != nil {
		return classify(baseURL, err)
	}
	for _, u := range seeds {
		state.Frontier.PushBack(u)
	}
	state.Stats.Seeds = len(seeds)
	o.emit(state, Event{Type: EventSeedsFound, URL: baseURL, Count: len(seeds)})

	st, err := o.openStore(ctx)
	if err != nil {
		return classify(baseURL, err)
	}
	defer func() {
		if err := st.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("closing store", "site", o.site.target.SiteName, "error", err)
		}
	}()

	for !state.Frontier.IsEmpty() {
		pageURL, _ := state.Frontier.PopFront()
		if err := ctx.Err(); err != nil {
			return classify(pageURL, err)
		}
		if err := o.crawlPage(ctx, st, state, pageURL, maxNumPages, untilDate); err != nil {
			return classify(pageURL, err)
		}
	}
	return nil
}

// crawlPage processes one listing page and schedules its continuation.
func (o *Orchestrator) crawlPage(ctx context.Context, st ArticleStore, state *RunState, pageURL string, maxNumPages int, untilDate string) error {
	if state.isVisited(pageURL) {
		o.emit(state, Event{Type: EventPageSkipped, URL: pageURL, Detail: "already visited"})
		return nil
	}
	state.markVisited(pageURL)
	o.emit(state, Event{Type: EventPageCrawling, URL: pageURL, Count: state.Frontier.Len()})

	page, err := o.fetch(ctx, state, pageURL, o.site.target.CrawlOptions)
	if err != nil {
		return err
	}

	ok, err := o.site.hasStructure(page.HTML)
	if err != nil {
		return err
	}
	if !ok {
		state.Stats.ListingsSkipped++
		o.emit(state, Event{Type: EventPageSkipped, URL: pageURL, Detail: "structure not found"})
		return nil
	}

	limited, pageNum, err := o.site.pageLimitReached(page.HTML, maxNumPages)
	if err != nil {
		return err
	}
	if limited {
		state.Stats.PageLimitHits++
		o.emit(state, Event{Type: EventPageLimitReached, URL: pageURL, Count: pageNum})
		return nil
	}
	state.Stats.ListingsCrawled++

	articles, err := o.site.articleURLs(page.HTML)
	if err != nil {
		return err
	}

	state.DateLimitReached = false
	for _, articleURL := range articles {
		if err := ctx.Err(); err != nil {
			return err
		}
		state.Stats.ArticlesSeen++

		exists, err := st.Exists(ctx, articleURL)
		if err != nil {
			return &RunError{Kind: KindStore, URL: articleURL, Err: err}
		}
		if exists {
			state.Stats.ArticlesKnown++
			o.emit(state, Event{Type: EventArticleKnown, URL: articleURL})
			continue
		}

		date, outdated, err := o.ingest(ctx, st, state, articleURL, untilDate)
		if err != nil {
			return err
		}
		if outdated {
			state.DateLimitReached = true
			state.Stats.DateLimitHits++
			o.emit(state, Event{Type: EventDateLimitReached, URL: articleURL, Detail: date})
			break
		}
	}

	if state.DateLimitReached {
		return nil
	}

	next, reason, err := o.site.nextPage(page.HTML)
	if err != nil {
		return err
	}
	switch {
	case next == "":
		o.emit(state, Event{Type: EventLastPage, URL: pageURL, Detail: reason})
	case state.isVisited(next):
		o.emit(state, Event{Type: EventLastPage, URL: pageURL, Detail: "next page already visited"})
	default:
		state.Frontier.PushFront(next)
		o.emit(state, Event{Type: EventNextPage, URL: pageURL, Detail: next})
	}
	return nil
}

// ingest fetches, extracts and stores one article. It reports whether the
// article is dated before untilDate.
func (o *Orchestrator) ingest(ctx context.Context, st ArticleStore, state *RunState, articleURL, untilDate string) (string, bool, error) {
	page, err := o.fetch(ctx, state, articleURL, o.site.target.ScrapeOptions)
	if err != nil {
		return "", false, classify(articleURL, err)
	}

	fields, err := article.Extract(o.matcher, page.HTML, o.scrape)
	if err != nil {
		return "", false, classify(articleURL, err)
	}

	date, hasDate := fields.Date()
	outdated := hasDate && date < untilDate

	if outdated && o.skipOutdated {
		o.emit(state, Event{Type: EventArticleOutdated, URL: articleURL, Detail: date})
		return date, true, nil
	}

	doc := store.NewDocument(articleURL, o.site.target.SiteName, fields)
	if err := st.Insert(ctx, doc); err != nil {
		return "", false, &RunError{Kind: KindStore, URL: articleURL, Err: err}
	}
	state.Stats.ArticlesInserted++
	o.emit(state, Event{Type: EventArticleIngested, URL: articleURL, Detail: date})

	return date, outdated, nil
}

func (o *Orchestrator) fetch(ctx context.Context, state *RunState, url string, opts fetcher.Options) (fetcher.Content, error) {
	if err := ctx.Err(); err != nil {
		return fetcher.Content{}, err
	}
	content, err := o.fetcher.Fetch(ctx, url, opts)
	if err != nil {
		return fetcher.Content{}, err
	}
	state.Stats.PagesFetched++
	state.Stats.BytesFetched += int64(len(content.HTML))
	o.emit(state, Event{Type: EventPageFetched, URL: url, Title: content.Title, Bytes: int64(len(content.HTML))})
	return content, nil
}

func (o *Orchestrator) emit(state *RunState, e Event) {
	e.RunID = state.RunID
	e.Site = o.site.target.SiteName
	o.observer.Observe(e)
}
