package commands

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/jmylchreest/sitecrawl/internal/article"
	"github.com/jmylchreest/sitecrawl/internal/config"
	"github.com/jmylchreest/sitecrawl/internal/crawler"
	"github.com/jmylchreest/sitecrawl/internal/output"
	"github.com/jmylchreest/sitecrawl/internal/store"
	"github.com/jmylchreest/sitecrawl/pkg/fetcher"
)

const newsBase = "https://news.example/"

// pageFetcher serves fixed pages. When hold is set, the first fetch signals
// started and waits for hold to close.
type pageFetcher struct {
	pages   map[string]string
	hold    chan struct{}
	started chan struct{}

	mu    sync.Mutex
	calls int
}

func newPageFetcher() *pageFetcher {
	return &pageFetcher{pages: map[string]string{
		newsBase:                    `<html><body><nav><a href="/politik/">Politik</a></nav></body></html>`,
		newsBase + "politik/":       `<html><body><div class="list"><a href="/politik/1.html">1</a></div></body></html>`,
		newsBase + "politik/1.html": `<html><body><h1>Haushalt</h1><time datetime="2024-05-02">2. Mai</time></body></html>`,
	}}
}

func (f *pageFetcher) Fetch(_ context.Context, url string, _ fetcher.Options) (fetcher.Content, error) {
	f.mu.Lock()
	f.calls++
	first := f.calls == 1
	f.mu.Unlock()

	if first && f.hold != nil {
		close(f.started)
		<-f.hold
	}
	html, ok := f.pages[url]
	if !ok {
		return fetcher.Content{}, &fetcher.FetchError{URL: url, StatusCode: 404, Err: errors.New("not found")}
	}
	return fetcher.Content{URL: url, HTML: html, StatusCode: 200}, nil
}

func (f *pageFetcher) Close() error { return nil }
func (f *pageFetcher) Type() string { return "pages" }

func (f *pageFetcher) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newsSite(name, base string) config.Site {
	var s config.Site
	s.SiteName = name
	s.BaseURL = base
	s.Patterns = crawler.SitePatterns{
		TopicsURLs: "//nav//a/@href",
		MustExist:  "//div[@class='list']",
		Articles:   "//div[@class='list']//a/@href",
	}
	s.Scrape = article.ScrapePatterns{
		"title": {Pattern: "//h1"},
		"date":  {Pattern: "//time/@datetime", Date: true},
	}
	return s
}

func newTestPlan(f fetcher.Fetcher, out *bytes.Buffer, sites ...config.Site) *crawlPlan {
	opener, mem := storeFor(store.MongoConfig{}, true)
	return &crawlPlan{
		app:     config.App{Crawl: config.CrawlConfig{UntilDate: "2024-01-01"}},
		sites:   sites,
		fetcher: f,
		store:   opener,
		memory:  mem,
		format:  output.FormatJSON,
		out:     out,
	}
}

func TestFailures(t *testing.T) {
	ok := crawler.Result{Site: "a", Status: crawler.StatusSucceeded}
	if err := failures([]crawler.Result{ok}); err != nil {
		t.Errorf("failures() = %v, want nil", err)
	}

	cause := errors.New("503")
	bad := crawler.Result{
		Site:   "b",
		Status: crawler.StatusFailed,
		Err:    &crawler.RunError{Kind: crawler.KindFetch, URL: "https://b.example/", Err: cause},
	}
	err := failures([]crawler.Result{ok, bad})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "1 of 2 sites failed") {
		t.Errorf("unexpected message %q", err)
	}
	if !errors.Is(err, cause) {
		t.Error("expected the site error to be wrapped")
	}
}

func TestRunReport(t *testing.T) {
	r := crawler.Result{
		Site:     "faz",
		RunID:    "run-1",
		Status:   crawler.StatusFailed,
		Err:      &crawler.RunError{Kind: crawler.KindStore, Err: errors.New("closed")},
		Stats:    crawler.Stats{ListingsCrawled: 3, ArticlesInserted: 7, BytesFetched: 2048},
		Duration: 1500 * time.Millisecond,
	}

	rep := newRunReport(r)
	if rep.Kind != "store" || rep.Duration != "1.5s" {
		t.Errorf("unexpected report %+v", rep)
	}

	row := rep.TableRow()
	if len(row) != len(rep.TableHeader()) {
		t.Fatalf("row has %d columns, header %d", len(row), len(rep.TableHeader()))
	}
	if row[5] != "2.0 kB" {
		t.Errorf("fetched column = %v", row[5])
	}
	if !strings.HasPrefix(row[7].(string), "store: ") {
		t.Errorf("error column = %v", row[7])
	}
}

func TestSiteRow(t *testing.T) {
	var s config.Site
	s.SiteName = "faz"
	s.BaseURL = "https://www.faz.net/"
	s.Patterns = crawler.SitePatterns{NextPage: "//li[@class='next']"}
	s.BlacklistedURLPatterns = []string{"/podcast/"}
	s.Scrape = article.ScrapePatterns{"title": {Pattern: "//h1"}, "date": {Pattern: "//time", Date: true}}

	row := newSiteRow(s)
	if !row.Paginated || row.PageLimited {
		t.Errorf("unexpected pagination flags %+v", row)
	}
	if strings.Join(row.Fields, ",") != "date,title" {
		t.Errorf("Fields = %v", row.Fields)
	}
	if row.Blacklisted != 1 {
		t.Errorf("Blacklisted = %d", row.Blacklisted)
	}
	if got := row.TableRow()[2]; got != "yes" {
		t.Errorf("paginated column = %v", got)
	}
}

func TestCrawlPlan_DryRunKeepsArticlesInMemory(t *testing.T) {
	var out bytes.Buffer
	plan := newTestPlan(newPageFetcher(), &out,
		newsSite("news", newsBase),
		newsSite("gone", "https://gone.example/"),
	)

	results := plan.run(context.Background())
	if len(results) != 2 {
		t.Fatalf("expected a result per site, got %d", len(results))
	}
	if results[0].Status != crawler.StatusSucceeded || results[0].Stats.ArticlesInserted != 1 {
		t.Errorf("unexpected result for news: %+v", results[0])
	}
	if results[1].Kind() != crawler.KindFetch {
		t.Errorf("unreachable site should fail with a fetch error, got %v", results[1].Error())
	}

	docs := plan.memory.Documents()
	if len(docs) != 1 || docs[0].URL() != newsBase+"politik/1.html" {
		t.Errorf("unexpected documents %+v", docs)
	}

	err := failures(results)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 sites failed") {
		t.Errorf("failures() = %v", err)
	}
}

func TestStoreFor(t *testing.T) {
	if _, mem := storeFor(store.DefaultMongoConfig(), false); mem != nil {
		t.Error("a real run should not use the memory store")
	}
	opener, mem := storeFor(store.DefaultMongoConfig(), true)
	if mem == nil {
		t.Fatal("a dry run should use the memory store")
	}
	st, err := opener(context.Background())
	if err != nil {
		t.Fatalf("opener() error = %v", err)
	}
	if st != store.Store(mem) {
		t.Error("opener should hand out the dry-run memory store")
	}
}

func TestScheduler_SkipsOverlappingRun(t *testing.T) {
	f := newPageFetcher()
	f.hold = make(chan struct{})
	f.started = make(chan struct{})
	var out bytes.Buffer
	plan := newTestPlan(f, &out, newsSite("news", newsBase))

	_, job := newScheduler(cron.Every(time.Hour), plan.crawlJob(context.Background()))

	done := make(chan struct{})
	go func() {
		job.Run()
		close(done)
	}()
	<-f.started

	// Due while the first run is still fetching.
	job.Run()
	if f.fetchCount() != 1 {
		t.Errorf("overlapping run should be skipped, fetches = %d", f.fetchCount())
	}

	close(f.hold)
	<-done

	if f.fetchCount() != 3 {
		t.Errorf("expected one full crawl of 3 pages, got %d fetches", f.fetchCount())
	}
	if n := strings.Count(out.String(), `"site": "news"`); n != 1 {
		t.Errorf("expected one report, found %d in %q", n, out.String())
	}
	if len(plan.memory.Documents()) != 1 {
		t.Errorf("expected 1 stored article, got %d", len(plan.memory.Documents()))
	}
}

func TestScheduler_RecoversPanickingRun(t *testing.T) {
	_, job := newScheduler(cron.Every(time.Hour), cron.FuncJob(func() { panic("boom") }))

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("panic escaped the scheduler: %v", r)
		}
	}()
	job.Run()
}

func TestCrawlFlags_DefaultsMatchConfig(t *testing.T) {
	v := viper.New()
	config.Register(v)
	app, err := config.Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	for _, cmd := range []string{"crawl", "schedule"} {
		c, _, err := rootCmd.Find([]string{cmd})
		if err != nil {
			t.Fatalf("Find(%s) error = %v", cmd, err)
		}
		if got := c.Flags().Lookup("max-pages").DefValue; got != strconv.Itoa(app.Crawl.MaxPages) {
			t.Errorf("%s --max-pages default = %s, config default = %d", cmd, got, app.Crawl.MaxPages)
		}
		if got := c.Flags().Lookup("sites-file").DefValue; got != app.Crawl.SitesFile {
			t.Errorf("%s --sites-file default = %s, config default = %s", cmd, got, app.Crawl.SitesFile)
		}
	}
}
