package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jmylchreest/sitecrawl/internal/article"
	"github.com/jmylchreest/sitecrawl/internal/store"
	"github.com/jmylchreest/sitecrawl/pkg/fetcher"
)

const baseURL = "https://news.example.com/"

// scriptedFetcher serves canned pages and records every fetched URL.
type scriptedFetcher struct {
	pages  map[string]string
	errs   map[string]error
	panics map[string]bool
	calls  []string
	opts   []fetcher.Options
}

func newScriptedFetcher() *scriptedFetcher {
	return &scriptedFetcher{
		pages:  make(map[string]string),
		errs:   make(map[string]error),
		panics: make(map[string]bool),
	}
}

func (f *scriptedFetcher) page(path, html string) *scriptedFetcher {
	f.pages[baseURL+strings.TrimPrefix(path, "/")] = html
	return f
}

func (f *scriptedFetcher) Fetch(ctx context.Context, url string, opts fetcher.Options) (fetcher.Content, error) {
	f.calls = append(f.calls, url)
	f.opts = append(f.opts, opts)
	if f.panics[url] {
		panic("boom")
	}
	if err, ok := f.errs[url]; ok {
		return fetcher.Content{}, err
	}
	html, ok := f.pages[url]
	if !ok {
		return fetcher.Content{}, &fetcher.FetchError{URL: url, StatusCode: 404, Err: errors.New("not found")}
	}
	return fetcher.Content{URL: url, HTML: html, Title: "title of " + url, StatusCode: 200}, nil
}

func (f *scriptedFetcher) Close() error { return nil }
func (f *scriptedFetcher) Type() string { return "scripted" }

func (f *scriptedFetcher) fetched(url string) bool {
	for _, c := range f.calls {
		if c == url {
			return true
		}
	}
	return false
}

// recordingObserver keeps every event.
type recordingObserver struct {
	events []Event
}

func (r *recordingObserver) Observe(e Event) {
	r.events = append(r.events, e)
}

func (r *recordingObserver) types() []EventType {
	out := make([]EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func homePage(links ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><nav class="topics">`)
	for _, l := range links {
		fmt.Fprintf(&b, `<a href="%s">topic</a>`, l)
	}
	b.WriteString(`</nav></body></html>`)
	return b.String()
}

// listingPage renders a listing. active 0 omits the page indicator; an
// empty next omits the next link.
func listingPage(active int, next string, articles ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="teaser-list">`)
	for _, a := range articles {
		fmt.Fprintf(&b, `<article class="teaser"><a href="%s">teaser</a></article>`, a)
	}
	b.WriteString(`</div><ul class="pagination">`)
	if active > 0 {
		fmt.Fprintf(&b, `<li class="active"><span>%d</span></li>`, active)
	}
	if next != "" {
		fmt.Fprintf(&b, `<li class="next"><a href="%s">next</a></li>`, next)
	}
	b.WriteString(`</ul></body></html>`)
	return b.String()
}

func articlePage(title, date string) string {
	return fmt.Sprintf(`<html><body><h1> %s </h1><time datetime="%s">%s</time><p>Body of %s.</p></body></html>`,
		title, date, date, title)
}

const notAListing = `<html><body><p>Dieser Bereich wurde eingestellt.</p></body></html>`

func testScrape() article.ScrapePatterns {
	return article.ScrapePatterns{
		"title": {Pattern: "//h1"},
		"date":  {Pattern: "//time/@datetime", Date: true},
		"body":  {Pattern: "//p", Multiple: true},
	}
}

func newTestOrchestrator(t *testing.T, f fetcher.Fetcher, st *store.Memory, opts ...Option) (*Orchestrator, *recordingObserver) {
	t.Helper()
	obs := &recordingObserver{}
	target := Target{
		SiteName:      "example",
		BaseURL:       baseURL,
		CrawlOptions:  fetcher.Options{"js_render": "false"},
		ScrapeOptions: fetcher.Options{"js_render": "true"},
	}
	opts = append([]Option{WithFetcher(f), WithStore(st.Opener()), WithObserver(obs)}, opts...)
	o, err := New(target, testPatterns(), testScrape(), opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return o, obs
}

func urls(docs []store.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.URL()
	}
	return out
}

func TestNew_RequiresCollaborators(t *testing.T) {
	target := Target{SiteName: "example", BaseURL: baseURL}

	if _, err := New(target, testPatterns(), testScrape(), WithStore(store.NewMemory().Opener())); !errors.Is(err, ErrNoFetcher) {
		t.Errorf("expected ErrNoFetcher, got %v", err)
	}
	if _, err := New(target, testPatterns(), testScrape(), WithFetcher(newScriptedFetcher())); !errors.Is(err, ErrNoStore) {
		t.Errorf("expected ErrNoStore, got %v", err)
	}
}

// Y skips the structureless X, keeps its known article and stores the new one.
func TestRun_SkipsUnstructuredAndKnown(t *testing.T) {
	known := baseURL + "y/known.html"
	fresh := baseURL + "y/fresh.html"

	f := newScriptedFetcher().
		page("", homePage("/x/", "/y/")).
		page("x/", notAListing).
		page("y/", listingPage(0, "", "/y/known.html", "/y/fresh.html")).
		page("y/fresh.html", articlePage("Fresh", "2024-05-02"))

	st := store.NewMemory(store.NewDocument(known, "example", nil))
	o, _ := newTestOrchestrator(t, f, st)

	res := o.Run(context.Background(), 5, "2024-01-01")
	if res.Status != StatusSucceeded {
		t.Fatalf("Run() status = %s, err = %v", res.Status, res.Err)
	}

	docs := st.Documents()
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %v", urls(docs))
	}
	doc := docs[1]
	if doc.URL() != fresh {
		t.Errorf("inserted url = %q, want %q", doc.URL(), fresh)
	}
	if doc[store.FieldVisited] != true {
		t.Errorf("visited = %v, want true", doc[store.FieldVisited])
	}
	if doc[store.FieldSiteName] != "example" {
		t.Errorf("site_name = %v", doc[store.FieldSiteName])
	}
	if doc["title"] != "Fresh" {
		t.Errorf("title = %v, want Fresh", doc["title"])
	}
	if doc[store.FieldParsedDate] != "2024-05-02" {
		t.Errorf("parsed_date = %v", doc[store.FieldParsedDate])
	}

	if f.fetched(known) {
		t.Error("known article should not be fetched")
	}
	if !st.Closed() {
		t.Error("store should be closed after run")
	}

	if res.Stats.ListingsSkipped != 1 || res.Stats.ArticlesKnown != 1 || res.Stats.ArticlesInserted != 1 {
		t.Errorf("unexpected stats %+v", res.Stats)
	}
}

func TestRun_Idempotent(t *testing.T) {
	f := newScriptedFetcher().
		page("", homePage("/a/")).
		page("a/", listingPage(1, "", "/a/1.html", "/a/2.html")).
		page("a/1.html", articlePage("One", "2024-05-02")).
		page("a/2.html", articlePage("Two", "2024-05-01"))

	st := store.NewMemory()
	o, _ := newTestOrchestrator(t, f, st)

	first := o.Run(context.Background(), 5, "2024-01-01")
	if first.Status != StatusSucceeded || first.Stats.ArticlesInserted != 2 {
		t.Fatalf("first run: %s %+v %v", first.Status, first.Stats, first.Err)
	}

	f.calls = nil
	second := o.Run(context.Background(), 5, "2024-01-01")
	if second.Status != StatusSucceeded {
		t.Fatalf("second run failed: %v", second.Err)
	}
	if second.Stats.ArticlesInserted != 0 {
		t.Errorf("second run inserted %d documents", second.Stats.ArticlesInserted)
	}
	if f.fetched(baseURL+"a/1.html") || f.fetched(baseURL+"a/2.html") {
		t.Errorf("second run fetched article pages: %v", f.calls)
	}
	if len(st.Documents()) != 2 {
		t.Errorf("expected 2 documents, got %d", len(st.Documents()))
	}
	if first.RunID == second.RunID {
		t.Error("each run should get its own run id")
	}
}

func TestRun_PaginationBeforeNextSeed(t *testing.T) {
	f := newScriptedFetcher().
		page("", homePage("/a/", "/b/")).
		page("a/", listingPage(1, "/a/?page=2")).
		page("a/?page=2", listingPage(2, "")).
		page("b/", listingPage(1, ""))

	o, _ := newTestOrchestrator(t, f, store.NewMemory())

	res := o.Run(context.Background(), 0, "2024-01-01")
	if res.Status != StatusSucceeded {
		t.Fatalf("Run() error = %v", res.Err)
	}

	want := []string{baseURL, baseURL + "a/", baseURL + "a/?page=2", baseURL + "b/"}
	if len(f.calls) != len(want) {
		t.Fatalf("fetch order = %v, want %v", f.calls, want)
	}
	for i := range want {
		if f.calls[i] != want[i] {
			t.Errorf("fetch %d = %q, want %q", i, f.calls[i], want[i])
		}
	}
}

func TestRun_PageLimit(t *testing.T) {
	f := newScriptedFetcher().
		page("", homePage("/a/")).
		page("a/", listingPage(1, "/a/?page=2", "/a/1.html")).
		page("a/?page=2", listingPage(2, "/a/?page=3", "/a/2.html")).
		page("a/1.html", articlePage("One", "2024-05-02"))

	o, obs := newTestOrchestrator(t, f, store.NewMemory())

	res := o.Run(context.Background(), 1, "2024-01-01")
	if res.Status != StatusSucceeded {
		t.Fatalf("Run() error = %v", res.Err)
	}
	if f.fetched(baseURL + "a/2.html") {
		t.Error("article on a page past the limit was fetched")
	}
	if f.fetched(baseURL + "a/?page=3") {
		t.Error("pagination continued past the limit")
	}
	if res.Stats.PageLimitHits != 1 {
		t.Errorf("PageLimitHits = %d, want 1", res.Stats.PageLimitHits)
	}

	var hit bool
	for _, e := range obs.events {
		if e.Type == EventPageLimitReached && e.Count == 2 {
			hit = true
		}
	}
	if !hit {
		t.Errorf("expected page limit event for page 2, got %v", obs.types())
	}
}

func TestRun_DateLimitStopsBatch(t *testing.T) {
	f := newScriptedFetcher().
		page("", homePage("/a/")).
		page("a/", listingPage(1, "/a/?page=2", "/a/1.html", "/a/2.html", "/a/3.html")).
		page("a/1.html", articlePage("One", "2024-05-02")).
		page("a/2.html", articlePage("Two", "2023-12-30")).
		page("a/3.html", articlePage("Three", "2024-05-03"))

	st := store.NewMemory()
	o, _ := newTestOrchestrator(t, f, st)

	res := o.Run(context.Background(), 0, "2024-01-01")
	if res.Status != StatusSucceeded {
		t.Fatalf("Run() error = %v", res.Err)
	}

	got := urls(st.Documents())
	want := []string{baseURL + "a/1.html", baseURL + "a/2.html"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("stored %v, want %v", got, want)
	}
	if f.fetched(baseURL + "a/3.html") {
		t.Error("article after the date limit was fetched")
	}
	if f.fetched(baseURL + "a/?page=2") {
		t.Error("next page scheduled after the date limit")
	}
	if res.Stats.DateLimitHits != 1 {
		t.Errorf("DateLimitHits = %d, want 1", res.Stats.DateLimitHits)
	}
}

func TestRun_DateLimitSkipOutdated(t *testing.T) {
	f := newScriptedFetcher().
		page("", homePage("/a/")).
		page("a/", listingPage(1, "", "/a/1.html", "/a/2.html", "/a/3.html")).
		page("a/1.html", articlePage("One", "2024-05-02")).
		page("a/2.html", articlePage("Two", "2023-12-30")).
		page("a/3.html", articlePage("Three", "2024-05-03"))

	st := store.NewMemory()
	o, _ := newTestOrchestrator(t, f, st, WithSkipOutdated(true))

	res := o.Run(context.Background(), 0, "2024-01-01")
	if res.Status != StatusSucceeded {
		t.Fatalf("Run() error = %v", res.Err)
	}

	got := urls(st.Documents())
	if len(got) != 1 || got[0] != baseURL+"a/1.html" {
		t.Errorf("stored %v, want only the first article", got)
	}
	if f.fetched(baseURL + "a/3.html") {
		t.Error("article after the date limit was fetched")
	}
}

func TestRun_DateLimitResetsPerBatch(t *testing.T) {
	f := newScriptedFetcher().
		page("", homePage("/a/", "/b/")).
		page("a/", listingPage(1, "", "/a/old.html")).
		page("b/", listingPage(1, "", "/b/new.html")).
		page("a/old.html", articlePage("Old", "2020-01-01")).
		page("b/new.html", articlePage("New", "2024-05-02"))

	st := store.NewMemory()
	o, _ := newTestOrchestrator(t, f, st)

	res := o.Run(context.Background(), 0, "2024-01-01")
	if res.Status != StatusSucceeded {
		t.Fatalf("Run() error = %v", res.Err)
	}
	if !f.fetched(baseURL + "b/new.html") {
		t.Error("date limit on one listing should not stop the next seed")
	}
}

func TestRun_UndatedArticleDoesNotStop(t *testing.T) {
	f := newScriptedFetcher().
		page("", homePage("/a/")).
		page("a/", listingPage(1, "", "/a/1.html", "/a/2.html")).
		page("a/1.html", `<html><body><h1>No date</h1></body></html>`).
		page("a/2.html", articlePage("Two", "2024-05-02"))

	st := store.NewMemory()
	o, _ := newTestOrchestrator(t, f, st)

	res := o.Run(context.Background(), 0, "2024-01-01")
	if res.Status != StatusSucceeded {
		t.Fatalf("Run() error = %v", res.Err)
	}
	if len(st.Documents()) != 2 {
		t.Errorf("expected 2 documents, got %v", urls(st.Documents()))
	}
}

func TestRun_UsesCrawlAndScrapeOptions(t *testing.T) {
	f := newScriptedFetcher().
		page("", homePage("/a/")).
		page("a/", listingPage(1, "", "/a/1.html")).
		page("a/1.html", articlePage("One", "2024-05-02"))

	o, _ := newTestOrchestrator(t, f, store.NewMemory())
	if res := o.Run(context.Background(), 0, "2024-01-01"); res.Err != nil {
		t.Fatalf("Run() error = %v", res.Err)
	}

	for i, u := range f.calls {
		want := "false"
		if strings.HasSuffix(u, ".html") {
			want = "true"
		}
		if got := f.opts[i].Get("js_render"); got != want {
			t.Errorf("fetch %s js_render = %q, want %q", u, got, want)
		}
	}
}

func TestRun_SelfLinkingPaginationTerminates(t *testing.T) {
	f := newScriptedFetcher().
		page("", homePage("/a/")).
		page("a/", listingPage(1, "/a/"))

	o, _ := newTestOrchestrator(t, f, store.NewMemory())

	res := o.Run(context.Background(), 0, "2024-01-01")
	if res.Status != StatusSucceeded {
		t.Fatalf("Run() error = %v", res.Err)
	}
	if len(f.calls) != 2 {
		t.Errorf("expected 2 fetches, got %v", f.calls)
	}
}

func TestRun_FetchErrorAborts(t *testing.T) {
	f := newScriptedFetcher().
		page("", homePage("/a/", "/b/")).
		page("a/", listingPage(1, "", "/a/1.html", "/a/2.html", "/a/3.html")).
		page("a/1.html", articlePage("One", "2024-05-02")).
		page("a/3.html", articlePage("Three", "2024-05-02")).
		page("b/", listingPage(1, ""))
	f.errs[baseURL+"a/2.html"] = &fetcher.FetchError{URL: baseURL + "a/2.html", StatusCode: 503, Err: errors.New("unavailable")}

	st := store.NewMemory()
	o, obs := newTestOrchestrator(t, f, st)

	res := o.Run(context.Background(), 0, "2024-01-01")
	if res.Status != StatusFailed {
		t.Fatalf("expected failed run, got %s", res.Status)
	}
	if res.Kind() != KindFetch {
		t.Errorf("Kind() = %s, want fetch", res.Kind())
	}
	if res.Err.URL != baseURL+"a/2.html" {
		t.Errorf("RunError.URL = %q", res.Err.URL)
	}
	var fe *fetcher.FetchError
	if !errors.As(res.Error(), &fe) || fe.StatusCode != 503 {
		t.Errorf("expected wrapped FetchError with status 503, got %v", res.Err)
	}

	if got := urls(st.Documents()); len(got) != 1 {
		t.Errorf("documents before the failure should remain, got %v", got)
	}
	if f.fetched(baseURL+"a/3.html") || f.fetched(baseURL+"b/") {
		t.Error("run continued after a fetch error")
	}
	if !st.Closed() {
		t.Error("store should be closed after a failed run")
	}

	types := obs.types()
	if types[len(types)-1] != EventRunFailed {
		t.Errorf("last event = %s, want %s", types[len(types)-1], EventRunFailed)
	}
}

func TestRun_BasePageFetchError(t *testing.T) {
	f := newScriptedFetcher()
	st := store.NewMemory()
	opened := false
	o, err := New(Target{SiteName: "example", BaseURL: baseURL}, testPatterns(), testScrape(),
		WithFetcher(f),
		WithObserver(&recordingObserver{}),
		WithStore(func(ctx context.Context) (store.Store, error) {
			opened = true
			return st.Opener()(ctx)
		}),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res := o.Run(context.Background(), 0, "2024-01-01")
	if res.Kind() != KindFetch {
		t.Errorf("Kind() = %s, want fetch", res.Kind())
	}
	if opened {
		t.Error("store should not be opened before seeding succeeds")
	}
}

func TestRun_PatternErrorAborts(t *testing.T) {
	f := newScriptedFetcher().
		page("", homePage("/a/")).
		page("a/", `<html><body><div class="teaser-list"></div>
<ul class="pagination"><li class="active">erste</li></ul></body></html>`)

	st := store.NewMemory()
	o, _ := newTestOrchestrator(t, f, st)

	res := o.Run(context.Background(), 3, "2024-01-01")
	if res.Kind() != KindPattern {
		t.Fatalf("Kind() = %s, want pattern (err %v)", res.Kind(), res.Err)
	}
	var pe *PatternError
	if !errors.As(res.Error(), &pe) {
		t.Errorf("expected *PatternError, got %v", res.Err)
	}
	if !st.Closed() {
		t.Error("store should be closed")
	}
}

func TestRun_InvalidPatternIsPatternError(t *testing.T) {
	f := newScriptedFetcher().page("", homePage("/a/"))
	patterns := testPatterns()
	patterns.TopicsURLs = "//nav[@class="

	o, err := New(Target{SiteName: "example", BaseURL: baseURL}, patterns, testScrape(),
		WithFetcher(f), WithStore(store.NewMemory().Opener()), WithObserver(&recordingObserver{}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if res := o.Run(context.Background(), 0, "2024-01-01"); res.Kind() != KindPattern {
		t.Errorf("Kind() = %s, want pattern (err %v)", res.Kind(), res.Err)
	}
}

// failingStore fails inserts with a store error.
type failingStore struct {
	*store.Memory
}

func (s failingStore) Insert(context.Context, store.Document) error {
	return &store.StoreError{Op: "insert", Err: errors.New("connection reset")}
}

func TestRun_StoreErrorAborts(t *testing.T) {
	f := newScriptedFetcher().
		page("", homePage("/a/")).
		page("a/", listingPage(1, "", "/a/1.html", "/a/2.html")).
		page("a/1.html", articlePage("One", "2024-05-02")).
		page("a/2.html", articlePage("Two", "2024-05-02"))

	mem := store.NewMemory()
	fs := failingStore{mem}
	o, err := New(Target{SiteName: "example", BaseURL: baseURL}, testPatterns(), testScrape(),
		WithFetcher(f),
		WithObserver(&recordingObserver{}),
		WithStore(func(context.Context) (store.Store, error) { return fs, nil }),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res := o.Run(context.Background(), 0, "2024-01-01")
	if res.Kind() != KindStore {
		t.Fatalf("Kind() = %s, want store (err %v)", res.Kind(), res.Err)
	}
	if f.fetched(baseURL + "a/2.html") {
		t.Error("run continued after a store error")
	}
	if !mem.Closed() {
		t.Error("store should be closed")
	}
}

func TestRun_StoreOpenError(t *testing.T) {
	f := newScriptedFetcher().page("", homePage("/a/"))
	o, err := New(Target{SiteName: "example", BaseURL: baseURL}, testPatterns(), testScrape(),
		WithFetcher(f),
		WithObserver(&recordingObserver{}),
		WithStore(func(context.Context) (store.Store, error) {
			return nil, &store.StoreError{Op: "connect", Err: errors.New("refused")}
		}),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if res := o.Run(context.Background(), 0, "2024-01-01"); res.Kind() != KindStore {
		t.Errorf("Kind() = %s, want store", res.Kind())
	}
}

func TestRun_Cancelled(t *testing.T) {
	f := newScriptedFetcher().
		page("", homePage("/a/")).
		page("a/", listingPage(1, ""))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st := store.NewMemory()
	o, _ := newTestOrchestrator(t, f, st)

	res := o.Run(ctx, 0, "2024-01-01")
	if res.Kind() != KindUnclassified {
		t.Errorf("Kind() = %s, want unclassified", res.Kind())
	}
	if !errors.Is(res.Error(), context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", res.Err)
	}
	if len(f.calls) != 0 {
		t.Errorf("no page should be fetched, got %v", f.calls)
	}
}

func TestRun_PanicIsUnclassified(t *testing.T) {
	f := newScriptedFetcher().
		page("", homePage("/a/")).
		page("a/", listingPage(1, "", "/a/1.html"))
	f.panics[baseURL+"a/1.html"] = true

	st := store.NewMemory()
	o, _ := newTestOrchestrator(t, f, st)

	res := o.Run(context.Background(), 0, "2024-01-01")
	if res.Status != StatusFailed || res.Kind() != KindUnclassified {
		t.Errorf("got %s/%s, want failed/unclassified", res.Status, res.Kind())
	}
	if !st.Closed() {
		t.Error("store should be closed after a panic")
	}
}

func TestRun_EventsCarryRunID(t *testing.T) {
	f := newScriptedFetcher().
		page("", homePage("/a/")).
		page("a/", listingPage(1, "", "/a/1.html")).
		page("a/1.html", articlePage("One", "2024-05-02"))

	o, obs := newTestOrchestrator(t, f, store.NewMemory(), WithRunID("run-1"))

	res := o.Run(context.Background(), 0, "2024-01-01")
	if res.RunID != "run-1" {
		t.Errorf("RunID = %q, want run-1", res.RunID)
	}

	types := obs.types()
	if types[0] != EventRunStarted || types[len(types)-1] != EventRunFinished {
		t.Errorf("unexpected event sequence %v", types)
	}
	for _, e := range obs.events {
		if e.RunID != "run-1" || e.Site != "example" {
			t.Errorf("event %s has run %q site %q", e.Type, e.RunID, e.Site)
		}
	}
	for _, e := range obs.events {
		if e.Type == EventPageFetched && e.Title != "title of "+e.URL {
			t.Errorf("fetch event for %s has title %q", e.URL, e.Title)
		}
	}
	last := obs.events[len(obs.events)-1]
	if last.Result == nil || last.Result.Stats.ArticlesInserted != 1 {
		t.Errorf("finish event should carry the result, got %+v", last.Result)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"fetch", fmt.Errorf("wrapped: %w", &fetcher.FetchError{URL: "u", Err: errors.New("x")}), KindFetch},
		{"store", &store.StoreError{Op: "insert", Err: store.ErrDuplicate}, KindStore},
		{"pattern", &PatternError{Pattern: "p", Value: "v", Err: errNotANumber}, KindPattern},
		{"other", errors.New("surprise"), KindUnclassified},
		{"already classified", &RunError{Kind: KindStore, Err: errors.New("x")}, KindStore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify("u", tt.err); got.Kind != tt.want {
				t.Errorf("classify() kind = %s, want %s", got.Kind, tt.want)
			}
		})
	}
}

func TestRunError_Error(t *testing.T) {
	err := &RunError{Kind: KindFetch, URL: "https://x/", Err: errors.New("timeout")}
	if got := err.Error(); got != "fetch error at https://x/: timeout" {
		t.Errorf("Error() = %q", got)
	}
	err = &RunError{Kind: KindStore, Err: errors.New("closed")}
	if got := err.Error(); got != "store error: closed" {
		t.Errorf("Error() = %q", got)
	}
}
