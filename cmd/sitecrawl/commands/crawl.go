package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/sitecrawl/internal/config"
	"github.com/jmylchreest/sitecrawl/internal/crawler"
	"github.com/jmylchreest/sitecrawl/internal/logger"
	"github.com/jmylchreest/sitecrawl/internal/output"
	"github.com/jmylchreest/sitecrawl/internal/pattern"
	"github.com/jmylchreest/sitecrawl/internal/store"
	"github.com/jmylchreest/sitecrawl/pkg/fetcher"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl sites once and store new articles",
	Long: `Crawl each selected site once.

Every site run is independent: a failing site is reported with its error
class and the remaining sites still run. The command exits non-zero when
any site failed.

Examples:
  sitecrawl crawl --until 2024-01-01
  sitecrawl crawl --site faz --site tagesschau --max-pages 3 --until 2024-01-01
  sitecrawl crawl --site faz --until 2024-06-01 --dry-run --report json`,
	PreRunE: bindCrawlFlags,
	RunE:    runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)
	addCrawlFlags(crawlCmd)
}

// addCrawlFlags registers the flags shared by crawl and schedule.
func addCrawlFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringSliceP("site", "s", nil, "site(s) to crawl (default: all)")
	flags.String("sites-file", config.DefaultSitesFile, "site definitions file (overrides crawl.sites_file)")
	flags.Int("max-pages", config.DefaultMaxPages, "skip listing pages numbered above this, 0 for unlimited (overrides crawl.max_pages)")
	flags.String("until", "", "cutoff date YYYY-MM-DD; older articles stop a listing")
	flags.Bool("skip-outdated", false, "do not store the article that reaches the cutoff")
	flags.String("fetch-mode", "", "fetch mode: static, proxy, dynamic")
	flags.Bool("dry-run", false, "use an in-memory store instead of MongoDB")
	flags.String("report", "table", "run report format: table, json, jsonl, yaml")
}

func bindCrawlFlags(cmd *cobra.Command, _ []string) error {
	return bindFlags(cmd, map[string]string{
		"sites-file":    "crawl.sites_file",
		"max-pages":     "crawl.max_pages",
		"until":         "crawl.until_date",
		"skip-outdated": "crawl.skip_outdated",
		"fetch-mode":    "fetch.mode",
	})
}

// crawlPlan is everything needed to crawl a set of sites.
type crawlPlan struct {
	app     config.App
	sites   []config.Site
	fetcher fetcher.Fetcher
	store   store.Opener
	memory  *store.Memory // dry runs only
	format  output.Format
	out     io.Writer
}

func newCrawlPlan(cmd *cobra.Command) (*crawlPlan, error) {
	app, err := setup()
	if err != nil {
		return nil, err
	}
	if app.Crawl.UntilDate == "" {
		return nil, errors.New("a cutoff date is required (--until or crawl.until_date)")
	}

	format, err := output.ParseFormat(mustString(cmd, "report"))
	if err != nil {
		return nil, err
	}

	all, err := config.LoadSites(app.Crawl.SitesFile)
	if err != nil {
		logger.Error("failed to load sites", "file", app.Crawl.SitesFile, "error", err)
		return nil, err
	}
	names, _ := cmd.Flags().GetStringSlice("site")
	sites, err := config.SelectSites(all, names)
	if err != nil {
		return nil, err
	}

	f, err := fetcher.New(app.Fetch.Fetcher())
	if err != nil {
		logger.Error("failed to create fetcher", "mode", app.Fetch.Mode, "error", err)
		return nil, err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	opener, memory := storeFor(app.Mongo, dryRun)

	logger.Debug("crawl plan",
		"sites", len(sites),
		"fetch_mode", f.Type(),
		"max_pages", app.Crawl.MaxPages,
		"until", app.Crawl.UntilDate,
	)

	return &crawlPlan{
		app:     app,
		sites:   sites,
		fetcher: f,
		store:   opener,
		memory:  memory,
		format:  format,
		out:     os.Stdout,
	}, nil
}

// storeFor returns the MongoDB opener, or an in-memory store for dry runs.
func storeFor(mongo store.MongoConfig, dryRun bool) (store.Opener, *store.Memory) {
	if !dryRun {
		return store.MongoOpener(mongo), nil
	}
	logger.Info("dry run, articles are kept in memory")
	mem := store.NewMemory()
	return mem.Opener(), mem
}

func (p *crawlPlan) Close() {
	if err := p.fetcher.Close(); err != nil {
		logger.Warn("closing fetcher", "error", err)
	}
}

// run crawls every site in order. One site's failure does not stop the
// others.
func (p *crawlPlan) run(ctx context.Context) []crawler.Result {
	matcher := pattern.NewXPath()
	results := make([]crawler.Result, 0, len(p.sites))

	for _, site := range p.sites {
		if ctx.Err() != nil {
			logger.Warn("crawl interrupted", "remaining_sites", len(p.sites)-len(results))
			break
		}

		o, err := crawler.New(site.Target, site.Patterns, site.Scrape,
			crawler.WithFetcher(p.fetcher),
			crawler.WithStore(p.store),
			crawler.WithPatternExtractor(matcher),
			crawler.WithSkipOutdated(p.app.Crawl.SkipOutdated),
		)
		if err != nil {
			results = append(results, crawler.Result{
				Site:   site.SiteName,
				Status: crawler.StatusFailed,
				Err:    &crawler.RunError{Kind: crawler.KindUnclassified, URL: site.BaseURL, Err: err},
			})
			continue
		}

		results = append(results, o.Run(ctx, p.app.Crawl.MaxPages, p.app.Crawl.UntilDate))
	}
	if p.memory != nil {
		logger.Info("dry run finished", "articles_kept", len(p.memory.Documents()))
	}
	return results
}

func runCrawl(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	plan, err := newCrawlPlan(cmd)
	if err != nil {
		return err
	}
	defer plan.Close()

	results := plan.run(ctx)
	if err := writeReport(plan.out, plan.format, results); err != nil {
		return err
	}
	return failures(results)
}

// failures returns an error naming the failed sites, if any.
func failures(results []crawler.Result) error {
	var errs []error
	for _, r := range results {
		if err := r.Error(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Site, err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d sites failed: %w", len(errs), len(results), errors.Join(errs...))
}

// runReport is one line of the crawl report.
type runReport struct {
	Site     string        `json:"site" yaml:"site"`
	RunID    string        `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Status   string        `json:"status" yaml:"status"`
	Kind     string        `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
	Stats    crawler.Stats `json:"stats" yaml:"stats"`
	Duration string        `json:"duration" yaml:"duration"`
}

func newRunReport(r crawler.Result) runReport {
	rep := runReport{
		Site:     r.Site,
		RunID:    r.RunID,
		Status:   string(r.Status),
		Stats:    r.Stats,
		Duration: r.Duration.Round(time.Millisecond).String(),
	}
	if err := r.Error(); err != nil {
		rep.Kind = string(r.Kind())
		rep.Error = err.Error()
	}
	return rep
}

func (r runReport) TableHeader() []string {
	return []string{"Site", "Status", "Listings", "Stored", "Known", "Fetched", "Duration", "Error"}
}

func (r runReport) TableRow() []any {
	errText := ""
	if r.Kind != "" {
		errText = r.Kind + ": " + r.Error
	}
	return []any{
		r.Site,
		r.Status,
		r.Stats.ListingsCrawled,
		r.Stats.ArticlesInserted,
		r.Stats.ArticlesKnown,
		humanize.Bytes(uint64(r.Stats.BytesFetched)),
		r.Duration,
		errText,
	}
}

func writeReport(out io.Writer, format output.Format, results []crawler.Result) error {
	w, err := output.NewWriter(out, format, output.WithTitle("Crawl report"))
	if err != nil {
		return err
	}
	reports := make([]runReport, len(results))
	for i, r := range results {
		reports[i] = newRunReport(r)
	}
	return output.WriteAll(w, reports)
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}
