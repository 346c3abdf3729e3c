package commands

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/sitecrawl/internal/config"
	"github.com/jmylchreest/sitecrawl/internal/logger"
	"github.com/jmylchreest/sitecrawl/internal/output"
	"github.com/jmylchreest/sitecrawl/internal/pattern"
	"github.com/jmylchreest/sitecrawl/internal/repair"
	"github.com/jmylchreest/sitecrawl/internal/store"
	"github.com/jmylchreest/sitecrawl/pkg/fetcher"
)

var repairCmd = &cobra.Command{
	Use:   "repair-dates",
	Short: "Re-extract articles stored without a parsed date",
	Long: `Find a site's stored articles that have no parsed_date, fetch them again
with the site's scrape options and overwrite their fields with a fresh
extraction. The legacy published_date field is removed.

The run stops at the first fetch or database error.

Examples:
  sitecrawl repair-dates --site faz
  sitecrawl repair-dates --site faz --fetch-mode proxy --format json`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return bindFlags(cmd, map[string]string{
			"sites-file": "crawl.sites_file",
			"fetch-mode": "fetch.mode",
		})
	},
	RunE: runRepair,
}

func init() {
	rootCmd.AddCommand(repairCmd)

	flags := repairCmd.Flags()
	flags.StringP("site", "s", "", "site to repair (required)")
	flags.String("sites-file", "", "site definitions file (default sites.yaml)")
	flags.String("fetch-mode", "", "fetch mode: static, proxy, dynamic")
	flags.String("format", "table", "report format: table, json, jsonl, yaml")

	_ = repairCmd.MarkFlagRequired("site")
}

type repairRow struct {
	repair.Report `yaml:",inline"`
}

func (r repairRow) TableHeader() []string {
	return []string{"Site", "Found", "Updated", "Dated", "Duration"}
}

func (r repairRow) TableRow() []any {
	return []any{r.Site, r.Found, r.Updated, r.Dated, r.Duration.Round(time.Millisecond).String()}
}

func runRepair(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	app, err := setup()
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(mustString(cmd, "format"))
	if err != nil {
		return err
	}

	sites, err := config.LoadSites(app.Crawl.SitesFile)
	if err != nil {
		logger.Error("failed to load sites", "file", app.Crawl.SitesFile, "error", err)
		return err
	}
	selected, err := config.SelectSites(sites, []string{mustString(cmd, "site")})
	if err != nil {
		return err
	}
	site := selected[0]

	f, err := fetcher.New(app.Fetch.Fetcher())
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := repair.New(f, store.MongoOpener(app.Mongo), pattern.NewXPath())
	if err != nil {
		return err
	}

	report, runErr := r.Run(ctx, repair.Job{
		SiteName: site.SiteName,
		Options:  site.ScrapeOptions,
		Patterns: site.Scrape,
	})
	if runErr != nil {
		logger.Error("date repair aborted", "site", site.SiteName, "updated", report.Updated, "error", runErr)
	}

	w, err := output.NewWriter(os.Stdout, format, output.WithTitle("Date repair"))
	if err != nil {
		return err
	}
	if err := output.WriteAll(w, []repairRow{{report}}); err != nil {
		return err
	}
	return runErr
}
