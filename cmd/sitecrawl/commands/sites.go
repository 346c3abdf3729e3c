package commands

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/sitecrawl/internal/config"
	"github.com/jmylchreest/sitecrawl/internal/output"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List and validate site definitions",
	Long: `Load the sites file, validate every definition and list the sites.

Examples:
  sitecrawl sites
  sitecrawl sites --sites-file ./config/sites.yaml --format yaml`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return bindFlags(cmd, map[string]string{"sites-file": "crawl.sites_file"})
	},
	RunE: runSites,
}

func init() {
	rootCmd.AddCommand(sitesCmd)

	flags := sitesCmd.Flags()
	flags.String("sites-file", "", "site definitions file (default sites.yaml)")
	flags.String("format", "table", "output format: table, json, jsonl, yaml")
}

// siteRow summarizes a site definition.
type siteRow struct {
	Name        string   `json:"site_name" yaml:"site_name"`
	BaseURL     string   `json:"base_url" yaml:"base_url"`
	Paginated   bool     `json:"paginated" yaml:"paginated"`
	PageLimited bool     `json:"page_limited" yaml:"page_limited"`
	Fields      []string `json:"fields" yaml:"fields"`
	Blacklisted int      `json:"blacklisted" yaml:"blacklisted"`
}

func newSiteRow(s config.Site) siteRow {
	return siteRow{
		Name:        s.SiteName,
		BaseURL:     s.BaseURL,
		Paginated:   s.Patterns.NextPage != "",
		PageLimited: s.Patterns.ActivePage != "",
		Fields:      s.Scrape.Names(),
		Blacklisted: len(s.BlacklistedURLs) + len(s.BlacklistedURLPatterns),
	}
}

func (r siteRow) TableHeader() []string {
	return []string{"Site", "Base URL", "Paginated", "Page limit", "Fields", "Blacklisted"}
}

func (r siteRow) TableRow() []any {
	return []any{r.Name, r.BaseURL, yesNo(r.Paginated), yesNo(r.PageLimited), strings.Join(r.Fields, ", "), r.Blacklisted}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func runSites(cmd *cobra.Command, _ []string) error {
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
		return err
	}

	rows := make([]siteRow, len(sites))
	for i, s := range sites {
		rows[i] = newSiteRow(s)
	}

	w, err := output.NewWriter(os.Stdout, format, output.WithTitle(app.Crawl.SitesFile))
	if err != nil {
		return err
	}
	return output.WriteAll(w, rows)
}
