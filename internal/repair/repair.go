// Package repair backfills parsed_date on stored articles that were
// ingested before their date could be extracted.
package repair

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmylchreest/sitecrawl/internal/article"
	"github.com/jmylchreest/sitecrawl/internal/logger"
	"github.com/jmylchreest/sitecrawl/internal/store"
	"github.com/jmylchreest/sitecrawl/pkg/fetcher"
)

// LegacyDateField is the raw date field written by older ingestions. It is
// removed from every repaired document.
const LegacyDateField = "published_date"

// Job describes which site to repair and how to re-extract its articles.
type Job struct {
	SiteName string
	Options  fetcher.Options
	Patterns article.ScrapePatterns
}

// Report summarizes a repair run.
type Report struct {
	Site     string        `json:"site" yaml:"site"`
	Found    int           `json:"found" yaml:"found"`
	Updated  int           `json:"updated" yaml:"updated"`
	Dated    int           `json:"dated" yaml:"dated"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Repairer re-fetches undated articles and rewrites their fields.
type Repairer struct {
	fetcher   fetcher.Fetcher
	openStore store.Opener
	matcher   article.Matcher
}

// New creates a Repairer.
func New(f fetcher.Fetcher, open store.Opener, m article.Matcher) (*Repairer, error) {
	if f == nil || open == nil || m == nil {
		return nil, errors.New("repair: fetcher, store and matcher are required")
	}
	return &Repairer{fetcher: f, openStore: open, matcher: m}, nil
}

// Run repairs every visited document of the job's site that has no
// parsed_date. It stops at the first fetch, extraction or store error;
// documents updated before that stay updated.
func (r *Repairer) Run(ctx context.Context, job Job) (Report, error) {
	start := time.Now()
	report := Report{Site: job.SiteName}
	log := logger.With("site", job.SiteName)

	st, err := r.openStore(ctx)
	if err != nil {
		return report, err
	}
	defer func() {
		if err := st.Close(context.WithoutCancel(ctx)); err != nil {
			log.Warn("closing store", "error", err)
		}
	}()

	docs, err := st.FindMissingDate(ctx, job.SiteName)
	if err != nil {
		return report, err
	}
	report.Found = len(docs)
	log.Info("documents without parsed date", "count", len(docs))

	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return r.finish(report, start), err
		}
		url := doc.URL()
		log.Info("repairing", "url", url, "progress", fmt.Sprintf("%d/%d", i+1, len(docs)))

		page, err := r.fetcher.Fetch(ctx, url, job.Options)
		if err != nil {
			return r.finish(report, start), err
		}
		fields, err := article.Extract(r.matcher, page.HTML, job.Patterns)
		if err != nil {
			return r.finish(report, start), fmt.Errorf("extract %s: %w", url, err)
		}
		if err := st.UpdateFields(ctx, url, fields, []string{LegacyDateField}); err != nil {
			return r.finish(report, start), err
		}

		report.Updated++
		if date, ok := fields.Date(); ok {
			report.Dated++
			log.Debug("date repaired", "url", url, "date", date)
		} else {
			log.Warn("no date found", "url", url)
		}
	}

	return r.finish(report, start), nil
}

func (r *Repairer) finish(report Report, start time.Time) Report {
	report.Duration = time.Since(start)
	return report
}
