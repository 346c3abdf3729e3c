package crawler

import (
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/sitecrawl/internal/logger"
)

// EventType names a point in the crawl lifecycle.
type EventType string

const (
	EventRunStarted       EventType = "run_started"
	EventSeedsFound       EventType = "seeds_found"
	EventPageFetched      EventType = "page_fetched"
	EventPageCrawling     EventType = "page_crawling"
	EventPageSkipped      EventType = "page_skipped"
	EventPageLimitReached EventType = "page_limit_reached"
	EventArticleKnown     EventType = "article_known"
	EventArticleIngested  EventType = "article_ingested"
	EventArticleOutdated  EventType = "article_outdated"
	EventDateLimitReached EventType = "date_limit_reached"
	EventNextPage         EventType = "next_page"
	EventLastPage         EventType = "last_page"
	EventRunFailed        EventType = "run_failed"
	EventRunFinished      EventType = "run_finished"
)

// Event is emitted to an Observer. Only the fields relevant to Type are set.
type Event struct {
	Type   EventType
	RunID  string
	Site   string
	URL    string
	Detail string
	Title  string
	Count  int
	Bytes  int64
	Err    error
	Result *Result
}

// Observer receives crawl events. Observe is called synchronously from the
// crawl goroutine and must not block.
type Observer interface {
	Observe(Event)
}

// LogObserver writes events as structured log lines through the package
// logger, scoped to the event's run.
type LogObserver struct{}

// NewLogObserver creates a LogObserver.
func NewLogObserver() *LogObserver {
	return &LogObserver{}
}

func (o *LogObserver) Observe(e Event) {
	log := logger.WithRun(e.RunID, e.Site)

	switch e.Type {
	case EventRunStarted:
		log.Info("crawl started", "base_url", e.URL)
	case EventSeedsFound:
		log.Info("start urls discovered", "count", e.Count)
	case EventPageFetched:
		log.Debug("fetched", "url", e.URL, "title", e.Title, "size", humanize.Bytes(uint64(e.Bytes)))
	case EventPageCrawling:
		log.Info("crawling", "url", e.URL, "queued", e.Count)
	case EventPageSkipped:
		log.Info("skipping page", "url", e.URL, "reason", e.Detail)
	case EventPageLimitReached:
		log.Info("page limit reached", "url", e.URL, "page", e.Count)
	case EventArticleKnown:
		log.Debug("article already stored", "url", e.URL)
	case EventArticleIngested:
		log.Info("article stored", "url", e.URL, "date", e.Detail)
	case EventArticleOutdated:
		log.Info("article older than cutoff not stored", "url", e.URL, "date", e.Detail)
	case EventDateLimitReached:
		log.Info("date limit reached", "url", e.URL, "date", e.Detail)
	case EventNextPage:
		log.Debug("next page queued", "url", e.URL, "next", e.Detail)
	case EventLastPage:
		log.Debug("no next page", "url", e.URL, "reason", e.Detail)
	case EventRunFailed:
		args := []any{"error", e.Err}
		if e.Result != nil {
			args = append(args, "kind", e.Result.Kind(), "duration", e.Result.Duration)
		}
		log.Error("crawl failed", args...)
	case EventRunFinished:
		if e.Result == nil {
			log.Info("crawl finished")
			return
		}
		s := e.Result.Stats
		log.Info("crawl finished",
			"listings", s.ListingsCrawled,
			"inserted", s.ArticlesInserted,
			"known", s.ArticlesKnown,
			"fetched", humanize.Bytes(uint64(s.BytesFetched)),
			"duration", e.Result.Duration,
		)
	default:
		log.Debug(string(e.Type), "url", e.URL, "detail", e.Detail)
	}
}
