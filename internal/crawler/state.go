package crawler

import "time"

// Stats counts what happened during a run.
type Stats struct {
	Seeds            int   `json:"seeds" yaml:"seeds"`
	PagesFetched     int   `json:"pages_fetched" yaml:"pages_fetched"`
	ListingsCrawled  int   `json:"listings_crawled" yaml:"listings_crawled"`
	ListingsSkipped  int   `json:"listings_skipped" yaml:"listings_skipped"`
	PageLimitHits    int   `json:"page_limit_hits" yaml:"page_limit_hits"`
	ArticlesSeen     int   `json:"articles_seen" yaml:"articles_seen"`
	ArticlesKnown    int   `json:"articles_known" yaml:"articles_known"`
	ArticlesInserted int   `json:"articles_inserted" yaml:"articles_inserted"`
	DateLimitHits    int   `json:"date_limit_hits" yaml:"date_limit_hits"`
	BytesFetched     int64 `json:"bytes_fetched" yaml:"bytes_fetched"`
}

// RunState is the mutable state of one run. It is created by Run and
// discarded when the run ends.
type RunState struct {
	RunID    string
	Frontier *Frontier

	// DateLimitReached is scoped to the article batch of the current
	// listing page.
	DateLimitReached bool

	Stats Stats

	visited map[string]struct{}
}

// NewRunState creates an empty run state.
func NewRunState(runID string) *RunState {
	return &RunState{
		RunID:    runID,
		Frontier: NewFrontier(),
		visited:  make(map[string]struct{}),
	}
}

func (s *RunState) markVisited(url string) {
	s.visited[url] = struct{}{}
}

func (s *RunState) isVisited(url string) bool {
	_, ok := s.visited[url]
	return ok
}

// Status is the outcome of a run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Result is returned by Run. Err is nil on success and a *RunError otherwise.
type Result struct {
	Site     string        `json:"site" yaml:"site"`
	RunID    string        `json:"run_id" yaml:"run_id"`
	Status   Status        `json:"status" yaml:"status"`
	Err      *RunError     `json:"-" yaml:"-"`
	Stats    Stats         `json:"stats" yaml:"stats"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Kind returns the error class of a failed run, or "" on success.
func (r Result) Kind() ErrorKind {
	if r.Err == nil {
		return ""
	}
	return r.Err.Kind
}

// Error returns the run error, or nil on success.
func (r Result) Error() error {
	if r.Err == nil {
		return nil
	}
	return r.Err
}
