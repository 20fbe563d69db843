package domain

import "time"

// SkipReason explains why a URL or page contributed nothing to a run.
type SkipReason string

// Skip reasons shared by crawl and curation.
const (
	SkipRobotsDisallowed SkipReason = "robots_disallowed"
	SkipOutOfScope       SkipReason = "out_of_scope"
	SkipHTTPStatus       SkipReason = "http_status"
	SkipNotHTML          SkipReason = "not_html"
	SkipFetchError       SkipReason = "fetch_error"
	SkipParseError       SkipReason = "parse_error"
	SkipNoContent        SkipReason = "no_content"
)

// Skip records one item that was dropped without aborting the run.
type Skip struct {
	URL    string     `json:"url"`
	Reason SkipReason `json:"reason"`
	Detail string     `json:"detail,omitempty"`
}

// CrawlOutcome is the per-URL result of a crawl step:
// either a page record or a skip with a reason.
type CrawlOutcome struct {
	URL   string
	Depth int
	Page  *PageRecord
	Skip  *Skip
}

// OK reports whether the outcome produced a page.
func (o CrawlOutcome) OK() bool {
	return o.Page != nil
}

// CrawlReport summarises a crawl run.
type CrawlReport struct {
	Root       string       `json:"root"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Pages      []PageRecord `json:"pages"`
	Skipped    []Skip       `json:"skipped"`
}

// CurationOutcome is the per-page result of curation.
type CurationOutcome struct {
	URL    string
	Chunks []Chunk
	Skip   *Skip
}

// CurationReport summarises a curation run.
type CurationReport struct {
	Manifest KBManifest `json:"manifest"`
	Pages    int        `json:"pages"`
	Indexed  int        `json:"indexed"`
	Skipped  []Skip     `json:"skipped"`
}

// RefreshReport summarises a crawl followed by a knowledge base rebuild.
type RefreshReport struct {
	Crawl    *CrawlReport    `json:"crawl"`
	Curation *CurationReport `json:"curation"`
}
