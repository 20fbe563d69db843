package domain

import (
	"strconv"
	"time"
)

// DateLayout is the calendar date format used for discovered_at and last_seen.
const DateLayout = "2006-01-02"

// PageRecord is one entry of the page manifest produced by a crawl.
// Records are immutable once written and unique by URL within a crawl run.
type PageRecord struct {
	// URL is the fetched address (fragment stripped).
	URL string `json:"url"`

	// StatusCode is the HTTP status of the fetch (always 200 in a manifest).
	StatusCode int `json:"status_code"`

	// Title is the page title.
	Title string `json:"title"`

	// LastModified is the Last-Modified response header, if present.
	LastModified *string `json:"last_modified"`

	// DiscoveredAt is the crawl date (YYYY-MM-DD).
	DiscoveredAt string `json:"discovered_at"`

	// ContentHash is the hex SHA-256 of the cleaned page text.
	// Reserved for change detection.
	ContentHash string `json:"content_hash"`

	// Outlinks are the in-scope links found on the page, sorted and unique.
	Outlinks []string `json:"outlinks"`

	// Depth is the link distance from the root (0 for root and sitemap seeds).
	Depth int `json:"depth"`
}

// FormatDate renders t in DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// RowKey returns the docstore key for an index row.
func RowKey(row int) string {
	return strconv.Itoa(row)
}
