package driven

import (
	"context"

	"github.com/custodia-labs/sitesage/internal/core/domain"
)

// PageFetcher retrieves a single URL.
// Implementations enforce the crawl rate ceiling across every call,
// including sitemap and robots.txt fetches.
type PageFetcher interface {
	// Fetch performs a GET and returns the response regardless of status.
	// An error means no response was obtained (network, timeout, cancel).
	Fetch(ctx context.Context, url string) (*domain.RawPage, error)
}

// RobotsPolicy decides whether a URL may be fetched.
type RobotsPolicy interface {
	// Allowed reports whether the configured user agent may fetch url.
	// Rules that cannot be retrieved allow everything.
	Allowed(ctx context.Context, url string) bool
}
