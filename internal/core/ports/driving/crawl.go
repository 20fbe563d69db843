package driving

import (
	"context"

	"github.com/custodia-labs/sitesage/internal/core/domain"
)

// CrawlService discovers site pages and writes the page manifest.
type CrawlService interface {
	// Crawl runs a full crawl from the configured root.
	// Individual URL failures become skips in the report; the returned
	// error is reserved for failures that stop the whole run.
	Crawl(ctx context.Context) (*domain.CrawlReport, error)
}

// CurationService turns the page manifest into a published knowledge base.
type CurationService interface {
	// Curate re-fetches, chunks, tags and embeds every manifested page,
	// then publishes the result. Returns domain.ErrEmptyBuild when no
	// page produced a chunk.
	Curate(ctx context.Context) (*domain.CurationReport, error)
}

// RefreshService crawls the site and rebuilds the knowledge base in one step.
type RefreshService interface {
	// Refresh runs a crawl, then curation, then reloads the retriever.
	// Returns domain.ErrRefreshInProgress if another refresh is running.
	Refresh(ctx context.Context) (*domain.RefreshReport, error)
}
