package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/sitesage/internal/core/domain"
	"github.com/custodia-labs/sitesage/internal/core/ports/driving"
	"github.com/custodia-labs/sitesage/internal/logger"
)

// Ensure Refresher implements the interface.
var _ driving.RefreshService = (*Refresher)(nil)

// Refresher runs crawl and curation back to back.
// Only one refresh runs at a time; a second caller is turned away
// rather than queued.
type Refresher struct {
	crawler   driving.CrawlService
	curator   driving.CurationService
	retriever driving.Retriever

	mu sync.Mutex
}

// NewRefresher creates a refresher. retriever may be nil when no
// query-time service runs in this process.
func NewRefresher(crawler driving.CrawlService, curator driving.CurationService, retriever driving.Retriever) *Refresher {
	return &Refresher{
		crawler:   crawler,
		curator:   curator,
		retriever: retriever,
	}
}

// Refresh crawls, rebuilds and reloads the knowledge base.
// When the reload fails the report is still returned with the error,
// since the new knowledge base has been published.
func (r *Refresher) Refresh(ctx context.Context) (*domain.RefreshReport, error) {
	if !r.mu.TryLock() {
		return nil, domain.ErrRefreshInProgress
	}
	defer r.mu.Unlock()

	logger.Section("Refresh")

	crawl, err := r.crawler.Crawl(ctx)
	if err != nil {
		return nil, fmt.Errorf("crawl: %w", err)
	}
	report := &domain.RefreshReport{Crawl: crawl}

	curation, err := r.curator.Curate(ctx)
	if err != nil {
		return report, fmt.Errorf("curate: %w", err)
	}
	report.Curation = curation

	if r.retriever != nil {
		if err := r.retriever.Reload(ctx); err != nil {
			return report, fmt.Errorf("reload: %w", err)
		}
	}

	logger.Info("Refresh complete: %d pages crawled, %d chunks indexed (version %s)",
		len(crawl.Pages), curation.Indexed, curation.Manifest.Version)
	return report, nil
}
