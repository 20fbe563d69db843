package driving

import (
	"context"

	"github.com/custodia-labs/sitesage/internal/core/domain"
)

// Retriever answers nearest-neighbour queries against the current
// knowledge base.
type Retriever interface {
	// Search returns up to k hits ordered by descending score.
	// k must be positive. An empty knowledge base yields no hits.
	Search(ctx context.Context, query string, k int) ([]domain.Hit, error)

	// Reload swaps in the currently published knowledge base.
	// On failure the previously loaded one stays in service.
	Reload(ctx context.Context) error

	// Manifest describes the knowledge base currently in service.
	Manifest() domain.KBManifest
}
