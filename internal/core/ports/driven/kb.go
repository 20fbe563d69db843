package driven

import (
	"context"

	"github.com/custodia-labs/sitesage/internal/core/domain"
)

// KnowledgeBase is one loaded index/docstore pair with its manifest.
// All three always come from the same published version.
type KnowledgeBase struct {
	Manifest domain.KBManifest
	Index    VectorIndex
	Docstore domain.Docstore
}

// KnowledgeBaseStore persists knowledge base versions.
// Publishing is all-or-nothing: readers see either the previous
// version or the new one, never a mix.
type KnowledgeBaseStore interface {
	// Publish writes a new version and atomically makes it current.
	Publish(ctx context.Context, build *domain.KBBuild) (domain.KBManifest, error)

	// Open loads the current version. When no version has been published
	// it returns an empty placeholder of the given dimension.
	Open(ctx context.Context, dimensions int) (*KnowledgeBase, error)

	// Current returns the manifest of the current version without loading it.
	// Returns domain.ErrNotFound when nothing has been published.
	Current(ctx context.Context) (domain.KBManifest, error)

	// PointerPath is the file whose replacement signals a new version.
	PointerPath() string
}

// PageManifestStore persists the page manifest produced by a crawl.
type PageManifestStore interface {
	// SavePages replaces the manifest with pages.
	SavePages(ctx context.Context, pages []domain.PageRecord) error

	// LoadPages returns the manifest.
	// Returns domain.ErrNoManifest when no crawl has completed.
	LoadPages(ctx context.Context) ([]domain.PageRecord, error)
}
