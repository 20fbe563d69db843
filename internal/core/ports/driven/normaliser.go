package driven

import (
	"context"

	"github.com/custodia-labs/sitesage/internal/core/domain"
)

// Normaliser transforms fetched pages into cleaned documents.
// The crawler and curation use the same normaliser so both stages
// see identical text for the same bytes.
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Normalise extracts title, cleaned text and outbound links.
	Normalise(ctx context.Context, raw *domain.RawPage) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
// Chunking is handled by the PostProcessor pipeline.
type NormaliseResult struct {
	// Document is the normalised page.
	Document domain.Document
}
