package driven

import (
	"context"

	"github.com/custodia-labs/sitesage/internal/core/domain"
)

// ProviderProbe checks that a provider answers before its settings are
// trusted. A provider that is not configured passes.
type ProviderProbe interface {
	ProbeEmbedding(ctx context.Context, cfg *domain.EmbeddingSettings) error
	ProbeLLM(ctx context.Context, cfg *domain.LLMSettings) error
}
