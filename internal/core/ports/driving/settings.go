package driving

import (
	"context"

	"github.com/custodia-labs/sitesage/internal/core/domain"
)

// SettingsService reads and edits the layered configuration
// (defaults, then config.toml, then the environment).
type SettingsService interface {
	Get() (*domain.AppSettings, error)
	Save(settings *domain.AppSettings) error
	GetDefaults() domain.AppSettings

	// SetSiteRoot stores the crawl root. Only http(s) URLs with a host are accepted.
	SetSiteRoot(root string) error

	// SetEmbeddingProvider and SetLLMProvider persist a provider choice
	// without contacting it. Use the Probe methods to check reachability.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate checks that the settings are complete enough to crawl,
	// curate and answer.
	Validate() error

	ProbeEmbedding(ctx context.Context) error
	ProbeLLM(ctx context.Context) error
}
