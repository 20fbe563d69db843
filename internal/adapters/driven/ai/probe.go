package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sitesage/internal/core/domain"
	"github.com/custodia-labs/sitesage/internal/core/ports/driven"
)

var _ driven.ProviderProbe = (*Probe)(nil)

// Probe builds a throwaway client for the given settings, pings it and
// closes it again.
type Probe struct {
	timeout time.Duration
}

// NewProbe creates a probe. A non-positive timeout uses pingTimeout.
func NewProbe(timeout time.Duration) *Probe {
	if timeout <= 0 {
		timeout = pingTimeout
	}
	return &Probe{timeout: timeout}
}

// ProbeEmbedding pings the embedding provider described by cfg.
func (p *Probe) ProbeEmbedding(ctx context.Context, cfg *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(cfg)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %s at %s did not answer (%w)",
			domain.ErrEmbeddingUnavailable, cfg.Provider, endpoint(cfg.Provider, cfg.BaseURL), err)
	}
	return nil
}

// ProbeLLM pings the LLM provider described by cfg.
func (p *Probe) ProbeLLM(ctx context.Context, cfg *domain.LLMSettings) error {
	svc, err := CreateLLMService(cfg)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %s at %s did not answer (%w)",
			domain.ErrLLMUnavailable, cfg.Provider, endpoint(cfg.Provider, cfg.BaseURL), err)
	}
	return nil
}

// endpoint names where a provider is reached, for error messages.
func endpoint(provider domain.AIProvider, baseURL string) string {
	if baseURL != "" {
		return baseURL
	}
	return provider.Description() + " default endpoint"
}
