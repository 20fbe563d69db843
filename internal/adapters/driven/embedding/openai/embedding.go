// Package openai embeds text through the OpenAI embeddings API or any
// server that speaks it.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/sitesage/internal/core/domain"
	"github.com/custodia-labs/sitesage/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL  = "https://api.openai.com/v1"
	DefaultModel    = "text-embedding-3-small"
	DefaultTimeout  = 60 * time.Second
	DefaultMaxBatch = 256

	fallbackDimensions = 1536
)

// nativeDimensions is each known model's full vector size.
var nativeDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config selects the endpoint and model. APIKey is required.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	// Dimensions shortens text-embedding-3 vectors. For other models it
	// only declares the size the server returns.
	Dimensions int

	// MaxBatch caps the inputs sent in one request.
	MaxBatch int
}

type EmbeddingService struct {
	client     *openai.Client
	model      string
	dimensions int
	shortened  bool
	maxBatch   int
}

func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = DefaultMaxBatch
	}

	dims := cfg.Dimensions
	if dims <= 0 {
		dims = nativeDimensions[cfg.Model]
		if dims == 0 {
			dims = fallbackDimensions
		}
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &EmbeddingService{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		dimensions: dims,
		shortened:  cfg.Dimensions > 0 && shortenable(cfg.Model),
		maxBatch:   cfg.MaxBatch,
	}, nil
}

func shortenable(model string) bool {
	return model == "text-embedding-3-small" || model == "text-embedding-3-large"
}

func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch returns one vector per text in input order, whatever order
// the server lists them in.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += s.maxBatch {
		end := min(start+s.maxBatch, len(texts))
		if err := s.embedInto(ctx, texts[start:end], out[start:end]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *EmbeddingService) embedInto(ctx context.Context, batch []string, dst [][]float32) error {
	req := openai.EmbeddingRequest{Model: openai.EmbeddingModel(s.model), Input: batch}
	if s.shortened {
		req.Dimensions = s.dimensions
	}

	resp, err := s.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return fmt.Errorf("openai: %w", err)
	}
	if len(resp.Data) != len(batch) {
		return fmt.Errorf("openai: got %d embeddings for %d inputs", len(resp.Data), len(batch))
	}
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(batch) || dst[d.Index] != nil {
			return fmt.Errorf("openai: bad embedding index %d", d.Index)
		}
		if len(d.Embedding) != s.dimensions {
			return fmt.Errorf("%w: %s returned %d, configured %d",
				domain.ErrDimensionMismatch, s.model, len(d.Embedding), s.dimensions)
		}
		dst[d.Index] = d.Embedding
	}
	return nil
}

func (s *EmbeddingService) Dimensions() int   { return s.dimensions }
func (s *EmbeddingService) ModelName() string { return s.model }

// Ping lists models, which checks the key without spending tokens.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx); err != nil {
		return fmt.Errorf("openai: %w", err)
	}
	return nil
}

func (s *EmbeddingService) Close() error { return nil }
