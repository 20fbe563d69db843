// Package ollama generates replies with a local Ollama server.
package ollama

import (
	"context"
	"time"

	"github.com/custodia-labs/sitesage/internal/adapters/driven/ollamaapi"
	"github.com/custodia-labs/sitesage/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultModel   = "llama3.2"
	DefaultTimeout = 120 * time.Second
)

// Config selects the server and model. Zero values take the defaults.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLMService calls /api/chat without streaming.
type LLMService struct {
	api   *ollamaapi.Client
	model string
}

// modelOptions always carries temperature so zero is not replaced by the
// model's own default.
type modelOptions struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string       `json:"model"`
	Messages []message    `json:"messages"`
	Stream   bool         `json:"stream"`
	Options  modelOptions `json:"options"`
}

type chatResponse struct {
	Message message `json:"message"`
}

func NewLLMService(cfg Config) *LLMService {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &LLMService{
		api:   ollamaapi.New(cfg.BaseURL, cfg.Timeout),
		model: cfg.Model,
	}
}

// Complete sends the system and user prompts as a two-message chat.
func (s *LLMService) Complete(ctx context.Context, req driven.Completion) (string, error) {
	body := chatRequest{
		Model: s.model,
		Messages: []message{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Options: modelOptions{NumPredict: req.MaxTokens, Temperature: req.Temperature},
	}

	var resp chatResponse
	if err := s.api.PostJSON(ctx, "/api/chat", body, &resp); err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

func (s *LLMService) ModelName() string { return s.model }

// Ping checks the server is up and the model has been pulled.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.RequireModel(ctx, s.model)
}

func (s *LLMService) Close() error { return nil }
