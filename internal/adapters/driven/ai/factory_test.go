package ai

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/custodia-labs/sitesage/internal/core/domain"
)

func TestInitResult_Close(t *testing.T) {
	t.Run("close with nil services", func(t *testing.T) {
		result := &InitResult{}
		// Should not panic
		result.Close()
	})
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name        string
		settings    *domain.EmbeddingSettings
		wantNil     bool
		wantErr     bool
		wantModel   string
		wantDims    int
		errContains string
	}{
		{
			name:     "nil settings returns nil",
			settings: nil,
			wantNil:  true,
		},
		{
			name:     "unconfigured settings returns nil",
			settings: &domain.EmbeddingSettings{},
			wantNil:  true,
		},
		{
			name:      "hashing provider uses default dimensions",
			settings:  &domain.EmbeddingSettings{Provider: domain.AIProviderHashing, Model: "hashing-384"},
			wantModel: "hashing-384",
			wantDims:  384,
		},
		{
			name:      "hashing provider honours dimension override",
			settings:  &domain.EmbeddingSettings{Provider: domain.AIProviderHashing, Dimensions: 128},
			wantModel: "hashing-128",
			wantDims:  128,
		},
		{
			name: "ollama provider takes dimensions from model table",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "all-minilm",
			},
			wantModel: "all-minilm",
			wantDims:  384,
		},
		{
			name: "openai provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "text-embedding-3-large",
			},
			wantModel: "text-embedding-3-large",
			wantDims:  3072,
		},
		{
			name:     "openai without key is not configured",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI},
			wantNil:  true,
		},
		{
			name: "anthropic provider returns error",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderAnthropic,
				APIKey:   "test-key",
			},
			wantNil:     true,
			wantErr:     true,
			errContains: "anthropic does not support embeddings",
		},
		{
			name:     "unknown provider returns nil (not configured)",
			settings: &domain.EmbeddingSettings{Provider: "unknown"},
			wantNil:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
					t.Errorf("error %v should wrap ErrEmbeddingUnavailable", err)
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error %q should contain %q", err.Error(), tt.errContains)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.wantNil {
				if svc != nil {
					t.Error("expected nil service, got non-nil")
				}
				return
			}
			if svc == nil {
				t.Fatal("expected non-nil service, got nil")
			}
			defer svc.Close()
			if got := svc.ModelName(); got != tt.wantModel {
				t.Errorf("ModelName() = %q, want %q", got, tt.wantModel)
			}
			if got := svc.Dimensions(); got != tt.wantDims {
				t.Errorf("Dimensions() = %d, want %d", got, tt.wantDims)
			}
		})
	}
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name      string
		settings  *domain.LLMSettings
		wantNil   bool
		wantModel string
	}{
		{name: "nil settings returns nil", settings: nil, wantNil: true},
		{name: "unconfigured settings returns nil", settings: &domain.LLMSettings{}, wantNil: true},
		{
			name:     "hashing cannot generate",
			settings: &domain.LLMSettings{Provider: domain.AIProviderHashing},
			wantNil:  true,
		},
		{
			name:      "ollama provider creates service",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderOllama, Model: "llama3.2"},
			wantModel: "llama3.2",
		},
		{
			name:      "openai provider creates service",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "gpt-4o-mini"},
			wantModel: "gpt-4o-mini",
		},
		{
			name:      "anthropic provider creates service",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"},
			wantModel: "claude-3-5-sonnet-latest",
		},
		{
			name:     "anthropic without key is not configured",
			settings: &domain.LLMSettings{Provider: domain.AIProviderAnthropic},
			wantNil:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(tt.settings)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil {
				if svc != nil {
					t.Error("expected nil service, got non-nil")
				}
				return
			}
			if svc == nil {
				t.Fatal("expected non-nil service, got nil")
			}
			defer svc.Close()
			if got := svc.ModelName(); got != tt.wantModel {
				t.Errorf("ModelName() = %q, want %q", got, tt.wantModel)
			}
		})
	}
}

func TestInit(t *testing.T) {
	t.Run("hashing without llm warns", func(t *testing.T) {
		settings := domain.DefaultAppSettings()

		result, err := Init(&settings, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer result.Close()

		if result.EmbeddingService == nil {
			t.Fatal("expected embedding service")
		}
		if result.LLMService != nil {
			t.Error("expected no LLM service")
		}
		if len(result.Warnings) != 1 {
			t.Errorf("expected one warning, got %v", result.Warnings)
		}
	})

	t.Run("missing embedder is fatal", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI}

		_, err := Init(&settings, false)
		if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
			t.Errorf("expected ErrEmbeddingUnavailable, got %v", err)
		}
	})

	t.Run("unreachable llm degrades to warning", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()
		settings := domain.DefaultAppSettings()
		settings.LLM.Provider = domain.AIProviderOllama
		settings.LLM.BaseURL = srv.URL

		result, err := Init(&settings, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer result.Close()

		if result.LLMService != nil {
			t.Error("expected LLM service to be dropped")
		}
		if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "unreachable") {
			t.Errorf("unexpected warnings: %v", result.Warnings)
		}
	})

	t.Run("without validation llm is kept", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.LLM.Provider = domain.AIProviderOllama

		result, err := Init(&settings, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer result.Close()

		if result.LLMService == nil {
			t.Error("expected LLM service")
		}
	})
}
