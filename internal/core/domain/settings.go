package domain

import "time"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API (or any compatible endpoint).
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API. Generation only.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderHashing is the offline feature-hashing embedder. Embeddings only.
	AIProviderHashing AIProvider = "hashing"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderHashing:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderHashing
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderHashing:
		return "Feature hashing (offline)"
	default:
		return unknownDescription
	}
}

// SiteSettings identifies the site being harvested.
type SiteSettings struct {
	// Root is the crawl root URL. Its host defines the crawl scope.
	Root string

	// UserAgent is sent with every fetch and used for robots matching.
	UserAgent string

	// FetchTimeout bounds a single HTTP fetch.
	FetchTimeout time.Duration
}

// CrawlSettings holds crawl frontier limits.
type CrawlSettings struct {
	// MaxDepth is the maximum link distance from the root.
	MaxDepth int

	// RateLimit is the fetch ceiling in requests per second.
	RateLimit float64
}

// ChunkingSettings holds chunk packing parameters.
type ChunkingSettings struct {
	// Size is the soft chunk length threshold in characters.
	Size int

	// Overlap is how many trailing characters of the previous chunk
	// are prepended to the next one.
	Overlap int
}

// RetrievalSettings holds query-time retrieval parameters.
type RetrievalSettings struct {
	// TopK is the number of chunks retrieved per query.
	TopK int
}

// KBSettings locates the knowledge base artifacts.
type KBSettings struct {
	// Dir holds the page manifest and the versioned index/docstore pairs.
	Dir string
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions overrides the vector size. Zero uses the model's default.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds generation provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// Temperature controls randomness.
	Temperature float64

	// MaxTokens caps the reply length.
	MaxTokens int

	// Timeout bounds one generation call.
	Timeout time.Duration
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderHashing {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// LeadSettings configures lead capture.
type LeadSettings struct {
	// WebhookURL receives a copy of every captured lead. Empty disables it.
	WebhookURL string

	// Timeout bounds one webhook delivery.
	Timeout time.Duration
}

// ServerSettings configures the long-running servers.
type ServerSettings struct {
	// Addr is the HTTP listen address.
	Addr string

	// AdminPassword guards the admin refresh endpoint. Empty disables it.
	AdminPassword string

	// SessionTTL is how long an idle conversation keeps its router state.
	SessionTTL time.Duration

	// MaxSessions caps live conversations; the least recently used one
	// is evicted to make room.
	MaxSessions int
}

// AppSettings holds all application settings.
type AppSettings struct {
	Site      SiteSettings
	Crawl     CrawlSettings
	Chunking  ChunkingSettings
	Retrieval RetrievalSettings
	KB        KBSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Leads     LeadSettings
	Server    ServerSettings
}

// Default values.
const (
	DefaultUserAgent      = "sitesage-autobot/1.0"
	DefaultFetchTimeout   = 20 * time.Second
	DefaultMaxDepth       = 3
	DefaultRateLimit      = 1.0
	DefaultChunkSize      = 900
	DefaultChunkOverlap   = 120
	DefaultTopK           = 6
	DefaultKBDir          = "kb"
	DefaultLLMTimeout     = 60 * time.Second
	DefaultMaxTokens      = 700
	DefaultWebhookTimeout = 8 * time.Second
	DefaultServerAddr     = "127.0.0.1:8080"
	DefaultSessionTTL     = 30 * time.Minute
	DefaultMaxSessions    = 10000
	DefaultOllamaBaseURL  = "http://localhost:11434"
)

// DefaultAppSettings returns settings with sensible defaults.
// The site root is left empty; crawling requires it to be set.
// Embeddings default to the offline hashing provider so a fresh install
// can curate and search without network access to a model.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Site: SiteSettings{
			UserAgent:    DefaultUserAgent,
			FetchTimeout: DefaultFetchTimeout,
		},
		Crawl: CrawlSettings{
			MaxDepth:  DefaultMaxDepth,
			RateLimit: DefaultRateLimit,
		},
		Chunking: ChunkingSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Retrieval: RetrievalSettings{
			TopK: DefaultTopK,
		},
		KB: KBSettings{
			Dir: DefaultKBDir,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderHashing,
			Model:    DefaultEmbeddingModels()[AIProviderHashing],
		},
		// LLM is left unconfigured until a provider is chosen.
		LLM: LLMSettings{
			Temperature: 0,
			MaxTokens:   DefaultMaxTokens,
			Timeout:     DefaultLLMTimeout,
		},
		Leads: LeadSettings{
			Timeout: DefaultWebhookTimeout,
		},
		Server: ServerSettings{
			Addr:        DefaultServerAddr,
			SessionTTL:  DefaultSessionTTL,
			MaxSessions: DefaultMaxSessions,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderHashing,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support generation.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// SupportsEmbeddings reports whether p can produce embeddings.
func (p AIProvider) SupportsEmbeddings() bool {
	for _, e := range AllEmbeddingProviders() {
		if e == p {
			return true
		}
	}
	return false
}

// SupportsLLM reports whether p can generate text.
func (p AIProvider) SupportsLLM() bool {
	for _, l := range AllLLMProviders() {
		if l == p {
			return true
		}
	}
	return false
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderHashing: "hashing-384",
		AIProviderOllama:  "nomic-embed-text",
		AIProviderOpenAI:  "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Offline
		"hashing-384": 384,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// PipelineConfig holds post-processor pipeline configuration.
// Uses generic map-based config so processors can be added
// without modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	// Key is processor name, value is processor-specific config.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// PipelineConfigFor returns the curation pipeline for the given chunking
// settings: sentence chunking followed by keyword tagging.
func PipelineConfigFor(c ChunkingSettings) PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker", "tagger"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {
				"chunk_size": c.Size,
				"overlap":    c.Overlap,
			},
		},
	}
}

// DefaultPipelineConfig returns the default pipeline configuration.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfigFor(DefaultAppSettings().Chunking)
}
