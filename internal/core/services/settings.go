package services

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sitesage/internal/core/domain"
	"github.com/custodia-labs/sitesage/internal/core/ports/driven"
	"github.com/custodia-labs/sitesage/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keySiteRoot       = "site.root"
	keySiteUserAgent  = "site.user_agent"
	keySiteTimeout    = "site.fetch_timeout"
	keyCrawlDepth     = "crawl.max_depth"
	keyCrawlRate      = "crawl.rate_limit"
	keyChunkSize      = "chunking.size"
	keyChunkOverlap   = "chunking.overlap"
	keyTopK           = "retrieval.top_k"
	keyKBDir          = "kb.dir"
	keyEmbedProvider  = "embedding.provider"
	keyEmbedModel     = "embedding.model"
	keyEmbedBaseURL   = "embedding.base_url"
	keyEmbedAPIKey    = "embedding.api_key"
	keyEmbedDims      = "embedding.dimensions"
	keyLLMProvider    = "llm.provider"
	keyLLMModel       = "llm.model"
	keyLLMBaseURL     = "llm.base_url"
	keyLLMAPIKey      = "llm.api_key"
	keyLLMTemperature = "llm.temperature"
	keyLLMMaxTokens   = "llm.max_tokens"
	keyLLMTimeout     = "llm.timeout"
	keyLeadsWebhook   = "leads.webhook_url"
	keyLeadsTimeout   = "leads.timeout"
	keyServerAddr     = "server.addr"
	keySessionTTL     = "server.session_ttl"
	keyMaxSessions    = "server.max_sessions"
)

// Environment variables that override the config file.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvSiteRoot      = "SITE_ROOT"
	EnvCrawlDepth    = "CRAWL_DEPTH"
	EnvRateLimit     = "RATE_LIMIT_RPS"
	EnvKBDir         = "KB_DIR"
	EnvEmbProvider   = "EMB_PROVIDER"
	EnvEmbModel      = "EMB_MODEL"
	EnvChunkSize     = "CHUNK_SIZE"
	EnvChunkOverlap  = "CHUNK_OVERLAP"
	EnvTopK          = "TOP_K"
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvOpenAIModel   = "OPENAI_MODEL"
	EnvAnthropicKey  = "ANTHROPIC_API_KEY"
	EnvLLMProvider   = "LLM_PROVIDER"
	EnvOllamaBaseURL = "OLLAMA_BASE_URL"
	EnvLeadsWebhook  = "LEADS_WEBHOOK_URL"
	EnvAddr          = "SITESAGE_ADDR"
	EnvAdminPass     = "ADMIN_PASS"
)

// SettingsService manages application settings.
// Values resolve as defaults, then the config file, then the environment.
type SettingsService struct {
	configStore driven.ConfigStore
	probe       driven.ProviderProbe
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, probe driven.ProviderProbe) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		probe:       probe,
		lookupEnv:   os.LookupEnv,
	}
}

// SetEnvLookup replaces the environment lookup. Used by tests.
func (s *SettingsService) SetEnvLookup(fn func(string) (string, bool)) {
	s.lookupEnv = fn
}

// Get retrieves current application settings with environment overrides applied.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := s.fromFile()
	s.applyEnv(settings)
	return settings, nil
}

// fromFile resolves defaults and config file values only.
func (s *SettingsService) fromFile() *domain.AppSettings {
	d := domain.DefaultAppSettings()

	return &domain.AppSettings{
		Site: domain.SiteSettings{
			Root:         s.configStore.GetString(keySiteRoot),
			UserAgent:    s.getString(keySiteUserAgent, d.Site.UserAgent),
			FetchTimeout: s.getDuration(keySiteTimeout, d.Site.FetchTimeout),
		},
		Crawl: domain.CrawlSettings{
			MaxDepth:  s.getInt(keyCrawlDepth, d.Crawl.MaxDepth),
			RateLimit: s.getFloat(keyCrawlRate, d.Crawl.RateLimit),
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, d.Chunking.Size),
			Overlap: s.getIntAllowZero(keyChunkOverlap, d.Chunking.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			TopK: s.getInt(keyTopK, d.Retrieval.TopK),
		},
		KB: domain.KBSettings{
			Dir: s.getString(keyKBDir, d.KB.Dir),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:      s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			Dimensions: s.configStore.GetInt(keyEmbedDims),
		},
		LLM: domain.LLMSettings{
			Provider:    s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:       s.getString(keyLLMModel, d.LLM.Model),
			BaseURL:     s.configStore.GetString(keyLLMBaseURL),
			APIKey:      s.configStore.GetString(keyLLMAPIKey),
			Temperature: s.getFloat(keyLLMTemperature, d.LLM.Temperature),
			MaxTokens:   s.getInt(keyLLMMaxTokens, d.LLM.MaxTokens),
			Timeout:     s.getDuration(keyLLMTimeout, d.LLM.Timeout),
		},
		Leads: domain.LeadSettings{
			WebhookURL: s.configStore.GetString(keyLeadsWebhook),
			Timeout:    s.getDuration(keyLeadsTimeout, d.Leads.Timeout),
		},
		Server: domain.ServerSettings{
			Addr:        s.getString(keyServerAddr, d.Server.Addr),
			SessionTTL:  s.getDuration(keySessionTTL, d.Server.SessionTTL),
			MaxSessions: s.getInt(keyMaxSessions, d.Server.MaxSessions),
		},
	}
}

// applyEnv overlays environment variables. Malformed numbers are ignored.
func (s *SettingsService) applyEnv(st *domain.AppSettings) {
	if v, ok := s.env(EnvSiteRoot); ok {
		st.Site.Root = v
	}
	if v, ok := s.envInt(EnvCrawlDepth); ok && v >= 0 {
		st.Crawl.MaxDepth = v
	}
	if v, ok := s.env(EnvRateLimit); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			st.Crawl.RateLimit = f
		}
	}
	if v, ok := s.env(EnvKBDir); ok {
		st.KB.Dir = v
	}
	if v, ok := s.env(EnvEmbProvider); ok {
		if p := domain.AIProvider(strings.ToLower(v)); p.SupportsEmbeddings() {
			st.Embedding.Provider = p
			if _, hasModel := s.env(EnvEmbModel); !hasModel {
				st.Embedding.Model = domain.DefaultEmbeddingModels()[p]
			}
		}
	}
	if v, ok := s.env(EnvEmbModel); ok {
		st.Embedding.Model = v
	}
	if v, ok := s.envInt(EnvChunkSize); ok && v > 0 {
		st.Chunking.Size = v
	}
	if v, ok := s.envInt(EnvChunkOverlap); ok && v >= 0 {
		st.Chunking.Overlap = v
	}
	if v, ok := s.envInt(EnvTopK); ok && v > 0 {
		st.Retrieval.TopK = v
	}
	if v, ok := s.env(EnvLLMProvider); ok {
		if p := domain.AIProvider(strings.ToLower(v)); p.SupportsLLM() {
			st.LLM.Provider = p
			if st.LLM.Model == "" {
				st.LLM.Model = domain.DefaultLLMModels()[p]
			}
		}
	}
	if v, ok := s.env(EnvOpenAIKey); ok {
		if st.Embedding.Provider == domain.AIProviderOpenAI && st.Embedding.APIKey == "" {
			st.Embedding.APIKey = v
		}
		if st.LLM.Provider == domain.AIProviderOpenAI && st.LLM.APIKey == "" {
			st.LLM.APIKey = v
		}
		// A key alone selects OpenAI for generation when nothing else is chosen.
		if st.LLM.Provider == "" {
			st.LLM.Provider = domain.AIProviderOpenAI
			st.LLM.APIKey = v
			st.LLM.Model = domain.DefaultLLMModels()[domain.AIProviderOpenAI]
		}
	}
	if v, ok := s.env(EnvOpenAIModel); ok && st.LLM.Provider == domain.AIProviderOpenAI {
		st.LLM.Model = v
	}
	if v, ok := s.env(EnvAnthropicKey); ok && st.LLM.Provider == domain.AIProviderAnthropic && st.LLM.APIKey == "" {
		st.LLM.APIKey = v
	}
	if v, ok := s.env(EnvOllamaBaseURL); ok {
		if st.Embedding.Provider == domain.AIProviderOllama {
			st.Embedding.BaseURL = v
		}
		if st.LLM.Provider == domain.AIProviderOllama {
			st.LLM.BaseURL = v
		}
	}
	if v, ok := s.env(EnvLeadsWebhook); ok {
		st.Leads.WebhookURL = v
	}
	if v, ok := s.env(EnvAddr); ok {
		st.Server.Addr = v
	}
	if v, ok := s.env(EnvAdminPass); ok {
		st.Server.AdminPassword = v
	}
}

// Save persists application settings.
// The admin password is never written to the config file.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keySiteRoot, settings.Site.Root},
		{keySiteUserAgent, settings.Site.UserAgent},
		{keySiteTimeout, settings.Site.FetchTimeout.String()},
		{keyCrawlDepth, settings.Crawl.MaxDepth},
		{keyCrawlRate, settings.Crawl.RateLimit},
		{keyChunkSize, settings.Chunking.Size},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyTopK, settings.Retrieval.TopK},
		{keyKBDir, settings.KB.Dir},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMTemperature, settings.LLM.Temperature},
		{keyLLMMaxTokens, settings.LLM.MaxTokens},
		{keyLLMTimeout, settings.LLM.Timeout.String()},
		{keyLeadsWebhook, settings.Leads.WebhookURL},
		{keyLeadsTimeout, settings.Leads.Timeout.String()},
		{keyServerAddr, settings.Server.Addr},
		{keySessionTTL, settings.Server.SessionTTL.String()},
		{keyMaxSessions, settings.Server.MaxSessions},
	}
	if settings.Embedding.Dimensions > 0 {
		values = append(values, struct {
			key   string
			value any
		}{keyEmbedDims, settings.Embedding.Dimensions})
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}

	return s.configStore.Save()
}

// SetSiteRoot sets the crawl root URL.
func (s *SettingsService) SetSiteRoot(root string) error {
	u, err := url.Parse(strings.TrimSpace(root))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: site root must be an absolute http(s) URL: %q", domain.ErrInvalidInput, root)
	}

	settings := s.fromFile()
	settings.Site.Root = u.String()
	return s.Save(settings)
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !provider.SupportsEmbeddings() {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings := s.fromFile()
	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else if defaultModel, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		settings.Embedding.Model = defaultModel
	}

	switch {
	case provider == domain.AIProviderOllama:
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = domain.DefaultOllamaBaseURL
		}
	case !provider.IsLocal():
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	// Dimensions follow the model unless it is unknown.
	settings.Embedding.Dimensions = domain.EmbeddingDimensions()[settings.Embedding.Model]

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if !provider.SupportsLLM() {
		return fmt.Errorf("provider %s does not support generation", provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings := s.fromFile()
	settings.LLM.Provider = provider

	if model != "" {
		settings.LLM.Model = model
	} else if defaultModel, ok := domain.DefaultLLMModels()[provider]; ok {
		settings.LLM.Model = defaultModel
	}

	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = domain.DefaultOllamaBaseURL
		}
	} else {
		settings.LLM.BaseURL = ""
	}

	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks that current settings can crawl, curate and answer.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if settings.Site.Root == "" {
		return fmt.Errorf("%w: site root is not set (use %s or 'sitesage settings site')", domain.ErrInvalidInput, EnvSiteRoot)
	}
	if settings.Chunking.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", domain.ErrInvalidInput)
	}
	if settings.Chunking.Overlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative", domain.ErrInvalidInput)
	}
	if settings.Chunking.Overlap >= settings.Chunking.Size {
		return fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d",
			domain.ErrInvalidInput, settings.Chunking.Overlap, settings.Chunking.Size)
	}
	if settings.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: top-k must be positive", domain.ErrInvalidInput)
	}
	if settings.Crawl.RateLimit <= 0 {
		return fmt.Errorf("%w: rate limit must be positive", domain.ErrInvalidInput)
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %q is not configured", domain.ErrEmbeddingUnavailable, settings.Embedding.Provider)
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: set %s or configure an LLM provider", domain.ErrLLMUnavailable, EnvLLMProvider)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ProbeEmbedding checks that the effective embedding provider answers.
// Without a probe there is nothing to check.
func (s *SettingsService) ProbeEmbedding(ctx context.Context) error {
	if s.probe == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.probe.ProbeEmbedding(ctx, &settings.Embedding)
}

// ProbeLLM checks that the effective LLM provider answers.
func (s *SettingsService) ProbeLLM(ctx context.Context) error {
	if s.probe == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.probe.ProbeLLM(ctx, &settings.LLM)
}

// GetPipelineConfig returns the curation pipeline for the current chunking settings.
func (s *SettingsService) GetPipelineConfig() domain.PipelineConfig {
	settings, _ := s.Get()
	cfg := domain.PipelineConfigFor(settings.Chunking)

	if processors := s.configStore.GetStringSlice("pipeline.processors"); len(processors) > 0 {
		cfg.Processors = processors
	}
	if fallback := s.configStore.GetString("pipeline.tagger.fallback"); fallback != "" {
		cfg.ProcessorConfigs["tagger"] = map[string]any{"fallback": fallback}
	}
	return cfg
}

// Helper methods for reading config with defaults.

func (s *SettingsService) env(name string) (string, bool) {
	if s.lookupEnv == nil {
		return "", false
	}
	v, ok := s.lookupEnv(name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (s *SettingsService) envInt(name string) (int, bool) {
	v, ok := s.env(name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getIntAllowZero treats an explicit zero as a value rather than "unset".
func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
