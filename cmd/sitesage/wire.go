package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/sitesage/internal/adapters/driven/ai"
	"github.com/custodia-labs/sitesage/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sitesage/internal/adapters/driven/kbwatch"
	"github.com/custodia-labs/sitesage/internal/adapters/driven/storage/kb"
	"github.com/custodia-labs/sitesage/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sitesage/internal/adapters/driven/tokens/tiktoken"
	"github.com/custodia-labs/sitesage/internal/adapters/driven/web"
	"github.com/custodia-labs/sitesage/internal/adapters/driven/webhook"
	"github.com/custodia-labs/sitesage/internal/adapters/driving/cli"
	"github.com/custodia-labs/sitesage/internal/core/domain"
	"github.com/custodia-labs/sitesage/internal/core/ports/driven"
	"github.com/custodia-labs/sitesage/internal/core/ports/driving"
	"github.com/custodia-labs/sitesage/internal/core/services"
	"github.com/custodia-labs/sitesage/internal/logger"
	"github.com/custodia-labs/sitesage/internal/normalisers/html"
	"github.com/custodia-labs/sitesage/internal/postprocessors"
)

// application holds the wired services and the resources to release on exit.
type application struct {
	Services cli.Services
	closers  []func() error
}

// Close releases resources in reverse order of acquisition.
func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("Shutdown: %v", err)
		}
	}
}

// wire builds every adapter and service from the resolved settings.
// Settings and lead capture never depend on an AI provider, so a broken
// embedding configuration leaves them usable and only disables the
// commands that need vectors.
func wire(ctx context.Context) (*application, error) {
	app := &application{}

	configDir, err := file.DefaultDir()
	if err != nil {
		return nil, err
	}
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewProbe(0))
	app.Services.Settings = settingsService

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if err := wireLeads(app, configDir, settings); err != nil {
		logger.Warn("Lead capture disabled: %v", err)
	}
	app.Services.Sessions = services.NewSessionRegistry(services.SessionConfig{
		IdleTTL:     settings.Server.SessionTTL,
		MaxSessions: settings.Server.MaxSessions,
	})

	kbStore, err := kb.NewStore(resolveDir(configDir, settings.KB.Dir))
	if err != nil {
		return nil, err
	}

	fetcher := web.NewFetcher(web.Config{
		UserAgent: settings.Site.UserAgent,
		Timeout:   settings.Site.FetchTimeout,
		RateLimit: settings.Crawl.RateLimit,
	})
	normaliser := html.New()

	if settings.Site.Root != "" {
		robots := web.NewRobots(fetcher, settings.Site.UserAgent)
		app.Services.Crawl = services.NewCrawler(services.CrawlerConfig{
			Root:     settings.Site.Root,
			MaxDepth: settings.Crawl.MaxDepth,
		}, fetcher, robots, normaliser, kbStore)
	}

	aiServices, err := ai.Init(settings, false)
	if err != nil {
		logger.Warn("Search and curation disabled: %v", err)
		return app, nil
	}
	app.closers = append(app.closers, func() error {
		aiServices.Close()
		return nil
	})
	for _, w := range aiServices.Warnings {
		logger.Warn("%s", w)
	}

	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)
	pipeline, err := postprocessors.BuildPipeline(registry, domain.PipelineConfigFor(settings.Chunking))
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	logger.Debug("Curation pipeline: %s", pipeline)
	app.Services.Curation = services.NewCurator(kbStore, fetcher, normaliser, pipeline, aiServices.EmbeddingService, kbStore)

	retriever := services.NewRetriever(ctx, kbStore, aiServices.EmbeddingService)
	app.Services.Retriever = retriever
	app.Services.Watcher = kbwatch.New(kbStore.PointerPath(), retriever.Reload, 0)
	if app.Services.Crawl != nil {
		app.Services.Refresh = services.NewRefresher(app.Services.Crawl, app.Services.Curation, retriever)
	}

	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("open prompts: %w", err)
	}

	var tokens driven.TokenCounter
	if counter, err := tiktoken.New(""); err != nil {
		logger.Warn("Prompt token counts disabled: %v", err)
	} else {
		tokens = counter
	}

	app.Services.Answer = newAnswerService(settings, retriever, prompts, aiServices.LLMService, tokens)

	return app, nil
}

// newAnswerService caps both retrieval and the prompt's context block at
// the configured top-k.
func newAnswerService(
	settings *domain.AppSettings,
	retriever driving.Retriever,
	prompts driven.PromptStore,
	llm driven.LLMService,
	tokens driven.TokenCounter,
) *services.AnswerService {
	topK := settings.Retrieval.TopK
	return services.NewAnswerService(services.AnswerConfig{
		TopK:        topK,
		MaxTokens:   settings.LLM.MaxTokens,
		Temperature: settings.LLM.Temperature,
		Timeout:     settings.LLM.Timeout,
	}, retriever, services.NewRouter(), services.NewComposer(prompts, topK), llm, tokens)
}

func wireLeads(app *application, configDir string, settings *domain.AppSettings) error {
	store, err := sqlite.NewStore(filepath.Join(configDir, "data"))
	if err != nil {
		return err
	}
	app.closers = append(app.closers, store.Close)

	var forwarder driven.LeadForwarder
	if fwd := webhook.NewForwarder(settings.Leads.WebhookURL, settings.Leads.Timeout); fwd != nil {
		forwarder = fwd
	}
	app.Services.Leads = services.NewLeadService(store.LeadStore(), forwarder)
	return nil
}

// resolveDir anchors a relative directory setting under the config directory.
func resolveDir(base, dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(base, dir)
}
