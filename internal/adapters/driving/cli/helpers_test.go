package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/custodia-labs/sitesage/internal/core/domain"
	"github.com/custodia-labs/sitesage/internal/logger"
)

type mockRetriever struct {
	hits     []domain.Hit
	manifest domain.KBManifest
	err      error
	lastK    int
}

func (m *mockRetriever) Search(_ context.Context, _ string, k int) ([]domain.Hit, error) {
	m.lastK = k
	return m.hits, m.err
}

func (m *mockRetriever) Reload(_ context.Context) error { return nil }
func (m *mockRetriever) Manifest() domain.KBManifest    { return m.manifest }

// mockAnswerService routes every question to the next label in labels.
type mockAnswerService struct {
	labels    []domain.Category
	fail      bool
	questions []string
}

func (m *mockAnswerService) Answer(_ context.Context, query string, state *domain.SessionState) domain.Answer {
	m.questions = append(m.questions, query)
	if m.fail {
		return domain.Answer{Label: domain.LabelError, Reply: "Error: LLM service unavailable"}
	}
	label := domain.CategoryGeneralAbout
	if len(m.labels) > 0 {
		label = m.labels[0]
		m.labels = m.labels[1:]
	}
	return domain.Answer{
		Label:        string(label),
		Reply:        "Answer to " + query,
		Sources:      "1) Home - https://example.com/ (last_seen: 2024-05-01)",
		Handoff:      state.Advance(label),
		PromptTokens: 42,
	}
}

type mockLeadService struct {
	captured []domain.Lead
	err      error
	limit    int
}

func (m *mockLeadService) Capture(_ context.Context, lead domain.Lead) (*domain.Lead, error) {
	if m.err != nil {
		return nil, m.err
	}
	lead.ID = "lead-123"
	m.captured = append(m.captured, lead)
	return &lead, nil
}

func (m *mockLeadService) List(_ context.Context, limit int) ([]domain.Lead, error) {
	m.limit = limit
	return m.captured, m.err
}

type mockCrawlService struct {
	report   *domain.CrawlReport
	err      error
	progress func(domain.CrawlOutcome)
}

func (m *mockCrawlService) SetProgress(fn func(domain.CrawlOutcome)) { m.progress = fn }

func (m *mockCrawlService) Crawl(_ context.Context) (*domain.CrawlReport, error) {
	if m.progress != nil && m.report != nil {
		for i := range m.report.Pages {
			m.progress(domain.CrawlOutcome{URL: m.report.Pages[i].URL, Page: &m.report.Pages[i]})
		}
	}
	return m.report, m.err
}

type mockCurationService struct {
	report *domain.CurationReport
	err    error
}

func (m *mockCurationService) Curate(_ context.Context) (*domain.CurationReport, error) {
	return m.report, m.err
}

type mockRefreshService struct {
	report *domain.RefreshReport
	err    error
}

func (m *mockRefreshService) Refresh(_ context.Context) (*domain.RefreshReport, error) {
	return m.report, m.err
}

// mockSettingsService keeps settings in memory.
type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	pingErr     error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings()}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding.Provider = provider
	m.settings.Embedding.Model = model
	m.settings.Embedding.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.LLM.Provider = provider
	m.settings.LLM.Model = model
	m.settings.LLM.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) SetSiteRoot(root string) error {
	if !strings.HasPrefix(root, "http") {
		return errors.New("site root must be an http(s) URL")
	}
	m.settings.Site.Root = root
	return nil
}

func (m *mockSettingsService) Validate() error                      { return m.validateErr }
func (m *mockSettingsService) GetDefaults() domain.AppSettings      { return domain.DefaultAppSettings() }
func (m *mockSettingsService) ProbeEmbedding(context.Context) error { return m.pingErr }
func (m *mockSettingsService) ProbeLLM(context.Context) error       { return m.pingErr }

type testServices struct {
	retriever *mockRetriever
	answers   *mockAnswerService
	leads     *mockLeadService
	crawl     *mockCrawlService
	curation  *mockCurationService
	refresh   *mockRefreshService
	settings  *mockSettingsService
}

// setupTestServices installs mocks for every service and returns a cleanup
// that restores the previous services and flag values.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		retriever: &mockRetriever{
			hits: []domain.Hit{{
				Chunk: domain.Chunk{
					Content: "We deliver across the EU within five working days.",
					URL:     "https://example.com/shipping",
					Title:   "Shipping",
				},
				Score: 0.87,
			}},
			manifest: domain.KBManifest{Version: "v1", Model: "hashing-384", Dimensions: 384, Count: 12},
		},
		answers:  &mockAnswerService{},
		leads:    &mockLeadService{},
		crawl:    &mockCrawlService{report: &domain.CrawlReport{Root: "https://example.com/"}},
		curation: &mockCurationService{report: &domain.CurationReport{Pages: 1, Indexed: 3}},
		refresh:  &mockRefreshService{},
		settings: newMockSettingsService(),
	}

	old := Services{
		Settings:  settingsService,
		Crawl:     crawlService,
		Curation:  curationService,
		Refresh:   refreshService,
		Retriever: retriever,
		Answer:    answerService,
		Sessions:  sessionRegistry,
		Leads:     leadService,
		Watcher:   kbWatcher,
	}

	SetServices(Services{
		Settings:  ts.settings,
		Crawl:     ts.crawl,
		Curation:  ts.curation,
		Refresh:   ts.refresh,
		Retriever: ts.retriever,
		Answer:    ts.answers,
		Leads:     ts.leads,
	})

	return ts, func() {
		SetServices(old)
		resetFlags()
	}
}

func resetFlags() {
	verbose = false
	logger.SetVerbose(false)
	searchLimit = domain.DefaultTopK
	searchJSON = false
	askJSON = false
	leadName, leadContact, leadNotes, leadSource = "", "", "", "cli"
	leadLimit = 20
	leadJSON = false
	serveAddr = ""
	serveNoWatch = false
	mcpPort = 0
	mcpNoWatch = false
}

// runCLI executes the root command with args and stdin, returning combined output.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}
