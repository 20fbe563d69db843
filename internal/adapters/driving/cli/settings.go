package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sitesage/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the site, crawl limits, AI providers and other options.

Settings are stored in ~/.sitesage/config.toml. Environment variables
(and a .env file in the working directory) override stored values.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure the site and AI providers step by step.`,
	RunE:  runSettingsWizard,
}

var settingsSiteCmd = &cobra.Command{
	Use:   "site [url]",
	Short: "Set the site root URL",
	Long: `Set the URL the crawler starts from. Only pages on the same host
are crawled.`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsSite,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long: `Configure the embedding provider used to index passages and queries.
Changing the model requires rebuilding the knowledge base with 'sitesage curate'.`,
	RunE: runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider that writes answers.`,
	RunE:  runSettingsLLM,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsSiteCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

// field is one "Key: value" line of settings output.
type field struct{ key, value string }

type section struct {
	title  string
	fields []field
}

// settingsSections lays out the settings for display. Secrets are masked
// and provider-specific lines appear only when they apply.
func settingsSections(s *domain.AppSettings) []section {
	kb := []field{{"Directory", s.KB.Dir}}
	if retriever != nil {
		loaded := "(empty)"
		if m := retriever.Manifest(); !m.IsEmpty() {
			loaded = fmt.Sprintf("%s, %d passages, %s", m.Version, m.Count, m.Model)
		}
		kb = append(kb, field{"Loaded", loaded})
	}

	embedding := []field{
		{"Provider", s.Embedding.Provider.Description()},
		{"Model", s.Embedding.Model},
	}
	if s.Embedding.Provider == domain.AIProviderOllama {
		embedding = append(embedding, field{"Base URL", s.Embedding.BaseURL})
	}
	if s.Embedding.Provider.RequiresAPIKey() {
		embedding = append(embedding, field{"API Key", maskedOrNotSet(s.Embedding.APIKey)})
	}
	embedding = append(embedding, field{"Status", configuredStatus(s.Embedding.IsConfigured())})

	llm := []field{
		{"Provider", s.LLM.Provider.Description()},
		{"Model", s.LLM.Model},
	}
	if s.LLM.Provider.IsLocal() {
		llm = append(llm, field{"Base URL", s.LLM.BaseURL})
	}
	if s.LLM.Provider.RequiresAPIKey() {
		llm = append(llm, field{"API Key", maskedOrNotSet(s.LLM.APIKey)})
	}
	llm = append(llm,
		field{"Temperature", fmt.Sprintf("%.2f", s.LLM.Temperature)},
		field{"Max Tokens", strconv.Itoa(s.LLM.MaxTokens)},
		field{"Timeout", s.LLM.Timeout.String()},
		field{"Status", configuredStatus(s.LLM.IsConfigured())},
	)

	admin := "disabled (set ADMIN_PASS)"
	if s.Server.AdminPassword != "" {
		admin = "enabled"
	}

	return []section{
		{"Site", []field{
			{"Root", orNotSet(s.Site.Root)},
			{"User Agent", s.Site.UserAgent},
			{"Fetch Timeout", s.Site.FetchTimeout.String()},
		}},
		{"Crawl", []field{
			{"Max Depth", strconv.Itoa(s.Crawl.MaxDepth)},
			{"Rate Limit", fmt.Sprintf("%.2f req/s", s.Crawl.RateLimit)},
		}},
		{"Chunking", []field{
			{"Size", strconv.Itoa(s.Chunking.Size)},
			{"Overlap", strconv.Itoa(s.Chunking.Overlap)},
		}},
		{"Retrieval", []field{{"Top K", strconv.Itoa(s.Retrieval.TopK)}}},
		{"Knowledge Base", kb},
		{"Embedding", embedding},
		{"LLM", llm},
		{"Leads", []field{{"Webhook", orNotSet(s.Leads.WebhookURL)}}},
		{"Server", []field{
			{"Address", s.Server.Addr},
			{"Admin", admin},
			{"Session TTL", s.Server.SessionTTL.String()},
			{"Max sessions", strconv.Itoa(s.Server.MaxSessions)},
		}},
	}
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()
	for _, sec := range settingsSections(settings) {
		cmd.Printf("[%s]\n", sec.title)
		for _, f := range sec.fields {
			cmd.Printf("  %s: %s\n", f.key, f.value)
		}
		cmd.Println()
	}

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'sitesage settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Println("sitesage Settings Wizard")
	cmd.Println("========================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	// Step 1: Site root
	cmd.Println("Step 1: Site")
	cmd.Println("------------")
	current := ""
	if settings, err := settingsService.Get(); err == nil {
		current = settings.Site.Root
	}
	if current != "" {
		cmd.Printf("Enter site root URL [%s]: ", current)
	} else {
		cmd.Print("Enter site root URL: ")
	}
	root := readLine(reader)
	if root == "" {
		root = current
	}
	if root == "" {
		return errors.New("a site root URL is required")
	}
	if err := settingsService.SetSiteRoot(root); err != nil {
		return fmt.Errorf("failed to set site root: %w", err)
	}
	cmd.Printf("Site root set to: %s\n\n", root)

	// Step 2: Embedding provider
	cmd.Println("Step 2: Configure Embedding Provider")
	cmd.Println("------------------------------------")
	if err := configureProvider(cmd, reader, embeddingStep()); err != nil {
		return err
	}

	// Step 3: LLM provider
	cmd.Println("Step 3: Configure LLM Provider")
	cmd.Println("------------------------------")
	if err := configureProvider(cmd, reader, llmStep()); err != nil {
		return err
	}

	// Final validation
	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
		cmd.Println("Run 'sitesage refresh' to build the knowledge base.")
	}

	return nil
}

func runSettingsSite(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.SetSiteRoot(args[0]); err != nil {
		return fmt.Errorf("failed to set site root: %w", err)
	}

	cmd.Printf("Site root set to: %s\n", args[0])
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureProvider(cmd, reader, embeddingStep())
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureProvider(cmd, reader, llmStep())
}

// providerStep describes one provider prompt of the wizard.
type providerStep struct {
	kind      string
	providers []domain.AIProvider
	models    map[domain.AIProvider]string
	apply     func(provider domain.AIProvider, model, apiKey string) error
	probe     func(ctx context.Context) error
}

func embeddingStep() providerStep {
	return providerStep{
		kind:      "embedding",
		providers: domain.AllEmbeddingProviders(),
		models:    domain.DefaultEmbeddingModels(),
		apply:     settingsService.SetEmbeddingProvider,
		probe:     settingsService.ProbeEmbedding,
	}
}

func llmStep() providerStep {
	return providerStep{
		kind:      "LLM",
		providers: domain.AllLLMProviders(),
		models:    domain.DefaultLLMModels(),
		apply:     settingsService.SetLLMProvider,
		probe:     settingsService.ProbeLLM,
	}
}

// configureProvider asks for provider, model and key, saves them, then
// probes the provider. A failed probe leaves the saved choice in place.
func configureProvider(cmd *cobra.Command, reader *bufio.Reader, step providerStep) error {
	cmd.Printf("Select %s provider\n", step.kind)
	for i, p := range step.providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	provider := step.providers[parseChoice(readLine(reader), len(step.providers), 1)-1]

	model := step.models[provider]
	cmd.Printf("Enter model name [%s]: ", model)
	if m := readLine(reader); m != "" {
		model = m
	}

	var apiKey string
	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(cmd, reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := step.apply(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", step.kind, err)
	}

	cmd.Print("Validating configuration... ")
	if err := step.probe(cmd.Context()); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s configuration validation failed: %w", step.kind, err)
	}
	cmd.Println("OK")

	cmd.Printf("%s provider configured: %s (%s)\n\n", step.kind, provider.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when stdin is a terminal.
func readPassword(cmd *cobra.Command, reader *bufio.Reader) string {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func maskedOrNotSet(key string) string {
	if key == "" {
		return "(not set)"
	}
	return maskAPIKey(key)
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func configuredStatus(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}
