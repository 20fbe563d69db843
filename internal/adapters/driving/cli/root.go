// Package cli provides the sitesage command line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sitesage/internal/core/ports/driving"
	"github.com/custodia-labs/sitesage/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

var verbose bool

// Services wired by main. A nil service disables the commands that need it.
var (
	settingsService driving.SettingsService
	crawlService    driving.CrawlService
	curationService driving.CurationService
	refreshService  driving.RefreshService
	retriever       driving.Retriever
	answerService   driving.AnswerService
	sessionRegistry driving.SessionRegistry
	leadService     driving.LeadService
	kbWatcher       Runner
)

// Runner is a background task that runs until its context is cancelled.
type Runner interface {
	Run(ctx context.Context) error
}

// Services bundles the driving ports the commands use.
type Services struct {
	Settings  driving.SettingsService
	Crawl     driving.CrawlService
	Curation  driving.CurationService
	Refresh   driving.RefreshService
	Retriever driving.Retriever
	Answer    driving.AnswerService
	Sessions  driving.SessionRegistry
	Leads     driving.LeadService

	// Watcher reloads the retriever when a new knowledge base is published.
	// serve runs it alongside the servers.
	Watcher Runner
}

var rootCmd = &cobra.Command{
	Use:   "sitesage",
	Short: "Answer visitor questions from your own website",
	Long: `sitesage crawls a single website, builds a searchable knowledge base
from its pages and answers questions using only that content.

Typical flow:
  sitesage settings site https://example.com
  sitesage refresh
  sitesage chat`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetServices injects the services used by the commands.
func SetServices(s Services) {
	settingsService = s.Settings
	crawlService = s.Crawl
	curationService = s.Curation
	refreshService = s.Refresh
	retriever = s.Retriever
	answerService = s.Answer
	sessionRegistry = s.Sessions
	leadService = s.Leads
	kbWatcher = s.Watcher
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
