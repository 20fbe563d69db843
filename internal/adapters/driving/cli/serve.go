package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sitesage/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/sitesage/internal/core/domain"
)

var (
	serveAddr    string
	serveNoWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API and MCP endpoint",
	Long: `Starts the HTTP server with the JSON API and an MCP endpoint at /mcp.
The knowledge base is reloaded whenever 'sitesage curate' publishes a new
version; requests in flight finish on the version they started with.

Admin routes (/api/admin/...) need the ADMIN_PASS environment variable and
use basic auth with the user "admin".`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from settings)")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "do not reload when a new knowledge base is published")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	mcpServer, err := newMCPServer()
	if err != nil {
		return err
	}

	settings := domain.DefaultAppSettings()
	if settingsService != nil {
		s, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		settings = *s
	}
	addr := settings.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	api, err := httpapi.NewServer(httpapi.Config{
		Addr:          addr,
		AdminPassword: settings.Server.AdminPassword,
	}, &httpapi.Ports{
		Retriever: retriever,
		Answer:    answerService,
		Sessions:  sessionRegistry,
		Leads:     leadService,
		Refresh:   refreshService,
		MCP:       mcpServer.Handler(),
	})
	if err != nil {
		return err
	}

	cmd.Printf("Serving on http://%s (MCP at /mcp)\n", addr)
	if answerService == nil {
		cmd.Println("Answers are disabled: no LLM provider configured.")
	}

	return runWatched(cmd.Context(), serveNoWatch, api.Run)
}
