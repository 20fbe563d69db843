package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sitesage/internal/adapters/driving/mcp"
)

var (
	mcpPort    int
	mcpNoWatch bool
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol server",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the knowledge base to MCP clients",
	Long: `Serves the search, ask and capture_lead tools and the kb://manifest
resource. Stdio is the default, which is what desktop assistants launch.
With --port the streamable HTTP transport is used instead.

'sitesage serve' mounts the same server at /mcp next to the JSON API.

Example client entry:
  {"mcpServers": {"sitesage": {"command": "sitesage", "args": ["mcp", "serve"]}}}`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "serve over HTTP on this port instead of stdio")
	mcpServeCmd.Flags().BoolVar(&mcpNoWatch, "no-watch", false, "do not reload when a new knowledge base is published")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

// newMCPServer builds the MCP server over whichever services are wired.
func newMCPServer() (*mcp.Server, error) {
	if retriever == nil {
		return nil, errors.New("search service not configured")
	}
	return mcp.NewServer(&mcp.Ports{
		Retriever: retriever,
		Answer:    answerService,
		Leads:     leadService,
		Sessions:  sessionRegistry,
	})
}

// runWatched runs serve alongside the knowledge base watcher. The watcher
// stops when serve returns, and a watcher error stops serve.
func runWatched(ctx context.Context, noWatch bool, serve func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return serve(ctx)
	})
	if kbWatcher != nil && !noWatch {
		g.Go(func() error { return kbWatcher.Run(ctx) })
	}
	return g.Wait()
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	server, err := newMCPServer()
	if err != nil {
		return err
	}

	if mcpPort <= 0 {
		// Stdout carries the protocol; nothing else may be printed there.
		return runWatched(cmd.Context(), mcpNoWatch, server.Run)
	}

	addr := fmt.Sprintf(":%d", mcpPort)
	cmd.Printf("MCP server listening on http://localhost%s\n", addr)
	return runWatched(cmd.Context(), mcpNoWatch, func(ctx context.Context) error {
		return server.RunHTTP(ctx, addr)
	})
}
