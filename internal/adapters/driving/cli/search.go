package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sitesage/internal/core/domain"
)

const snippetLen = 160

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the knowledge base",
	Long: `Embeds the query and prints the closest passages, best match first,
with the page they came from and when it was last crawled. Nothing is sent
to the LLM.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultTopK, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print hits as a JSON array")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if retriever == nil {
		return errors.New("search service not configured")
	}

	hits, err := retriever.Search(cmd.Context(), args[0], searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return printHitsJSON(cmd, hits)
	}
	printHits(cmd, hits)
	return nil
}

func printHitsJSON(cmd *cobra.Command, hits []domain.Hit) error {
	if hits == nil {
		hits = []domain.Hit{}
	}
	data, err := json.MarshalIndent(hits, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// printHits writes one block per hit: rank, title and score, then the URL
// with its provenance, then a one-line snippet.
func printHits(cmd *cobra.Command, hits []domain.Hit) {
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return
	}

	for i, h := range hits {
		title := h.Title
		if title == "" {
			title = "(untitled)"
		}
		cmd.Printf("[%d] %s (%.2f)\n", i+1, title, h.Score)
		cmd.Println("    " + mutedStyle.Render(provenance(h.Chunk)))
		if snippet := truncate(h.Content, snippetLen); snippet != "" {
			cmd.Println("    " + snippet)
		}
		cmd.Println()
	}
}

// provenance is "url", followed by the last-seen date and tags when known.
func provenance(c domain.Chunk) string {
	parts := []string{c.URL}
	if c.LastSeen != "" {
		parts = append(parts, "last seen "+c.LastSeen)
	}
	if len(c.Tags) > 0 {
		parts = append(parts, "tags: "+strings.Join(c.Tags, ", "))
	}
	return strings.Join(parts, " | ")
}

// truncate collapses whitespace and cuts s to n runes plus an ellipsis.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
