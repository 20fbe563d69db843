package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sitesage/internal/core/domain"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl the configured site",
	Long: `Walks the site breadth-first from the configured root, staying on the
root's host, honouring robots.txt and the rate limit. The list of pages
found is saved for the next curate run.`,
	Args: cobra.NoArgs,
	RunE: runCrawl,
}

var curateCmd = &cobra.Command{
	Use:   "curate",
	Short: "Rebuild the knowledge base from the last crawl",
	Long: `Fetches every page from the last crawl, splits it into overlapping
passages, tags and embeds them, then publishes a new knowledge base version.
A running server picks the new version up automatically.`,
	Args: cobra.NoArgs,
	RunE: runCurate,
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Crawl and rebuild the knowledge base",
	Args:  cobra.NoArgs,
	RunE:  runRefresh,
}

func init() {
	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(curateCmd)
	rootCmd.AddCommand(refreshCmd)
}

// crawlProgress is implemented by crawl services that report each URL.
type crawlProgress interface {
	SetProgress(fn func(domain.CrawlOutcome))
}

// curationProgress is implemented by curation services that report each page.
type curationProgress interface {
	SetProgress(fn func(domain.CurationOutcome))
}

func runCrawl(cmd *cobra.Command, _ []string) error {
	if crawlService == nil {
		return errors.New("crawl service not configured; set the site root with 'sitesage settings site <url>'")
	}

	watchCrawl(cmd)

	report, err := crawlService.Crawl(cmd.Context())
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	printCrawlReport(cmd, report)
	return nil
}

func runCurate(cmd *cobra.Command, _ []string) error {
	if curationService == nil {
		return errors.New("curation service not configured; check 'sitesage settings show'")
	}

	watchCuration(cmd)

	report, err := curationService.Curate(cmd.Context())
	if err != nil {
		return fmt.Errorf("curation failed: %w", err)
	}

	printCurationReport(cmd, report)
	return nil
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	if refreshService == nil {
		return errors.New("refresh not configured; check 'sitesage settings show'")
	}

	watchCrawl(cmd)
	watchCuration(cmd)

	report, err := refreshService.Refresh(cmd.Context())
	if report != nil && report.Crawl != nil {
		printCrawlReport(cmd, report.Crawl)
	}
	if report != nil && report.Curation != nil {
		printCurationReport(cmd, report.Curation)
	}
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}
	return nil
}

func watchCrawl(cmd *cobra.Command) {
	p, ok := crawlService.(crawlProgress)
	if !ok {
		return
	}
	visited := 0
	p.SetProgress(func(o domain.CrawlOutcome) {
		visited++
		if o.OK() {
			cmd.Printf("\rCrawled %d URLs", visited)
		}
	})
}

func watchCuration(cmd *cobra.Command) {
	p, ok := curationService.(curationProgress)
	if !ok {
		return
	}
	pages, chunks := 0, 0
	p.SetProgress(func(o domain.CurationOutcome) {
		pages++
		chunks += len(o.Chunks)
		cmd.Printf("\rCurated %d pages (%d passages)", pages, chunks)
	})
}

func printCrawlReport(cmd *cobra.Command, report *domain.CrawlReport) {
	cmd.Println()
	cmd.Printf("Crawl of %s finished: %d pages, %d skipped\n",
		report.Root, len(report.Pages), len(report.Skipped))
	printSkips(cmd, report.Skipped)
}

func printCurationReport(cmd *cobra.Command, report *domain.CurationReport) {
	cmd.Println()
	cmd.Printf("Knowledge base %s published: %d passages from %d pages (%s, %d dims)\n",
		report.Manifest.Version, report.Indexed, report.Pages,
		report.Manifest.Model, report.Manifest.Dimensions)
	printSkips(cmd, report.Skipped)
}

// printSkips summarises skips by reason; details need --verbose.
func printSkips(cmd *cobra.Command, skips []domain.Skip) {
	if len(skips) == 0 {
		return
	}
	counts := make(map[domain.SkipReason]int)
	var order []domain.SkipReason
	for _, s := range skips {
		if counts[s.Reason] == 0 {
			order = append(order, s.Reason)
		}
		counts[s.Reason]++
	}
	for _, reason := range order {
		cmd.Printf("  %-18s %d\n", reason, counts[reason])
	}
	if verbose {
		for _, s := range skips {
			cmd.Println(mutedStyle.Render(fmt.Sprintf("  - %s (%s) %s", s.URL, s.Reason, s.Detail)))
		}
	}
}
