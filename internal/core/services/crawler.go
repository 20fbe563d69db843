package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/custodia-labs/sitesage/internal/core/domain"
	"github.com/custodia-labs/sitesage/internal/core/ports/driven"
	"github.com/custodia-labs/sitesage/internal/core/ports/driving"
	"github.com/custodia-labs/sitesage/internal/logger"
)

// Ensure Crawler implements the interface.
var _ driving.CrawlService = (*Crawler)(nil)

// sitemapPaths are probed on the root host to seed the frontier.
var sitemapPaths = []string{"/sitemap.xml", "/sitemap_index.xml"}

var sitemapLoc = regexp.MustCompile(`(?is)<loc>(.*?)</loc>`)

// CrawlerConfig holds crawl parameters.
type CrawlerConfig struct {
	// Root is the start URL. Its host is the crawl scope.
	Root string

	// MaxDepth is the maximum link distance from the root.
	MaxDepth int
}

// Crawler discovers in-scope pages breadth-first from a root URL.
// It is single-threaded: every network call goes through the fetcher,
// which enforces the rate ceiling.
type Crawler struct {
	cfg        CrawlerConfig
	fetcher    driven.PageFetcher
	robots     driven.RobotsPolicy
	normaliser driven.Normaliser
	pages      driven.PageManifestStore

	progress func(domain.CrawlOutcome)
	now      func() time.Time
}

// NewCrawler creates a new crawler.
func NewCrawler(
	cfg CrawlerConfig,
	fetcher driven.PageFetcher,
	robots driven.RobotsPolicy,
	normaliser driven.Normaliser,
	pages driven.PageManifestStore,
) *Crawler {
	return &Crawler{
		cfg:        cfg,
		fetcher:    fetcher,
		robots:     robots,
		normaliser: normaliser,
		pages:      pages,
		now:        time.Now,
	}
}

// SetProgress registers a callback invoked after every visited URL.
func (c *Crawler) SetProgress(fn func(domain.CrawlOutcome)) {
	c.progress = fn
}

type frontierItem struct {
	url   string
	depth int
}

// Crawl runs a full crawl and replaces the page manifest.
func (c *Crawler) Crawl(ctx context.Context) (*domain.CrawlReport, error) {
	root, err := parseRoot(c.cfg.Root)
	if err != nil {
		return nil, err
	}

	logger.Section("Crawl")
	logger.Debug("Root: %s, max depth: %d", c.cfg.Root, c.cfg.MaxDepth)

	report := &domain.CrawlReport{
		Root:      c.cfg.Root,
		StartedAt: c.now(),
		Pages:     []domain.PageRecord{},
		Skipped:   []domain.Skip{},
	}

	queue := []frontierItem{{url: c.cfg.Root, depth: 0}}
	seen := map[string]bool{c.cfg.Root: true}

	seeds, outOfScope := c.discoverSitemaps(ctx, root)
	for _, u := range seeds {
		if !seen[u] {
			seen[u] = true
			queue = append(queue, frontierItem{url: u, depth: 0})
		}
	}
	for _, u := range outOfScope {
		report.Skipped = append(report.Skipped, domain.Skip{URL: u, Reason: domain.SkipOutOfScope, Detail: "sitemap"})
	}
	logger.Debug("Frontier seeded with %d URLs", len(queue))

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("crawl cancelled: %w", err)
		}

		item := queue[0]
		queue = queue[1:]

		outcome, links := c.visit(ctx, root, item)
		if outcome.OK() {
			report.Pages = append(report.Pages, *outcome.Page)
		} else {
			report.Skipped = append(report.Skipped, *outcome.Skip)
			logger.L().Debug("crawl skip",
				zap.String("url", outcome.Skip.URL),
				zap.String("reason", string(outcome.Skip.Reason)),
				zap.String("detail", outcome.Skip.Detail))
		}
		if c.progress != nil {
			c.progress(outcome)
		}

		if item.depth+1 > c.cfg.MaxDepth {
			continue
		}
		for _, link := range links {
			if !seen[link] {
				seen[link] = true
				queue = append(queue, frontierItem{url: link, depth: item.depth + 1})
			}
		}
	}

	report.FinishedAt = c.now()

	if err := c.pages.SavePages(ctx, report.Pages); err != nil {
		return nil, fmt.Errorf("save page manifest: %w", err)
	}

	logger.Info("Crawl finished: %d pages, %d skipped", len(report.Pages), len(report.Skipped))
	return report, nil
}

// visit processes one frontier URL. On success it returns the page record
// and the in-scope links to enqueue, in document order.
func (c *Crawler) visit(ctx context.Context, root *url.URL, item frontierItem) (domain.CrawlOutcome, []string) {
	outcome := domain.CrawlOutcome{URL: item.url, Depth: item.depth}
	skip := func(reason domain.SkipReason, detail string) (domain.CrawlOutcome, []string) {
		outcome.Skip = &domain.Skip{URL: item.url, Reason: reason, Detail: detail}
		return outcome, nil
	}

	if !c.robots.Allowed(ctx, item.url) {
		return skip(domain.SkipRobotsDisallowed, "")
	}

	raw, err := c.fetcher.Fetch(ctx, item.url)
	if err != nil {
		return skip(domain.SkipFetchError, err.Error())
	}
	if raw.StatusCode != 200 {
		return skip(domain.SkipHTTPStatus, strconv.Itoa(raw.StatusCode))
	}
	if !raw.IsHTML() {
		return skip(domain.SkipNotHTML, raw.ContentType)
	}

	result, err := c.normaliser.Normalise(ctx, raw)
	if err != nil {
		return skip(domain.SkipParseError, err.Error())
	}
	doc := result.Document

	var links []string
	for _, link := range doc.Links {
		if inScope(root, link) {
			links = append(links, link)
		}
	}

	var lastModified *string
	if raw.LastModified != "" {
		lm := raw.LastModified
		lastModified = &lm
	}

	outcome.Page = &domain.PageRecord{
		URL:          item.url,
		StatusCode:   raw.StatusCode,
		Title:        doc.Title,
		LastModified: lastModified,
		DiscoveredAt: domain.FormatDate(c.now()),
		ContentHash:  hashText(doc.Content),
		Outlinks:     sortedUnique(links),
		Depth:        item.depth,
	}
	return outcome, links
}

// discoverSitemaps returns in-scope and out-of-scope <loc> URLs
// from the root's sitemap files. Failures are ignored.
func (c *Crawler) discoverSitemaps(ctx context.Context, root *url.URL) (inside, outside []string) {
	seen := make(map[string]bool)
	for _, path := range sitemapPaths {
		sm := root.ResolveReference(&url.URL{Path: path}).String()
		raw, err := c.fetcher.Fetch(ctx, sm)
		if err != nil {
			logger.Debug("Sitemap %s unavailable: %v", sm, err)
			continue
		}
		if raw.StatusCode != 200 {
			logger.Debug("Sitemap %s returned %d", sm, raw.StatusCode)
			continue
		}
		for _, m := range sitemapLoc.FindAllStringSubmatch(string(raw.Content), -1) {
			loc := stripFragment(strings.TrimSpace(html.UnescapeString(m[1])))
			if loc == "" || seen[loc] {
				continue
			}
			seen[loc] = true
			if inScope(root, loc) {
				inside = append(inside, loc)
			} else {
				outside = append(outside, loc)
			}
		}
	}
	return inside, outside
}

// stripFragment drops any #fragment so a sitemap entry keys the frontier
// the same way an extracted link does.
func stripFragment(loc string) string {
	if i := strings.IndexByte(loc, '#'); i >= 0 {
		return loc[:i]
	}
	return loc
}

// parseRoot validates the crawl root.
func parseRoot(root string) (*url.URL, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: site root not configured", domain.ErrInvalidInput)
	}
	u, err := url.Parse(root)
	if err != nil {
		return nil, fmt.Errorf("%w: site root: %w", domain.ErrInvalidInput, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: site root must be an absolute http(s) URL", domain.ErrInvalidInput)
	}
	return u, nil
}

// inScope reports whether link is http(s) on exactly the root's host.
func inScope(root *url.URL, link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host == root.Host
}

func hashText(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func sortedUnique(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
