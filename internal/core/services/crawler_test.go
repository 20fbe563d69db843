package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sitesage/internal/core/domain"
	htmlnorm "github.com/custodia-labs/sitesage/internal/normalisers/html"
)

const testRoot = "https://acme.test/"

// newTestSite builds a small site:
//
//	/          -> /about, /contact, /private, https://other.org/x
//	/about     -> /team, /
//	/contact   fetch error
//	/private   disallowed by robots
//	/pricing   only listed in the sitemap
func newTestSite() (*fakeFetcher, *fakeRobots) {
	f := newFakeFetcher()
	f.html(testRoot, `<html><head><title>Acme</title></head><body>
		<h1>Welcome</h1>
		<a href="/about">About</a>
		<a href="/contact">Contact</a>
		<a href="/private">Private</a>
		<a href="https://other.org/x">Elsewhere</a>
	</body></html>`)
	f.html(testRoot+"about", `<html><head><title>About</title></head><body>
		<p>We build things.</p><a href="/team">Team</a><a href="/">Home</a>
	</body></html>`)
	f.html(testRoot+"team", `<html><body><p>Team</p></body></html>`)
	f.html(testRoot+"private", `<html><body><p>secret</p></body></html>`)
	f.html(testRoot+"pricing", `<html><head><title>Pricing</title></head><body><p>From 10 EUR.</p></body></html>`)
	f.errs[testRoot+"contact"] = errors.New("connection reset")
	f.raw(testRoot+"sitemap.xml", 200, "application/xml", `<?xml version="1.0"?>
		<urlset>
			<url><loc>https://acme.test/pricing</loc></url>
			<url><loc>https://other.org/y</loc></url>
		</urlset>`)

	robots := &fakeRobots{disallowed: map[string]bool{testRoot + "private": true}}
	return f, robots
}

func newTestCrawler(f *fakeFetcher, r *fakeRobots, pages *fakePageStore, depth int) *Crawler {
	c := NewCrawler(CrawlerConfig{Root: testRoot, MaxDepth: depth}, f, r, htmlnorm.New(), pages)
	c.now = func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }
	return c
}

func pageURLs(pages []domain.PageRecord) []string {
	urls := make([]string, len(pages))
	for i, p := range pages {
		urls[i] = p.URL
	}
	return urls
}

func TestCrawler_Crawl_BreadthFirst(t *testing.T) {
	f, r := newTestSite()
	store := &fakePageStore{}
	c := newTestCrawler(f, r, store, 1)

	report, err := c.Crawl(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{testRoot, testRoot + "pricing", testRoot + "about"}, pageURLs(report.Pages))
	assert.Equal(t, report.Pages, store.pages, "manifest must be persisted")

	root := report.Pages[0]
	assert.Equal(t, "Acme", root.Title)
	assert.Equal(t, 200, root.StatusCode)
	assert.Equal(t, 0, root.Depth)
	assert.Equal(t, "2026-03-14", root.DiscoveredAt)
	assert.Len(t, root.ContentHash, 64)
	assert.Equal(t, []string{testRoot + "about", testRoot + "contact", testRoot + "private"}, root.Outlinks)

	assert.Equal(t, 0, report.Pages[1].Depth, "sitemap seeds start at depth 0")
	assert.Equal(t, 1, report.Pages[2].Depth)
}

func TestCrawler_Crawl_RecordsSkips(t *testing.T) {
	f, r := newTestSite()
	c := newTestCrawler(f, r, &fakePageStore{}, 1)

	report, err := c.Crawl(context.Background())

	require.NoError(t, err)
	require.Len(t, report.Skipped, 3)
	assert.Equal(t, domain.Skip{URL: "https://other.org/y", Reason: domain.SkipOutOfScope, Detail: "sitemap"}, report.Skipped[0])
	assert.Equal(t, testRoot+"contact", report.Skipped[1].URL)
	assert.Equal(t, domain.SkipFetchError, report.Skipped[1].Reason)
	assert.Equal(t, testRoot+"private", report.Skipped[2].URL)
	assert.Equal(t, domain.SkipRobotsDisallowed, report.Skipped[2].Reason)
}

func TestCrawler_Crawl_RobotsDisallowedNeverFetched(t *testing.T) {
	f, r := newTestSite()
	c := newTestCrawler(f, r, &fakePageStore{}, 3)

	report, err := c.Crawl(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, f.count(testRoot+"private"))
	assert.NotContains(t, pageURLs(report.Pages), testRoot+"private")
}

func TestCrawler_Crawl_FetchErrorDoesNotStopSiblings(t *testing.T) {
	f, r := newTestSite()
	// The failing page would link to /hidden if it could be read.
	f.html(testRoot+"hidden", `<html><body>hidden</body></html>`)
	c := newTestCrawler(f, r, &fakePageStore{}, 3)

	report, err := c.Crawl(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, f.count(testRoot+"contact"))
	assert.Equal(t, 0, f.count(testRoot+"hidden"))
	assert.Contains(t, pageURLs(report.Pages), testRoot+"about", "sibling after the failure is still crawled")
	assert.Contains(t, pageURLs(report.Pages), testRoot+"team")
}

func TestCrawler_Crawl_DepthLimit(t *testing.T) {
	f, r := newTestSite()

	for _, tt := range []struct {
		depth    int
		wantTeam bool
	}{
		{depth: 0, wantTeam: false},
		{depth: 1, wantTeam: false},
		{depth: 2, wantTeam: true},
	} {
		f.counts = make(map[string]int)
		c := newTestCrawler(f, r, &fakePageStore{}, tt.depth)

		report, err := c.Crawl(context.Background())

		require.NoError(t, err)
		assert.Equal(t, tt.wantTeam, f.count(testRoot+"team") == 1, "depth %d", tt.depth)
		if tt.depth == 0 {
			assert.Equal(t, []string{testRoot, testRoot + "pricing"}, pageURLs(report.Pages))
		}
	}
}

func TestCrawler_Crawl_EachURLFetchedOnce(t *testing.T) {
	f, r := newTestSite()
	c := newTestCrawler(f, r, &fakePageStore{}, 5)

	_, err := c.Crawl(context.Background())

	require.NoError(t, err)
	for url, n := range f.counts {
		assert.Equal(t, 1, n, url)
	}
}

func TestCrawler_Crawl_SitemapFragmentsDropped(t *testing.T) {
	f, r := newTestSite()
	f.raw(testRoot+"sitemap.xml", 200, "application/xml", `<?xml version="1.0"?>
		<urlset>
			<url><loc>https://acme.test/pricing#plans</loc></url>
			<url><loc>https://acme.test/pricing</loc></url>
			<url><loc>https://acme.test/#top</loc></url>
		</urlset>`)
	c := newTestCrawler(f, r, &fakePageStore{}, 0)

	report, err := c.Crawl(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{testRoot, testRoot + "pricing"}, pageURLs(report.Pages))
	assert.Equal(t, 1, f.counts[testRoot])
	assert.Equal(t, 1, f.counts[testRoot+"pricing"])
	for url := range f.counts {
		assert.NotContains(t, url, "#")
	}
}

func TestStripFragment(t *testing.T) {
	assert.Equal(t, "https://acme.test/pricing", stripFragment("https://acme.test/pricing#plans"))
	assert.Equal(t, "https://acme.test/", stripFragment("https://acme.test/#"))
	assert.Equal(t, "https://acme.test/a?b=1", stripFragment("https://acme.test/a?b=1"))
}

func TestCrawler_Crawl_SkipsNonHTMLAndBadStatus(t *testing.T) {
	f := newFakeFetcher()
	f.html(testRoot, `<html><body><a href="/doc.pdf">pdf</a><a href="/gone">gone</a></body></html>`)
	f.raw(testRoot+"doc.pdf", 200, "application/pdf", "%PDF")
	f.raw(testRoot+"gone", 410, "text/html", "")
	c := newTestCrawler(f, &fakeRobots{}, &fakePageStore{}, 1)

	report, err := c.Crawl(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{testRoot}, pageURLs(report.Pages))
	require.Len(t, report.Skipped, 2)
	assert.Equal(t, domain.Skip{URL: testRoot + "doc.pdf", Reason: domain.SkipNotHTML, Detail: "application/pdf"}, report.Skipped[0])
	assert.Equal(t, domain.Skip{URL: testRoot + "gone", Reason: domain.SkipHTTPStatus, Detail: "410"}, report.Skipped[1])
}

func TestCrawler_Crawl_LastModified(t *testing.T) {
	f := newFakeFetcher()
	f.html(testRoot, `<html><body>hi</body></html>`)
	f.pages[testRoot].LastModified = "Wed, 21 Oct 2026 07:28:00 GMT"
	c := newTestCrawler(f, &fakeRobots{}, &fakePageStore{}, 0)

	report, err := c.Crawl(context.Background())

	require.NoError(t, err)
	require.Len(t, report.Pages, 1)
	require.NotNil(t, report.Pages[0].LastModified)
	assert.Equal(t, "Wed, 21 Oct 2026 07:28:00 GMT", *report.Pages[0].LastModified)
}

func TestCrawler_Crawl_Progress(t *testing.T) {
	f, r := newTestSite()
	c := newTestCrawler(f, r, &fakePageStore{}, 1)

	var outcomes []domain.CrawlOutcome
	c.SetProgress(func(o domain.CrawlOutcome) { outcomes = append(outcomes, o) })

	_, err := c.Crawl(context.Background())

	require.NoError(t, err)
	require.Len(t, outcomes, 5)
	assert.True(t, outcomes[0].OK())
	assert.False(t, outcomes[3].OK())
}

func TestCrawler_Crawl_InvalidRoot(t *testing.T) {
	for _, root := range []string{"", "ftp://acme.test/", "/relative"} {
		c := NewCrawler(CrawlerConfig{Root: root}, newFakeFetcher(), &fakeRobots{}, htmlnorm.New(), &fakePageStore{})

		_, err := c.Crawl(context.Background())

		assert.ErrorIs(t, err, domain.ErrInvalidInput, root)
	}
}

func TestCrawler_Crawl_Cancelled(t *testing.T) {
	f, r := newTestSite()
	store := &fakePageStore{}
	c := newTestCrawler(f, r, store, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Crawl(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, store.saved)
}

func TestCrawler_Crawl_SaveError(t *testing.T) {
	f, r := newTestSite()
	c := newTestCrawler(f, r, &fakePageStore{saveErr: errBoom}, 0)

	_, err := c.Crawl(context.Background())

	assert.ErrorIs(t, err, errBoom)
}

func TestInScope(t *testing.T) {
	root, err := parseRoot("https://acme.test/")
	require.NoError(t, err)

	assert.True(t, inScope(root, "https://acme.test/a"))
	assert.True(t, inScope(root, "http://acme.test/a"))
	assert.False(t, inScope(root, "https://www.acme.test/a"))
	assert.False(t, inScope(root, "mailto:hi@acme.test"))
	assert.False(t, inScope(root, "https://acme.test:8443/a"))
}

func TestSortedUnique(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, sortedUnique([]string{"c", "a", "b", "a"}))
	assert.Equal(t, []string{}, sortedUnique(nil))
}
