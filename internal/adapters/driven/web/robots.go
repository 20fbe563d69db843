package web

import (
	"context"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"

	"github.com/custodia-labs/sitesage/internal/core/ports/driven"
	"github.com/custodia-labs/sitesage/internal/logger"
)

// Ensure Robots implements the interface.
var _ driven.RobotsPolicy = (*Robots)(nil)

// Robots evaluates robots.txt rules, fetching each origin's file once.
// A robots.txt that cannot be fetched, returns a non-2xx status or fails
// to parse allows everything.
type Robots struct {
	fetcher   driven.PageFetcher
	userAgent string

	mu    sync.Mutex
	rules map[string]*robotstxt.Group // nil entry means allow all
}

// NewRobots creates a robots policy that fetches through fetcher.
func NewRobots(fetcher driven.PageFetcher, userAgent string) *Robots {
	return &Robots{
		fetcher:   fetcher,
		userAgent: userAgent,
		rules:     make(map[string]*robotstxt.Group),
	}
}

// Allowed reports whether the user agent may fetch rawURL.
func (r *Robots) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}

	group := r.group(ctx, u.Scheme+"://"+u.Host)
	if group == nil {
		return true
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return group.Test(path)
}

// group returns the cached rule group for an origin, fetching on first use.
// The lock is held across the fetch so concurrent callers share one request.
func (r *Robots) group(ctx context.Context, origin string) *robotstxt.Group {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.rules[origin]; ok {
		return g
	}

	g := r.load(ctx, origin)
	if ctx.Err() == nil {
		r.rules[origin] = g
	}
	return g
}

func (r *Robots) load(ctx context.Context, origin string) *robotstxt.Group {
	robotsURL := origin + "/robots.txt"

	raw, err := r.fetcher.Fetch(ctx, robotsURL)
	if err != nil {
		logger.Debug("robots.txt unavailable for %s: %v", origin, err)
		return nil
	}
	if raw.StatusCode < 200 || raw.StatusCode > 299 {
		logger.Debug("robots.txt for %s returned %d, allowing all", origin, raw.StatusCode)
		return nil
	}

	data, err := robotstxt.FromBytes(raw.Content)
	if err != nil {
		logger.Warn("robots.txt for %s could not be parsed, allowing all: %v", origin, err)
		return nil
	}
	return data.FindGroup(r.userAgent)
}
