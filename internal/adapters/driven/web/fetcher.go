package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/sitesage/internal/core/domain"
	"github.com/custodia-labs/sitesage/internal/core/ports/driven"
	"github.com/custodia-labs/sitesage/internal/logger"
)

// Ensure Fetcher implements the interface.
var _ driven.PageFetcher = (*Fetcher)(nil)

// Default configuration values.
const (
	DefaultTimeout = 20 * time.Second
	MaxBodyBytes   = 10 << 20
	maxRedirects   = 10
)

// Config holds configuration for the page fetcher.
type Config struct {
	// UserAgent is sent with every request.
	UserAgent string

	// Timeout bounds one request including the body read (default: 20s).
	Timeout time.Duration

	// RateLimit is the request ceiling per second. Zero disables it.
	RateLimit float64

	// Client overrides the HTTP client. Its Timeout is left untouched.
	Client *http.Client
}

// Fetcher performs rate-limited GET requests.
type Fetcher struct {
	client    *http.Client
	userAgent string
	limiter   *RateLimiter
}

// NewFetcher creates a page fetcher.
func NewFetcher(cfg Config) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = domain.DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		}
	}

	return &Fetcher{
		client:    client,
		userAgent: cfg.UserAgent,
		limiter:   NewRateLimiter(cfg.RateLimit),
	}
}

// UserAgent returns the configured user agent.
func (f *Fetcher) UserAgent() string {
	return f.userAgent
}

// Fetch performs a GET and returns the response whatever its status.
// The returned URL is the final one after redirects. Bodies are truncated
// at MaxBodyBytes.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*domain.RawPage, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	f.limiter.UpdateFromResponse(resp)

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}

	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	logger.Debug("GET %s -> %d (%d bytes)", url, resp.StatusCode, len(body))

	return &domain.RawPage{
		URL:          finalURL,
		StatusCode:   resp.StatusCode,
		ContentType:  resp.Header.Get("Content-Type"),
		LastModified: resp.Header.Get("Last-Modified"),
		Content:      body,
	}, nil
}
