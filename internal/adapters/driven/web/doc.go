// Package web provides the HTTP page fetcher and robots.txt policy used by
// the crawler.
//
// Every request made through a Fetcher, including sitemap and robots.txt
// fetches, takes a token from one shared limiter, so the configured rate is
// a ceiling for the whole crawl. A 429 or 503 with Retry-After additionally
// pauses all fetches until the server's deadline.
package web
