package domain

import (
	"mime"
	"strings"
)

// RawPage represents the bytes fetched for one URL.
// It is the fetcher's output before normalisation.
type RawPage struct {
	// URL is the address the page was fetched from.
	// Relative links in the content resolve against it.
	URL string

	// StatusCode is the HTTP status of the response.
	StatusCode int

	// ContentType is the raw Content-Type header value.
	ContentType string

	// LastModified is the Last-Modified header value, if any.
	LastModified string

	// Content is the raw response body.
	Content []byte
}

// MIMEType returns the media type of the page without parameters.
func (r *RawPage) MIMEType() string {
	if r.ContentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(r.ContentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.Split(r.ContentType, ";")[0]))
	}
	return mt
}

// IsHTML reports whether the page declares an HTML content type.
func (r *RawPage) IsHTML() bool {
	switch r.MIMEType() {
	case "text/html", "application/xhtml+xml":
		return true
	default:
		return false
	}
}
