// Package webhook forwards captured leads to an HTTP endpoint.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/sitesage/internal/core/domain"
	"github.com/custodia-labs/sitesage/internal/core/ports/driven"
)

// Ensure Forwarder implements the interface.
var _ driven.LeadForwarder = (*Forwarder)(nil)

// DefaultTimeout bounds one delivery.
const DefaultTimeout = 8 * time.Second

// payload is the JSON body posted for each lead.
type payload struct {
	Timestamp string `json:"timestamp"`
	Name      string `json:"name"`
	Contact   string `json:"contact"`
	Notes     string `json:"notes"`
	Source    string `json:"source"`
}

// Forwarder posts leads as JSON.
type Forwarder struct {
	url    string
	client *http.Client
}

// NewForwarder returns a forwarder for url, or nil when url is empty.
func NewForwarder(url string, timeout time.Duration) *Forwarder {
	if url == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Forwarder{url: url, client: &http.Client{Timeout: timeout}}
}

// Forward posts one lead. Any non-2xx response is an error.
func (f *Forwarder) Forward(ctx context.Context, lead *domain.Lead) error {
	body, err := json.Marshal(payload{
		Timestamp: lead.CreatedAt.UTC().Format(time.RFC3339Nano),
		Name:      lead.Name,
		Contact:   lead.Contact,
		Notes:     lead.Notes,
		Source:    lead.Source,
	})
	if err != nil {
		return fmt.Errorf("marshal lead: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("post lead: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
