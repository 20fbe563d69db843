// Package ollamaapi is the HTTP client shared by the Ollama embedding and
// LLM adapters.
package ollamaapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/sitesage/internal/core/domain"
)

// maxErrorBody bounds how much of a failed response is quoted in errors.
const maxErrorBody = 512

// ErrModelMissing is returned by RequireModel when the model is not pulled.
var ErrModelMissing = errors.New("model not pulled")

// StatusError is a non-200 reply from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ollama: status %d: %s", e.Code, e.Message)
}

// Client talks to one Ollama server.
type Client struct {
	http    *http.Client
	baseURL string
}

// New creates a client. An empty baseURL means the local default.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = domain.DefaultOllamaBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// BaseURL returns the server address without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// PostJSON sends in as JSON to path and decodes the reply into out.
// An "error" field in a 200 reply is returned as an error too.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("ollama: encode %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ollama: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

type tagsResponse struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

// Models lists the locally pulled model names.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}
	var tags tagsResponse
	if err := c.do(req, &tags); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		name := m.Name
		if name == "" {
			name = m.Model
		}
		names = append(names, name)
	}
	return names, nil
}

// RequireModel checks the server answers and has model pulled.
// A model named without a tag matches its ":latest" build.
func (c *Client) RequireModel(ctx context.Context, model string) error {
	names, err := c.Models(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		if sameModel(name, model) {
			return nil
		}
	}
	return fmt.Errorf("ollama: %w: %s (run: ollama pull %s)", ErrModelMissing, model, model)
}

func sameModel(have, want string) bool {
	if have == want {
		return true
	}
	if !strings.Contains(want, ":") {
		return have == want+":latest"
	}
	return false
}

// errorReply is the shape of every Ollama error body.
type errorReply struct {
	Error string `json:"error"`
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ollama: read reply: %w", err)
	}

	var reply errorReply
	_ = json.Unmarshal(data, &reply)

	if resp.StatusCode != http.StatusOK {
		msg := reply.Error
		if msg == "" {
			msg = strings.TrimSpace(string(data))
			if len(msg) > maxErrorBody {
				msg = msg[:maxErrorBody]
			}
		}
		return &StatusError{Code: resp.StatusCode, Message: msg}
	}
	if reply.Error != "" {
		return fmt.Errorf("ollama: %s", reply.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("ollama: decode reply: %w", err)
	}
	return nil
}
