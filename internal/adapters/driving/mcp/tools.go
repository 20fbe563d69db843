package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sitesage/internal/core/domain"
)

const (
	defaultSearchLimit = 6
	maxSearchLimit     = 50

	// leadSource labels leads captured through MCP.
	leadSource = "mcp"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the question or keywords to look up on the site"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of passages to return (default 6)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []HitOutput `json:"results"`
	Count   int         `json:"count"`
}

// HitOutput represents a single retrieved passage.
type HitOutput struct {
	URL      string   `json:"url"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	LastSeen string   `json:"last_seen,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Score    float64  `json:"score"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question  string `json:"question" jsonschema:"the visitor question to answer from site content"`
	SessionID string `json:"session_id,omitempty" jsonschema:"conversation id returned by a previous ask call"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	SessionID    string `json:"session_id,omitempty"`
	Label        string `json:"label"`
	Reply        string `json:"reply"`
	Sources      string `json:"sources"`
	Handoff      string `json:"handoff,omitempty"`
	PromptTokens int    `json:"prompt_tokens,omitempty"`
}

// LeadInput is the input schema for the capture_lead tool.
type LeadInput struct {
	Name    string `json:"name" jsonschema:"visitor name"`
	Contact string `json:"contact" jsonschema:"email address or phone number"`
	Notes   string `json:"notes,omitempty" jsonschema:"what the visitor needs"`
}

// LeadOutput is the output schema for the capture_lead tool.
type LeadOutput struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"timestamp"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search the site knowledge base for relevant passages",
	}, s.handleSearch)

	if s.ports.Answer != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Answer a visitor question using only site content, with cited sources",
		}, s.handleAsk)
	}

	if s.ports.Leads != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "capture_lead",
			Description: "Record a contact request so the team can follow up",
		}, s.handleCaptureLead)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, SearchOutput{}, ErrEmptyQuery
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	hits, err := s.ports.Retriever.Search(ctx, query, limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]HitOutput, len(hits)),
		Count:   len(hits),
	}
	for i := range hits {
		output.Results[i] = HitOutput{
			URL:      hits[i].URL,
			Title:    hits[i].Title,
			Content:  hits[i].Content,
			LastSeen: hits[i].LastSeen,
			Tags:     hits[i].Tags,
			Score:    hits[i].Score,
		}
	}

	return nil, output, nil
}

// handleAsk handles the ask tool invocation.
// Error answers are returned as regular output so the caller sees one shape.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, AskOutput{}, ErrEmptyQuery
	}

	var answer domain.Answer
	sessionID := input.SessionID

	if s.ports.Sessions != nil {
		if sessionID == "" {
			sessionID = s.ports.Sessions.NewSession()
		}
		s.ports.Sessions.Turn(sessionID, func(state *domain.SessionState) {
			answer = s.ports.Answer.Answer(ctx, input.Question, state)
		})
	} else {
		answer = s.ports.Answer.Answer(ctx, input.Question, &domain.SessionState{})
		sessionID = ""
	}

	return nil, AskOutput{
		SessionID:    sessionID,
		Label:        answer.Label,
		Reply:        answer.Reply,
		Sources:      answer.Sources,
		Handoff:      answer.Handoff,
		PromptTokens: answer.PromptTokens,
	}, nil
}

// handleCaptureLead handles the capture_lead tool invocation.
func (s *Server) handleCaptureLead(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input LeadInput,
) (*mcp.CallToolResult, LeadOutput, error) {
	lead, err := s.ports.Leads.Capture(ctx, domain.Lead{
		Name:    input.Name,
		Contact: input.Contact,
		Notes:   input.Notes,
		Source:  leadSource,
	})
	if err != nil {
		return nil, LeadOutput{}, fmt.Errorf("capturing lead: %w", err)
	}

	return nil, LeadOutput{ID: lead.ID, CreatedAt: lead.CreatedAt}, nil
}
