package mcp

import (
	"github.com/custodia-labs/sitesage/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retriever serves knowledge base searches and the manifest.
	Retriever driving.Retriever

	// Answer composes grounded replies. Without it the ask tool is not offered.
	Answer driving.AnswerService

	// Leads stores contact requests. Without it capture_lead is not offered.
	Leads driving.LeadService

	// Sessions keeps router state between ask calls that share a session id.
	Sessions driving.SessionRegistry
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retriever == nil {
		return ErrMissingRetriever
	}
	return nil
}
