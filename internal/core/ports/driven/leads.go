package driven

import (
	"context"

	"github.com/custodia-labs/sitesage/internal/core/domain"
)

// LeadStore persists captured leads. Backed by SQLite.
type LeadStore interface {
	// SaveLead appends a lead.
	SaveLead(ctx context.Context, lead *domain.Lead) error

	// ListLeads returns the most recent leads first. limit <= 0 means all.
	ListLeads(ctx context.Context, limit int) ([]domain.Lead, error)
}

// LeadForwarder delivers a copy of a lead to an external system.
type LeadForwarder interface {
	Forward(ctx context.Context, lead *domain.Lead) error
}
