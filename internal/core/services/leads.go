package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sitesage/internal/core/domain"
	"github.com/custodia-labs/sitesage/internal/core/ports/driven"
	"github.com/custodia-labs/sitesage/internal/core/ports/driving"
	"github.com/custodia-labs/sitesage/internal/logger"
)

// Ensure LeadService implements the interface.
var _ driving.LeadService = (*LeadService)(nil)

// DefaultLeadSource labels leads captured without an explicit source.
const DefaultLeadSource = "chat"

// LeadService stores contact requests and forwards them to a webhook.
type LeadService struct {
	store     driven.LeadStore
	forwarder driven.LeadForwarder
	now       func() time.Time
}

// NewLeadService creates a lead service. forwarder may be nil.
func NewLeadService(store driven.LeadStore, forwarder driven.LeadForwarder) *LeadService {
	return &LeadService{
		store:     store,
		forwarder: forwarder,
		now:       time.Now,
	}
}

// Capture validates, stores and forwards a lead.
// Forwarding failures are logged and never returned.
func (s *LeadService) Capture(ctx context.Context, lead domain.Lead) (*domain.Lead, error) {
	lead.Name = strings.TrimSpace(lead.Name)
	lead.Contact = strings.TrimSpace(lead.Contact)
	lead.Notes = flattenNotes(lead.Notes)
	lead.Source = strings.TrimSpace(lead.Source)

	if lead.Name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if lead.Contact == "" {
		return nil, fmt.Errorf("%w: contact is required", domain.ErrInvalidInput)
	}
	if lead.Source == "" {
		lead.Source = DefaultLeadSource
	}

	lead.ID = uuid.New().String()
	lead.CreatedAt = s.now().UTC()

	if err := s.store.SaveLead(ctx, &lead); err != nil {
		return nil, fmt.Errorf("save lead: %w", err)
	}
	logger.Info("Lead %s captured from %s", lead.ID, lead.Source)

	if s.forwarder != nil {
		if err := s.forwarder.Forward(ctx, &lead); err != nil {
			logger.Warn("Lead %s stored but webhook delivery failed: %v", lead.ID, err)
		}
	}

	return &lead, nil
}

// List returns recent leads, newest first.
func (s *LeadService) List(ctx context.Context, limit int) ([]domain.Lead, error) {
	leads, err := s.store.ListLeads(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return leads, nil
}

// flattenNotes joins note lines with single spaces.
func flattenNotes(notes string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(notes, "\r", " ")), " ")
}
