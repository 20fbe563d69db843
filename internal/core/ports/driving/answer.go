package driving

import (
	"context"

	"github.com/custodia-labs/sitesage/internal/core/domain"
)

// AnswerService runs one conversation turn: retrieve, route, compose, generate.
type AnswerService interface {
	// Answer never fails: errors become an answer labelled domain.LabelError
	// and leave state untouched. On success state.Label is advanced.
	Answer(ctx context.Context, query string, state *domain.SessionState) domain.Answer
}

// SessionRegistry owns router state for concurrent conversations.
type SessionRegistry interface {
	// NewSession allocates a session and returns its id.
	NewSession() string

	// Turn runs fn with exclusive access to the session's state,
	// creating the session if id is unknown.
	Turn(id string, fn func(state *domain.SessionState))

	// Drop forgets a session.
	Drop(id string)

	// Len returns the number of live sessions.
	Len() int
}

// LeadService captures contact requests.
type LeadService interface {
	// Capture validates and stores a lead, then forwards it best-effort.
	// Returns the stored lead with id and timestamp populated.
	Capture(ctx context.Context, lead domain.Lead) (*domain.Lead, error)

	// List returns recent leads, newest first.
	List(ctx context.Context, limit int) ([]domain.Lead, error)
}
