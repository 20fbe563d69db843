package mcp

import (
	"context"
	"strconv"
	"sync"

	"github.com/custodia-labs/sitesage/internal/core/domain"
)

// mockRetriever is a mock implementation of driving.Retriever.
type mockRetriever struct {
	hits     []domain.Hit
	manifest domain.KBManifest
	err      error
	lastK    int
}

func (m *mockRetriever) Search(_ context.Context, _ string, k int) ([]domain.Hit, error) {
	m.lastK = k
	return m.hits, m.err
}

func (m *mockRetriever) Reload(_ context.Context) error {
	return m.err
}

func (m *mockRetriever) Manifest() domain.KBManifest {
	return m.manifest
}

// mockAnswerService advances the session label to a fixed category.
type mockAnswerService struct {
	label     domain.Category
	questions []string
}

func (m *mockAnswerService) Answer(_ context.Context, query string, state *domain.SessionState) domain.Answer {
	m.questions = append(m.questions, query)
	handoff := state.Advance(m.label)
	return domain.Answer{
		Label:   string(m.label),
		Reply:   "reply to " + query,
		Sources: "1) Home - https://example.com/ (last_seen: 2024-01-01)",
		Handoff: handoff,
	}
}

// mockSessionRegistry is a minimal in-memory session registry.
type mockSessionRegistry struct {
	mu     sync.Mutex
	states map[string]*domain.SessionState
	next   int
}

func newMockSessionRegistry() *mockSessionRegistry {
	return &mockSessionRegistry{states: make(map[string]*domain.SessionState)}
}

func (m *mockSessionRegistry) NewSession() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	id := "session-" + strconv.Itoa(m.next)
	m.states[id] = &domain.SessionState{}
	return id
}

func (m *mockSessionRegistry) Turn(id string, fn func(state *domain.SessionState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[id]
	if !ok {
		st = &domain.SessionState{}
		m.states[id] = st
	}
	fn(st)
}

func (m *mockSessionRegistry) Drop(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, id)
}

func (m *mockSessionRegistry) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.states)
}

// mockLeadService records captured leads.
type mockLeadService struct {
	captured []domain.Lead
	err      error
}

func (m *mockLeadService) Capture(_ context.Context, lead domain.Lead) (*domain.Lead, error) {
	if m.err != nil {
		return nil, m.err
	}
	lead.ID = "lead-1"
	m.captured = append(m.captured, lead)
	return &lead, nil
}

func (m *mockLeadService) List(_ context.Context, _ int) ([]domain.Lead, error) {
	return m.captured, m.err
}
