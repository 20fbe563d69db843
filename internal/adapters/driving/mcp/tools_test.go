package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sitesage/internal/core/domain"
)

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns hits", func(t *testing.T) {
		retriever := &mockRetriever{
			hits: []domain.Hit{
				{
					Chunk: domain.Chunk{
						ID:       0,
						Content:  "We ship worldwide.",
						URL:      "https://example.com/shipping",
						Title:    "Shipping",
						LastSeen: "2024-05-01T10:00:00Z",
						Tags:     []string{"shipping"},
					},
					Score: 0.91,
				},
			},
		}

		server, err := NewServer(&Ports{Retriever: retriever})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "shipping", Limit: 3})

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		assert.Equal(t, "https://example.com/shipping", output.Results[0].URL)
		assert.Equal(t, "Shipping", output.Results[0].Title)
		assert.Equal(t, "We ship worldwide.", output.Results[0].Content)
		assert.Equal(t, []string{"shipping"}, output.Results[0].Tags)
		assert.InDelta(t, 0.91, output.Results[0].Score, 1e-9)
		assert.Equal(t, 3, retriever.lastK)
	})

	t.Run("default and maximum limit", func(t *testing.T) {
		retriever := &mockRetriever{}
		server, err := NewServer(&Ports{Retriever: retriever})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "x"})
		require.NoError(t, err)
		assert.Equal(t, defaultSearchLimit, retriever.lastK)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "x", Limit: 1000})
		require.NoError(t, err)
		assert.Equal(t, maxSearchLimit, retriever.lastK)
	})

	t.Run("empty query is rejected", func(t *testing.T) {
		server, err := NewServer(&Ports{Retriever: &mockRetriever{}})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "   "})
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		server, err := NewServer(&Ports{Retriever: &mockRetriever{err: errors.New("index gone")}})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "test"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "index gone")
	})
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("allocates a session and carries it across turns", func(t *testing.T) {
		answers := &mockAnswerService{label: domain.CategorySalesServices}
		sessions := newMockSessionRegistry()
		server, err := NewServer(&Ports{
			Retriever: &mockRetriever{},
			Answer:    answers,
			Sessions:  sessions,
		})
		require.NoError(t, err)

		_, first, err := server.handleAsk(ctx, nil, AskInput{Question: "what do you sell?"})
		require.NoError(t, err)
		require.NotEmpty(t, first.SessionID)
		assert.Equal(t, "sales_services", first.Label)
		assert.Equal(t, "reply to what do you sell?", first.Reply)
		assert.Empty(t, first.Handoff)

		answers.label = domain.CategoryLogisticsContact
		_, second, err := server.handleAsk(ctx, nil, AskInput{Question: "where are you?", SessionID: first.SessionID})
		require.NoError(t, err)
		assert.Equal(t, first.SessionID, second.SessionID)
		assert.Equal(t, "sales_services -> logistics_contact", second.Handoff)
		assert.Equal(t, 1, sessions.Len())
	})

	t.Run("without a registry every call is a fresh session", func(t *testing.T) {
		answers := &mockAnswerService{label: domain.CategoryGeneralAbout}
		server, err := NewServer(&Ports{Retriever: &mockRetriever{}, Answer: answers})
		require.NoError(t, err)

		_, out, err := server.handleAsk(ctx, nil, AskInput{Question: "who are you?", SessionID: "ignored"})
		require.NoError(t, err)
		assert.Empty(t, out.SessionID)
		assert.Empty(t, out.Handoff)
	})

	t.Run("empty question is rejected", func(t *testing.T) {
		answers := &mockAnswerService{}
		server, err := NewServer(&Ports{Retriever: &mockRetriever{}, Answer: answers})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: ""})
		assert.ErrorIs(t, err, ErrEmptyQuery)
		assert.Empty(t, answers.questions)
	})
}

func TestServer_handleCaptureLead(t *testing.T) {
	ctx := context.Background()

	t.Run("captures with mcp source", func(t *testing.T) {
		leads := &mockLeadService{}
		server, err := NewServer(&Ports{Retriever: &mockRetriever{}, Leads: leads})
		require.NoError(t, err)

		_, out, err := server.handleCaptureLead(ctx, nil, LeadInput{
			Name:    "Ada",
			Contact: "ada@example.com",
			Notes:   "wants a quote",
		})

		require.NoError(t, err)
		assert.Equal(t, "lead-1", out.ID)
		require.Len(t, leads.captured, 1)
		assert.Equal(t, "mcp", leads.captured[0].Source)
		assert.Equal(t, "wants a quote", leads.captured[0].Notes)
	})

	t.Run("wraps service errors", func(t *testing.T) {
		leads := &mockLeadService{err: domain.ErrInvalidInput}
		server, err := NewServer(&Ports{Retriever: &mockRetriever{}, Leads: leads})
		require.NoError(t, err)

		_, _, err = server.handleCaptureLead(ctx, nil, LeadInput{Name: "Ada"})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Contains(t, err.Error(), "capturing lead")
	})
}
