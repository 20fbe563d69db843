package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/sitesage/internal/core/domain"
	"github.com/custodia-labs/sitesage/internal/core/ports/driven"
)

func sampleHits() []domain.Hit {
	return []domain.Hit{
		{Chunk: domain.Chunk{ID: 0, Content: "Plans start at 10 EUR.", URL: "https://acme.test/pricing", Title: "Pricing", LastSeen: "2026-05-01"}, Score: 0.9},
		{Chunk: domain.Chunk{ID: 1, Content: "Call 555-0100.", URL: "https://acme.test/contact", Title: "", LastSeen: "2026-05-02"}, Score: 0.5},
	}
}

func TestComposer_Compose_SystemPrompt(t *testing.T) {
	c := NewComposer(nil, 6)

	p := c.Compose(domain.CategorySalesServices, nil, "q")

	assert.True(t, strings.HasPrefix(p.System, domain.DefaultAnswerContract+"\n\n"))
	assert.True(t, strings.HasSuffix(p.System,
		"You are Sales & Services Specialist - answer only from retrieved site documents. Use the Answer Contract."))
}

func TestComposer_Compose_UserPrompt(t *testing.T) {
	c := NewComposer(nil, 6)

	p := c.Compose(domain.CategoryGeneralAbout, sampleHits(), "How much is it?")

	want := "You MUST use only the following retrieved documents as factual ground (do NOT hallucinate).\n\n" +
		"[1] TITLE: Pricing\nURL: https://acme.test/pricing\nLAST_SEEN: 2026-05-01\n\nCONTENT:\nPlans start at 10 EUR.\n\n---\n" +
		"\n" +
		"[2] TITLE: (untitled)\nURL: https://acme.test/contact\nLAST_SEEN: 2026-05-02\n\nCONTENT:\nCall 555-0100.\n\n---\n" +
		"\n\nUser question:\nHow much is it?\n\n" +
		domain.DefaultAnswerInstructions + "\n"
	assert.Equal(t, want, p.User)
}

func TestComposer_Compose_NoHitsPlaceholder(t *testing.T) {
	c := NewComposer(nil, 6)

	p := c.Compose(domain.CategoryGeneralAbout, nil, "anything")

	assert.Contains(t, p.User, "\n\n"+domain.NoRetrievedDocs+"\n\nUser question:\nanything")
}

func TestComposer_Compose_CapsContext(t *testing.T) {
	c := NewComposer(nil, 1)

	p := c.Compose(domain.CategoryGeneralAbout, sampleHits(), "q")

	assert.Contains(t, p.User, "[1] TITLE: Pricing")
	assert.NotContains(t, p.User, "[2]")
	assert.Equal(t, "1) Pricing - https://acme.test/pricing (last_seen: 2026-05-01)", c.RenderSources(sampleHits()))
}

func TestComposer_Compose_UsesPromptStore(t *testing.T) {
	store := &mockPromptStore{prompts: map[string]string{
		driven.PromptAnswerContract:     "Custom contract.",
		driven.PromptAnswerInstructions: "Be brief.",
	}}
	c := NewComposer(store, 6)

	p := c.Compose(domain.CategoryLogisticsContact, nil, "q")

	assert.Equal(t, "Custom contract.\n\n"+RoleLine(domain.CategoryLogisticsContact), p.System)
	assert.True(t, strings.HasSuffix(p.User, "\n\nBe brief.\n"))
}

func TestComposer_Compose_PromptStoreFallback(t *testing.T) {
	store := &mockPromptStore{prompts: map[string]string{
		driven.PromptAnswerContract: "   ",
	}}
	c := NewComposer(store, 6)

	p := c.Compose(domain.CategoryGeneralAbout, nil, "q")

	assert.True(t, strings.HasPrefix(p.System, domain.DefaultAnswerContract))
	assert.True(t, strings.HasSuffix(p.User, domain.DefaultAnswerInstructions+"\n"))
}

func TestComposer_Compose_RoleLinePerCategory(t *testing.T) {
	c := NewComposer(nil, 6)

	seen := make(map[string]bool)
	for _, cat := range domain.AllCategories() {
		p := c.Compose(cat, nil, "q")
		role := p.System[strings.LastIndex(p.System, "\n")+1:]
		assert.Equal(t, RoleLine(cat), role)
		seen[role] = true
	}
	assert.Len(t, seen, len(domain.AllCategories()))
}

func TestComposer_RenderSources(t *testing.T) {
	c := NewComposer(nil, 6)

	got := c.RenderSources(sampleHits())

	assert.Equal(t,
		"1) Pricing - https://acme.test/pricing (last_seen: 2026-05-01)\n"+
			"2) (untitled) - https://acme.test/contact (last_seen: 2026-05-02)",
		got)
	assert.Equal(t, "", c.RenderSources(nil))
}
