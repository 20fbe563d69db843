package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/sitesage/internal/core/domain"
	"github.com/custodia-labs/sitesage/internal/core/ports/driven"
	"github.com/custodia-labs/sitesage/internal/logger"
)

const groundingPreamble = "You MUST use only the following retrieved documents as factual ground (do NOT hallucinate)."

// Composer builds the system and user prompts for one turn.
type Composer struct {
	prompts    driven.PromptStore
	maxContext int
}

// NewComposer creates a composer. prompts may be nil, in which case the
// built-in contract is used. maxContext caps the hits placed in the
// context block; zero means no cap.
func NewComposer(prompts driven.PromptStore, maxContext int) *Composer {
	return &Composer{prompts: prompts, maxContext: maxContext}
}

// RoleLine returns the one-line persona statement for a category.
func RoleLine(c domain.Category) string {
	return fmt.Sprintf("You are %s - answer only from retrieved site documents. Use the Answer Contract.", c.Description())
}

// Compose returns the prompt pair for category, hits and query.
func (c *Composer) Compose(category domain.Category, hits []domain.Hit, query string) domain.Prompt {
	system := c.load(driven.PromptAnswerContract, domain.DefaultAnswerContract) + "\n\n" + RoleLine(category)

	var user strings.Builder
	user.WriteString(groundingPreamble)
	user.WriteString("\n\n")
	user.WriteString(c.contextBlock(hits))
	user.WriteString("\n\nUser question:\n")
	user.WriteString(query)
	user.WriteString("\n\n")
	user.WriteString(c.load(driven.PromptAnswerInstructions, domain.DefaultAnswerInstructions))
	user.WriteString("\n")

	return domain.Prompt{System: system, User: user.String()}
}

// contextBlock enumerates hits, or states that nothing was retrieved.
func (c *Composer) contextBlock(hits []domain.Hit) string {
	hits = c.capped(hits)
	if len(hits) == 0 {
		return domain.NoRetrievedDocs
	}

	parts := make([]string, 0, len(hits))
	for i, h := range hits {
		parts = append(parts, fmt.Sprintf("[%d] TITLE: %s\nURL: %s\nLAST_SEEN: %s\n\nCONTENT:\n%s\n\n---\n",
			i+1, titleOrUntitled(h.Title), h.URL, h.LastSeen, h.Content))
	}
	return strings.Join(parts, "\n")
}

// RenderSources renders hits as numbered "n) title - url (last_seen: date)" lines.
func (c *Composer) RenderSources(hits []domain.Hit) string {
	hits = c.capped(hits)
	lines := make([]string, 0, len(hits))
	for i, h := range hits {
		lines = append(lines, fmt.Sprintf("%d) %s - %s (last_seen: %s)", i+1, titleOrUntitled(h.Title), h.URL, h.LastSeen))
	}
	return strings.Join(lines, "\n")
}

func (c *Composer) capped(hits []domain.Hit) []domain.Hit {
	if c.maxContext > 0 && len(hits) > c.maxContext {
		return hits[:c.maxContext]
	}
	return hits
}

// load returns a prompt from the store, falling back to def.
func (c *Composer) load(name, def string) string {
	if c.prompts == nil {
		return def
	}
	text, err := c.prompts.Load(name)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			logger.Warn("Prompt %q unavailable, using default: %v", name, err)
		}
		return def
	}
	return text
}

func titleOrUntitled(title string) string {
	if strings.TrimSpace(title) == "" {
		return domain.UntitledPage
	}
	return title
}
