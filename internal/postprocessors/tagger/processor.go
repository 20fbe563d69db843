// Package tagger provides a keyword-based chunk tagging processor.
package tagger

import (
	"context"
	"strings"

	"github.com/custodia-labs/sitesage/internal/core/domain"
)

// Tag names assigned by the default rules.
const (
	TagServices = "services"
	TagPricing  = "pricing"
	TagContact  = "contact"
	TagFAQ      = "faq"
	TagGeneral  = "general"
)

// Rule assigns Tag to a chunk whose lower-cased text contains any keyword.
type Rule struct {
	Tag      string
	Keywords []string
}

// DefaultRules returns the built-in keyword rules in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{Tag: TagServices, Keywords: []string{"service", "offer", "solution", "we provide"}},
		{Tag: TagPricing, Keywords: []string{"price", "pricing", "cost", "quote"}},
		{Tag: TagContact, Keywords: []string{"contact", "address", "phone", "email", "location"}},
		{Tag: TagFAQ, Keywords: []string{"faq", "frequently asked"}},
	}
}

// Processor labels chunks with coarse topical tags.
// A chunk may receive several tags; a chunk matching no rule is tagged
// with the fallback tag. It implements the PostProcessor interface.
type Processor struct {
	rules    []Rule
	fallback string
}

// Option configures the tagger processor.
type Option func(*Processor)

// WithRules replaces the default rules.
func WithRules(rules []Rule) Option {
	return func(p *Processor) {
		if len(rules) > 0 {
			p.rules = rules
		}
	}
}

// WithFallback sets the tag for chunks that match no rule.
func WithFallback(tag string) Option {
	return func(p *Processor) {
		if tag != "" {
			p.fallback = tag
		}
	}
}

// New creates a new tagger processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		rules:    DefaultRules(),
		fallback: TagGeneral,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "tagger"
}

// Process tags each input chunk independently. Existing tags are replaced.
func (p *Processor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if len(chunks) == 0 {
		return chunks, nil
	}

	out := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		c.Tags = p.Tag(c.Content)
		out[i] = c
	}
	return out, nil
}

// Tag returns the tags for text, in rule order.
func (p *Processor) Tag(text string) []string {
	lower := strings.ToLower(text)

	var tags []string
	for _, r := range p.rules {
		if containsAny(lower, r.Keywords) {
			tags = append(tags, r.Tag)
		}
	}
	if len(tags) == 0 {
		tags = append(tags, p.fallback)
	}
	return tags
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
