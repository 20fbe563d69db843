package services

import (
	"strings"

	"github.com/custodia-labs/sitesage/internal/core/domain"
)

// KeywordRule routes a query to Category when its lower-cased text
// contains any of Keywords.
type KeywordRule struct {
	Category domain.Category
	Keywords []string
}

// DefaultKeywordRules returns the routing rules in priority order.
// The first matching rule wins.
func DefaultKeywordRules() []KeywordRule {
	return []KeywordRule{
		{
			Category: domain.CategorySalesServices,
			Keywords: []string{"price", "pricing", "quote", "cost", "package", "buy", "purchase", "service", "lead"},
		},
		{
			Category: domain.CategorySupportPolicies,
			Keywords: []string{"refund", "warranty", "policy", "support", "repair", "return"},
		},
		{
			Category: domain.CategoryLogisticsContact,
			Keywords: []string{"contact", "phone", "email", "address", "where", "location", "hours", "timing"},
		},
		{
			Category: domain.CategoryGeneralAbout,
			Keywords: []string{"about", "team", "who are you", "case study", "projects", "portfolio"},
		},
	}
}

// DefaultTagVotes maps chunk tags to the category they vote for.
// Tags not listed cast no vote.
func DefaultTagVotes() map[string]domain.Category {
	return map[string]domain.Category{
		"services":     domain.CategorySalesServices,
		"pricing":      domain.CategorySalesServices,
		"faq":          domain.CategorySupportPolicies,
		"policy":       domain.CategorySupportPolicies,
		"support":      domain.CategorySupportPolicies,
		"contact":      domain.CategoryLogisticsContact,
		"location":     domain.CategoryLogisticsContact,
		"about":        domain.CategoryGeneralAbout,
		"general":      domain.CategoryGeneralAbout,
		"case_studies": domain.CategoryGeneralAbout,
	}
}

// Router classifies queries into specialist categories.
// It is stateless; callers own any session state.
type Router struct {
	rules    []KeywordRule
	votes    map[string]domain.Category
	order    []domain.Category
	fallback domain.Category
}

// NewRouter creates a router with the default tables.
func NewRouter() *Router {
	return NewRouterWithTables(DefaultKeywordRules(), DefaultTagVotes())
}

// NewRouterWithTables creates a router with custom tables.
// Vote ties resolve to the earliest category in domain.AllCategories order.
func NewRouterWithTables(rules []KeywordRule, votes map[string]domain.Category) *Router {
	return &Router{
		rules:    rules,
		votes:    votes,
		order:    domain.AllCategories(),
		fallback: domain.CategoryGeneralAbout,
	}
}

// Route returns the category for query. Keyword rules are tried first;
// without a keyword match the hits' tags vote.
func (r *Router) Route(query string, hits []domain.Hit) domain.Category {
	if c, ok := r.MatchKeywords(query); ok {
		return c
	}
	return r.Vote(hits)
}

// MatchKeywords returns the first rule whose keyword occurs in query.
func (r *Router) MatchKeywords(query string) (domain.Category, bool) {
	q := strings.ToLower(query)
	for _, rule := range r.rules {
		for _, k := range rule.Keywords {
			if strings.Contains(q, k) {
				return rule.Category, true
			}
		}
	}
	return "", false
}

// Vote tallies one vote per mapped tag per hit and returns the category
// with the most votes. With no votes at all it returns general_about.
func (r *Router) Vote(hits []domain.Hit) domain.Category {
	tally := make(map[domain.Category]int, len(r.order))
	for _, h := range hits {
		for _, tag := range h.Tags {
			if c, ok := r.votes[tag]; ok {
				tally[c]++
			}
		}
	}

	best, bestVotes := r.fallback, 0
	for _, c := range r.order {
		if tally[c] > bestVotes {
			best, bestVotes = c, tally[c]
		}
	}
	return best
}
