package domain

const unknownDescription = "Unknown"

// Category is a specialist response category chosen by the intent router.
type Category string

// The closed set of routing categories, in routing priority order.
const (
	// CategorySalesServices covers offerings, pricing and purchasing.
	CategorySalesServices Category = "sales_services"

	// CategorySupportPolicies covers refunds, warranties and support.
	CategorySupportPolicies Category = "support_policies"

	// CategoryLogisticsContact covers contact details, locations and hours.
	CategoryLogisticsContact Category = "logistics_contact"

	// CategoryGeneralAbout covers the organisation, team and projects.
	CategoryGeneralAbout Category = "general_about"
)

// AllCategories returns every category in fixed priority order.
// Keyword rules and vote tie-breaks both follow this order.
func AllCategories() []Category {
	return []Category{
		CategorySalesServices,
		CategorySupportPolicies,
		CategoryLogisticsContact,
		CategoryGeneralAbout,
	}
}

// IsValid returns true if the category is part of the closed set.
func (c Category) IsValid() bool {
	switch c {
	case CategorySalesServices, CategorySupportPolicies, CategoryLogisticsContact, CategoryGeneralAbout:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (c Category) String() string {
	return string(c)
}

// Description returns the specialist persona name for the category.
func (c Category) Description() string {
	switch c {
	case CategorySalesServices:
		return "Sales & Services Specialist"
	case CategorySupportPolicies:
		return "Support & Policies Specialist"
	case CategoryLogisticsContact:
		return "Logistics & Contact Specialist"
	case CategoryGeneralAbout:
		return "General Info Specialist"
	default:
		return unknownDescription
	}
}
