package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sitesage/internal/core/domain"
)

// Palette for answer badges.
var (
	colourSales     = lipgloss.Color("#7C3AED") // Purple
	colourSupport   = lipgloss.Color("#06B6D4") // Cyan
	colourLogistics = lipgloss.Color("#A6E3A1") // Green
	colourGeneral   = lipgloss.Color("#F9E2AF") // Yellow
	colourError     = lipgloss.Color("#F38BA8") // Red
	colourMuted     = lipgloss.Color("#6C7086") // Medium gray
)

var (
	badgeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1E1E2E")).Padding(0, 1)
	mutedStyle   = lipgloss.NewStyle().Foreground(colourMuted)
	handoffStyle = lipgloss.NewStyle().Italic(true).Foreground(colourMuted)
)

// labelColour picks the badge background for an answer label.
func labelColour(label string) lipgloss.Color {
	switch domain.Category(label) {
	case domain.CategorySalesServices:
		return colourSales
	case domain.CategorySupportPolicies:
		return colourSupport
	case domain.CategoryLogisticsContact:
		return colourLogistics
	case domain.CategoryGeneralAbout:
		return colourGeneral
	default:
		return colourError
	}
}

// labelBadge renders the specialist name for an answer label.
func labelBadge(label string) string {
	text := domain.Category(label).Description()
	if label == domain.LabelError {
		text = "Error"
	}
	return badgeStyle.Background(labelColour(label)).Render(text)
}
