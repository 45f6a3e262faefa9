package components

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/stepwise/internal/ui/theme"
)

// ContentWidth returns the uniform inner width used for section cards.
func ContentWidth(frameWidth int) int {
	return min(max(frameWidth-6, 20), 90)
}

// SectionCard wraps a section body in a bordered card with a title line.
func SectionCard(title, badge, body string, width int, focused bool) string {
	style := theme.Card
	if focused {
		style = theme.CardFocused
	}
	head := lipgloss.NewStyle().Bold(true).Foreground(theme.Text).Render(title)
	if badge != "" {
		gap := max(1, width-4-lipgloss.Width(head)-lipgloss.Width(badge))
		head += lipgloss.NewStyle().Width(gap).Render("") + badge
	}
	content := head
	if body != "" {
		content += "\n" + body
	}
	return style.Width(width).Render(content)
}
