package components

import (
	"github.com/abhisek/stepwise/internal/ui/theme"
)

// Button renders a call to action. Disabled buttons are drawn outlined.
func Button(label string, enabled bool) string {
	if enabled {
		return theme.ButtonActive.Render("▸ " + label)
	}
	return theme.ButtonInactive.Foreground(theme.Locked).Render(label)
}
