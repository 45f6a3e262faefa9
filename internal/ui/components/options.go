package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/stepwise/internal/ui/theme"
)

// OptionMark is how one option of a choice list is drawn.
type OptionMark int

const (
	MarkNone OptionMark = iota
	MarkChosen
	MarkCorrect
	MarkWrong
)

// OptionList renders lettered answer options. cursor is the highlighted
// option, or -1. multi draws checkboxes instead of radio buttons.
func OptionList(options []string, marks []OptionMark, cursor int, multi bool) string {
	var b strings.Builder
	for i, opt := range options {
		mark := MarkNone
		if i < len(marks) {
			mark = marks[i]
		}

		box := "( )"
		if multi {
			box = "[ ]"
		}
		if mark != MarkNone {
			box = "(•)"
			if multi {
				box = "[x]"
			}
		}

		prefix := "  "
		if i == cursor {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%s %c) %s", prefix, box, 'A'+rune(i%26), opt)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		switch {
		case mark == MarkCorrect:
			style = theme.Correct
		case mark == MarkWrong:
			style = theme.Incorrect
		case i == cursor:
			style = theme.Selected
		case mark == MarkChosen:
			style = lipgloss.NewStyle().Foreground(theme.Secondary)
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
