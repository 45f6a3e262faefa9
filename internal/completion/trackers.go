package completion

import (
	"strings"

	"github.com/abhisek/stepwise/internal/content"
)

// FlashcardTracker records which cards of a flashcards section are flipped.
type FlashcardTracker struct {
	total   int
	flipped map[int]bool
}

// NewFlashcardTracker returns a tracker for a section with total cards.
func NewFlashcardTracker(total int) *FlashcardTracker {
	return &FlashcardTracker{total: total, flipped: make(map[int]bool)}
}

// Toggle flips card idx and reports its new state. Out of range indices are
// ignored.
func (f *FlashcardTracker) Toggle(idx int) bool {
	if idx < 0 || idx >= f.total {
		return false
	}
	if f.flipped[idx] {
		delete(f.flipped, idx)
		return false
	}
	f.flipped[idx] = true
	return true
}

// IsFlipped reports whether card idx shows its back.
func (f *FlashcardTracker) IsFlipped(idx int) bool {
	return f.flipped[idx]
}

// Count returns the number of flipped cards.
func (f *FlashcardTracker) Count() int {
	return len(f.flipped)
}

// Total returns the number of cards.
func (f *FlashcardTracker) Total() int {
	return f.total
}

// AllFlipped reports whether every card has been flipped. A section with no
// cards never completes.
func (f *FlashcardTracker) AllFlipped() bool {
	return f.total > 0 && len(f.flipped) == f.total
}

// ChecklistTracker records ticked checklist items. The count is for display;
// checklist completion is manual.
type ChecklistTracker struct {
	items   []content.ChecklistItem
	checked map[int]bool
}

// NewChecklistTracker returns a tracker for the given items.
func NewChecklistTracker(items []content.ChecklistItem) *ChecklistTracker {
	return &ChecklistTracker{items: items, checked: make(map[int]bool)}
}

// Toggle ticks or unticks item idx and reports its new state.
func (c *ChecklistTracker) Toggle(idx int) bool {
	if idx < 0 || idx >= len(c.items) {
		return false
	}
	if c.checked[idx] {
		delete(c.checked, idx)
		return false
	}
	c.checked[idx] = true
	return true
}

// IsChecked reports whether item idx is ticked.
func (c *ChecklistTracker) IsChecked(idx int) bool {
	return c.checked[idx]
}

// Counts returns ticked and total item counts.
func (c *ChecklistTracker) Counts() (checked, total int) {
	return len(c.checked), len(c.items)
}

// RequiredChecked reports whether every required item is ticked.
func (c *ChecklistTracker) RequiredChecked() bool {
	for i, it := range c.items {
		if it.Required && !c.checked[i] {
			return false
		}
	}
	return true
}

// RequiredAnswered reports whether every required question of a
// questionnaire or dropdowns section has a non-blank answer.
func RequiredAnswered(s content.Section, answers map[string]string) bool {
	for i, q := range s.Questions {
		if !q.Required {
			continue
		}
		if strings.TrimSpace(answers[s.AnswerKey(i)]) == "" {
			return false
		}
	}
	return true
}

// AnsweredCount returns how many required questions are answered, and how
// many are required.
func AnsweredCount(s content.Section, answers map[string]string) (answered, required int) {
	for i, q := range s.Questions {
		if !q.Required {
			continue
		}
		required++
		if strings.TrimSpace(answers[s.AnswerKey(i)]) != "" {
			answered++
		}
	}
	return answered, required
}
