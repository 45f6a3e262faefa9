package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/stepwise/internal/content"
)

// ErrUnknownSection is returned when a section id is not part of the module.
var ErrUnknownSection = errors.New("unknown section")

// Transition reports what changed as a result of an update.
type Transition struct {
	SectionCompleted bool // a section was newly added to the completed set
	ModuleCompleted  bool // IsCompleted flipped from false to true
	PercentageBefore int
	PercentageAfter  int
}

// Percentage returns round(100*completed/total) with halves rounded up, or
// 0 when total is 0. completed is clamped to [0, total].
func Percentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	completed = max(0, min(completed, total))
	return (200*completed + total) / (2 * total)
}

// Recompute derives CompletionPercentage and IsCompleted from the completed
// set. IsCompleted never reverts once true. CompletedAt is stamped with now
// on the false to true flip.
func Recompute(m *content.Module, rec Record, now time.Time) (Record, Transition) {
	out := rec.Clone()
	tr := Transition{PercentageBefore: rec.CompletionPercentage}

	out.CompletionPercentage = Percentage(countKnown(m, out.CompletedSections), content.TotalSections(m))
	tr.PercentageAfter = out.CompletionPercentage

	if !rec.IsCompleted && out.CompletionPercentage >= 100 {
		out.IsCompleted = true
		t := now
		out.CompletedAt = &t
		tr.ModuleCompleted = true
	}
	return out, tr
}

// MarkSectionComplete adds sectionID to the completed set and recomputes.
// Completing an already completed section is a no-op apart from the
// recompute.
func MarkSectionComplete(m *content.Module, rec Record, sectionID string, now time.Time) (Record, Transition, error) {
	if _, _, ok := content.Locate(m, sectionID); !ok {
		return rec, Transition{}, fmt.Errorf("mark section %q complete: %w", sectionID, ErrUnknownSection)
	}

	out := rec.Clone()
	added := false
	if !out.Has(sectionID) {
		out.CompletedSections = append(out.CompletedSections, sectionID)
		added = true
	}

	out, tr := Recompute(m, out, now)
	tr.SectionCompleted = added
	if added {
		out.UpdatedAt = now
	}
	return out, tr, nil
}

// Reconcile aligns a stored record with the current module content: it drops
// completed ids that no longer exist, clamps the page index, and recomputes.
// A module that was already completed stays completed.
func Reconcile(m *content.Module, rec Record, now time.Time) Record {
	out := rec.Clone()

	known := make(map[string]bool, content.TotalSections(m))
	for _, id := range content.SectionIDs(m) {
		known[id] = true
	}
	kept := out.CompletedSections[:0]
	seen := make(map[string]bool, len(out.CompletedSections))
	for _, id := range out.CompletedSections {
		if known[id] && !seen[id] {
			kept = append(kept, id)
			seen[id] = true
		}
	}
	out.CompletedSections = kept

	pages := 0
	if m != nil {
		pages = len(m.Pages)
	}
	if out.CurrentPageIndex >= pages {
		out.CurrentPageIndex = max(0, pages-1)
	}
	if out.CurrentPageIndex < 0 {
		out.CurrentPageIndex = 0
	}

	out, _ = Recompute(m, out, now)
	return out
}

func countKnown(m *content.Module, ids []string) int {
	n := 0
	for _, id := range ids {
		if _, _, ok := content.Locate(m, id); ok {
			n++
		}
	}
	return n
}
