// Package gating decides which pages and sections a learner may reach.
// Unlock order is strictly linear: a section opens once every earlier
// section on its page is completed, and a page opens once every section of
// the page before it is completed.
package gating

import (
	"errors"
	"fmt"

	"github.com/abhisek/stepwise/internal/content"
	"github.com/abhisek/stepwise/internal/progress"
)

// ErrPagePreconditionNotMet is matched by GateError.
var ErrPagePreconditionNotMet = errors.New("previous page not completed")

// GateError reports a refused page navigation.
type GateError struct {
	Target  int
	Missing []string // incomplete section ids on the preceding page
}

func (e *GateError) Error() string {
	return fmt.Sprintf("page %d is locked: %d section(s) on page %d not completed", e.Target, len(e.Missing), e.Target-1)
}

func (e *GateError) Unwrap() error { return ErrPagePreconditionNotMet }

// Status is the display state of a section.
type Status int

const (
	Locked Status = iota
	Actionable
	Completed
)

func (s Status) String() string {
	switch s {
	case Locked:
		return "locked"
	case Actionable:
		return "actionable"
	case Completed:
		return "completed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// IsSectionLocked reports whether the section at (pageIdx, sectionIdx) is
// locked. The first section of the first page is never locked.
func IsSectionLocked(m *content.Module, rec progress.Record, pageIdx, sectionIdx int) (bool, error) {
	sections, err := content.SectionsOfPage(m, pageIdx)
	if err != nil {
		return false, err
	}
	if sectionIdx < 0 || sectionIdx >= len(sections) {
		return false, &content.IndexError{Kind: "section", Index: sectionIdx, Len: len(sections)}
	}
	for _, s := range sections[:sectionIdx] {
		if !rec.Has(s.ID) {
			return true, nil
		}
	}
	return false, nil
}

// IsPageUnlocked reports whether the page at pageIdx may be shown. Only the
// immediately preceding page is checked.
func IsPageUnlocked(m *content.Module, rec progress.Record, pageIdx int) (bool, error) {
	if _, err := content.SectionsOfPage(m, pageIdx); err != nil {
		return false, err
	}
	return len(missingOnPage(m, rec, pageIdx-1)) == 0, nil
}

// GoToPage returns a copy of rec positioned on target. Moving backwards or
// staying put is always allowed. The input record is never modified.
func GoToPage(m *content.Module, rec progress.Record, target int) (progress.Record, error) {
	if _, err := content.SectionsOfPage(m, target); err != nil {
		return rec, err
	}
	if target > rec.CurrentPageIndex {
		if missing := missingOnPage(m, rec, target-1); len(missing) > 0 {
			return rec, &GateError{Target: target, Missing: missing}
		}
	}
	out := rec.Clone()
	out.CurrentPageIndex = target
	return out, nil
}

// SectionStatus classifies a section for rendering.
func SectionStatus(m *content.Module, rec progress.Record, pageIdx, sectionIdx int) (Status, error) {
	s, err := content.SectionAt(m, pageIdx, sectionIdx)
	if err != nil {
		return Locked, err
	}
	if rec.Has(s.ID) {
		return Completed, nil
	}
	locked, err := IsSectionLocked(m, rec, pageIdx, sectionIdx)
	if err != nil {
		return Locked, err
	}
	if locked {
		return Locked, nil
	}
	return Actionable, nil
}

// PageStatus summarizes one page for navigation tabs.
type PageStatus struct {
	Index     int
	Unlocked  bool
	Completed int
	Total     int
}

// Done reports whether every section of the page is completed.
func (p PageStatus) Done() bool {
	return p.Completed == p.Total
}

// PageStatuses returns the status of every page in order.
func PageStatuses(m *content.Module, rec progress.Record) []PageStatus {
	if m == nil {
		return nil
	}
	out := make([]PageStatus, len(m.Pages))
	for i, p := range m.Pages {
		ps := PageStatus{Index: i, Total: len(p.Sections)}
		for _, s := range p.Sections {
			if rec.Has(s.ID) {
				ps.Completed++
			}
		}
		ps.Unlocked = len(missingOnPage(m, rec, i-1)) == 0
		out[i] = ps
	}
	return out
}

// missingOnPage returns the incomplete section ids on pageIdx. A page index
// outside the module has nothing missing.
func missingOnPage(m *content.Module, rec progress.Record, pageIdx int) []string {
	sections, err := content.SectionsOfPage(m, pageIdx)
	if err != nil {
		return nil
	}
	var missing []string
	for _, s := range sections {
		if !rec.Has(s.ID) {
			missing = append(missing, s.ID)
		}
	}
	return missing
}
