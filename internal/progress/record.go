// Package progress holds a learner's per-module progress record and the
// aggregator that derives completion percentage and module completion.
package progress

import (
	"maps"
	"slices"
	"time"
)

// Record is a learner's progress through one module. CompletedSections has
// set semantics and keeps first-completion order.
type Record struct {
	LearnerID            string
	ModuleID             string
	CurrentPageIndex     int
	CompletedSections    []string
	Answers              map[string]string
	CompletionPercentage int
	IsCompleted          bool
	CompletedAt          *time.Time
	UpdatedAt            time.Time
}

// New returns the record a learner starts with.
func New(learnerID, moduleID string) Record {
	return Record{
		LearnerID:         learnerID,
		ModuleID:          moduleID,
		CompletedSections: []string{},
		Answers:           map[string]string{},
	}
}

// Has reports whether sectionID is completed.
func (r Record) Has(sectionID string) bool {
	return slices.Contains(r.CompletedSections, sectionID)
}

// CompletedCount returns the number of distinct completed sections.
func (r Record) CompletedCount() int {
	return len(r.CompletedSections)
}

// Clone returns a deep copy so callers can treat Record as a value.
func (r Record) Clone() Record {
	out := r
	out.CompletedSections = slices.Clone(r.CompletedSections)
	if out.CompletedSections == nil {
		out.CompletedSections = []string{}
	}
	out.Answers = maps.Clone(r.Answers)
	if out.Answers == nil {
		out.Answers = map[string]string{}
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

// Answer returns the saved answer for questionID.
func (r Record) Answer(questionID string) (string, bool) {
	v, ok := r.Answers[questionID]
	return v, ok
}

// SaveAnswer stores a questionnaire or dropdown answer. The input record is
// not modified.
func SaveAnswer(rec Record, questionID, value string, now time.Time) Record {
	out := rec.Clone()
	out.Answers[questionID] = value
	out.UpdatedAt = now
	return out
}
