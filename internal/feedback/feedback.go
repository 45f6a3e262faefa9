// Package feedback defines learner feedback on sections and modules.
package feedback

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalid is matched by every validation error in this package.
var ErrInvalid = errors.New("invalid feedback")

// Difficulty labels for the 1..5 scale. 0 means not given.
var DifficultyLabels = []string{"", "Very Easy", "Easy", "Just Right", "Hard", "Very Hard"}

// SectionFeedback is an optional quick rating of one section.
type SectionFeedback struct {
	LearnerID  string
	ModuleID   string
	SectionID  string
	Helpful    *bool
	Clarity    int // 0 = not rated, else 1..5
	Difficulty int // 0 = not rated, else 1..5
	Comments   string
	CreatedAt  time.Time
}

// Validate checks ranges and required ids.
func (f SectionFeedback) Validate() error {
	if f.LearnerID == "" || f.ModuleID == "" || f.SectionID == "" {
		return fmt.Errorf("%w: learner, module and section ids are required", ErrInvalid)
	}
	if err := checkScale("clarity", f.Clarity, false); err != nil {
		return err
	}
	if err := checkScale("difficulty", f.Difficulty, false); err != nil {
		return err
	}
	if f.Helpful == nil && f.Clarity == 0 && f.Difficulty == 0 && strings.TrimSpace(f.Comments) == "" {
		return fmt.Errorf("%w: section feedback is empty", ErrInvalid)
	}
	return nil
}

// ModuleFeedback is the end-of-module survey. A rating is required; it is
// what unlocks the certificate.
type ModuleFeedback struct {
	LearnerID   string
	ModuleID    string
	Rating      int // 1..5
	Difficulty  int // 0 = not rated, else 1..5
	Text        string
	Suggestions string
	CreatedAt   time.Time
}

// Validate checks ranges and required fields.
func (f ModuleFeedback) Validate() error {
	if f.LearnerID == "" || f.ModuleID == "" {
		return fmt.Errorf("%w: learner and module ids are required", ErrInvalid)
	}
	if err := checkScale("rating", f.Rating, true); err != nil {
		return err
	}
	return checkScale("difficulty", f.Difficulty, false)
}

func checkScale(name string, v int, required bool) error {
	if v == 0 && !required {
		return nil
	}
	if v < 1 || v > 5 {
		return fmt.Errorf("%w: %s must be in [1, 5], got %d", ErrInvalid, name, v)
	}
	return nil
}
