// Package completion decides when a section counts as completed, per
// section type.
package completion

import (
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/stepwise/internal/content"
)

// ErrNotManual is returned when manual completion is requested for a section
// type whose completion is driven by something else.
var ErrNotManual = errors.New("section type does not allow manual completion")

// Trigger is what causes a section to complete.
type Trigger int

const (
	// Manual: the learner marks the section complete.
	Manual Trigger = iota
	// Automatic: completes as soon as its condition holds (flashcards).
	Automatic
	// Delayed: completes after the section has been visible for a delay.
	Delayed
	// Reactive: re-checked after each saved answer.
	Reactive
	// Delegated: completes only through quiz submission with a passing score.
	Delegated
)

func (t Trigger) String() string {
	switch t {
	case Manual:
		return "manual"
	case Automatic:
		return "automatic"
	case Delayed:
		return "delayed"
	case Reactive:
		return "reactive"
	case Delegated:
		return "delegated"
	}
	return fmt.Sprintf("Trigger(%d)", int(t))
}

// Policy is the completion rule for one section type.
type Policy struct {
	Trigger Trigger
	Delay   time.Duration // Delayed only
}

// Policies maps section types to their completion rule.
type Policies map[content.SectionType]Policy

// Delay units per delayed section type.
const (
	PhotoDelayUnits = 3
	VideoDelayUnits = 5
	EmbedDelayUnits = 3
)

// DefaultPolicies returns the standard rules with delays measured in unit
// (one second in production).
func DefaultPolicies(unit time.Duration) Policies {
	return Policies{
		content.TypeText:          {Trigger: Manual},
		content.TypeChecklist:     {Trigger: Manual},
		content.TypeFlashcards:    {Trigger: Automatic},
		content.TypePhoto:         {Trigger: Delayed, Delay: PhotoDelayUnits * unit},
		content.TypeVideo:         {Trigger: Delayed, Delay: VideoDelayUnits * unit},
		content.TypeEmbed:         {Trigger: Delayed, Delay: EmbedDelayUnits * unit},
		content.TypeQuestionnaire: {Trigger: Reactive},
		content.TypeDropdowns:     {Trigger: Reactive},
		content.TypeQuiz:          {Trigger: Delegated},
	}
}

// PolicyFor returns the policy of t. Types without an entry are manual.
func (p Policies) PolicyFor(t content.SectionType) Policy {
	if pol, ok := p[t]; ok {
		return pol
	}
	return Policy{Trigger: Manual}
}

// CheckManual returns ErrNotManual unless sections of type t may be marked
// complete by hand.
func (p Policies) CheckManual(t content.SectionType) error {
	if p.PolicyFor(t).Trigger != Manual {
		return fmt.Errorf("%w: %s", ErrNotManual, t)
	}
	return nil
}
