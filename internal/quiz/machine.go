// Package quiz runs a single quiz section: start, answer, navigate, submit,
// retake, scoring and attempt records.
package quiz

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/stepwise/internal/content"
	"github.com/abhisek/stepwise/internal/progress"
)

// ErrInvalidStateTransition is matched by every TransitionError.
var ErrInvalidStateTransition = errors.New("invalid quiz state transition")

// State is the lifecycle state of a quiz session.
type State int

const (
	NotStarted State = iota
	InProgress
	Submitted
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case InProgress:
		return "in-progress"
	case Submitted:
		return "submitted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// TransitionError reports an operation attempted from the wrong state.
type TransitionError struct {
	Op    string
	State State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("quiz %s: not allowed while %s", e.Op, e.State)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidStateTransition }

// Score is the result of scoring a submitted quiz.
type Score struct {
	Points     int `json:"points"`
	MaxPoints  int `json:"maxPoints"`
	Percentage int `json:"percentage"`
}

// Session is the resumable state of one learner's quiz on one section.
type Session struct {
	SectionID       string         `json:"sectionId"`
	LearnerID       string         `json:"learnerId"`
	ModuleID        string         `json:"moduleId"`
	Started         bool           `json:"started"`
	CurrentQuestion int            `json:"currentQuestion"`
	Answers         map[int]Answer `json:"userAnswers"`
	Submitted       bool           `json:"submitted"`
	Score           *Score         `json:"score,omitempty"`
	StartedAt       *time.Time     `json:"startTime,omitempty"`
	EndedAt         *time.Time     `json:"endTime,omitempty"`
}

// State derives the lifecycle state from the session flags.
func (s Session) State() State {
	switch {
	case s.Submitted:
		return Submitted
	case s.Started:
		return InProgress
	}
	return NotStarted
}

func (s Session) clone() Session {
	out := s
	out.Answers = maps.Clone(s.Answers)
	if out.Answers == nil {
		out.Answers = map[int]Answer{}
	}
	if s.Score != nil {
		sc := *s.Score
		out.Score = &sc
	}
	return out
}

// Attempt is the immutable record of one submitted quiz.
type Attempt struct {
	ID            string
	LearnerID     string
	ModuleID      string
	SectionID     string
	AttemptNumber int
	Answers       map[int]Answer
	Score         Score
	Passed        bool
	TimeTaken     time.Duration
	StartedAt     time.Time
	CompletedAt   time.Time
}

// Machine drives one quiz section through its states. It is not safe for
// concurrent use.
type Machine struct {
	section content.Section
	session Session
	// highest attempt number this machine has produced
	lastAttempt int
}

// NewMachine returns a machine in NotStarted for the given quiz section.
func NewMachine(section content.Section, learnerID, moduleID string) *Machine {
	return &Machine{
		section: section,
		session: Session{
			SectionID: section.ID,
			LearnerID: learnerID,
			ModuleID:  moduleID,
			Answers:   map[int]Answer{},
		},
	}
}

// Restore returns a machine resuming a persisted session. The question
// cursor is clamped to the current question count.
func Restore(section content.Section, s Session) *Machine {
	s = s.clone()
	s.SectionID = section.ID
	n := len(section.Questions)
	if s.CurrentQuestion >= n {
		s.CurrentQuestion = max(0, n-1)
	}
	if s.CurrentQuestion < 0 {
		s.CurrentQuestion = 0
	}
	return &Machine{section: section, session: s}
}

// Section returns the quiz section.
func (m *Machine) Section() content.Section { return m.section }

// State returns the current state.
func (m *Machine) State() State { return m.session.State() }

// Session returns a copy of the current session.
func (m *Machine) Session() Session { return m.session.clone() }

// PassingScore returns the section's pass mark.
func (m *Machine) PassingScore() int {
	return m.section.Settings.PassingScoreOrDefault()
}

// Passed reports whether the submitted score meets the pass mark.
func (m *Machine) Passed() bool {
	return m.session.Score != nil && m.session.Score.Percentage >= m.PassingScore()
}

// Start begins the quiz. Allowed only from NotStarted.
func (m *Machine) Start(now time.Time) error {
	if st := m.State(); st != NotStarted {
		return &TransitionError{Op: "start", State: st}
	}
	t := now
	m.session.Started = true
	m.session.StartedAt = &t
	m.session.EndedAt = nil
	m.session.CurrentQuestion = 0
	m.session.Answers = map[int]Answer{}
	m.session.Score = nil
	return nil
}

// Answer records the answer to question idx. Allowed only in InProgress.
func (m *Machine) Answer(idx int, a Answer) error {
	if st := m.State(); st != InProgress {
		return &TransitionError{Op: "answer", State: st}
	}
	if idx < 0 || idx >= len(m.section.Questions) {
		return &content.IndexError{Kind: "question", Index: idx, Len: len(m.section.Questions)}
	}
	m.session.Answers[idx] = a
	return nil
}

// Navigate moves the question cursor by delta, clamped to the question
// range, and returns the new index. Allowed only in InProgress.
func (m *Machine) Navigate(delta int) (int, error) {
	if st := m.State(); st != InProgress {
		return m.session.CurrentQuestion, &TransitionError{Op: "navigate", State: st}
	}
	n := len(m.section.Questions)
	next := m.session.CurrentQuestion + delta
	next = max(0, min(next, n-1))
	m.session.CurrentQuestion = next
	return next, nil
}

// Submit scores the quiz and moves it to Submitted. priorAttempt is the
// highest attempt number already logged for this learner and section; the
// returned attempt is numbered after it, or after the highest this machine
// produced if that is larger.
func (m *Machine) Submit(now time.Time, priorAttempt int) (Attempt, error) {
	if st := m.State(); st != InProgress {
		return Attempt{}, &TransitionError{Op: "submit", State: st}
	}

	score := ScoreAnswers(m.section, m.session.Answers)
	end := now
	m.session.Submitted = true
	m.session.EndedAt = &end
	m.session.Score = &score

	m.lastAttempt = max(m.lastAttempt, priorAttempt) + 1

	started := now
	if m.session.StartedAt != nil {
		started = *m.session.StartedAt
	}
	return Attempt{
		ID:            uuid.NewString(),
		LearnerID:     m.session.LearnerID,
		ModuleID:      m.session.ModuleID,
		SectionID:     m.section.ID,
		AttemptNumber: m.lastAttempt,
		Answers:       maps.Clone(m.session.Answers),
		Score:         score,
		Passed:        score.Percentage >= m.PassingScore(),
		TimeTaken:     end.Sub(started),
		StartedAt:     started,
		CompletedAt:   end,
	}, nil
}

// Retake resets a submitted quiz to NotStarted. Whether retakes are offered
// is up to the caller (QuizSettings.AllowRetake).
func (m *Machine) Retake() error {
	if st := m.State(); st != Submitted {
		return &TransitionError{Op: "retake", State: st}
	}
	m.session = Session{
		SectionID: m.session.SectionID,
		LearnerID: m.session.LearnerID,
		ModuleID:  m.session.ModuleID,
		Answers:   map[int]Answer{},
	}
	return nil
}

// ScoreAnswers totals the points earned by answers against the section's
// questions.
func ScoreAnswers(section content.Section, answers map[int]Answer) Score {
	var s Score
	for i, q := range section.Questions {
		s.MaxPoints += q.Points
		a, answered := answers[i]
		if IsCorrect(q, a, answered) {
			s.Points += q.Points
		}
	}
	s.Percentage = progress.Percentage(s.Points, s.MaxPoints)
	return s
}
