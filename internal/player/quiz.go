package player

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/stepwise/internal/progress"
	"github.com/abhisek/stepwise/internal/quiz"
)

// QuizResult is the outcome of submitting a quiz.
type QuizResult struct {
	Attempt    quiz.Attempt
	Transition progress.Transition
}

// StartQuiz starts the quiz of a quiz section. Locked sections are refused
// with ErrSectionLocked.
func (p *Player) StartQuiz(ctx context.Context, sectionID string) error {
	return p.quizOp(ctx, sectionID, func(m *quiz.Machine) error {
		if err := p.actionable(sectionID); err != nil {
			return err
		}
		return m.Start(p.deps.Now())
	})
}

// AnswerQuiz records the answer to question idx.
func (p *Player) AnswerQuiz(ctx context.Context, sectionID string, idx int, a quiz.Answer) error {
	return p.quizOp(ctx, sectionID, func(m *quiz.Machine) error {
		if err := p.actionable(sectionID); err != nil {
			return err
		}
		return m.Answer(idx, a)
	})
}

// NavigateQuiz moves the question cursor by delta and returns the new index.
func (p *Player) NavigateQuiz(ctx context.Context, sectionID string, delta int) (int, error) {
	var idx int
	err := p.quizOp(ctx, sectionID, func(m *quiz.Machine) error {
		var err error
		idx, err = m.Navigate(delta)
		return err
	})
	return idx, err
}

// RetakeQuiz resets a submitted quiz. The cached session is removed; logged
// attempts and section completion are kept.
func (p *Player) RetakeQuiz(ctx context.Context, sectionID string) error {
	return p.quizOp(ctx, sectionID, func(m *quiz.Machine) error {
		return m.Retake()
	})
}

// SubmitQuiz scores the quiz, logs the attempt and completes the section
// when the score meets the pass mark. A failed attempt log write is
// reported like any other write failure and does not undo the submit.
func (p *Player) SubmitQuiz(ctx context.Context, sectionID string) (QuizResult, error) {
	// The attempt log is read before taking the lock. A failed read falls
	// back to the numbering the machine has seen locally.
	prior, err := p.deps.Attempts.LatestAttemptNumber(ctx, p.learnerID, p.module.ID, sectionID)
	if err != nil {
		p.log.Warn("latest attempt number", "section_id", sectionID, "error", err)
		prior = 0
	}

	var (
		fx  effects
		res QuizResult
	)
	_, err = p.locked(func() (progress.Transition, error) {
		m, err := p.machine(sectionID)
		if err != nil {
			return progress.Transition{}, err
		}
		if err := p.actionable(sectionID); err != nil {
			return progress.Transition{}, err
		}
		attempt, err := m.Submit(p.deps.Now(), prior)
		if err != nil {
			return progress.Transition{}, err
		}
		res.Attempt = attempt
		p.syncQuizSession(&fx, sectionID)
		fx.write("quiz attempt", func(ctx context.Context) error {
			return p.deps.Attempts.AppendQuizAttempt(ctx, attempt)
		})
		p.log.Info("quiz submitted",
			"section_id", sectionID,
			"attempt", attempt.AttemptNumber,
			"percentage", attempt.Score.Percentage,
			"passed", attempt.Passed,
			"time_taken", attempt.TimeTaken.Round(time.Second),
		)

		if attempt.Passed && !p.rec.Has(sectionID) {
			res.Transition, err = p.markComplete(&fx, sectionID)
			if err != nil {
				return progress.Transition{}, err
			}
		}
		return res.Transition, nil
	})
	p.apply(ctx, fx)
	if err != nil {
		return QuizResult{}, err
	}
	return res, nil
}

// QuizSession returns a copy of the quiz session of a section.
func (p *Player) QuizSession(sectionID string) (quiz.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, err := p.machine(sectionID)
	if err != nil {
		return quiz.Session{}, err
	}
	return m.Session(), nil
}

// QuizReview lists the learner's answers next to the correct ones.
func (p *Player) QuizReview(sectionID string) ([]quiz.ReviewItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, err := p.machine(sectionID)
	if err != nil {
		return nil, err
	}
	return m.Review(), nil
}

// QuizPassed reports whether the submitted quiz met its pass mark.
func (p *Player) QuizPassed(sectionID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, err := p.machine(sectionID)
	return err == nil && m.Passed()
}

func (p *Player) quizOp(ctx context.Context, sectionID string, fn func(m *quiz.Machine) error) error {
	var fx effects
	_, err := p.locked(func() (progress.Transition, error) {
		m, err := p.machine(sectionID)
		if err != nil {
			return progress.Transition{}, err
		}
		if err := fn(m); err != nil {
			return progress.Transition{}, err
		}
		p.syncQuizSession(&fx, sectionID)
		return progress.Transition{}, nil
	})
	p.apply(ctx, fx)
	return err
}

// machine returns the quiz machine of sectionID. Caller holds the lock.
func (p *Player) machine(sectionID string) (*quiz.Machine, error) {
	m, ok := p.quizzes[sectionID]
	if !ok {
		return nil, p.wrongType("quiz", sectionID)
	}
	return m, nil
}

// syncQuizSession queues a write that mirrors the machine's session into the
// cache as it is when the write runs: a reset quiz is deleted, any other
// state is saved.
func (p *Player) syncQuizSession(fx *effects, sectionID string) {
	fx.write("quiz session", func(ctx context.Context) error {
		sess, err := p.QuizSession(sectionID)
		if err != nil {
			return err
		}
		if sess.State() == quiz.NotStarted {
			return p.deps.Sessions.DeleteQuizSession(ctx, sectionID, p.learnerID)
		}
		if err := p.deps.Sessions.SaveQuizSession(ctx, sess); err != nil {
			return fmt.Errorf("save quiz session: %w", err)
		}
		return nil
	})
}
