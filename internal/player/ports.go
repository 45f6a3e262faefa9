package player

import (
	"context"

	"github.com/abhisek/stepwise/internal/content"
	"github.com/abhisek/stepwise/internal/feedback"
	"github.com/abhisek/stepwise/internal/progress"
	"github.com/abhisek/stepwise/internal/quiz"
)

// ContentSource loads module content. A missing module wraps
// content.ErrModuleNotFound.
type ContentSource interface {
	LoadModule(ctx context.Context, id string) (*content.Module, error)
}

// ProgressStore persists progress records, one per learner and module.
type ProgressStore interface {
	// LoadProgress returns nil and no error when the learner has no record.
	LoadProgress(ctx context.Context, learnerID, moduleID string) (*progress.Record, error)

	// SaveProgress upserts by learner and module.
	SaveProgress(ctx context.Context, rec progress.Record) error
}

// QuizSessionCache keeps in-flight quiz sessions keyed by section and learner.
type QuizSessionCache interface {
	// LoadQuizSession returns nil and no error when there is no session.
	LoadQuizSession(ctx context.Context, sectionID, learnerID string) (*quiz.Session, error)
	SaveQuizSession(ctx context.Context, s quiz.Session) error
	DeleteQuizSession(ctx context.Context, sectionID, learnerID string) error
}

// AttemptLog is the append-only history of submitted quizzes.
type AttemptLog interface {
	AppendQuizAttempt(ctx context.Context, a quiz.Attempt) error

	// LatestAttemptNumber returns the highest logged attempt number, or 0.
	LatestAttemptNumber(ctx context.Context, learnerID, moduleID, sectionID string) (int, error)
}

// FeedbackStore records section feedback.
type FeedbackStore interface {
	SaveSectionFeedback(ctx context.Context, f feedback.SectionFeedback) error

	// SectionsWithFeedback returns the section ids already rated by the
	// learner in a module.
	SectionsWithFeedback(ctx context.Context, learnerID, moduleID string) ([]string, error)
}
