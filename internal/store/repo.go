package store

import (
	"context"
	"time"
)

// ModuleData is a stored module document.
type ModuleData struct {
	ID          string
	Title       string
	Description string
	Document    []byte // JSON
	Source      string // where it was imported from
	UpdatedAt   time.Time
}

// ProgressData is a learner's stored progress on one module.
type ProgressData struct {
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

// QuizSessionData is a persisted in-flight quiz.
type QuizSessionData struct {
	SectionID string
	LearnerID string
	ModuleID  string
	Data      []byte // JSON encoded session
	UpdatedAt time.Time
}

// QuizAttemptData is one submitted quiz attempt.
type QuizAttemptData struct {
	AttemptID        string
	LearnerID        string
	ModuleID         string
	SectionID        string
	AttemptNumber    int
	Score            int
	MaxScore         int
	Percentage       int
	Passed           bool
	Answers          []byte // JSON
	TimeTakenSeconds int
	StartedAt        time.Time
	CompletedAt      time.Time
}

// SectionFeedbackData is stored section feedback.
type SectionFeedbackData struct {
	LearnerID  string
	ModuleID   string
	SectionID  string
	Helpful    *bool
	Clarity    int
	Difficulty int
	Comments   string
	CreatedAt  time.Time
}

// ModuleFeedbackData is stored end-of-module feedback.
type ModuleFeedbackData struct {
	LearnerID    string
	ModuleID     string
	Rating       int
	Difficulty   int
	FeedbackText string
	Suggestions  string
	CreatedAt    time.Time
}

// CertificateData tracks certificate eligibility and issuance.
type CertificateData struct {
	LearnerID     string
	ModuleID      string
	UnlockedAt    time.Time
	CertificateID string     // empty until issued
	IssuedAt      *time.Time // nil until issued
}

// EventData is one row of the append-only event log.
type EventData struct {
	Sequence  int64
	Timestamp time.Time
	Kind      string
	LearnerID string
	ModuleID  string
	SectionID string
	Detail    string
	Error     string
}

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit     int    // max results (0 = unlimited)
	After     int64  // sequence > After
	LearnerID string // exact match when set
	ModuleID  string // exact match when set
}

// ModuleRepo stores imported module documents.
type ModuleRepo interface {
	// Put inserts or replaces a module.
	Put(ctx context.Context, m ModuleData) error

	// Get returns the module with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*ModuleData, error)

	// List returns all modules ordered by id.
	List(ctx context.Context) ([]ModuleData, error)

	// Delete removes a module. Deleting a missing module is not an error.
	Delete(ctx context.Context, id string) error
}

// ProgressRepo stores progress records, one per learner and module.
type ProgressRepo interface {
	// Load returns the record, or ErrNotFound.
	Load(ctx context.Context, learnerID, moduleID string) (*ProgressData, error)

	// Save upserts the record by learner and module.
	Save(ctx context.Context, p ProgressData) error

	// ListByLearner returns every record of a learner ordered by module id.
	ListByLearner(ctx context.Context, learnerID string) ([]ProgressData, error)
}

// QuizSessionRepo stores in-flight quiz sessions keyed by section and learner.
type QuizSessionRepo interface {
	Load(ctx context.Context, sectionID, learnerID string) (*QuizSessionData, error)
	Save(ctx context.Context, s QuizSessionData) error
	Delete(ctx context.Context, sectionID, learnerID string) error
}

// AttemptRepo is the append-only quiz attempt log.
type AttemptRepo interface {
	// Append records an attempt. Attempt numbers are unique per learner,
	// module and section.
	Append(ctx context.Context, a QuizAttemptData) error

	// LatestNumber returns the highest attempt number logged, or 0.
	LatestNumber(ctx context.Context, learnerID, moduleID, sectionID string) (int, error)

	// List returns attempts of a learner, newest first. Empty moduleID
	// matches every module.
	List(ctx context.Context, learnerID, moduleID string, limit int) ([]QuizAttemptData, error)
}

// FeedbackRepo stores section and module feedback.
type FeedbackRepo interface {
	SaveSection(ctx context.Context, f SectionFeedbackData) error
	// SectionsWithFeedback returns the section ids the learner rated in a module.
	SectionsWithFeedback(ctx context.Context, learnerID, moduleID string) ([]string, error)

	SaveModule(ctx context.Context, f ModuleFeedbackData) error
	// LoadModule returns module feedback, or ErrNotFound.
	LoadModule(ctx context.Context, learnerID, moduleID string) (*ModuleFeedbackData, error)
}

// CertificateRepo tracks certificate eligibility and issuance.
type CertificateRepo interface {
	// Unlock records that the learner completed the module. Repeated calls
	// keep the first unlock time.
	Unlock(ctx context.Context, learnerID, moduleID string, at time.Time) error

	// Load returns the certificate row, or ErrNotFound.
	Load(ctx context.Context, learnerID, moduleID string) (*CertificateData, error)

	// MarkIssued stamps the certificate id and issue time. The row must
	// exist.
	MarkIssued(ctx context.Context, learnerID, moduleID, certificateID string, at time.Time) error
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	// Append assigns the next global sequence number and stores the event.
	Append(ctx context.Context, e EventData) (int64, error)

	// Query returns events in sequence order.
	Query(ctx context.Context, opts QueryOpts) ([]EventData, error)
}
