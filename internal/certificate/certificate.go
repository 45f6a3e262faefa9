// Package certificate tracks when a learner becomes eligible for a module
// certificate and issues it once the module feedback is in.
package certificate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/stepwise/internal/feedback"
	"github.com/abhisek/stepwise/internal/logger"
	"github.com/abhisek/stepwise/internal/notify"
	"github.com/abhisek/stepwise/internal/store"
)

var (
	// ErrNotCompleted is returned by Issue before the module is completed.
	ErrNotCompleted = errors.New("module not completed")

	// ErrFeedbackRequired is returned by Issue before module feedback exists.
	ErrFeedbackRequired = errors.New("module feedback required")
)

// Status describes a learner's certificate standing on one module.
type Status struct {
	LearnerID     string
	ModuleID      string
	Completed     bool
	UnlockedAt    *time.Time
	FeedbackGiven bool
	Rating        int
	Issued        bool
	CertificateID string
	IssuedAt      *time.Time
}

// Eligible reports whether Issue would succeed.
func (s Status) Eligible() bool {
	return s.Completed && s.FeedbackGiven
}

// Service reads and writes certificate state.
type Service struct {
	Certs    store.CertificateRepo
	Feedback store.FeedbackRepo
	Progress store.ProgressRepo
	Log      *logger.Logger
	Now      func() time.Time
}

// New returns a Service backed by s.
func New(s *store.Store, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		Certs:    s.CertificateRepo(),
		Feedback: s.FeedbackRepo(),
		Progress: s.ProgressRepo(),
		Log:      log.With("service", "Certificates"),
		Now:      time.Now,
	}
}

// Notify implements notify.Notifier: a ModuleCompleted event unlocks the
// certificate. Other events are ignored.
func (s *Service) Notify(ctx context.Context, e notify.Event) {
	if e.Kind != notify.ModuleCompleted {
		return
	}
	at := e.At
	if at.IsZero() {
		at = s.now()
	}
	if err := s.Certs.Unlock(ctx, e.LearnerID, e.ModuleID, at); err != nil {
		s.Log.Warn("unlock certificate", "learner_id", e.LearnerID, "module_id", e.ModuleID, "error", err)
	}
}

// Status gathers completion, feedback and issuance for a learner and module.
func (s *Service) Status(ctx context.Context, learnerID, moduleID string) (Status, error) {
	st := Status{LearnerID: learnerID, ModuleID: moduleID}

	p, err := s.Progress.Load(ctx, learnerID, moduleID)
	switch {
	case err == nil:
		st.Completed = p.IsCompleted
	case !errors.Is(err, store.ErrNotFound):
		return Status{}, fmt.Errorf("load progress: %w", err)
	}

	c, err := s.Certs.Load(ctx, learnerID, moduleID)
	switch {
	case err == nil:
		st.Completed = true
		t := c.UnlockedAt
		st.UnlockedAt = &t
		st.CertificateID = c.CertificateID
		st.IssuedAt = c.IssuedAt
		st.Issued = c.IssuedAt != nil
	case !errors.Is(err, store.ErrNotFound):
		return Status{}, fmt.Errorf("load certificate: %w", err)
	}

	f, err := s.Feedback.LoadModule(ctx, learnerID, moduleID)
	switch {
	case err == nil:
		st.FeedbackGiven = true
		st.Rating = f.Rating
	case !errors.Is(err, store.ErrNotFound):
		return Status{}, fmt.Errorf("load module feedback: %w", err)
	}
	return st, nil
}

// SubmitFeedback validates and stores end-of-module feedback.
func (s *Service) SubmitFeedback(ctx context.Context, f feedback.ModuleFeedback) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = s.now()
	}
	if err := f.Validate(); err != nil {
		return err
	}
	err := s.Feedback.SaveModule(ctx, store.ModuleFeedbackData{
		LearnerID:    f.LearnerID,
		ModuleID:     f.ModuleID,
		Rating:       f.Rating,
		Difficulty:   f.Difficulty,
		FeedbackText: f.Text,
		Suggestions:  f.Suggestions,
		CreatedAt:    f.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("submit module feedback: %w", err)
	}
	return nil
}

// Issue creates the certificate. It requires a completed module and module
// feedback. Issuing twice returns the existing certificate.
func (s *Service) Issue(ctx context.Context, learnerID, moduleID string) (Status, error) {
	st, err := s.Status(ctx, learnerID, moduleID)
	if err != nil {
		return Status{}, err
	}
	if st.Issued {
		return st, nil
	}
	if !st.Completed {
		return st, fmt.Errorf("issue certificate for %s: %w", moduleID, ErrNotCompleted)
	}
	if !st.FeedbackGiven {
		return st, fmt.Errorf("issue certificate for %s: %w", moduleID, ErrFeedbackRequired)
	}

	now := s.now()
	// Progress can be completed without an unlock row when the event was
	// dropped; Unlock keeps an existing row untouched.
	if err := s.Certs.Unlock(ctx, learnerID, moduleID, now); err != nil {
		return st, fmt.Errorf("issue certificate: %w", err)
	}
	id := uuid.NewString()
	if err := s.Certs.MarkIssued(ctx, learnerID, moduleID, id, now); err != nil {
		return st, fmt.Errorf("issue certificate: %w", err)
	}
	s.Log.Info("certificate issued", "learner_id", learnerID, "module_id", moduleID, "certificate_id", id)
	return s.Status(ctx, learnerID, moduleID)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
