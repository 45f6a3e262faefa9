package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/abhisek/stepwise/internal/content"
	"github.com/abhisek/stepwise/internal/feedback"
	"github.com/abhisek/stepwise/internal/notify"
	"github.com/abhisek/stepwise/internal/progress"
	"github.com/abhisek/stepwise/internal/quiz"
	"github.com/abhisek/stepwise/internal/store"
)

// Persistence adapts a store.Store to the player ports, the module catalog
// and the audit event log.
type Persistence struct {
	store *store.Store
	now   func() time.Time
}

// NewPersistence returns the SQLite-backed adapter.
func NewPersistence(s *store.Store) *Persistence {
	return &Persistence{store: s, now: time.Now}
}

// LoadModule implements ContentSource for imported modules.
func (ps *Persistence) LoadModule(ctx context.Context, id string) (*content.Module, error) {
	md, err := ps.store.ModuleRepo().Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load module %q: %w", id, content.ErrModuleNotFound)
	}
	if err != nil {
		return nil, err
	}
	m, err := content.Decode(md.Document, content.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("decode stored module %q: %w", id, err)
	}
	return m, nil
}

// ImportModule validates a module document and stores it, replacing any
// module with the same id.
func (ps *Persistence) ImportModule(ctx context.Context, data []byte, format content.Format, source string) (*content.Module, error) {
	raw, err := content.Normalize(data, format)
	if err != nil {
		return nil, err
	}
	m, err := content.Decode(raw, content.FormatJSON)
	if err != nil {
		return nil, err
	}
	if err := content.Validate(m); err != nil {
		return nil, err
	}
	err = ps.store.ModuleRepo().Put(ctx, store.ModuleData{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Document:    raw,
		Source:      source,
		UpdatedAt:   ps.now(),
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// LoadProgress implements ProgressStore.
func (ps *Persistence) LoadProgress(ctx context.Context, learnerID, moduleID string) (*progress.Record, error) {
	pd, err := ps.store.ProgressRepo().Load(ctx, learnerID, moduleID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec := RecordFromData(*pd)
	return &rec, nil
}

// SaveProgress implements ProgressStore.
func (ps *Persistence) SaveProgress(ctx context.Context, rec progress.Record) error {
	return ps.store.ProgressRepo().Save(ctx, store.ProgressData{
		LearnerID:            rec.LearnerID,
		ModuleID:             rec.ModuleID,
		CurrentPageIndex:     rec.CurrentPageIndex,
		CompletedSections:    rec.CompletedSections,
		Answers:              rec.Answers,
		CompletionPercentage: rec.CompletionPercentage,
		IsCompleted:          rec.IsCompleted,
		CompletedAt:          rec.CompletedAt,
		UpdatedAt:            rec.UpdatedAt,
	})
}

// RecordFromData converts a stored row to a progress record.
func RecordFromData(pd store.ProgressData) progress.Record {
	rec := progress.Record{
		LearnerID:            pd.LearnerID,
		ModuleID:             pd.ModuleID,
		CurrentPageIndex:     pd.CurrentPageIndex,
		CompletedSections:    pd.CompletedSections,
		Answers:              pd.Answers,
		CompletionPercentage: pd.CompletionPercentage,
		IsCompleted:          pd.IsCompleted,
		CompletedAt:          pd.CompletedAt,
		UpdatedAt:            pd.UpdatedAt,
	}
	return rec.Clone()
}

// LoadQuizSession implements QuizSessionCache.
func (ps *Persistence) LoadQuizSession(ctx context.Context, sectionID, learnerID string) (*quiz.Session, error) {
	sd, err := ps.store.QuizSessionRepo().Load(ctx, sectionID, learnerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s quiz.Session
	if err := json.Unmarshal(sd.Data, &s); err != nil {
		return nil, fmt.Errorf("decode quiz session: %w", err)
	}
	if s.Answers == nil {
		s.Answers = map[int]quiz.Answer{}
	}
	return &s, nil
}

// SaveQuizSession implements QuizSessionCache.
func (ps *Persistence) SaveQuizSession(ctx context.Context, s quiz.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode quiz session: %w", err)
	}
	return ps.store.QuizSessionRepo().Save(ctx, store.QuizSessionData{
		SectionID: s.SectionID,
		LearnerID: s.LearnerID,
		ModuleID:  s.ModuleID,
		Data:      data,
		UpdatedAt: ps.now(),
	})
}

// DeleteQuizSession implements QuizSessionCache.
func (ps *Persistence) DeleteQuizSession(ctx context.Context, sectionID, learnerID string) error {
	return ps.store.QuizSessionRepo().Delete(ctx, sectionID, learnerID)
}

// AppendQuizAttempt implements AttemptLog.
func (ps *Persistence) AppendQuizAttempt(ctx context.Context, a quiz.Attempt) error {
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return fmt.Errorf("encode attempt answers: %w", err)
	}
	return ps.store.AttemptRepo().Append(ctx, store.QuizAttemptData{
		AttemptID:        a.ID,
		LearnerID:        a.LearnerID,
		ModuleID:         a.ModuleID,
		SectionID:        a.SectionID,
		AttemptNumber:    a.AttemptNumber,
		Score:            a.Score.Points,
		MaxScore:         a.Score.MaxPoints,
		Percentage:       a.Score.Percentage,
		Passed:           a.Passed,
		Answers:          answers,
		TimeTakenSeconds: int(a.TimeTaken.Round(time.Second) / time.Second),
		StartedAt:        a.StartedAt,
		CompletedAt:      a.CompletedAt,
	})
}

// LatestAttemptNumber implements AttemptLog.
func (ps *Persistence) LatestAttemptNumber(ctx context.Context, learnerID, moduleID, sectionID string) (int, error) {
	return ps.store.AttemptRepo().LatestNumber(ctx, learnerID, moduleID, sectionID)
}

// SaveSectionFeedback implements FeedbackStore.
func (ps *Persistence) SaveSectionFeedback(ctx context.Context, f feedback.SectionFeedback) error {
	return ps.store.FeedbackRepo().SaveSection(ctx, store.SectionFeedbackData{
		LearnerID:  f.LearnerID,
		ModuleID:   f.ModuleID,
		SectionID:  f.SectionID,
		Helpful:    f.Helpful,
		Clarity:    f.Clarity,
		Difficulty: f.Difficulty,
		Comments:   f.Comments,
		CreatedAt:  f.CreatedAt,
	})
}

// SectionsWithFeedback implements FeedbackStore.
func (ps *Persistence) SectionsWithFeedback(ctx context.Context, learnerID, moduleID string) ([]string, error) {
	return ps.store.FeedbackRepo().SectionsWithFeedback(ctx, learnerID, moduleID)
}

// AppendEvent implements notify.EventLog.
func (ps *Persistence) AppendEvent(ctx context.Context, e notify.Event) error {
	ed := store.EventData{
		Timestamp: e.At,
		Kind:      string(e.Kind),
		LearnerID: e.LearnerID,
		ModuleID:  e.ModuleID,
		SectionID: e.SectionID,
		Detail:    e.Detail,
	}
	if ed.Timestamp.IsZero() {
		ed.Timestamp = ps.now()
	}
	if e.Err != nil {
		ed.Error = e.Err.Error()
	}
	_, err := ps.store.EventRepo().Append(ctx, ed)
	return err
}

// Sources tries each content source in order and returns the first module
// found.
type Sources []ContentSource

// LoadModule implements ContentSource.
func (s Sources) LoadModule(ctx context.Context, id string) (*content.Module, error) {
	for _, src := range s {
		m, err := src.LoadModule(ctx, id)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, content.ErrModuleNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("load module %q: %w", id, content.ErrModuleNotFound)
}

// List returns every imported module ordered by id.
func (ps *Persistence) List(ctx context.Context) ([]*content.Module, error) {
	rows, err := ps.store.ModuleRepo().List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*content.Module, 0, len(rows))
	for _, md := range rows {
		m, err := content.Decode(md.Document, content.FormatJSON)
		if err != nil {
			return nil, fmt.Errorf("decode stored module %q: %w", md.ID, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// ModuleLister enumerates modules.
type ModuleLister interface {
	List(ctx context.Context) ([]*content.Module, error)
}

// ListModules merges the modules of every lister. When two listers hold the
// same id, the earlier one wins. The result is ordered by id.
func ListModules(ctx context.Context, listers ...ModuleLister) ([]*content.Module, error) {
	seen := make(map[string]bool)
	var out []*content.Module
	for _, l := range listers {
		mods, err := l.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, m := range mods {
			if seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b *content.Module) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}
