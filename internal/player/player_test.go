package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/stepwise/internal/completion"
	"github.com/abhisek/stepwise/internal/content"
	"github.com/abhisek/stepwise/internal/feedback"
	"github.com/abhisek/stepwise/internal/gating"
	"github.com/abhisek/stepwise/internal/notify"
	"github.com/abhisek/stepwise/internal/progress"
	"github.com/abhisek/stepwise/internal/quiz"
	"github.com/abhisek/stepwise/internal/timer"
)

// memStore implements every port in memory.
type memStore struct {
	mu       sync.Mutex
	modules  map[string]*content.Module
	progress map[string]progress.Record
	sessions map[string]quiz.Session
	attempts []quiz.Attempt
	feedback []feedback.SectionFeedback
	rated    []string

	failProgress error
	failAttempts error
	failLatest   error
}

func newMemStore(mods ...*content.Module) *memStore {
	s := &memStore{
		modules:  make(map[string]*content.Module),
		progress: make(map[string]progress.Record),
		sessions: make(map[string]quiz.Session),
	}
	for _, m := range mods {
		s.modules[m.ID] = m
	}
	return s
}

func (s *memStore) LoadModule(_ context.Context, id string) (*content.Module, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.modules[id]
	if !ok {
		return nil, fmt.Errorf("module %q: %w", id, content.ErrModuleNotFound)
	}
	return m, nil
}

func (s *memStore) LoadProgress(_ context.Context, learnerID, moduleID string) (*progress.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.progress[learnerID+"/"+moduleID]
	if !ok {
		return nil, nil
	}
	rec = rec.Clone()
	return &rec, nil
}

func (s *memStore) SaveProgress(_ context.Context, rec progress.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failProgress != nil {
		return s.failProgress
	}
	s.progress[rec.LearnerID+"/"+rec.ModuleID] = rec.Clone()
	return nil
}

func (s *memStore) stored(learnerID, moduleID string) (progress.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.progress[learnerID+"/"+moduleID]
	return rec, ok
}

func (s *memStore) LoadQuizSession(_ context.Context, sectionID, learnerID string) (*quiz.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sectionID+"/"+learnerID]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

func (s *memStore) SaveQuizSession(_ context.Context, sess quiz.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.SectionID+"/"+sess.LearnerID] = sess
	return nil
}

func (s *memStore) DeleteQuizSession(_ context.Context, sectionID, learnerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sectionID+"/"+learnerID)
	return nil
}

func (s *memStore) hasSession(sectionID, learnerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[sectionID+"/"+learnerID]
	return ok
}

func (s *memStore) AppendQuizAttempt(_ context.Context, a quiz.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAttempts != nil {
		return s.failAttempts
	}
	s.attempts = append(s.attempts, a)
	return nil
}

func (s *memStore) LatestAttemptNumber(_ context.Context, learnerID, moduleID, sectionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLatest != nil {
		return 0, s.failLatest
	}
	n := 0
	for _, a := range s.attempts {
		if a.LearnerID == learnerID && a.ModuleID == moduleID && a.SectionID == sectionID {
			n = max(n, a.AttemptNumber)
		}
	}
	return n, nil
}

func (s *memStore) loggedAttempts() []quiz.Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]quiz.Attempt(nil), s.attempts...)
}

func (s *memStore) SaveSectionFeedback(_ context.Context, f feedback.SectionFeedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback = append(s.feedback, f)
	return nil
}

func (s *memStore) SectionsWithFeedback(context.Context, string, string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.rated...), nil
}

func (s *memStore) setFailProgress(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failProgress = err
}

type harness struct {
	store    *memStore
	timers   *timer.Manual
	events   *notify.Recorder
	prompter *completion.FeedbackPrompter
	deps     Deps
}

func newHarness(mods ...*content.Module) *harness {
	h := &harness{
		store:    newMemStore(mods...),
		timers:   timer.NewManual(),
		events:   &notify.Recorder{},
		prompter: &completion.FeedbackPrompter{Probability: 0, Rand: func() float64 { return 0.5 }},
	}
	var clockMu sync.Mutex
	clock := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	h.deps = Deps{
		Content:  h.store,
		Progress: h.store,
		Sessions: h.store,
		Attempts: h.store,
		Feedback: h.store,
		Notifier: h.events,
		Timers:   h.timers,
		Policies: completion.DefaultPolicies(time.Second),
		Prompter: h.prompter,
		Now: func() time.Time {
			clockMu.Lock()
			defer clockMu.Unlock()
			clock = clock.Add(time.Second)
			return clock
		},
	}
	return h
}

func (h *harness) open(t *testing.T, moduleID string) *Player {
	t.Helper()
	p, err := Open(context.Background(), h.deps, "alice", moduleID)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close(context.Background()) })
	return p
}

func textModule() *content.Module {
	return &content.Module{
		ID:    "basics",
		Title: "Basics",
		Pages: []content.Page{{
			ID: "p1",
			Sections: []content.Section{
				{ID: "s1", Type: content.TypeText, Body: "one"},
				{ID: "s2", Type: content.TypeText, Body: "two"},
				{ID: "s3", Type: content.TypeText, Body: "three"},
			},
		}},
	}
}

func mixedModule() *content.Module {
	return &content.Module{
		ID:    "mixed",
		Title: "Mixed",
		Pages: []content.Page{
			{
				ID: "intro",
				Sections: []content.Section{
					{ID: "welcome", Type: content.TypeText, Body: "hi"},
					{ID: "photo", Type: content.TypePhoto, MediaURL: "a.png"},
					{ID: "video", Type: content.TypeVideo, URL: "v.mp4"},
				},
			},
			{
				ID: "practice",
				Sections: []content.Section{
					{ID: "cards", Type: content.TypeFlashcards, Cards: []content.Card{
						{Front: "a", Back: "1"}, {Front: "b", Back: "2"},
					}},
					{ID: "survey", Type: content.TypeQuestionnaire, Questions: []content.Question{
						{ID: "role", Kind: content.KindText, Text: "Role?", Required: true},
						{Kind: content.KindText, Text: "Anything else?"},
					}},
					{ID: "steps", Type: content.TypeChecklist, Items: []content.ChecklistItem{
						{Text: "one", Required: true}, {Text: "two"},
					}},
				},
			},
			{
				ID: "check",
				Sections: []content.Section{
					{ID: "final", Type: content.TypeQuiz, Questions: []content.Question{
						{Kind: content.KindMultipleChoice, Text: "2+2?", Options: []string{"3", "4"}, CorrectAnswer: 1, Points: 5},
						{Kind: content.KindFillBlank, Text: "Capital of France", CorrectAnswer: "paris", Points: 10},
					}},
				},
			},
		},
	}
}

func TestEndToEndThreeTextSections(t *testing.T) {
	h := newHarness(textModule())
	p := h.open(t, "basics")
	ctx := context.Background()

	tr, err := p.Complete(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, tr.SectionCompleted)
	assert.Equal(t, 33, tr.PercentageAfter)

	tr, err = p.Complete(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, 67, tr.PercentageAfter)
	assert.False(t, p.Progress().IsCompleted)

	tr, err = p.Complete(ctx, "s3")
	require.NoError(t, err)
	assert.True(t, tr.ModuleCompleted)

	rec := p.Progress()
	assert.Equal(t, 100, rec.CompletionPercentage)
	assert.True(t, rec.IsCompleted)
	require.NotNil(t, rec.CompletedAt)

	require.NoError(t, p.Flush(ctx))
	stored, ok := h.store.stored("alice", "basics")
	require.True(t, ok)
	assert.True(t, stored.IsCompleted)
	assert.Equal(t, []string{"s1", "s2", "s3"}, stored.CompletedSections)

	assert.Len(t, h.events.OfKind(notify.SectionCompleted), 3)
	mc := h.events.OfKind(notify.ModuleCompleted)
	require.Len(t, mc, 1)
	assert.Equal(t, "alice", mc[0].LearnerID)
	assert.Equal(t, "basics", mc[0].ModuleID)
}

func TestCompleteIsIdempotent(t *testing.T) {
	h := newHarness(textModule())
	p := h.open(t, "basics")
	ctx := context.Background()

	_, err := p.Complete(ctx, "s1")
	require.NoError(t, err)
	before := p.Progress()

	tr, err := p.Complete(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, tr.SectionCompleted)
	assert.Equal(t, before, p.Progress())
	assert.Len(t, h.events.OfKind(notify.SectionCompleted), 1)
}

func TestCompleteRejectsLockedAndNonManual(t *testing.T) {
	h := newHarness(mixedModule())
	p := h.open(t, "mixed")
	ctx := context.Background()

	_, err := p.Complete(ctx, "photo")
	assert.ErrorIs(t, err, completion.ErrNotManual)

	_, err = p.Complete(ctx, "nope")
	assert.ErrorIs(t, err, content.ErrSectionNotFound)

	h2 := newHarness(textModule())
	p2 := h2.open(t, "basics")
	_, err = p2.Complete(ctx, "s2")
	assert.ErrorIs(t, err, ErrSectionLocked)
	assert.Empty(t, p2.Progress().CompletedSections)
}

func TestLockedSectionsRefused(t *testing.T) {
	h := newHarness(mixedModule())
	started := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	h.store.sessions["final/alice"] = quiz.Session{
		SectionID: "final",
		LearnerID: "alice",
		ModuleID:  "mixed",
		Started:   true,
		Answers:   map[int]quiz.Answer{0: quiz.ChoiceAnswer(1), 1: quiz.TextAnswer("paris")},
		StartedAt: &started,
	}
	p := h.open(t, "mixed")
	ctx := context.Background()

	// Sections on pages the learner cannot reach yet.
	_, err := p.SaveAnswer(ctx, "survey", 0, "dev")
	assert.ErrorIs(t, err, ErrSectionLocked)
	for i := range 2 {
		_, _, err = p.FlipCard(ctx, "cards", i)
		assert.ErrorIs(t, err, ErrSectionLocked)
	}
	_, err = p.ToggleChecklistItem("steps", 0)
	assert.ErrorIs(t, err, ErrSectionLocked)
	_, err = p.Complete(ctx, "steps")
	assert.ErrorIs(t, err, ErrSectionLocked)
	assert.ErrorIs(t, p.AnswerQuiz(ctx, "final", 0, quiz.ChoiceAnswer(0)), ErrSectionLocked)
	_, err = p.SubmitQuiz(ctx, "final")
	assert.ErrorIs(t, err, ErrSectionLocked)

	rec := p.Progress()
	assert.Empty(t, rec.CompletedSections)
	assert.Zero(t, rec.CompletionPercentage)
	assert.Equal(t, 0, rec.CurrentPageIndex)
	assert.Empty(t, h.events.OfKind(notify.SectionCompleted))
	require.NoError(t, p.Flush(ctx))
	assert.Empty(t, h.store.loggedAttempts())

	// An unlocked page still gates later sections on the same page.
	unlockPractice(t, h, p)
	_, err = p.SaveAnswer(ctx, "survey", 0, "dev")
	assert.ErrorIs(t, err, ErrSectionLocked)
	_, err = p.Complete(ctx, "steps")
	assert.ErrorIs(t, err, ErrSectionLocked)
	assert.False(t, p.Progress().Has("survey"))

	flipAllCards(t, p)
	_, err = p.SaveAnswer(ctx, "survey", 0, "dev")
	require.NoError(t, err)
	assert.True(t, p.Progress().Has("survey"))
}

func TestStartQuizOnLockedPage(t *testing.T) {
	h := newHarness(mixedModule())
	p := h.open(t, "mixed")
	ctx := context.Background()

	assert.ErrorIs(t, p.StartQuiz(ctx, "final"), ErrSectionLocked)
	sess, err := p.QuizSession("final")
	require.NoError(t, err)
	assert.Equal(t, quiz.NotStarted, sess.State())

	completeThroughPractice(t, h, p)
	require.NoError(t, p.StartQuiz(ctx, "final"))
}

func TestSectionStatus(t *testing.T) {
	h := newHarness(textModule())
	p := h.open(t, "basics")

	st, err := p.SectionStatus(0, 0)
	require.NoError(t, err)
	assert.Equal(t, gating.Actionable, st)

	st, err = p.SectionStatus(0, 1)
	require.NoError(t, err)
	assert.Equal(t, gating.Locked, st)

	_, err = p.Complete(context.Background(), "s1")
	require.NoError(t, err)
	st, err = p.SectionStatus(0, 0)
	require.NoError(t, err)
	assert.Equal(t, gating.Completed, st)

	_, err = p.SectionStatus(0, 9)
	assert.ErrorIs(t, err, content.ErrIndexOutOfRange)
}

func TestGoToPageGate(t *testing.T) {
	h := newHarness(mixedModule())
	p := h.open(t, "mixed")
	ctx := context.Background()

	err := p.GoToPage(ctx, 1)
	assert.ErrorIs(t, err, gating.ErrPagePreconditionNotMet)
	var gerr *gating.GateError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, []string{"welcome", "photo", "video"}, gerr.Missing)
	assert.Equal(t, 0, p.Progress().CurrentPageIndex)

	_, err = p.Complete(ctx, "welcome")
	require.NoError(t, err)
	require.NoError(t, p.ShowSection("photo"))
	h.timers.Advance(3 * time.Second)
	require.NoError(t, p.ShowSection("video"))
	h.timers.Advance(5 * time.Second)

	require.NoError(t, p.GoToPage(ctx, 1))
	assert.Equal(t, 1, p.Progress().CurrentPageIndex)

	require.NoError(t, p.GoToPage(ctx, 0))
	assert.Equal(t, 0, p.Progress().CurrentPageIndex)

	assert.ErrorIs(t, p.GoToPage(ctx, 7), content.ErrIndexOutOfRange)

	statuses := p.PageStatuses()
	require.Len(t, statuses, 3)
	assert.True(t, statuses[1].Unlocked)
	assert.False(t, statuses[2].Unlocked)
}

func TestDelayedCompletion(t *testing.T) {
	h := newHarness(mixedModule())
	p := h.open(t, "mixed")
	ctx := context.Background()

	// Locked sections do not start a timer.
	require.NoError(t, p.ShowSection("photo"))
	assert.False(t, p.CompletionPending("photo"))

	_, err := p.Complete(ctx, "welcome")
	require.NoError(t, err)

	require.NoError(t, p.ShowSection("photo"))
	assert.True(t, p.CompletionPending("photo"))

	h.timers.Advance(2 * time.Second)
	assert.False(t, p.Progress().Has("photo"))

	h.timers.Advance(time.Second)
	assert.True(t, p.Progress().Has("photo"))
	assert.False(t, p.CompletionPending("photo"))
}

func TestHideSectionCancelsTimer(t *testing.T) {
	h := newHarness(mixedModule())
	p := h.open(t, "mixed")
	ctx := context.Background()

	_, err := p.Complete(ctx, "welcome")
	require.NoError(t, err)
	require.NoError(t, p.ShowSection("photo"))
	p.HideSection("photo")

	h.timers.Advance(10 * time.Second)
	assert.False(t, p.Progress().Has("photo"))
	assert.Equal(t, 0, h.timers.Pending())
}

func TestShowSectionAgainRestartsTimer(t *testing.T) {
	h := newHarness(mixedModule())
	p := h.open(t, "mixed")

	_, err := p.Complete(context.Background(), "welcome")
	require.NoError(t, err)
	require.NoError(t, p.ShowSection("photo"))
	h.timers.Advance(2 * time.Second)
	require.NoError(t, p.ShowSection("photo"))
	h.timers.Advance(2 * time.Second)
	assert.False(t, p.Progress().Has("photo"))
	h.timers.Advance(time.Second)
	assert.True(t, p.Progress().Has("photo"))
	assert.Len(t, h.events.OfKind(notify.SectionCompleted), 2)
}

func unlockPractice(t *testing.T, h *harness, p *Player) {
	t.Helper()
	_, err := p.Complete(context.Background(), "welcome")
	require.NoError(t, err)
	require.NoError(t, p.ShowSection("photo"))
	h.timers.Advance(3 * time.Second)
	require.NoError(t, p.ShowSection("video"))
	h.timers.Advance(5 * time.Second)
	require.NoError(t, p.GoToPage(context.Background(), 1))
}

func TestFlashcardsCompleteWhenAllFlipped(t *testing.T) {
	h := newHarness(mixedModule())
	p := h.open(t, "mixed")
	unlockPractice(t, h, p)
	ctx := context.Background()

	flipped, tr, err := p.FlipCard(ctx, "cards", 0)
	require.NoError(t, err)
	assert.True(t, flipped)
	assert.False(t, tr.SectionCompleted)

	// Flipping back does not count twice.
	flipped, _, err = p.FlipCard(ctx, "cards", 0)
	require.NoError(t, err)
	assert.False(t, flipped)
	n, total := p.FlippedCount("cards")
	assert.Equal(t, 0, n)
	assert.Equal(t, 2, total)

	_, _, err = p.FlipCard(ctx, "cards", 0)
	require.NoError(t, err)
	_, tr, err = p.FlipCard(ctx, "cards", 1)
	require.NoError(t, err)
	assert.True(t, tr.SectionCompleted)
	assert.True(t, p.CardFlipped("cards", 1))

	_, _, err = p.FlipCard(ctx, "cards", 5)
	assert.ErrorIs(t, err, content.ErrIndexOutOfRange)

	_, _, err = p.FlipCard(ctx, "welcome", 0)
	assert.ErrorIs(t, err, ErrWrongSectionType)
}

func TestQuestionnaireCompletesWhenRequiredAnswered(t *testing.T) {
	h := newHarness(mixedModule())
	p := h.open(t, "mixed")
	unlockPractice(t, h, p)
	ctx := context.Background()
	flipAllCards(t, p)

	tr, err := p.SaveAnswer(ctx, "survey", 1, "nothing")
	require.NoError(t, err)
	assert.False(t, tr.SectionCompleted)
	answered, required := p.AnsweredCounts("survey")
	assert.Equal(t, 0, answered)
	assert.Equal(t, 1, required)

	tr, err = p.SaveAnswer(ctx, "survey", 0, "   ")
	require.NoError(t, err)
	assert.False(t, tr.SectionCompleted, "blank answers do not count")

	tr, err = p.SaveAnswer(ctx, "survey", 0, "engineer")
	require.NoError(t, err)
	assert.True(t, tr.SectionCompleted)
	answered, _ = p.AnsweredCounts("survey")
	assert.Equal(t, 1, answered)

	got, ok := p.SavedAnswer("survey", 0)
	require.True(t, ok)
	assert.Equal(t, "engineer", got)
	// Keyed by question id, falling back to section and index.
	rec := p.Progress()
	assert.Equal(t, "engineer", rec.Answers["role"])
	assert.Equal(t, "nothing", rec.Answers["survey-q1"])

	_, err = p.SaveAnswer(ctx, "survey", 9, "x")
	assert.ErrorIs(t, err, content.ErrIndexOutOfRange)
	_, err = p.SaveAnswer(ctx, "cards", 0, "x")
	assert.ErrorIs(t, err, ErrWrongSectionType)
}

func TestChecklistToggleNeverCompletes(t *testing.T) {
	h := newHarness(mixedModule())
	p := h.open(t, "mixed")
	unlockPractice(t, h, p)
	flipAllCards(t, p)
	_, err := p.SaveAnswer(context.Background(), "survey", 0, "x")
	require.NoError(t, err)

	_, err = p.ToggleChecklistItem("steps", 1)
	require.NoError(t, err)
	assert.False(t, p.ChecklistRequiredDone("steps"))
	checked, err := p.ToggleChecklistItem("steps", 0)
	require.NoError(t, err)
	assert.True(t, checked)
	assert.True(t, p.ChecklistRequiredDone("steps"))

	c, total := p.ChecklistCounts("steps")
	assert.Equal(t, 2, c)
	assert.Equal(t, 2, total)
	assert.True(t, p.ChecklistItemChecked("steps", 1))
	assert.False(t, p.Progress().Has("steps"))

	_, err = p.ToggleChecklistItem("steps", 2)
	assert.ErrorIs(t, err, content.ErrIndexOutOfRange)
}

func flipAllCards(t *testing.T, p *Player) {
	t.Helper()
	for i := range 2 {
		_, _, err := p.FlipCard(context.Background(), "cards", i)
		require.NoError(t, err)
	}
	require.True(t, p.Progress().Has("cards"))
}

func completeThroughPractice(t *testing.T, h *harness, p *Player) {
	t.Helper()
	ctx := context.Background()
	unlockPractice(t, h, p)
	flipAllCards(t, p)
	_, err := p.SaveAnswer(ctx, "survey", 0, "x")
	require.NoError(t, err)
	_, err = p.Complete(ctx, "steps")
	require.NoError(t, err)
	require.NoError(t, p.GoToPage(ctx, 2))
}

func TestQuizPassCompletesModule(t *testing.T) {
	h := newHarness(mixedModule())
	p := h.open(t, "mixed")
	completeThroughPractice(t, h, p)
	ctx := context.Background()

	require.NoError(t, p.StartQuiz(ctx, "final"))
	require.NoError(t, p.AnswerQuiz(ctx, "final", 0, quiz.ChoiceAnswer(1)))
	idx, err := p.NavigateQuiz(ctx, "final", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	require.NoError(t, p.AnswerQuiz(ctx, "final", 1, quiz.TextAnswer(" Paris ")))

	res, err := p.SubmitQuiz(ctx, "final")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Attempt.AttemptNumber)
	assert.Equal(t, quiz.Score{Points: 15, MaxPoints: 15, Percentage: 100}, res.Attempt.Score)
	assert.True(t, res.Attempt.Passed)
	assert.True(t, res.Transition.SectionCompleted)
	assert.True(t, res.Transition.ModuleCompleted)
	assert.True(t, p.QuizPassed("final"))

	require.NoError(t, p.Flush(ctx))
	attempts := h.store.loggedAttempts()
	require.Len(t, attempts, 1)
	assert.True(t, h.store.hasSession("final", "alice"), "submitted session stays cached for review")

	review, err := p.QuizReview("final")
	require.NoError(t, err)
	require.Len(t, review, 2)
	assert.True(t, review[1].IsCorrect)
}

func TestQuizFailDoesNotComplete(t *testing.T) {
	h := newHarness(mixedModule())
	p := h.open(t, "mixed")
	completeThroughPractice(t, h, p)
	ctx := context.Background()

	require.NoError(t, p.StartQuiz(ctx, "final"))
	require.NoError(t, p.AnswerQuiz(ctx, "final", 1, quiz.TextAnswer("paris")))
	res, err := p.SubmitQuiz(ctx, "final")
	require.NoError(t, err)
	assert.Equal(t, 67, res.Attempt.Score.Percentage)
	assert.False(t, res.Attempt.Passed)
	assert.False(t, res.Transition.SectionCompleted)
	assert.False(t, p.Progress().Has("final"))
}

func TestQuizRetakeNumbersAttempts(t *testing.T) {
	h := newHarness(mixedModule())
	p := h.open(t, "mixed")
	completeThroughPractice(t, h, p)
	ctx := context.Background()

	require.NoError(t, p.StartQuiz(ctx, "final"))
	first, err := p.SubmitQuiz(ctx, "final")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Attempt.AttemptNumber)

	_, err = p.SubmitQuiz(ctx, "final")
	assert.ErrorIs(t, err, quiz.ErrInvalidStateTransition)

	require.NoError(t, p.RetakeQuiz(ctx, "final"))
	sess, err := p.QuizSession("final")
	require.NoError(t, err)
	assert.Equal(t, quiz.NotStarted, sess.State())
	assert.Empty(t, sess.Answers)
	require.NoError(t, p.Flush(ctx))
	assert.False(t, h.store.hasSession("final", "alice"), "retake clears the cached session")

	require.NoError(t, p.StartQuiz(ctx, "final"))
	second, err := p.SubmitQuiz(ctx, "final")
	require.NoError(t, err)
	assert.Equal(t, 2, second.Attempt.AttemptNumber)

	require.NoError(t, p.Flush(ctx))
	assert.Len(t, h.store.loggedAttempts(), 2)
}

func TestQuizAttemptNumberWhenLogReadFails(t *testing.T) {
	h := newHarness(mixedModule())
	h.store.failLatest = errors.New("offline")
	p := h.open(t, "mixed")
	completeThroughPractice(t, h, p)
	ctx := context.Background()

	require.NoError(t, p.StartQuiz(ctx, "final"))
	res, err := p.SubmitQuiz(ctx, "final")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Attempt.AttemptNumber)

	require.NoError(t, p.RetakeQuiz(ctx, "final"))
	require.NoError(t, p.StartQuiz(ctx, "final"))
	res, err = p.SubmitQuiz(ctx, "final")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempt.AttemptNumber, "local numbering still advances")
}

func TestQuizOnWrongSection(t *testing.T) {
	h := newHarness(mixedModule())
	p := h.open(t, "mixed")
	completeThroughPractice(t, h, p)
	ctx := context.Background()

	assert.ErrorIs(t, p.StartQuiz(ctx, "welcome"), ErrWrongSectionType)
	assert.ErrorIs(t, p.AnswerQuiz(ctx, "final", 0, quiz.ChoiceAnswer(0)), quiz.ErrInvalidStateTransition)
	require.NoError(t, p.StartQuiz(ctx, "final"))
	assert.ErrorIs(t, p.AnswerQuiz(ctx, "final", 5, quiz.ChoiceAnswer(0)), content.ErrIndexOutOfRange)
}

func TestAttemptLogFailureDoesNotBlockSubmit(t *testing.T) {
	h := newHarness(mixedModule())
	h.store.failAttempts = errors.New("disk full")
	var werrs []*WriteError
	var mu sync.Mutex
	h.deps.OnWriteError = func(e *WriteError) {
		mu.Lock()
		defer mu.Unlock()
		werrs = append(werrs, e)
	}
	p := h.open(t, "mixed")
	completeThroughPractice(t, h, p)
	ctx := context.Background()

	require.NoError(t, p.StartQuiz(ctx, "final"))
	require.NoError(t, p.AnswerQuiz(ctx, "final", 0, quiz.ChoiceAnswer(1)))
	require.NoError(t, p.AnswerQuiz(ctx, "final", 1, quiz.TextAnswer("paris")))
	res, err := p.SubmitQuiz(ctx, "final")
	require.NoError(t, err)
	assert.True(t, res.Attempt.Passed)

	sess, err := p.QuizSession("final")
	require.NoError(t, err)
	assert.Equal(t, quiz.Submitted, sess.State())

	require.NoError(t, p.Flush(ctx))
	mu.Lock()
	require.Len(t, werrs, 1)
	assert.Equal(t, "quiz attempt", werrs[0].Op)
	mu.Unlock()
	failed := h.events.OfKind(notify.WriteFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, "quiz attempt", failed[0].Detail)
}

func TestProgressWriteFailureKeepsLocalStateAndRetries(t *testing.T) {
	h := newHarness(textModule())
	h.store.failProgress = errors.New("locked")
	p := h.open(t, "basics")
	ctx := context.Background()

	_, err := p.Complete(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, p.Progress().Has("s1"))

	require.NoError(t, p.Flush(ctx))
	assert.Equal(t, 1, p.FailedWrites())
	var werr *WriteError
	require.ErrorAs(t, h.events.OfKind(notify.WriteFailed)[0].Err, &werr)
	_, ok := h.store.stored("alice", "basics")
	assert.False(t, ok)

	h.store.setFailProgress(nil)
	_, err = p.Complete(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, 1, p.RetryWrites())
	require.NoError(t, p.Flush(ctx))
	assert.Equal(t, 0, p.FailedWrites())

	stored, ok := h.store.stored("alice", "basics")
	require.True(t, ok)
	assert.Equal(t, []string{"s1", "s2"}, stored.CompletedSections)
}

func TestFeedbackPrompt(t *testing.T) {
	h := newHarness(textModule())
	h.prompter.Probability = 1
	h.store.rated = []string{"s2"}
	p := h.open(t, "basics")
	ctx := context.Background()

	_, err := p.Complete(ctx, "s1")
	require.NoError(t, err)
	prompts := h.events.OfKind(notify.FeedbackPrompt)
	require.Len(t, prompts, 1)
	assert.Equal(t, "s1", prompts[0].SectionID)

	// Feedback recorded in an earlier session suppresses the prompt.
	_, err = p.Complete(ctx, "s2")
	require.NoError(t, err)
	assert.Len(t, h.events.OfKind(notify.FeedbackPrompt), 1)

	yes := true
	require.NoError(t, p.RecordSectionFeedback(ctx, feedback.SectionFeedback{SectionID: "s3", Helpful: &yes}))
	assert.True(t, h.prompter.Given("s3"))
	_, err = p.Complete(ctx, "s3")
	require.NoError(t, err)
	assert.Len(t, h.events.OfKind(notify.FeedbackPrompt), 1)

	require.NoError(t, p.Flush(ctx))
	require.Len(t, h.store.feedback, 1)
	assert.Equal(t, "alice", h.store.feedback[0].LearnerID)
	assert.Equal(t, "basics", h.store.feedback[0].ModuleID)

	err = p.RecordSectionFeedback(ctx, feedback.SectionFeedback{SectionID: "s1"})
	assert.ErrorIs(t, err, feedback.ErrInvalid)
	err = p.RecordSectionFeedback(ctx, feedback.SectionFeedback{SectionID: "zz", Clarity: 3})
	assert.ErrorIs(t, err, content.ErrSectionNotFound)
}

func TestResumeRestoresProgressAndQuiz(t *testing.T) {
	h := newHarness(mixedModule())
	ctx := context.Background()

	p, err := Open(ctx, h.deps, "alice", "mixed")
	require.NoError(t, err)
	completeThroughPractice(t, h, p)
	require.NoError(t, p.StartQuiz(ctx, "final"))
	require.NoError(t, p.AnswerQuiz(ctx, "final", 0, quiz.ChoiceAnswer(1)))
	_, err = p.NavigateQuiz(ctx, "final", 1)
	require.NoError(t, err)
	require.NoError(t, p.Close(ctx))

	_, err = p.Complete(ctx, "welcome")
	assert.ErrorIs(t, err, ErrClosed)

	p2 := h.open(t, "mixed")
	rec := p2.Progress()
	assert.Equal(t, 2, rec.CurrentPageIndex)
	assert.Len(t, rec.CompletedSections, 6)

	sess, err := p2.QuizSession("final")
	require.NoError(t, err)
	assert.Equal(t, quiz.InProgress, sess.State())
	assert.Equal(t, 1, sess.CurrentQuestion)
	require.NotNil(t, sess.Answers[0].Choice)
	assert.Equal(t, 1, *sess.Answers[0].Choice)
}

func TestOpenReconcilesStaleProgress(t *testing.T) {
	h := newHarness(textModule())
	h.store.progress["alice/basics"] = progress.Record{
		LearnerID:         "alice",
		ModuleID:          "basics",
		CurrentPageIndex:  4,
		CompletedSections: []string{"s1", "gone", "s1"},
		Answers:           map[string]string{},
	}
	p := h.open(t, "basics")
	rec := p.Progress()
	assert.Equal(t, []string{"s1"}, rec.CompletedSections)
	assert.Equal(t, 0, rec.CurrentPageIndex)
	assert.Equal(t, 33, rec.CompletionPercentage)
}

func TestOpenErrors(t *testing.T) {
	h := newHarness(textModule())
	ctx := context.Background()

	_, err := Open(ctx, h.deps, "alice", "missing")
	assert.ErrorIs(t, err, content.ErrModuleNotFound)

	deps := h.deps
	deps.Progress = nil
	_, err = Open(ctx, deps, "alice", "basics")
	assert.Error(t, err)
}

func TestOpenEmptyModuleUsesFallback(t *testing.T) {
	h := newHarness(&content.Module{ID: "empty", Title: "Empty", Description: "Nothing yet"})
	p := h.open(t, "empty")

	require.Len(t, p.Module().Pages, 1)
	tr, err := p.Complete(context.Background(), "default-section")
	require.NoError(t, err)
	assert.True(t, tr.ModuleCompleted)
}

func TestDefaultPassingScore(t *testing.T) {
	m := mixedModule()
	h := newHarness(m)
	h.deps.DefaultPassingScore = 50
	p := h.open(t, "mixed")
	completeThroughPractice(t, h, p)
	ctx := context.Background()

	require.NoError(t, p.StartQuiz(ctx, "final"))
	require.NoError(t, p.AnswerQuiz(ctx, "final", 1, quiz.TextAnswer("paris")))
	res, err := p.SubmitQuiz(ctx, "final")
	require.NoError(t, err)
	assert.True(t, res.Attempt.Passed, "67 percent passes a pass mark of 50")
	assert.Zero(t, m.Pages[2].Sections[0].Settings.PassingScore, "source module is not modified")
}
