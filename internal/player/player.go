// Package player runs one learner through one module. It owns the progress
// record, per-section trackers, quiz machines and delayed completion timers,
// and pushes every change to the persistence ports in the background.
//
// Local state is updated first; writes are queued and a failed write is
// reported through Deps.OnWriteError and a notify.WriteFailed event. Nothing
// is rolled back.
package player

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/abhisek/stepwise/internal/completion"
	"github.com/abhisek/stepwise/internal/content"
	"github.com/abhisek/stepwise/internal/feedback"
	"github.com/abhisek/stepwise/internal/gating"
	"github.com/abhisek/stepwise/internal/logger"
	"github.com/abhisek/stepwise/internal/notify"
	"github.com/abhisek/stepwise/internal/progress"
	"github.com/abhisek/stepwise/internal/quiz"
	"github.com/abhisek/stepwise/internal/timer"
)

var (
	// ErrSectionLocked is returned when acting on a section whose
	// predecessors on the page are not completed.
	ErrSectionLocked = errors.New("section is locked")

	// ErrWrongSectionType is returned when an operation does not apply to
	// the section's type.
	ErrWrongSectionType = errors.New("operation does not apply to section type")

	// ErrClosed is returned by operations on a closed player.
	ErrClosed = errors.New("player closed")
)

// Deps are the collaborators of a Player. Content, Progress, Sessions and
// Attempts are required.
type Deps struct {
	Content  ContentSource
	Progress ProgressStore
	Sessions QuizSessionCache
	Attempts AttemptLog
	Feedback FeedbackStore // optional

	Notifier notify.Notifier              // default: notify.Nop
	Timers   timer.Service                // default: timer.Real
	Policies completion.Policies          // default: completion.DefaultPolicies(time.Second)
	Prompter *completion.FeedbackPrompter // default: 0.30 probability

	// DefaultPassingScore applies to quiz sections that set none.
	DefaultPassingScore int

	// WriteQueue is the background write queue capacity. Default: 64.
	WriteQueue int

	// OnWriteError is called from the writer goroutine for every failed write.
	OnWriteError func(*WriteError)

	Log *logger.Logger
	Now func() time.Time
}

func (d *Deps) validate() error {
	var missing []string
	if d.Content == nil {
		missing = append(missing, "Content")
	}
	if d.Progress == nil {
		missing = append(missing, "Progress")
	}
	if d.Sessions == nil {
		missing = append(missing, "Sessions")
	}
	if d.Attempts == nil {
		missing = append(missing, "Attempts")
	}
	if len(missing) > 0 {
		return fmt.Errorf("player deps: missing %v", missing)
	}
	return nil
}

func (d *Deps) applyDefaults() {
	if d.Notifier == nil {
		d.Notifier = notify.Nop{}
	}
	if d.Timers == nil {
		d.Timers = timer.Real{}
	}
	if d.Policies == nil {
		d.Policies = completion.DefaultPolicies(time.Second)
	}
	if d.Prompter == nil {
		d.Prompter = completion.NewFeedbackPrompter(completion.DefaultFeedbackProbability)
	}
	if d.WriteQueue <= 0 {
		d.WriteQueue = 64
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
}

// Player is one learner's session on one module. Its methods are safe for
// concurrent use so delayed completions may fire from timer goroutines.
type Player struct {
	deps      Deps
	learnerID string
	module    *content.Module
	log       *logger.Logger

	scheduler *completion.DelayedScheduler
	writes    *writer

	mu         sync.Mutex
	closed     bool
	rec        progress.Record
	flashcards map[string]*completion.FlashcardTracker
	checklists map[string]*completion.ChecklistTracker
	quizzes    map[string]*quiz.Machine
}

// effects are side effects collected under the lock and applied after it
// is released.
type effects struct {
	writes []writeJob
	events []notify.Event
}

func (fx *effects) write(op string, fn func(ctx context.Context) error) {
	fx.writes = append(fx.writes, writeJob{op: op, fn: fn})
}

func (fx *effects) emit(e notify.Event) {
	fx.events = append(fx.events, e)
}

// Open loads the module and the learner's progress and returns a ready
// Player. A learner without a stored record starts from a fresh one.
func Open(ctx context.Context, deps Deps, learnerID, moduleID string) (*Player, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	deps.applyDefaults()

	m, err := deps.Content.LoadModule(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("open player: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("open player: module %q: %w", moduleID, content.ErrModuleNotFound)
	}
	m = withPassingScore(content.WithFallback(m), deps.DefaultPassingScore)

	stored, err := deps.Progress.LoadProgress(ctx, learnerID, m.ID)
	if err != nil {
		return nil, fmt.Errorf("open player: load progress: %w", err)
	}
	rec := progress.New(learnerID, m.ID)
	if stored != nil {
		rec = progress.Reconcile(m, *stored, deps.Now())
	}

	p := &Player{
		deps:       deps,
		learnerID:  learnerID,
		module:     m,
		log:        deps.Log.With("learner_id", learnerID, "module_id", m.ID),
		scheduler:  completion.NewDelayedScheduler(deps.Timers),
		rec:        rec,
		flashcards: make(map[string]*completion.FlashcardTracker),
		checklists: make(map[string]*completion.ChecklistTracker),
		quizzes:    make(map[string]*quiz.Machine),
	}
	p.writes = newWriter(deps.WriteQueue, p.writeFailed)

	for _, page := range m.Pages {
		for _, s := range page.Sections {
			switch s.Type {
			case content.TypeFlashcards:
				p.flashcards[s.ID] = completion.NewFlashcardTracker(len(s.Cards))
			case content.TypeChecklist:
				p.checklists[s.ID] = completion.NewChecklistTracker(s.Items)
			case content.TypeQuiz:
				p.quizzes[s.ID] = p.restoreQuiz(ctx, s)
			}
		}
	}

	if deps.Feedback != nil {
		ids, err := deps.Feedback.SectionsWithFeedback(ctx, learnerID, m.ID)
		if err != nil {
			p.log.Warn("load section feedback", "error", err)
		}
		for _, id := range ids {
			deps.Prompter.MarkGiven(id)
		}
	}

	p.log.Debug("player opened",
		"completed", rec.CompletedCount(),
		"total", content.TotalSections(m),
		"page", rec.CurrentPageIndex,
	)
	return p, nil
}

func (p *Player) restoreQuiz(ctx context.Context, s content.Section) *quiz.Machine {
	sess, err := p.deps.Sessions.LoadQuizSession(ctx, s.ID, p.learnerID)
	if err != nil {
		p.log.Warn("load quiz session", "section_id", s.ID, "error", err)
	}
	if sess == nil {
		return quiz.NewMachine(s, p.learnerID, p.module.ID)
	}
	sess.LearnerID = p.learnerID
	sess.ModuleID = p.module.ID
	return quiz.Restore(s, *sess)
}

// withPassingScore fills unset quiz pass marks with score. m is not modified.
func withPassingScore(m *content.Module, score int) *content.Module {
	if score <= 0 || m == nil {
		return m
	}
	out := *m
	out.Pages = slices.Clone(m.Pages)
	for i := range out.Pages {
		out.Pages[i].Sections = slices.Clone(out.Pages[i].Sections)
		for j := range out.Pages[i].Sections {
			s := &out.Pages[i].Sections[j]
			if s.Type == content.TypeQuiz && s.Settings.PassingScore <= 0 {
				s.Settings.PassingScore = score
			}
		}
	}
	return &out
}

// LearnerID returns the learner this player runs for.
func (p *Player) LearnerID() string { return p.learnerID }

// Module returns the module being played. Callers must not modify it.
func (p *Player) Module() *content.Module { return p.module }

// Progress returns a copy of the current progress record.
func (p *Player) Progress() progress.Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rec.Clone()
}

// SectionStatus classifies the section at (pageIdx, sectionIdx).
func (p *Player) SectionStatus(pageIdx, sectionIdx int) (gating.Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return gating.SectionStatus(p.module, p.rec, pageIdx, sectionIdx)
}

// PageStatuses summarizes every page for navigation.
func (p *Player) PageStatuses() []gating.PageStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return gating.PageStatuses(p.module, p.rec)
}

// Policy returns the completion rule of a section type.
func (p *Player) Policy(t content.SectionType) completion.Policy {
	return p.deps.Policies.PolicyFor(t)
}

// Complete marks a manual section (text, checklist) complete.
func (p *Player) Complete(ctx context.Context, sectionID string) (progress.Transition, error) {
	var fx effects
	tr, err := p.locked(func() (progress.Transition, error) {
		s, pi, si, err := p.section(sectionID)
		if err != nil {
			return progress.Transition{}, err
		}
		if err := p.deps.Policies.CheckManual(s.Type); err != nil {
			return progress.Transition{}, fmt.Errorf("complete %q: %w", sectionID, err)
		}
		if err := p.checkActionable(pi, si, sectionID); err != nil {
			return progress.Transition{}, err
		}
		return p.markComplete(&fx, sectionID)
	})
	p.apply(ctx, fx)
	return tr, err
}

// SaveAnswer stores the answer to question questionIdx of a questionnaire
// or dropdowns section. Once every required question has an answer the
// section completes.
func (p *Player) SaveAnswer(ctx context.Context, sectionID string, questionIdx int, value string) (progress.Transition, error) {
	var fx effects
	tr, err := p.locked(func() (progress.Transition, error) {
		s, pi, si, err := p.section(sectionID)
		if err != nil {
			return progress.Transition{}, err
		}
		if p.deps.Policies.PolicyFor(s.Type).Trigger != completion.Reactive {
			return progress.Transition{}, fmt.Errorf("save answer on %s section %q: %w", s.Type, sectionID, ErrWrongSectionType)
		}
		if err := p.checkActionable(pi, si, sectionID); err != nil {
			return progress.Transition{}, err
		}
		if questionIdx < 0 || questionIdx >= len(s.Questions) {
			return progress.Transition{}, &content.IndexError{Kind: "question", Index: questionIdx, Len: len(s.Questions)}
		}

		p.rec = progress.SaveAnswer(p.rec, s.AnswerKey(questionIdx), value, p.deps.Now())
		p.saveProgress(&fx)

		if p.rec.Has(sectionID) || !completion.RequiredAnswered(s, p.rec.Answers) {
			return progress.Transition{}, nil
		}
		return p.markComplete(&fx, sectionID)
	})
	p.apply(ctx, fx)
	return tr, err
}

// SavedAnswer returns the stored answer to question questionIdx of a
// questionnaire or dropdowns section.
func (p *Player) SavedAnswer(sectionID string, questionIdx int) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, _, _, err := p.section(sectionID)
	if err != nil {
		return "", false
	}
	return p.rec.Answer(s.AnswerKey(questionIdx))
}

// FlipCard toggles card cardIdx of a flashcards section and returns whether
// it is now flipped. The section completes once every card is flipped.
func (p *Player) FlipCard(ctx context.Context, sectionID string, cardIdx int) (bool, progress.Transition, error) {
	var (
		fx      effects
		flipped bool
	)
	tr, err := p.locked(func() (progress.Transition, error) {
		t, ok := p.flashcards[sectionID]
		if !ok {
			return progress.Transition{}, p.wrongType("flip card", sectionID)
		}
		if err := p.actionable(sectionID); err != nil {
			return progress.Transition{}, err
		}
		if cardIdx < 0 || cardIdx >= t.Total() {
			return progress.Transition{}, &content.IndexError{Kind: "card", Index: cardIdx, Len: t.Total()}
		}
		flipped = t.Toggle(cardIdx)
		if !t.AllFlipped() || p.rec.Has(sectionID) {
			return progress.Transition{}, nil
		}
		return p.markComplete(&fx, sectionID)
	})
	p.apply(ctx, fx)
	return flipped, tr, err
}

// CardFlipped reports whether card cardIdx of a flashcards section is flipped.
func (p *Player) CardFlipped(sectionID string, cardIdx int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.flashcards[sectionID]
	return ok && t.IsFlipped(cardIdx)
}

// FlippedCount returns flipped and total cards of a flashcards section.
func (p *Player) FlippedCount(sectionID string) (flipped, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.flashcards[sectionID]; ok {
		return t.Count(), t.Total()
	}
	return 0, 0
}

// ToggleChecklistItem toggles item itemIdx of a checklist section and
// returns whether it is now checked. It never completes the section.
func (p *Player) ToggleChecklistItem(sectionID string, itemIdx int) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false, ErrClosed
	}
	c, ok := p.checklists[sectionID]
	if !ok {
		return false, p.wrongType("toggle checklist item", sectionID)
	}
	if err := p.actionable(sectionID); err != nil {
		return false, err
	}
	_, total := c.Counts()
	if itemIdx < 0 || itemIdx >= total {
		return false, &content.IndexError{Kind: "checklist item", Index: itemIdx, Len: total}
	}
	return c.Toggle(itemIdx), nil
}

// ChecklistItemChecked reports whether item itemIdx is checked.
func (p *Player) ChecklistItemChecked(sectionID string, itemIdx int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.checklists[sectionID]
	return ok && c.IsChecked(itemIdx)
}

// ChecklistCounts returns checked and total items of a checklist section.
func (p *Player) ChecklistCounts(sectionID string) (checked, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.checklists[sectionID]; ok {
		return c.Counts()
	}
	return 0, 0
}

// ChecklistRequiredDone reports whether every required item of a checklist
// section is checked.
func (p *Player) ChecklistRequiredDone(sectionID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.checklists[sectionID]
	return ok && c.RequiredChecked()
}

// AnsweredCounts returns answered and total required questions of a
// questionnaire or dropdowns section.
func (p *Player) AnsweredCounts(sectionID string) (answered, required int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, _, _, err := p.section(sectionID)
	if err != nil {
		return 0, 0
	}
	return completion.AnsweredCount(s, p.rec.Answers)
}

// ShowSection tells the player a section became visible. Delayed sections
// (photo, video, embed) start their completion timer; showing one again
// restarts it. Locked and completed sections are ignored.
func (p *Player) ShowSection(sectionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	s, pi, si, err := p.section(sectionID)
	if err != nil {
		return err
	}
	pol := p.deps.Policies.PolicyFor(s.Type)
	if pol.Trigger != completion.Delayed || p.rec.Has(sectionID) {
		return nil
	}
	if p.checkActionable(pi, si, sectionID) != nil {
		return nil
	}
	p.scheduler.Schedule(sectionID, pol.Delay, p.fireDelayed)
	return nil
}

// HideSection cancels a pending delayed completion for the section.
func (p *Player) HideSection(sectionID string) {
	p.scheduler.Cancel(sectionID)
}

// CompletionPending reports whether a delayed completion is scheduled.
func (p *Player) CompletionPending(sectionID string) bool {
	return p.scheduler.IsPending(sectionID)
}

func (p *Player) fireDelayed(sectionID string) {
	var fx effects
	_, err := p.locked(func() (progress.Transition, error) {
		if p.rec.Has(sectionID) {
			return progress.Transition{}, nil
		}
		return p.markComplete(&fx, sectionID)
	})
	if err != nil && !errors.Is(err, ErrClosed) {
		p.log.Warn("delayed completion", "section_id", sectionID, "error", err)
	}
	p.apply(context.Background(), fx)
}

// GoToPage moves to page target. Moving forward requires every section of
// the preceding page to be completed. Pending delayed completions of the
// page being left are cancelled.
func (p *Player) GoToPage(ctx context.Context, target int) error {
	var fx effects
	_, err := p.locked(func() (progress.Transition, error) {
		next, err := gating.GoToPage(p.module, p.rec, target)
		if err != nil {
			return progress.Transition{}, err
		}
		if next.CurrentPageIndex != p.rec.CurrentPageIndex {
			p.scheduler.CancelAll()
		}
		next.UpdatedAt = p.deps.Now()
		p.rec = next
		p.saveProgress(&fx)
		return progress.Transition{}, nil
	})
	p.apply(ctx, fx)
	return err
}

// RecordSectionFeedback stores section feedback and suppresses further
// prompts for the section.
func (p *Player) RecordSectionFeedback(ctx context.Context, f feedback.SectionFeedback) error {
	f.LearnerID = p.learnerID
	f.ModuleID = p.module.ID
	if f.CreatedAt.IsZero() {
		f.CreatedAt = p.deps.Now()
	}
	if err := f.Validate(); err != nil {
		return err
	}
	if _, _, ok := content.Locate(p.module, f.SectionID); !ok {
		return fmt.Errorf("section feedback for %q: %w", f.SectionID, content.ErrSectionNotFound)
	}
	p.deps.Prompter.MarkGiven(f.SectionID)

	if p.deps.Feedback == nil {
		return nil
	}
	var fx effects
	fx.write("section feedback", func(ctx context.Context) error {
		return p.deps.Feedback.SaveSectionFeedback(ctx, f)
	})
	p.apply(ctx, fx)
	return nil
}

// Flush waits for queued writes to finish.
func (p *Player) Flush(ctx context.Context) error {
	return p.writes.flush(ctx)
}

// RetryWrites queues failed writes again and returns how many were queued.
func (p *Player) RetryWrites() int {
	return p.writes.retry()
}

// FailedWrites returns the number of failed writes awaiting retry.
func (p *Player) FailedWrites() int {
	return p.writes.pendingFailures()
}

// Close cancels pending timers, drains queued writes and stops the writer.
// Later mutations return ErrClosed.
func (p *Player) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.scheduler.CancelAll()
	err := p.writes.flush(ctx)
	p.writes.close()
	return err
}

// locked runs fn under the player lock.
func (p *Player) locked(fn func() (progress.Transition, error)) (progress.Transition, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return progress.Transition{}, ErrClosed
	}
	return fn()
}

// apply queues writes, then delivers events. Must be called without the lock.
func (p *Player) apply(ctx context.Context, fx effects) {
	for _, w := range fx.writes {
		p.writes.enqueue(w.op, w.fn)
	}
	for _, e := range fx.events {
		p.deps.Notifier.Notify(ctx, e)
	}
}

// markComplete adds sectionID to the record and collects the resulting
// writes and events. Caller holds the lock.
func (p *Player) markComplete(fx *effects, sectionID string) (progress.Transition, error) {
	now := p.deps.Now()
	next, tr, err := progress.MarkSectionComplete(p.module, p.rec, sectionID, now)
	if err != nil {
		return tr, err
	}
	p.rec = next
	if !tr.SectionCompleted {
		return tr, nil
	}
	p.scheduler.Cancel(sectionID)
	p.saveProgress(fx)

	p.log.Info("section completed", "section_id", sectionID, "percentage", tr.PercentageAfter)
	fx.emit(p.event(notify.SectionCompleted, sectionID, now))
	if p.deps.Prompter.ShouldPrompt(sectionID) {
		fx.emit(p.event(notify.FeedbackPrompt, sectionID, now))
	}
	if tr.ModuleCompleted {
		p.log.Info("module completed")
		fx.emit(p.event(notify.ModuleCompleted, "", now))
	}
	return tr, nil
}

// saveProgress queues a progress write. The job persists the record as it
// is when the job runs, so retried and reordered writes never store stale
// state.
func (p *Player) saveProgress(fx *effects) {
	fx.write("progress", func(ctx context.Context) error {
		return p.deps.Progress.SaveProgress(ctx, p.Progress())
	})
}

func (p *Player) event(kind notify.Kind, sectionID string, at time.Time) notify.Event {
	return notify.Event{
		Kind:      kind,
		LearnerID: p.learnerID,
		ModuleID:  p.module.ID,
		SectionID: sectionID,
		At:        at,
	}
}

func (p *Player) writeFailed(op string, err error) {
	werr := &WriteError{Op: op, Err: err}
	p.log.Warn("write failed", "op", op, "error", err)
	if p.deps.OnWriteError != nil {
		p.deps.OnWriteError(werr)
	}
	e := p.event(notify.WriteFailed, "", p.deps.Now())
	e.Err = werr
	e.Detail = op
	p.deps.Notifier.Notify(context.Background(), e)
}

// section looks up sectionID. Caller holds the lock.
func (p *Player) section(sectionID string) (content.Section, int, int, error) {
	pi, si, ok := content.Locate(p.module, sectionID)
	if !ok {
		return content.Section{}, 0, 0, fmt.Errorf("section %q: %w", sectionID, content.ErrSectionNotFound)
	}
	return p.module.Pages[pi].Sections[si], pi, si, nil
}

// checkActionable refuses a section the learner cannot reach yet: its page
// must be unlocked and every earlier section on the page completed.
// Completed sections always pass. Caller holds the lock.
func (p *Player) checkActionable(pageIdx, sectionIdx int, sectionID string) error {
	if p.rec.Has(sectionID) {
		return nil
	}
	open, err := gating.IsPageUnlocked(p.module, p.rec, pageIdx)
	if err != nil {
		return err
	}
	locked := !open
	if open {
		locked, err = gating.IsSectionLocked(p.module, p.rec, pageIdx, sectionIdx)
		if err != nil {
			return err
		}
	}
	if locked {
		return fmt.Errorf("section %q: %w", sectionID, ErrSectionLocked)
	}
	return nil
}

// actionable looks up sectionID and applies checkActionable. Caller holds
// the lock.
func (p *Player) actionable(sectionID string) error {
	_, pi, si, err := p.section(sectionID)
	if err != nil {
		return err
	}
	return p.checkActionable(pi, si, sectionID)
}

func (p *Player) wrongType(op, sectionID string) error {
	s, _, _, err := p.section(sectionID)
	if err != nil {
		return err
	}
	return fmt.Errorf("%s on %s section %q: %w", op, s.Type, sectionID, ErrWrongSectionType)
}
