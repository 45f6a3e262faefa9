// Package play is the module player screen: page tabs, section cards and
// per-type interactions on top of a player.Player.
package play

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/stepwise/internal/certificate"
	"github.com/abhisek/stepwise/internal/completion"
	"github.com/abhisek/stepwise/internal/content"
	"github.com/abhisek/stepwise/internal/feedback"
	"github.com/abhisek/stepwise/internal/gating"
	"github.com/abhisek/stepwise/internal/notify"
	"github.com/abhisek/stepwise/internal/player"
	"github.com/abhisek/stepwise/internal/quiz"
	"github.com/abhisek/stepwise/internal/router"
	"github.com/abhisek/stepwise/internal/screen"
	"github.com/abhisek/stepwise/internal/screens/finish"
	"github.com/abhisek/stepwise/internal/ui/components"
	"github.com/abhisek/stepwise/internal/ui/layout"
)

type mode int

const (
	modeBrowse mode = iota // moving between sections and pages
	modeItems              // inside a section: cards, items, questions, options
	modeEdit               // typing a free-text answer
	modePrompt             // section feedback prompt
)

const answerCharLimit = 500

// PlayScreen plays one module for one learner.
type PlayScreen struct {
	p     *player.Player
	certs *certificate.Service

	page    int
	focus   int
	visible string

	mode     mode
	cursor   int
	input    components.TextInput
	editQIdx int

	prompts  []string
	finished bool

	status string
	errMsg string
}

var _ screen.Screen = (*PlayScreen)(nil)
var _ screen.KeyHintProvider = (*PlayScreen)(nil)

// New creates the play screen. certs may be nil, in which case finishing
// the module does not open the completion panel.
func New(p *player.Player, certs *certificate.Service) *PlayScreen {
	return &PlayScreen{
		p:     p,
		certs: certs,
		page:  p.Progress().CurrentPageIndex,
	}
}

func (s *PlayScreen) Init() tea.Cmd {
	s.focus = s.firstActionable()
	s.show()
	if s.p.Progress().IsCompleted {
		s.finished = true
	}
	return nil
}

func (s *PlayScreen) Title() string {
	m := s.p.Module()
	if m.Title != "" {
		return m.Title
	}
	return m.ID
}

func (s *PlayScreen) KeyHints() []layout.KeyHint {
	switch s.mode {
	case modeEdit:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Save"},
			{Key: "Esc", Description: "Cancel"},
		}
	case modePrompt:
		return []layout.KeyHint{
			{Key: "y", Description: "Helpful"},
			{Key: "n", Description: "Not helpful"},
			{Key: "Esc", Description: "Skip"},
		}
	case modeItems:
		hints := []layout.KeyHint{{Key: "↑↓", Description: "Move"}}
		if sec, ok := s.focused(); ok && sec.Type == content.TypeQuiz {
			hints = append(hints,
				layout.KeyHint{Key: "Space", Description: "Answer"},
				layout.KeyHint{Key: "n/p", Description: "Question"},
				layout.KeyHint{Key: "s", Description: "Submit"},
				layout.KeyHint{Key: "r", Description: "Retake"},
			)
		} else {
			hints = append(hints, layout.KeyHint{Key: "Space", Description: "Toggle"})
		}
		return append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
	}
	hints := []layout.KeyHint{
		{Key: "↑↓", Description: "Section"},
		{Key: "←→", Description: "Page"},
		{Key: "Enter", Description: "Open"},
		{Key: "c", Description: "Complete"},
	}
	if s.p.FailedWrites() > 0 {
		hints = append(hints, layout.KeyHint{Key: "w", Description: "Retry saves"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Exit"})
}

func (s *PlayScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case screen.EventMsg:
		return s, s.handleEvent(msg.Event)

	case quizSubmittedMsg:
		if msg.Passed {
			s.status = fmt.Sprintf("Quiz passed with %d%%.", msg.Percent)
		} else {
			s.status = fmt.Sprintf("Quiz scored %d%%, below the pass mark.", msg.Percent)
		}
		return s, nil

	case screen.ResumedMsg:
		s.show()
		return s, nil

	case tea.KeyMsg:
		s.errMsg = ""
		switch s.mode {
		case modeEdit:
			return s.updateEdit(msg)
		case modePrompt:
			return s, s.updatePrompt(msg)
		case modeItems:
			return s, s.updateItems(msg)
		default:
			return s, s.updateBrowse(msg)
		}
	}

	if s.mode == modeEdit {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

// handleEvent reacts to player events routed from the application.
func (s *PlayScreen) handleEvent(e notify.Event) tea.Cmd {
	m := s.p.Module()
	if e.ModuleID != m.ID || e.LearnerID != s.p.LearnerID() {
		return nil
	}
	switch e.Kind {
	case notify.SectionCompleted:
		if sec, err := content.SectionByID(m, e.SectionID); err == nil {
			s.status = "✓ " + displayTitle(m, sec) + " complete"
		}
	case notify.FeedbackPrompt:
		s.prompts = append(s.prompts, e.SectionID)
		if s.mode == modeBrowse {
			s.mode = modePrompt
		}
	case notify.WriteFailed:
		s.status = fmt.Sprintf("Could not save %s. Press w to retry.", e.Detail)
	case notify.ModuleCompleted:
		return s.finish()
	}
	return nil
}

func (s *PlayScreen) finish() tea.Cmd {
	if s.finished {
		return nil
	}
	s.finished = true
	s.status = "Module complete!"
	if s.certs == nil {
		return nil
	}
	m := s.p.Module()
	next := finish.New(s.certs, s.p.LearnerID(), m.ID, s.Title())
	return func() tea.Msg { return router.PushScreenMsg{Screen: next} }
}

func (s *PlayScreen) updateBrowse(msg tea.KeyMsg) tea.Cmd {
	ctx := context.Background()
	switch msg.String() {
	case "esc", "q":
		s.hide()
		p := s.p
		return func() tea.Msg {
			if err := p.Close(context.Background()); err != nil {
				return closedMsg{Err: err}
			}
			return router.PopScreenMsg{}
		}
	case "up", "k":
		s.moveFocus(-1)
	case "down", "j":
		s.moveFocus(1)
	case "left", "h":
		s.turnPage(ctx, s.page-1)
	case "right", "l":
		s.turnPage(ctx, s.page+1)
	case "c":
		sec, ok := s.focused()
		if !ok {
			return nil
		}
		if _, err := s.p.Complete(ctx, sec.ID); err != nil {
			s.setErr(err)
		}
	case "w":
		if n := s.p.RetryWrites(); n > 0 {
			s.status = fmt.Sprintf("Retrying %d save(s)...", n)
		}
	case "enter", " ", "space":
		return s.open(ctx)
	}
	return nil
}

// open enters the focused section's item mode, starting its quiz if needed.
func (s *PlayScreen) open(ctx context.Context) tea.Cmd {
	sec, ok := s.focused()
	if !ok || !hasItems(sec) {
		return nil
	}
	if st, _ := s.p.SectionStatus(s.page, s.focus); st == gating.Locked {
		s.errMsg = "This section is locked. Complete the previous sections first."
		return nil
	}
	if sec.Type == content.TypeQuiz {
		sess, err := s.p.QuizSession(sec.ID)
		if err != nil {
			s.setErr(err)
			return nil
		}
		if sess.State() == quiz.NotStarted {
			if err := s.p.StartQuiz(ctx, sec.ID); err != nil {
				s.setErr(err)
				return nil
			}
		}
	}
	s.mode = modeItems
	s.cursor = 0
	return nil
}

func (s *PlayScreen) updateItems(msg tea.KeyMsg) tea.Cmd {
	sec, ok := s.focused()
	if !ok {
		s.mode = modeBrowse
		return nil
	}
	ctx := context.Background()
	key := msg.String()

	switch key {
	case "esc":
		s.mode = modeBrowse
		s.cursor = 0
		return nil
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
		return nil
	case "down", "j":
		if s.cursor < s.itemCount(sec)-1 {
			s.cursor++
		}
		return nil
	}

	switch sec.Type {
	case content.TypeChecklist:
		if key == " " || key == "space" || key == "enter" {
			if _, err := s.p.ToggleChecklistItem(sec.ID, s.cursor); err != nil {
				s.setErr(err)
			}
		}
	case content.TypeFlashcards:
		if key == " " || key == "space" || key == "enter" {
			if _, _, err := s.p.FlipCard(ctx, sec.ID, s.cursor); err != nil {
				s.setErr(err)
			}
		}
	case content.TypeQuestionnaire, content.TypeDropdowns:
		s.answerSurvey(ctx, sec, key)
	case content.TypeQuiz:
		return s.updateQuiz(ctx, sec, key)
	}
	return nil
}

// answerSurvey handles a key on questionnaire and dropdown questions. Choice
// questions cycle through their options; text questions open an editor.
func (s *PlayScreen) answerSurvey(ctx context.Context, sec content.Section, key string) {
	if key != " " && key != "space" && key != "enter" {
		return
	}
	if s.cursor >= len(sec.Questions) {
		return
	}
	q := sec.Questions[s.cursor]
	if len(q.Options) == 0 {
		prev, _ := s.p.SavedAnswer(sec.ID, s.cursor)
		s.startEdit(s.cursor, q.Text, prev)
		return
	}
	prev, _ := s.p.SavedAnswer(sec.ID, s.cursor)
	next := q.Options[0]
	for i, opt := range q.Options {
		if opt == prev {
			next = q.Options[(i+1)%len(q.Options)]
			break
		}
	}
	if _, err := s.p.SaveAnswer(ctx, sec.ID, s.cursor, next); err != nil {
		s.setErr(err)
	}
}

func (s *PlayScreen) updateQuiz(ctx context.Context, sec content.Section, key string) tea.Cmd {
	sess, err := s.p.QuizSession(sec.ID)
	if err != nil {
		s.setErr(err)
		return nil
	}

	if sess.State() == quiz.Submitted {
		if key == "r" {
			if !sec.Settings.AllowRetake {
				s.errMsg = "Retakes are not allowed for this quiz."
				return nil
			}
			if err := s.p.RetakeQuiz(ctx, sec.ID); err != nil {
				s.setErr(err)
				return nil
			}
			if err := s.p.StartQuiz(ctx, sec.ID); err != nil {
				s.setErr(err)
			}
			s.cursor = 0
		}
		return nil
	}

	qi := sess.CurrentQuestion
	switch key {
	case "n", "right", "l":
		if _, err := s.p.NavigateQuiz(ctx, sec.ID, 1); err != nil {
			s.setErr(err)
		}
		s.cursor = 0
	case "p", "left", "h":
		if _, err := s.p.NavigateQuiz(ctx, sec.ID, -1); err != nil {
			s.setErr(err)
		}
		s.cursor = 0
	case "s":
		res, err := s.p.SubmitQuiz(ctx, sec.ID)
		if err != nil {
			s.setErr(err)
			return nil
		}
		return func() tea.Msg {
			return quizSubmittedMsg{
				SectionID: sec.ID,
				Passed:    res.Attempt.Passed,
				Percent:   res.Attempt.Score.Percentage,
			}
		}
	case " ", "space", "enter":
		if qi < 0 || qi >= len(sec.Questions) {
			return nil
		}
		q := sec.Questions[qi]
		var a quiz.Answer
		switch q.Kind {
		case content.KindFillBlank:
			prev := ""
			if old, ok := sess.Answers[qi]; ok && old.Text != nil {
				prev = *old.Text
			}
			s.startEdit(qi, q.Text, prev)
			return nil
		case content.KindMultipleSelect:
			a = sess.Answers[qi].ToggleChoice(s.cursor)
		case content.KindTrueFalse:
			a = quiz.TruthAnswer(s.cursor == 0)
		default:
			a = quiz.ChoiceAnswer(s.cursor)
		}
		if err := s.p.AnswerQuiz(ctx, sec.ID, qi, a); err != nil {
			s.setErr(err)
		}
	}
	return nil
}

func (s *PlayScreen) startEdit(qIdx int, placeholder, value string) {
	s.editQIdx = qIdx
	s.input = components.NewTextInput(placeholder, value, answerCharLimit)
	s.mode = modeEdit
}

func (s *PlayScreen) updateEdit(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		s.mode = modeItems
		return s, nil
	case "enter":
		s.mode = modeItems
		sec, ok := s.focused()
		if !ok {
			return s, nil
		}
		ctx := context.Background()
		value := strings.TrimSpace(s.input.Value())
		var err error
		if sec.Type == content.TypeQuiz {
			err = s.p.AnswerQuiz(ctx, sec.ID, s.editQIdx, quiz.TextAnswer(value))
		} else {
			_, err = s.p.SaveAnswer(ctx, sec.ID, s.editQIdx, value)
		}
		if err != nil {
			s.setErr(err)
		}
		return s, nil
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *PlayScreen) updatePrompt(msg tea.KeyMsg) tea.Cmd {
	if len(s.prompts) == 0 {
		s.mode = modeBrowse
		return nil
	}
	sectionID := s.prompts[0]
	var helpful *bool
	switch msg.String() {
	case "y", "Y":
		v := true
		helpful = &v
	case "n", "N":
		v := false
		helpful = &v
	case "esc":
	default:
		return nil
	}
	if helpful != nil {
		err := s.p.RecordSectionFeedback(context.Background(), feedback.SectionFeedback{
			SectionID: sectionID,
			Helpful:   helpful,
		})
		if err != nil {
			s.setErr(err)
		} else {
			s.status = "Thanks for the feedback!"
		}
	}
	s.prompts = s.prompts[1:]
	if len(s.prompts) == 0 {
		s.mode = modeBrowse
	}
	return nil
}

// turnPage moves to page target and focuses its first actionable section.
func (s *PlayScreen) turnPage(ctx context.Context, target int) {
	if target < 0 || target >= len(s.p.Module().Pages) {
		return
	}
	err := s.p.GoToPage(ctx, target)
	var gate *gating.GateError
	switch {
	case errors.As(err, &gate):
		s.errMsg = fmt.Sprintf("Complete %s before moving on.", s.describeMissing(gate.Missing))
		return
	case err != nil:
		s.setErr(err)
		return
	}
	s.hide()
	s.page = target
	s.focus = s.firstActionable()
	s.mode = modeBrowse
	s.show()
}

func (s *PlayScreen) moveFocus(delta int) {
	n := len(s.sections())
	if n == 0 {
		return
	}
	next := max(0, min(s.focus+delta, n-1))
	if next == s.focus {
		return
	}
	s.hide()
	s.focus = next
	s.show()
}

// show reports the focused section as visible to the player.
func (s *PlayScreen) show() {
	sec, ok := s.focused()
	if !ok {
		return
	}
	if err := s.p.ShowSection(sec.ID); err != nil && !errors.Is(err, player.ErrClosed) {
		s.setErr(err)
		return
	}
	s.visible = sec.ID
}

func (s *PlayScreen) hide() {
	if s.visible == "" {
		return
	}
	s.p.HideSection(s.visible)
	s.visible = ""
}

func (s *PlayScreen) sections() []content.Section {
	secs, err := content.SectionsOfPage(s.p.Module(), s.page)
	if err != nil {
		return nil
	}
	return secs
}

func (s *PlayScreen) focused() (content.Section, bool) {
	secs := s.sections()
	if s.focus < 0 || s.focus >= len(secs) {
		return content.Section{}, false
	}
	return secs[s.focus], true
}

// firstActionable returns the first unlocked, uncompleted section on the
// current page, or 0.
func (s *PlayScreen) firstActionable() int {
	for i := range s.sections() {
		if st, err := s.p.SectionStatus(s.page, i); err == nil && st == gating.Actionable {
			return i
		}
	}
	return 0
}

func (s *PlayScreen) itemCount(sec content.Section) int {
	switch sec.Type {
	case content.TypeChecklist:
		return len(sec.Items)
	case content.TypeFlashcards:
		return len(sec.Cards)
	case content.TypeQuestionnaire, content.TypeDropdowns:
		return len(sec.Questions)
	case content.TypeQuiz:
		sess, err := s.p.QuizSession(sec.ID)
		if err != nil || sess.CurrentQuestion >= len(sec.Questions) {
			return 0
		}
		return len(quizOptions(sec.Questions[sess.CurrentQuestion]))
	}
	return 0
}

func (s *PlayScreen) describeMissing(ids []string) string {
	m := s.p.Module()
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if sec, err := content.SectionByID(m, id); err == nil {
			names = append(names, fmt.Sprintf("%q", displayTitle(m, sec)))
		}
	}
	if len(names) == 0 {
		return "this page"
	}
	return strings.Join(names, ", ")
}

func (s *PlayScreen) setErr(err error) {
	switch {
	case errors.Is(err, player.ErrSectionLocked):
		s.errMsg = "This section is locked. Complete the previous sections first."
	case errors.Is(err, completion.ErrNotManual):
		s.errMsg = "This section completes on its own."
	default:
		s.errMsg = err.Error()
	}
}

func hasItems(sec content.Section) bool {
	switch sec.Type {
	case content.TypeChecklist, content.TypeFlashcards, content.TypeQuestionnaire,
		content.TypeDropdowns, content.TypeQuiz:
		return true
	}
	return false
}

// quizOptions returns the selectable options of a quiz question.
func quizOptions(q content.Question) []string {
	if q.Kind == content.KindTrueFalse && len(q.Options) == 0 {
		return []string{"True", "False"}
	}
	return q.Options
}

func displayTitle(m *content.Module, sec content.Section) string {
	_, si, _ := content.Locate(m, sec.ID)
	return sec.DisplayTitle(si)
}
