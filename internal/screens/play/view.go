package play

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/stepwise/internal/content"
	"github.com/abhisek/stepwise/internal/gating"
	"github.com/abhisek/stepwise/internal/quiz"
	"github.com/abhisek/stepwise/internal/ui/components"
	"github.com/abhisek/stepwise/internal/ui/theme"
)

func (s *PlayScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	rec := s.p.Progress()

	var b strings.Builder
	b.WriteString(s.renderTabs(width))
	b.WriteString("\n")

	bar := components.NewProgressBar("Progress", rec.CompletionPercentage, true, cw-12)
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar.View()))
	b.WriteString("\n\n")

	for i, sec := range s.sections() {
		st, _ := s.p.SectionStatus(s.page, i)
		focused := i == s.focus
		body := ""
		if focused || st != gating.Locked {
			body = s.renderBody(sec, st, focused, cw-4)
		}
		card := components.SectionCard(sec.DisplayTitle(i), s.badge(sec, st), body, cw, focused)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, card))
		b.WriteString("\n")
	}

	if s.mode == modePrompt && len(s.prompts) > 0 {
		b.WriteString("\n")
		b.WriteString(s.renderPrompt(cw, width))
	}

	if s.status != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			lipgloss.NewStyle().Foreground(theme.Secondary).Render(s.status)))
	}
	if s.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			lipgloss.NewStyle().Foreground(theme.Error).Render(s.errMsg)))
	}
	return b.String()
}

// renderTabs draws one tab per page with lock and done markers.
func (s *PlayScreen) renderTabs(width int) string {
	m := s.p.Module()
	statuses := s.p.PageStatuses()
	tabs := make([]string, 0, len(statuses))
	for _, ps := range statuses {
		name := m.Pages[ps.Index].Name
		if name == "" {
			name = fmt.Sprintf("Page %d", ps.Index+1)
		}
		marker := ""
		switch {
		case !ps.Unlocked:
			marker = "🔒 "
		case ps.Done():
			marker = "✓ "
		}
		label := fmt.Sprintf(" %s%s ", marker, name)

		style := lipgloss.NewStyle().Foreground(theme.TextDim)
		switch {
		case ps.Index == s.page:
			style = theme.Selected.Underline(true)
		case !ps.Unlocked:
			style = theme.Disabled
		}
		tabs = append(tabs, style.Render(label))
	}
	row := strings.Join(tabs, lipgloss.NewStyle().Foreground(theme.Border).Render("│"))
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, row)
}

func (s *PlayScreen) badge(sec content.Section, st gating.Status) string {
	switch st {
	case gating.Completed:
		return theme.BadgeDone.Render("✓ done")
	case gating.Locked:
		return theme.BadgeLocked.Render("🔒 locked")
	}
	if s.p.CompletionPending(sec.ID) {
		return theme.BadgeOpen.Render("viewing...")
	}
	return theme.BadgeOpen.Render(string(sec.Type))
}

func (s *PlayScreen) renderBody(sec content.Section, st gating.Status, focused bool, width int) string {
	if st == gating.Locked {
		return theme.Hint.Render("Complete the previous sections to unlock.")
	}
	text := lipgloss.NewStyle().Foreground(theme.Text).Width(width)
	dim := theme.Hint.Width(width)
	active := focused && s.mode != modeBrowse

	switch sec.Type {
	case content.TypeText:
		out := text.Render(sec.Body)
		if st != gating.Completed && focused {
			out += "\n\n" + components.Button("Mark complete (c)", true)
		}
		return out

	case content.TypePhoto, content.TypeVideo, content.TypeEmbed:
		var parts []string
		if u := firstNonEmpty(sec.MediaURL, sec.URL); u != "" {
			parts = append(parts, lipgloss.NewStyle().Foreground(theme.Secondary).Underline(true).Render(u))
		}
		if sec.Caption != "" {
			parts = append(parts, text.Render(sec.Caption))
		}
		if sec.Note != "" {
			parts = append(parts, dim.Render(sec.Note))
		}
		return strings.Join(parts, "\n")

	case content.TypeChecklist:
		return s.renderChecklist(sec, st, focused, active)

	case content.TypeFlashcards:
		return s.renderFlashcards(sec, active, width)

	case content.TypeQuestionnaire, content.TypeDropdowns:
		return s.renderSurvey(sec, active, width)

	case content.TypeQuiz:
		return s.renderQuiz(sec, active, width)
	}
	return dim.Render(sec.Body)
}

func (s *PlayScreen) renderChecklist(sec content.Section, st gating.Status, focused, active bool) string {
	var b strings.Builder
	for i, item := range sec.Items {
		box := "[ ]"
		if s.p.ChecklistItemChecked(sec.ID, i) {
			box = "[x]"
		}
		label := item.Text
		if item.Required {
			label += " *"
		}
		b.WriteString(cursorLine(active && i == s.cursor, box+" "+label))
		b.WriteString("\n")
	}
	checked, total := s.p.ChecklistCounts(sec.ID)
	hint := fmt.Sprintf("%d/%d checked", checked, total)
	if !s.p.ChecklistRequiredDone(sec.ID) {
		hint += " · required items left"
	}
	b.WriteString(theme.Hint.Render(hint))
	if st != gating.Completed && focused {
		b.WriteString("\n\n" + components.Button("Mark complete (c)", true))
	}
	return b.String()
}

func (s *PlayScreen) renderFlashcards(sec content.Section, active bool, width int) string {
	var b strings.Builder
	for i, c := range sec.Cards {
		face := c.Front
		mark := "◇"
		if s.p.CardFlipped(sec.ID, i) {
			face = c.Back
			mark = "◆"
		}
		b.WriteString(cursorLine(active && i == s.cursor, mark+" "+face))
		b.WriteString("\n")
	}
	flipped, total := s.p.FlippedCount(sec.ID)
	b.WriteString(theme.Hint.Width(width).Render(fmt.Sprintf("%d/%d cards flipped", flipped, total)))
	return b.String()
}

func (s *PlayScreen) renderSurvey(sec content.Section, active bool, width int) string {
	var b strings.Builder
	if sec.Description != "" {
		b.WriteString(theme.Hint.Width(width).Render(sec.Description) + "\n")
	}
	for i, q := range sec.Questions {
		label := q.Text
		if q.Required {
			label += " *"
		}
		b.WriteString(cursorLine(active && i == s.cursor, label))
		b.WriteString("\n")

		ans, ok := s.p.SavedAnswer(sec.ID, i)
		if s.mode == modeEdit && active && i == s.editQIdx {
			b.WriteString("    " + s.input.View() + "\n")
			continue
		}
		if !ok || ans == "" {
			ans = "(no answer)"
			if len(q.Options) > 0 {
				ans = "(choose: " + strings.Join(q.Options, " / ") + ")"
			}
			b.WriteString(theme.Hint.Render("    "+ans) + "\n")
			continue
		}
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Secondary).Render("    "+ans) + "\n")
	}
	if answered, required := s.p.AnsweredCounts(sec.ID); required > 0 {
		b.WriteString(theme.Hint.Render(fmt.Sprintf("%d/%d required answered", answered, required)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *PlayScreen) renderQuiz(sec content.Section, active bool, width int) string {
	sess, err := s.p.QuizSession(sec.ID)
	if err != nil {
		return theme.Hint.Render(err.Error())
	}

	switch sess.State() {
	case quiz.NotStarted:
		info := fmt.Sprintf("%d questions · %d points · pass mark %d%%",
			len(sec.Questions), sec.TotalPoints(), sec.Settings.PassingScoreOrDefault())
		if sec.Settings.TimeLimit > 0 {
			info += fmt.Sprintf(" · %d min", sec.Settings.TimeLimit)
		}
		out := theme.Hint.Width(width).Render(info)
		if sec.Description != "" {
			out = lipgloss.NewStyle().Foreground(theme.Text).Width(width).Render(sec.Description) + "\n" + out
		}
		return out + "\n\n" + components.Button("Start quiz (enter)", true)

	case quiz.Submitted:
		return s.renderQuizReview(sec, sess, width)
	}

	qi := sess.CurrentQuestion
	if qi < 0 || qi >= len(sec.Questions) {
		return ""
	}
	q := sec.Questions[qi]

	var b strings.Builder
	b.WriteString(theme.Hint.Render(fmt.Sprintf("Question %d of %d · %d answered", qi+1, len(sec.Questions), len(sess.Answers))))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Width(width).Render(q.Text))
	b.WriteString("\n\n")

	given, answered := sess.Answers[qi]
	if q.Kind == content.KindFillBlank {
		switch {
		case s.mode == modeEdit && active:
			b.WriteString(s.input.View())
		case answered && given.Text != nil:
			b.WriteString(lipgloss.NewStyle().Foreground(theme.Secondary).Render("Answer: " + *given.Text))
		default:
			b.WriteString(theme.Hint.Render("Press enter to type your answer."))
		}
		return b.String()
	}

	opts := quizOptions(q)
	marks := make([]components.OptionMark, len(opts))
	for i := range opts {
		if answered && chosen(given, i) {
			marks[i] = components.MarkChosen
		}
	}
	cursor := -1
	if active {
		cursor = s.cursor
	}
	b.WriteString(components.OptionList(opts, marks, cursor, q.Kind == content.KindMultipleSelect))
	return strings.TrimRight(b.String(), "\n")
}

func (s *PlayScreen) renderQuizReview(sec content.Section, sess quiz.Session, width int) string {
	var b strings.Builder
	if sc := sess.Score; sc != nil {
		style := theme.Incorrect
		verdict := "Not passed"
		if s.p.QuizPassed(sec.ID) {
			style = theme.Correct
			verdict = "Passed"
		}
		b.WriteString(style.Render(fmt.Sprintf("%s · %d/%d points (%d%%)", verdict, sc.Points, sc.MaxPoints, sc.Percentage)))
		b.WriteString("\n")
	}

	items, err := s.p.QuizReview(sec.ID)
	if err == nil {
		for _, it := range items {
			mark := theme.Incorrect.Render("✗")
			if it.IsCorrect {
				mark = theme.Correct.Render("✓")
			}
			given := it.Given
			if !it.Answered {
				given = "(no answer)"
			}
			b.WriteString(fmt.Sprintf("%s %d. %s\n", mark, it.Index+1, it.Question))
			b.WriteString(theme.Hint.Render("   Your answer: "+given) + "\n")
			if sec.Settings.ShowCorrectAnswers && !it.IsCorrect {
				b.WriteString(theme.Hint.Render("   Correct: "+it.Correct) + "\n")
				if it.Explanation != "" {
					b.WriteString(theme.Hint.Width(width).Render("   "+it.Explanation) + "\n")
				}
			}
		}
	}
	if sec.Settings.AllowRetake {
		b.WriteString("\n" + components.Button("Retake (r)", true))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *PlayScreen) renderPrompt(cw, width int) string {
	m := s.p.Module()
	name := s.prompts[0]
	if sec, err := content.SectionByID(m, name); err == nil {
		name = displayTitle(m, sec)
	}
	box := theme.CardFocused.Width(cw).Render(
		lipgloss.NewStyle().Bold(true).Foreground(theme.Accent).Render("Quick feedback") + "\n" +
			fmt.Sprintf("Was %q helpful?  y / n  (esc to skip)", name))
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, box)
}

func chosen(a quiz.Answer, i int) bool {
	switch {
	case a.Choice != nil:
		return *a.Choice == i
	case a.Truth != nil:
		return (*a.Truth && i == 0) || (!*a.Truth && i == 1)
	case a.Choices != nil:
		for _, c := range a.Choices {
			if c == i {
				return true
			}
		}
	}
	return false
}

func cursorLine(selected bool, s string) string {
	if selected {
		return theme.Selected.Render("▸ " + s)
	}
	return lipgloss.NewStyle().Foreground(theme.Text).Render("  " + s)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
