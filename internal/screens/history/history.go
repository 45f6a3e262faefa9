// Package history lists a learner's logged quiz attempts.
package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/stepwise/internal/router"
	"github.com/abhisek/stepwise/internal/screen"
	"github.com/abhisek/stepwise/internal/store"
	"github.com/abhisek/stepwise/internal/ui/layout"
	"github.com/abhisek/stepwise/internal/ui/theme"
)

const listLimit = 50

type historyLoadedMsg struct {
	Attempts []store.QuizAttemptData
	Err      error
}

// HistoryScreen displays past quiz attempts across modules.
type HistoryScreen struct {
	attempts  store.AttemptRepo
	learnerID string
	rows      []store.QuizAttemptData
	selected  int
	expanded  map[int]bool
	loaded    bool
	errMsg    string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(attempts store.AttemptRepo, learnerID string) *HistoryScreen {
	return &HistoryScreen{
		attempts:  attempts,
		learnerID: learnerID,
		expanded:  make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	return func() tea.Msg {
		rows, err := s.attempts.List(context.Background(), s.learnerID, "", listLimit)
		return historyLoadedMsg{Attempts: rows, Err: err}
	}
}

func (s *HistoryScreen) Title() string {
	return "Quiz History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.rows = msg.Attempts
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.rows)-1 {
				s.selected++
			}
		case "enter":
			s.expanded[s.selected] = !s.expanded[s.selected]
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading history...")
	}
	if len(s.rows) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No quiz attempts yet.")
	}

	var b strings.Builder
	b.WriteString("\n")

	for i, a := range s.rows {
		mark := lipgloss.NewStyle().Foreground(theme.Error).Render("✗")
		if a.Passed {
			mark = lipgloss.NewStyle().Foreground(theme.Success).Render("✓")
		}
		line := fmt.Sprintf("%s  %s / %s  #%d  %d%%  %s",
			a.CompletedAt.Format("Jan 02, 2006"), a.ModuleID, a.SectionID,
			a.AttemptNumber, a.Percentage, mark)

		prefix := "  "
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			prefix = "▸ "
			style = style.Bold(true)
		}
		b.WriteString(style.Render(prefix+line) + "\n")

		if s.expanded[i] {
			detail := fmt.Sprintf("    Score %d/%d   Time %d:%02d",
				a.Score, a.MaxScore, a.TimeTakenSeconds/60, a.TimeTakenSeconds%60)
			b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render(detail) + "\n")
		}
	}
	return b.String()
}
