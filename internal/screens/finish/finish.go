// Package finish is the completion panel shown when a module is finished:
// module feedback first, then the certificate.
package finish

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/stepwise/internal/certificate"
	"github.com/abhisek/stepwise/internal/feedback"
	"github.com/abhisek/stepwise/internal/router"
	"github.com/abhisek/stepwise/internal/screen"
	"github.com/abhisek/stepwise/internal/ui/components"
	"github.com/abhisek/stepwise/internal/ui/layout"
	"github.com/abhisek/stepwise/internal/ui/theme"
)

type statusMsg struct {
	Status certificate.Status
	Err    error
}

type feedbackSavedMsg struct {
	Err error
}

// FinishScreen collects the module rating and issues the certificate.
type FinishScreen struct {
	certs       *certificate.Service
	learnerID   string
	moduleID    string
	moduleTitle string

	status  certificate.Status
	loaded  bool
	rating  int
	saving  bool
	errMsg  string
	message string
}

var _ screen.Screen = (*FinishScreen)(nil)
var _ screen.KeyHintProvider = (*FinishScreen)(nil)

// New creates a FinishScreen.
func New(certs *certificate.Service, learnerID, moduleID, moduleTitle string) *FinishScreen {
	return &FinishScreen{
		certs:       certs,
		learnerID:   learnerID,
		moduleID:    moduleID,
		moduleTitle: moduleTitle,
	}
}

func (s *FinishScreen) Init() tea.Cmd {
	return s.loadStatus()
}

func (s *FinishScreen) Title() string {
	return "Module Complete"
}

func (s *FinishScreen) KeyHints() []layout.KeyHint {
	if !s.status.FeedbackGiven {
		return []layout.KeyHint{
			{Key: "1-5", Description: "Rate"},
			{Key: "Enter", Description: "Submit"},
			{Key: "Esc", Description: "Later"},
		}
	}
	if !s.status.Issued {
		return []layout.KeyHint{
			{Key: "i", Description: "Issue certificate"},
			{Key: "Esc", Description: "Back"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Continue"},
	}
}

func (s *FinishScreen) loadStatus() tea.Cmd {
	certs, learner, module := s.certs, s.learnerID, s.moduleID
	return func() tea.Msg {
		st, err := certs.Status(context.Background(), learner, module)
		return statusMsg{Status: st, Err: err}
	}
}

func (s *FinishScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case statusMsg:
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.status = msg.Status
		if s.status.Issued {
			s.message = "Certificate issued."
		}
		return s, nil

	case feedbackSavedMsg:
		s.saving = false
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.message = "Thanks! Your certificate is ready to issue."
		return s, s.loadStatus()

	case tea.KeyMsg:
		return s, s.handleKey(msg.String())
	}
	return s, nil
}

func (s *FinishScreen) handleKey(key string) tea.Cmd {
	pop := func() tea.Msg { return router.PopScreenMsg{} }
	if key == "esc" {
		return pop
	}
	if s.saving || !s.loaded {
		return nil
	}

	if !s.status.FeedbackGiven {
		switch key {
		case "1", "2", "3", "4", "5":
			s.rating = int(key[0] - '0')
			s.errMsg = ""
		case "enter":
			if s.rating == 0 {
				s.errMsg = "Pick a rating from 1 to 5 first."
				return nil
			}
			s.saving = true
			f := feedback.ModuleFeedback{
				LearnerID: s.learnerID,
				ModuleID:  s.moduleID,
				Rating:    s.rating,
			}
			certs := s.certs
			return func() tea.Msg {
				return feedbackSavedMsg{Err: certs.SubmitFeedback(context.Background(), f)}
			}
		}
		return nil
	}

	if !s.status.Issued {
		if key == "i" {
			certs, learner, module := s.certs, s.learnerID, s.moduleID
			return func() tea.Msg {
				st, err := certs.Issue(context.Background(), learner, module)
				return statusMsg{Status: st, Err: err}
			}
		}
		return nil
	}

	if key == "enter" {
		return pop
	}
	return nil
}

func (s *FinishScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(layout.Centered("🎉 You finished "+s.moduleTitle+"!", width, theme.Title))
	b.WriteString("\n\n")

	if !s.loaded {
		b.WriteString(layout.Centered("Loading...", width, theme.Hint))
		return b.String()
	}

	var body string
	switch {
	case !s.status.FeedbackGiven:
		body = s.renderRating()
	case !s.status.Issued:
		body = fmt.Sprintf("You rated this module %d/5.\n\n", s.status.Rating) +
			components.Button("Issue certificate (i)", s.status.Eligible())
	default:
		issued := ""
		if s.status.IssuedAt != nil {
			issued = s.status.IssuedAt.Format("Jan 02, 2006")
		}
		body = theme.Correct.Render("Certificate of Completion") + "\n\n" +
			fmt.Sprintf("Learner:  %s\nModule:   %s\nIssued:   %s\nID:       %s",
				s.learnerID, s.moduleTitle, issued, s.status.CertificateID)
	}
	card := theme.Card.Width(cw).Render(body)
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, card))
	b.WriteString("\n\n")

	if s.message != "" {
		b.WriteString(layout.Centered(s.message, width, lipgloss.NewStyle().Foreground(theme.Secondary)))
		b.WriteString("\n")
	}
	if s.errMsg != "" {
		b.WriteString(layout.Centered(s.errMsg, width, lipgloss.NewStyle().Foreground(theme.Error)))
	}
	return b.String()
}

func (s *FinishScreen) renderRating() string {
	var stars strings.Builder
	for i := 1; i <= 5; i++ {
		if i <= s.rating {
			stars.WriteString(lipgloss.NewStyle().Foreground(theme.Accent).Render("★ "))
		} else {
			stars.WriteString(lipgloss.NewStyle().Foreground(theme.Locked).Render("☆ "))
		}
	}
	return "How would you rate this module?\n\n" + stars.String() + "\n\n" +
		theme.Hint.Render("Rate the module to unlock your certificate.")
}
