// Package modules is the module list, the application's home screen.
package modules

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/stepwise/internal/certificate"
	"github.com/abhisek/stepwise/internal/content"
	"github.com/abhisek/stepwise/internal/player"
	"github.com/abhisek/stepwise/internal/router"
	"github.com/abhisek/stepwise/internal/screen"
	"github.com/abhisek/stepwise/internal/screens/history"
	"github.com/abhisek/stepwise/internal/screens/play"
	"github.com/abhisek/stepwise/internal/store"
	"github.com/abhisek/stepwise/internal/ui/components"
	"github.com/abhisek/stepwise/internal/ui/layout"
	"github.com/abhisek/stepwise/internal/ui/theme"
)

// Deps are the collaborators of the module list.
type Deps struct {
	Learner  string
	List     func(ctx context.Context) ([]*content.Module, error)
	Progress player.ProgressStore
	Open     func(ctx context.Context, moduleID string) (*player.Player, error)
	Certs    *certificate.Service // optional
	Attempts store.AttemptRepo    // optional
}

// Entry is one row of the list.
type Entry struct {
	Module    *content.Module
	Percent   int
	Completed bool
	Started   bool
}

type loadedMsg struct {
	Entries []Entry
	Err     error
}

type openedMsg struct {
	Player *player.Player
	Err    error
}

// ModulesScreen lists the available modules with the learner's progress.
type ModulesScreen struct {
	deps    Deps
	entries []Entry
	menu    components.Menu
	loaded  bool
	errMsg  string
}

var _ screen.Screen = (*ModulesScreen)(nil)
var _ screen.KeyHintProvider = (*ModulesScreen)(nil)

// New creates the module list screen.
func New(deps Deps) *ModulesScreen {
	return &ModulesScreen{deps: deps}
}

func (s *ModulesScreen) Init() tea.Cmd {
	return s.load()
}

func (s *ModulesScreen) Title() string {
	return "Modules"
}

func (s *ModulesScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Open"},
		{Key: "r", Description: "Refresh"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

// load reads the catalog and the learner's progress on each module.
func (s *ModulesScreen) load() tea.Cmd {
	deps := s.deps
	return func() tea.Msg {
		ctx := context.Background()
		mods, err := deps.List(ctx)
		if err != nil {
			return loadedMsg{Err: err}
		}
		entries := make([]Entry, 0, len(mods))
		for _, m := range mods {
			e := Entry{Module: m}
			if deps.Progress != nil {
				rec, err := deps.Progress.LoadProgress(ctx, deps.Learner, m.ID)
				if err != nil {
					return loadedMsg{Err: fmt.Errorf("load progress for %q: %w", m.ID, err)}
				}
				if rec != nil {
					e.Started = true
					e.Percent = rec.CompletionPercentage
					e.Completed = rec.IsCompleted
				}
			}
			entries = append(entries, e)
		}
		return loadedMsg{Entries: entries}
	}
}

func (s *ModulesScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.errMsg = ""
		s.setEntries(msg.Entries)
		return s, nil

	case openedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		return s, func() tea.Msg {
			return router.PushScreenMsg{Screen: play.New(msg.Player, s.deps.Certs)}
		}

	case screen.ResumedMsg:
		return s, s.load()

	case tea.KeyMsg:
		if msg.String() == "r" {
			return s, s.load()
		}
	}

	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *ModulesScreen) setEntries(entries []Entry) {
	s.entries = entries
	selected := s.menu.Selected

	items := make([]components.MenuItem, 0, len(entries)+2)
	for _, e := range entries {
		id := e.Module.ID
		items = append(items, components.MenuItem{
			Label:  moduleLabel(e.Module),
			Detail: entryDetail(e),
			Action: func() tea.Cmd { return s.open(id) },
		})
	}
	items = append(items, components.MenuItem{
		Label:    "Quiz history",
		Disabled: s.deps.Attempts == nil,
		Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: history.New(s.deps.Attempts, s.deps.Learner)}
			}
		},
	})
	items = append(items, components.MenuItem{
		Label:  "Quit",
		Action: func() tea.Cmd { return tea.Quit },
	})

	s.menu = components.NewMenu(items)
	if selected > 0 && selected < len(items) && !items[selected].Disabled {
		s.menu.Selected = selected
	}
}

func (s *ModulesScreen) open(moduleID string) tea.Cmd {
	openFn := s.deps.Open
	return func() tea.Msg {
		p, err := openFn(context.Background(), moduleID)
		return openedMsg{Player: p, Err: err}
	}
}

func moduleLabel(m *content.Module) string {
	if strings.TrimSpace(m.Title) != "" {
		return m.Title
	}
	return m.ID
}

func entryDetail(e Entry) string {
	switch {
	case e.Completed:
		return "✓ completed"
	case e.Started:
		return fmt.Sprintf("%d%%", e.Percent)
	}
	return "new"
}

func (s *ModulesScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(layout.Centered("Your modules", width, theme.Title))
	b.WriteString("\n")
	b.WriteString(layout.Centered("Learner: "+s.deps.Learner, width, theme.Subtitle))
	b.WriteString("\n\n")

	switch {
	case s.errMsg != "":
		b.WriteString(layout.Centered("Error: "+s.errMsg, width, lipgloss.NewStyle().Foreground(theme.Error)))
		b.WriteString("\n\n")
	case !s.loaded:
		b.WriteString(layout.Centered("Loading modules...", width, theme.Hint))
		return b.String()
	case len(s.entries) == 0:
		b.WriteString(layout.Centered("No modules yet. Import one with `stepwise modules import <file>`.", width, theme.Hint))
		b.WriteString("\n\n")
	}

	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.menu.View(cw)))

	if e, ok := s.selectedEntry(); ok {
		b.WriteString("\n")
		bar := components.NewProgressBar("", e.Percent, true, cw-8)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar.View()))
		if d := strings.TrimSpace(e.Module.Description); d != "" {
			b.WriteString("\n\n")
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
				theme.Hint.Width(cw-8).Render(d)))
		}
	}
	return b.String()
}

func (s *ModulesScreen) selectedEntry() (Entry, bool) {
	if s.menu.Selected < 0 || s.menu.Selected >= len(s.entries) {
		return Entry{}, false
	}
	return s.entries[s.menu.Selected], true
}
