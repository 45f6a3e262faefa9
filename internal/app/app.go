package app

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/stepwise/internal/logger"
	"github.com/abhisek/stepwise/internal/notify"
	"github.com/abhisek/stepwise/internal/player"
	"github.com/abhisek/stepwise/internal/router"
	"github.com/abhisek/stepwise/internal/screen"
	"github.com/abhisek/stepwise/internal/screens/modules"
	"github.com/abhisek/stepwise/internal/timer"
	"github.com/abhisek/stepwise/internal/ui/layout"
)

const closeTimeout = 10 * time.Second

// Options configure the terminal application.
type Options struct {
	Learner string
	Modules modules.Deps

	// Timers, when set, is the timer service the players were built with.
	// Due callbacks run on the update goroutine.
	Timers *timer.Queued

	// Events carries player notifications to the active screen.
	Events <-chan notify.Event

	Log *logger.Logger
}

// timerFiredMsg carries a due timer callback.
type timerFiredMsg struct {
	fn func()
}

// eventMsg carries a player notification from Options.Events.
type eventMsg struct {
	event notify.Event
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router  *router.Router
	learner string
	timers  *timer.Queued
	events  <-chan notify.Event
	width   int
	height  int
}

// newAppModel creates a new AppModel with the module list as home screen.
func newAppModel(opts Options) AppModel {
	return AppModel{
		router:  router.New(modules.New(opts.Modules)),
		learner: opts.Learner,
		timers:  opts.Timers,
		events:  opts.Events,
	}
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(
		m.router.Active().Init(),
		waitTimer(m.timers),
		waitEvent(m.events),
	)
}

func waitTimer(q *timer.Queued) tea.Cmd {
	if q == nil {
		return nil
	}
	return func() tea.Msg {
		return timerFiredMsg{fn: <-q.Fired()}
	}
}

func waitEvent(ch <-chan notify.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg{event: e}
	}
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case timerFiredMsg:
		if msg.fn != nil {
			msg.fn()
		}
		return m, waitTimer(m.timers)

	case eventMsg:
		cmd := m.router.Update(screen.EventMsg{Event: msg.event})
		return m, tea.Batch(cmd, waitEvent(m.events))

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	v.SetContent(m.render())
	return v
}

// render draws the full frame for the current window size.
func (m AppModel) render() string {
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.learner+"  ", m.width)

	var footerHints []layout.KeyHint
	if hp, ok := active.(screen.KeyHintProvider); ok {
		footerHints = hp.KeyHints()
	} else if m.router.Depth() > 1 {
		footerHints = []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	} else {
		footerHints = []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Select"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	contentHeight := max(0, m.height-lipgloss.Height(header)-lipgloss.Height(footer))
	content := m.router.View(m.width, contentHeight)
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

// openTracker remembers every player opened so Run can close them after
// the program exits.
type openTracker struct {
	mu      sync.Mutex
	players []*player.Player
}

func (t *openTracker) wrap(open func(context.Context, string) (*player.Player, error)) func(context.Context, string) (*player.Player, error) {
	return func(ctx context.Context, moduleID string) (*player.Player, error) {
		p, err := open(ctx, moduleID)
		if err != nil {
			return nil, err
		}
		t.mu.Lock()
		t.players = append(t.players, p)
		t.mu.Unlock()
		return p, nil
	}
}

func (t *openTracker) closeAll(log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range t.players {
		if err := p.Close(ctx); err != nil {
			log.Error("close player", "module_id", p.Module().ID, "error", err)
		}
	}
	t.players = nil
}

// Run starts the Bubble Tea program and blocks until it exits. Players
// opened during the run are closed, draining their pending writes.
func Run(opts Options) error {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	if opts.Modules.Learner == "" {
		opts.Modules.Learner = opts.Learner
	}

	if opts.Timers != nil {
		defer opts.Timers.Close()
	}

	var tracker openTracker
	opts.Modules.Open = tracker.wrap(opts.Modules.Open)
	defer tracker.closeAll(log)

	log.Info("tui started", "learner_id", opts.Learner)
	p := tea.NewProgram(newAppModel(opts))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	log.Info("tui exited", "learner_id", opts.Learner)
	return nil
}
