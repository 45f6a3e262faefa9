package history

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/stepwise/internal/router"
	"github.com/abhisek/stepwise/internal/store"
)

// fakeAttempts implements store.AttemptRepo for testing.
type fakeAttempts struct {
	rows []store.QuizAttemptData
	err  error
}

func (f *fakeAttempts) Append(context.Context, store.QuizAttemptData) error { return nil }
func (f *fakeAttempts) LatestNumber(context.Context, string, string, string) (int, error) {
	return 0, nil
}
func (f *fakeAttempts) List(_ context.Context, _, _ string, _ int) ([]store.QuizAttemptData, error) {
	return f.rows, f.err
}

func loaded(t *testing.T, repo store.AttemptRepo) *HistoryScreen {
	t.Helper()
	s := New(repo, "ana")
	s.Update(s.Init()())
	return s
}

func TestHistoryScreen_Empty(t *testing.T) {
	s := loaded(t, &fakeAttempts{})
	if !strings.Contains(s.View(80, 24), "No quiz attempts yet") {
		t.Error("expected empty-state message")
	}
}

func TestHistoryScreen_Error(t *testing.T) {
	s := loaded(t, &fakeAttempts{err: errors.New("db locked")})
	if !strings.Contains(s.View(80, 24), "db locked") {
		t.Error("expected error in view")
	}
}

func TestHistoryScreen_ListAndExpand(t *testing.T) {
	s := loaded(t, &fakeAttempts{rows: []store.QuizAttemptData{
		{ModuleID: "knots", SectionID: "check", AttemptNumber: 2, Score: 3, MaxScore: 4, Percentage: 75, Passed: true, TimeTakenSeconds: 95, CompletedAt: time.Now()},
		{ModuleID: "knots", SectionID: "check", AttemptNumber: 1, Score: 1, MaxScore: 4, Percentage: 25, CompletedAt: time.Now()},
	}})

	view := s.View(100, 30)
	if !strings.Contains(view, "#2") || !strings.Contains(view, "75%") {
		t.Errorf("view missing newest attempt:\n%s", view)
	}

	s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if !strings.Contains(s.View(100, 30), "Score 3/4") {
		t.Error("expected expanded details")
	}

	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if s.selected != 1 {
		t.Errorf("selected = %d, want 1", s.selected)
	}
}

func TestHistoryScreen_EscPops(t *testing.T) {
	s := loaded(t, &fakeAttempts{})
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("expected a command on Esc")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("expected PopScreenMsg")
	}
}
