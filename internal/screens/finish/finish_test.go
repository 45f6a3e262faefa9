package finish

import (
	"context"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/stepwise/internal/certificate"
	"github.com/abhisek/stepwise/internal/router"
	"github.com/abhisek/stepwise/internal/store"
)

func newService(t *testing.T, completed bool) *certificate.Service {
	t.Helper()
	s, err := store.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	now := time.Now()
	err = s.ProgressRepo().Save(context.Background(), store.ProgressData{
		LearnerID:            "ana",
		ModuleID:             "knots",
		CompletedSections:    []string{"a"},
		Answers:              map[string]string{},
		CompletionPercentage: 100,
		IsCompleted:          completed,
		CompletedAt:          &now,
		UpdatedAt:            now,
	})
	require.NoError(t, err)
	return certificate.New(s, nil)
}

func key(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

// run feeds the result of cmd back into the screen.
func run(t *testing.T, s *FinishScreen, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	_, next := s.Update(cmd())
	if next != nil {
		s.Update(next())
	}
}

func TestFinishScreen_RateThenIssue(t *testing.T) {
	s := New(newService(t, true), "ana", "knots", "Basic Knots")
	run(t, s, s.Init())
	assert.False(t, s.status.FeedbackGiven)
	assert.Contains(t, s.View(100, 30), "How would you rate")

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Contains(t, s.errMsg, "rating")

	s.Update(key('4'))
	assert.Equal(t, 4, s.rating)

	_, cmd = s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	run(t, s, cmd)
	require.Empty(t, s.errMsg)
	assert.True(t, s.status.FeedbackGiven)
	assert.Equal(t, 4, s.status.Rating)

	_, cmd = s.Update(key('i'))
	run(t, s, cmd)
	require.Empty(t, s.errMsg)
	assert.True(t, s.status.Issued)
	assert.NotEmpty(t, s.status.CertificateID)
	assert.Contains(t, s.View(100, 30), s.status.CertificateID)

	_, cmd = s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)
	_, ok := cmd().(router.PopScreenMsg)
	assert.True(t, ok)
}

func TestFinishScreen_IssueRequiresCompletion(t *testing.T) {
	svc := newService(t, false)
	require.NoError(t, svc.Feedback.SaveModule(context.Background(), store.ModuleFeedbackData{
		LearnerID: "ana",
		ModuleID:  "knots",
		Rating:    5,
		CreatedAt: time.Now(),
	}))

	s := New(svc, "ana", "knots", "Basic Knots")
	run(t, s, s.Init())
	require.True(t, s.status.FeedbackGiven)

	_, cmd := s.Update(key('i'))
	run(t, s, cmd)
	assert.Contains(t, s.errMsg, certificate.ErrNotCompleted.Error())
	assert.False(t, s.status.Issued)
}

func TestFinishScreen_EscPops(t *testing.T) {
	s := New(newService(t, true), "ana", "knots", "Basic Knots")
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	require.NotNil(t, cmd)
	_, ok := cmd().(router.PopScreenMsg)
	assert.True(t, ok)
}
