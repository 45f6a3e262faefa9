package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/stepwise/internal/completion"
	"github.com/abhisek/stepwise/internal/content"
	"github.com/abhisek/stepwise/internal/quiz"
)

const knotsYAML = `
id: knots
title: Basic Knots
pages:
  - id: p1
    name: Tying
    sections:
      - id: reef
        type: text
        body: Right over left, left over right.
      - id: demo
        type: video
        url: https://example.com/reef.mp4
  - id: p2
    sections:
      - id: check
        type: quiz
        questions:
          - kind: multiple-select
            text: Which are knots?
            options: [Bowline, Granny, Spoon]
            correctAnswers: [0, 1]
            points: 2
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseAnswer(t *testing.T) {
	mc := content.Question{Kind: content.KindMultipleChoice, Options: []string{"a", "b", "c"}}
	a, err := parseAnswer(mc, "2")
	require.NoError(t, err)
	assert.Equal(t, quiz.ChoiceAnswer(1), a)

	a, err = parseAnswer(mc, "C")
	require.NoError(t, err)
	assert.Equal(t, quiz.ChoiceAnswer(2), a)

	_, err = parseAnswer(mc, "4")
	assert.Error(t, err)

	ms := content.Question{Kind: content.KindMultipleSelect, Options: []string{"a", "b", "c"}}
	a, err = parseAnswer(ms, "1, 3")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, a.Choices)

	tf := content.Question{Kind: content.KindTrueFalse}
	a, err = parseAnswer(tf, "False")
	require.NoError(t, err)
	require.NotNil(t, a.Truth)
	assert.False(t, *a.Truth)

	_, err = parseAnswer(tf, "maybe")
	assert.Error(t, err)

	fb := content.Question{Kind: content.KindFillBlank}
	a, err = parseAnswer(fb, "Paris")
	require.NoError(t, err)
	require.NotNil(t, a.Text)
	assert.Equal(t, "Paris", *a.Text)
}

func TestPrintOutline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "knots.yaml")
	require.NoError(t, os.WriteFile(path, []byte(knotsYAML), 0o644))
	m, err := content.ReadFile(path)
	require.NoError(t, err)

	var out bytes.Buffer
	printOutline(&out, m, completion.DefaultPolicies(1e9))
	s := out.String()
	assert.Contains(t, s, "Page 1: Tying")
	assert.Contains(t, s, "Page 2: p2")
	assert.Contains(t, s, "delayed 5s")
	assert.Contains(t, s, "1 questions, pass 70%")
}

func TestModulesImportListAndReset(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "test.db")
	path := filepath.Join(dir, "knots.yaml")
	require.NoError(t, os.WriteFile(path, []byte(knotsYAML), 0o644))
	empty := filepath.Join(dir, "content")

	base := []string{"--db", db, "--learner", "ana", "--content-dir", empty}

	out, err := execute(t, append([]string{"modules", "import", path}, base...)...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Imported knots (Basic Knots): 2 pages, 3 sections")

	out, err = execute(t, append([]string{"modules", "list"}, base...)...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "knots")
	assert.Contains(t, out, "1 modules")

	out, err = execute(t, append([]string{"progress", "knots"}, base...)...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "0% complete")
	assert.True(t, strings.Contains(out, "actionable"), out)

	out, err = execute(t, append([]string{"certificate", "issue", "knots"}, base...)...)
	require.Error(t, err)

	out, err = execute(t, append([]string{"reset", "--yes"}, base...)...)
	require.NoError(t, err, out)
	assert.Contains(t, out, `Reset learner "ana"`)
}

func TestModulesValidate(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"id": "x", "pages": [{"id": "p", "sections": [{"id": "f", "type": "flashcards"}]}]}`), 0o644))

	out, err := execute(t, "modules", "validate", bad)
	assert.Error(t, err)
	assert.Contains(t, out, "✗")
}
