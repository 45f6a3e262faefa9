package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/stepwise/internal/completion"
	"github.com/abhisek/stepwise/internal/content"
	"github.com/abhisek/stepwise/internal/quiz"
)

var previewCmd = &cobra.Command{
	Use:   "preview <file>",
	Short: "Outline a module file and try its quizzes (no database)",
	Long: `Print the page and section outline of a module file with the completion
rule of every section, then take its quizzes interactively.

This is a stateless authoring tool: no database, no progress, no events.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().String("section", "", "Only take the quiz with this section id")
	previewCmd.Flags().Bool("outline", false, "Print the outline and skip quizzes")
}

func runPreview(cmd *cobra.Command, args []string) error {
	sectionID, _ := cmd.Flags().GetString("section")
	outlineOnly, _ := cmd.Flags().GetBool("outline")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	m, err := content.ReadFile(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printOutline(out, m, cfg.Policies())
	if outlineOnly {
		return nil
	}

	scanner := bufio.NewScanner(os.Stdin)
	taken := 0
	for _, p := range m.Pages {
		for _, s := range p.Sections {
			if s.Type != content.TypeQuiz || (sectionID != "" && s.ID != sectionID) {
				continue
			}
			taken++
			if !previewQuiz(out, scanner, m, s) {
				return nil
			}
		}
	}
	if sectionID != "" && taken == 0 {
		return fmt.Errorf("no quiz section %q in %s", sectionID, m.ID)
	}
	return nil
}

func printOutline(out io.Writer, m *content.Module, policies completion.Policies) {
	fmt.Fprintf(out, "Module: %s — %s\n", m.ID, m.Title)
	if m.Description != "" {
		fmt.Fprintln(out, m.Description)
	}
	fmt.Fprintln(out)
	for pi, p := range m.Pages {
		name := p.Name
		if name == "" {
			name = p.ID
		}
		fmt.Fprintf(out, "Page %d: %s\n", pi+1, name)
		for si, s := range p.Sections {
			pol := policies.PolicyFor(s.Type)
			rule := pol.Trigger.String()
			if pol.Trigger == completion.Delayed {
				rule += " " + pol.Delay.String()
			}
			extra := ""
			switch s.Type {
			case content.TypeQuiz:
				extra = fmt.Sprintf(", %d questions, pass %d%%", len(s.Questions), s.Settings.PassingScoreOrDefault())
			case content.TypeFlashcards:
				extra = fmt.Sprintf(", %d cards", len(s.Cards))
			case content.TypeChecklist:
				extra = fmt.Sprintf(", %d items", len(s.Items))
			case content.TypeQuestionnaire, content.TypeDropdowns:
				extra = fmt.Sprintf(", %d questions", len(s.Questions))
			}
			fmt.Fprintf(out, "  %-14s %-32s (%s%s)\n", s.Type, s.DisplayTitle(si), rule, extra)
		}
	}
	fmt.Fprintln(out)
}

// previewQuiz runs one quiz on stdin. It returns false when input closes.
func previewQuiz(out io.Writer, scanner *bufio.Scanner, m *content.Module, s content.Section) bool {
	machine := quiz.NewMachine(s, "preview", m.ID)
	if err := machine.Start(time.Now()); err != nil {
		fmt.Fprintf(out, "cannot start quiz %s: %v\n", s.ID, err)
		return true
	}

	fmt.Fprintf(out, "══ Quiz %s (%d questions) ══\n\n", s.ID, len(s.Questions))
	for i, q := range s.Questions {
		fmt.Fprintf(out, "── Question %d/%d (%d pts) ──\n", i+1, len(s.Questions), q.Points)
		fmt.Fprintln(out, q.Text)
		for j, opt := range q.Options {
			fmt.Fprintf(out, "  %d) %s\n", j+1, opt)
		}
		switch q.Kind {
		case content.KindTrueFalse:
			fmt.Fprintln(out, "  (true / false)")
		case content.KindMultipleSelect:
			fmt.Fprintln(out, "  (comma-separated numbers)")
		}

		fmt.Fprint(out, "\nYour answer: ")
		if !scanner.Scan() {
			fmt.Fprintln(out, "\n(input closed)")
			return false
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			fmt.Fprintln(out, "(skipped)")
			fmt.Fprintln(out)
			continue
		}
		a, err := parseAnswer(q, text)
		if err != nil {
			fmt.Fprintf(out, "(%v, skipped)\n\n", err)
			continue
		}
		if err := machine.Answer(i, a); err != nil {
			fmt.Fprintf(out, "(%v)\n\n", err)
			continue
		}
		fmt.Fprintln(out)
	}

	attempt, err := machine.Submit(time.Now(), 0)
	if err != nil {
		fmt.Fprintf(out, "submit: %v\n", err)
		return true
	}
	for _, it := range machine.Review() {
		if it.IsCorrect {
			fmt.Fprintf(out, "\033[32m✓\033[0m %d. %s\n", it.Index+1, it.Question)
			continue
		}
		fmt.Fprintf(out, "\033[31m✗\033[0m %d. %s  Answer: %s\n", it.Index+1, it.Question, it.Correct)
		if it.Explanation != "" {
			fmt.Fprintf(out, "   %s\n", it.Explanation)
		}
	}
	verdict := "not passed"
	if attempt.Passed {
		verdict = "passed"
	}
	fmt.Fprintf(out, "── Score: %d/%d (%d%%), %s ──\n\n",
		attempt.Score.Points, attempt.Score.MaxPoints, attempt.Score.Percentage, verdict)
	return true
}

// parseAnswer reads a typed answer: option numbers or letters for choice
// questions, true/false words, or free text for fill-blank.
func parseAnswer(q content.Question, text string) (quiz.Answer, error) {
	switch q.Kind {
	case content.KindMultipleChoice:
		i, err := parseOption(text, len(q.Options))
		if err != nil {
			return quiz.Answer{}, err
		}
		return quiz.ChoiceAnswer(i), nil
	case content.KindMultipleSelect:
		var idx []int
		for _, part := range strings.Split(text, ",") {
			i, err := parseOption(strings.TrimSpace(part), len(q.Options))
			if err != nil {
				return quiz.Answer{}, err
			}
			idx = append(idx, i)
		}
		return quiz.ChoicesAnswer(idx...), nil
	case content.KindTrueFalse:
		switch strings.ToLower(text) {
		case "t", "true", "y", "yes", "1":
			return quiz.TruthAnswer(true), nil
		case "f", "false", "n", "no", "2":
			return quiz.TruthAnswer(false), nil
		}
		return quiz.Answer{}, fmt.Errorf("expected true or false, got %q", text)
	}
	return quiz.TextAnswer(text), nil
}

func parseOption(text string, n int) (int, error) {
	if len(text) == 1 {
		c := strings.ToLower(text)[0]
		if c >= 'a' && c <= 'z' {
			if i := int(c - 'a'); i < n {
				return i, nil
			}
			return 0, fmt.Errorf("option %q out of range", text)
		}
	}
	v, err := strconv.Atoi(text)
	if err != nil || v < 1 || v > n {
		return 0, fmt.Errorf("option %q out of range", text)
	}
	return v - 1, nil
}
