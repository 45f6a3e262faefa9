package quiz

import (
	"slices"
	"strconv"
	"strings"

	"github.com/abhisek/stepwise/internal/content"
)

// Answer is a learner's response to one question. Exactly one field is set,
// depending on the question kind.
type Answer struct {
	Choice  *int    `json:"choice,omitempty"`
	Choices []int   `json:"choices,omitempty"`
	Truth   *bool   `json:"truth,omitempty"`
	Text    *string `json:"text,omitempty"`
}

// ChoiceAnswer answers a multiple-choice question.
func ChoiceAnswer(i int) Answer { return Answer{Choice: &i} }

// ChoicesAnswer answers a multiple-select question.
func ChoicesAnswer(idx ...int) Answer { return Answer{Choices: slices.Clone(idx)} }

// TruthAnswer answers a true-false question.
func TruthAnswer(b bool) Answer { return Answer{Truth: &b} }

// TextAnswer answers a fill-blank question.
func TextAnswer(s string) Answer { return Answer{Text: &s} }

// IsZero reports whether no field is set.
func (a Answer) IsZero() bool {
	return a.Choice == nil && a.Choices == nil && a.Truth == nil && a.Text == nil
}

// ToggleChoice returns a copy of a with option i added to or removed from
// the selected set.
func (a Answer) ToggleChoice(i int) Answer {
	out := Answer{Choices: slices.Clone(a.Choices)}
	if idx := slices.Index(out.Choices, i); idx >= 0 {
		out.Choices = slices.Delete(out.Choices, idx, idx+1)
	} else {
		out.Choices = append(out.Choices, i)
		slices.Sort(out.Choices)
	}
	if out.Choices == nil {
		out.Choices = []int{}
	}
	return out
}

// truth returns the boolean value of a true-false answer. Option index 0
// reads as true and 1 as false, matching the True / False option order.
func (a Answer) truth() (bool, bool) {
	if a.Truth != nil {
		return *a.Truth, true
	}
	if a.Choice != nil {
		switch *a.Choice {
		case 0:
			return true, true
		case 1:
			return false, true
		}
	}
	return false, false
}

// IsCorrect scores one question. An unanswered question is never correct;
// unknown kinds never score.
func IsCorrect(q content.Question, a Answer, answered bool) bool {
	if !answered || a.IsZero() {
		return false
	}
	switch q.Kind {
	case content.KindMultipleChoice:
		want, ok := q.CorrectIndex()
		return ok && a.Choice != nil && *a.Choice == want
	case content.KindTrueFalse:
		want, ok := q.CorrectTruth()
		got, gok := a.truth()
		return ok && gok && got == want
	case content.KindMultipleSelect:
		return sameSet(a.Choices, q.CorrectAnswers)
	case content.KindFillBlank:
		if a.Text == nil {
			return false
		}
		return strings.EqualFold(strings.TrimSpace(*a.Text), strings.TrimSpace(q.CorrectText()))
	}
	return false
}

func sameSet(a, b []int) bool {
	as := uniqueSorted(a)
	bs := uniqueSorted(b)
	return slices.Equal(as, bs)
}

func uniqueSorted(v []int) []int {
	out := slices.Clone(v)
	slices.Sort(out)
	return slices.Compact(out)
}

// Format renders an answer for display using the question's options.
func Format(q content.Question, a Answer) string {
	switch {
	case a.Text != nil:
		return *a.Text
	case a.Truth != nil:
		return strconv.FormatBool(*a.Truth)
	case a.Choice != nil:
		if q.Kind == content.KindTrueFalse {
			if b, ok := a.truth(); ok {
				return strconv.FormatBool(b)
			}
		}
		return optionText(q, *a.Choice)
	case a.Choices != nil:
		parts := make([]string, 0, len(a.Choices))
		for _, i := range a.Choices {
			parts = append(parts, optionText(q, i))
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

// FormatCorrect renders the correct answer of q for display.
func FormatCorrect(q content.Question) string {
	switch q.Kind {
	case content.KindMultipleChoice:
		if i, ok := q.CorrectIndex(); ok {
			return optionText(q, i)
		}
	case content.KindMultipleSelect:
		parts := make([]string, 0, len(q.CorrectAnswers))
		for _, i := range q.CorrectAnswers {
			parts = append(parts, optionText(q, i))
		}
		return strings.Join(parts, ", ")
	case content.KindTrueFalse:
		if b, ok := q.CorrectTruth(); ok {
			return strconv.FormatBool(b)
		}
	}
	return q.CorrectText()
}

func optionText(q content.Question, i int) string {
	if i >= 0 && i < len(q.Options) {
		return q.Options[i]
	}
	return "#" + strconv.Itoa(i)
}
