package content

import (
	"strings"
	"testing"
)

func TestValidate_SamplePasses(t *testing.T) {
	if err := Validate(sampleModule()); err != nil {
		t.Fatalf("sample module validation failed: %v", err)
	}
}

func TestValidate_Detects(t *testing.T) {
	tests := []struct {
		name     string
		sections []Section
		wantSub  string
	}{
		{
			name:     "empty id",
			sections: []Section{{Type: TypeText}},
			wantSub:  "empty section id",
		},
		{
			name:     "duplicate id",
			sections: []Section{{ID: "a", Type: TypeText}, {ID: "a", Type: TypeText}},
			wantSub:  "duplicate section id",
		},
		{
			name:     "unknown type",
			sections: []Section{{ID: "a", Type: "hologram"}},
			wantSub:  "unknown section type",
		},
		{
			name:     "flashcards without cards",
			sections: []Section{{ID: "a", Type: TypeFlashcards}},
			wantSub:  "no cards",
		},
		{
			name: "passing score above 100",
			sections: []Section{{ID: "q", Type: TypeQuiz, Settings: QuizSettings{PassingScore: 120}}},
			wantSub:  "passing score",
		},
		{
			name: "choice out of range",
			sections: []Section{{ID: "q", Type: TypeQuiz, Questions: []Question{
				{Kind: KindMultipleChoice, Options: []string{"a", "b"}, CorrectAnswer: 2, Points: 1},
			}}},
			wantSub: "out of range",
		},
		{
			name: "select out of range",
			sections: []Section{{ID: "q", Type: TypeQuiz, Questions: []Question{
				{Kind: KindMultipleSelect, Options: []string{"a"}, CorrectAnswers: []int{0, 3}, Points: 1},
			}}},
			wantSub: "out of range",
		},
		{
			name: "negative points",
			sections: []Section{{ID: "q", Type: TypeQuiz, Questions: []Question{
				{Kind: KindTrueFalse, CorrectAnswer: true, Points: -1},
			}}},
			wantSub: "points",
		},
		{
			name: "unknown quiz kind",
			sections: []Section{{ID: "q", Type: TypeQuiz, Questions: []Question{
				{Kind: "essay", Points: 1},
			}}},
			wantSub: "unknown question kind",
		},
		{
			name: "radio without options",
			sections: []Section{{ID: "q", Type: TypeQuestionnaire, Questions: []Question{
				{Kind: KindRadio, Text: "pick"},
			}}},
			wantSub: "no options",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Module{ID: "m", Pages: []Page{{ID: "p", Sections: tt.sections}}}
			err := Validate(m)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error should mention %q, got: %v", tt.wantSub, err)
			}
		})
	}
}

func TestValidate_DuplicateAcrossPages(t *testing.T) {
	m := &Module{ID: "m", Pages: []Page{
		{ID: "p1", Sections: []Section{{ID: "s", Type: TypeText}}},
		{ID: "p2", Sections: []Section{{ID: "s", Type: TypeText}}},
	}}
	err := Validate(m)
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("expected duplicate error across pages, got %v", err)
	}
}
