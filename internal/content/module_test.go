package content

import (
	"errors"
	"testing"
)

func sampleModule() *Module {
	return &Module{
		ID:    "m1",
		Title: "Onboarding",
		Pages: []Page{
			{ID: "p1", Sections: []Section{
				{ID: "intro", Type: TypeText, Body: "hello"},
				{ID: "photo", Type: TypePhoto, MediaURL: "a.png"},
			}},
			{ID: "p2", Sections: []Section{
				{ID: "cards", Type: TypeFlashcards, Cards: []Card{{Front: "a", Back: "b"}}},
			}},
			{ID: "p3", Sections: nil},
		},
	}
}

func TestTotalSections(t *testing.T) {
	tests := []struct {
		name string
		m    *Module
		want int
	}{
		{"nil module", nil, 0},
		{"no pages", &Module{ID: "x"}, 0},
		{"sample", sampleModule(), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TotalSections(tt.m); got != tt.want {
				t.Errorf("TotalSections() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSectionsOfPage(t *testing.T) {
	m := sampleModule()

	secs, err := SectionsOfPage(m, 0)
	if err != nil {
		t.Fatalf("SectionsOfPage(0): %v", err)
	}
	if len(secs) != 2 {
		t.Errorf("page 0 has %d sections, want 2", len(secs))
	}

	secs, err = SectionsOfPage(m, 2)
	if err != nil {
		t.Fatalf("SectionsOfPage(2): %v", err)
	}
	if len(secs) != 0 {
		t.Errorf("page 2 has %d sections, want 0", len(secs))
	}

	for _, idx := range []int{-1, 3, 100} {
		_, err := SectionsOfPage(m, idx)
		if !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("SectionsOfPage(%d) error = %v, want ErrIndexOutOfRange", idx, err)
		}
		var ie *IndexError
		if !errors.As(err, &ie) || ie.Kind != "page" || ie.Index != idx {
			t.Errorf("SectionsOfPage(%d) error = %#v, want page IndexError", idx, err)
		}
	}
}

func TestSectionAt(t *testing.T) {
	m := sampleModule()
	s, err := SectionAt(m, 0, 1)
	if err != nil {
		t.Fatalf("SectionAt: %v", err)
	}
	if s.ID != "photo" {
		t.Errorf("SectionAt(0,1).ID = %q, want photo", s.ID)
	}
	if _, err := SectionAt(m, 0, 2); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("SectionAt(0,2) error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestWithFallback(t *testing.T) {
	t.Run("keeps authored pages", func(t *testing.T) {
		m := sampleModule()
		if got := WithFallback(m); got != m {
			t.Error("WithFallback should return the same module when pages exist")
		}
	})

	t.Run("uses description", func(t *testing.T) {
		m := &Module{ID: "m", Title: "Safety", Description: "Read carefully"}
		got := WithFallback(m)
		if len(got.Pages) != 1 {
			t.Fatalf("pages = %d, want 1", len(got.Pages))
		}
		p := got.Pages[0]
		if p.ID != "default" || p.Name != "Safety" {
			t.Errorf("page = %+v, want id default named Safety", p)
		}
		if len(p.Sections) != 1 {
			t.Fatalf("sections = %d, want 1", len(p.Sections))
		}
		s := p.Sections[0]
		if s.ID != "default-section" || s.Type != TypeText || s.Body != "Read carefully" {
			t.Errorf("section = %+v", s)
		}
		if len(m.Pages) != 0 {
			t.Error("WithFallback mutated its input")
		}
	})

	t.Run("placeholder body", func(t *testing.T) {
		got := WithFallback(&Module{ID: "m", Title: "Empty"})
		if body := got.Pages[0].Sections[0].Body; body != FallbackBody {
			t.Errorf("body = %q, want %q", body, FallbackBody)
		}
		if TotalSections(got) != 1 {
			t.Errorf("TotalSections = %d, want 1", TotalSections(got))
		}
	})
}

func TestLocateAndSectionByID(t *testing.T) {
	m := sampleModule()

	pi, si, ok := Locate(m, "cards")
	if !ok || pi != 1 || si != 0 {
		t.Errorf("Locate(cards) = (%d, %d, %v), want (1, 0, true)", pi, si, ok)
	}
	if _, _, ok := Locate(m, "missing"); ok {
		t.Error("Locate(missing) should not be found")
	}

	s, err := SectionByID(m, "photo")
	if err != nil || s.Type != TypePhoto {
		t.Errorf("SectionByID(photo) = %+v, %v", s, err)
	}
	if _, err := SectionByID(m, "missing"); !errors.Is(err, ErrSectionNotFound) {
		t.Errorf("SectionByID(missing) error = %v, want ErrSectionNotFound", err)
	}
}

func TestSectionIDs(t *testing.T) {
	got := SectionIDs(sampleModule())
	want := []string{"intro", "photo", "cards"}
	if len(got) != len(want) {
		t.Fatalf("SectionIDs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SectionIDs[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPassingScoreOrDefault(t *testing.T) {
	tests := []struct {
		set  int
		want int
	}{
		{0, 70},
		{-5, 70},
		{50, 50},
		{100, 100},
	}
	for _, tt := range tests {
		qs := QuizSettings{PassingScore: tt.set}
		if got := qs.PassingScoreOrDefault(); got != tt.want {
			t.Errorf("PassingScoreOrDefault(%d) = %d, want %d", tt.set, got, tt.want)
		}
	}
}

func TestQuestionCorrectAnswerAccessors(t *testing.T) {
	if idx, ok := (Question{CorrectAnswer: float64(2)}).CorrectIndex(); !ok || idx != 2 {
		t.Errorf("CorrectIndex(float64 2) = %d, %v", idx, ok)
	}
	if idx, ok := (Question{CorrectAnswer: 1}).CorrectIndex(); !ok || idx != 1 {
		t.Errorf("CorrectIndex(int 1) = %d, %v", idx, ok)
	}
	if _, ok := (Question{CorrectAnswer: 1.5}).CorrectIndex(); ok {
		t.Error("CorrectIndex(1.5) should fail")
	}
	if v, ok := (Question{CorrectAnswer: false}).CorrectTruth(); !ok || v {
		t.Errorf("CorrectTruth(false) = %v, %v", v, ok)
	}
	if v, ok := (Question{CorrectAnswer: "true"}).CorrectTruth(); !ok || !v {
		t.Errorf("CorrectTruth(\"true\") = %v, %v", v, ok)
	}
	if got := (Question{CorrectAnswer: "Paris"}).CorrectText(); got != "Paris" {
		t.Errorf("CorrectText = %q, want Paris", got)
	}
	if got := (Question{CorrectAnswer: float64(42)}).CorrectText(); got != "42" {
		t.Errorf("CorrectText = %q, want 42", got)
	}
}
