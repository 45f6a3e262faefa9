package progress

import (
	"errors"
	"testing"
	"time"

	"github.com/abhisek/stepwise/internal/content"
)

func testModule(sizes ...int) *content.Module {
	m := &content.Module{ID: "m"}
	n := 0
	for pi, size := range sizes {
		p := content.Page{ID: string(rune('a' + pi))}
		for i := 0; i < size; i++ {
			n++
			p.Sections = append(p.Sections, content.Section{ID: sectionID(n), Type: content.TypeText})
		}
		m.Pages = append(m.Pages, p)
	}
	return m
}

func sectionID(n int) string {
	return "s" + string(rune('0'+n/10)) + string(rune('0'+n%10))
}

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func TestNew(t *testing.T) {
	r := New("u1", "m1")
	if r.LearnerID != "u1" || r.ModuleID != "m1" {
		t.Errorf("ids = %q/%q", r.LearnerID, r.ModuleID)
	}
	if r.CurrentPageIndex != 0 || r.CompletionPercentage != 0 || r.IsCompleted || r.CompletedAt != nil {
		t.Errorf("New should start empty, got %+v", r)
	}
	if r.CompletedSections == nil || r.Answers == nil {
		t.Error("New should allocate the completed set and answer map")
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		completed, total, want int
	}{
		{0, 0, 0},
		{3, 0, 0},
		{0, 4, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13}, // 12.5 rounds up
		{1, 200, 1}, // 0.5 rounds up
		{3, 4, 75},
		{4, 4, 100},
		{5, 4, 100},
	}
	for _, tt := range tests {
		if got := Percentage(tt.completed, tt.total); got != tt.want {
			t.Errorf("Percentage(%d, %d) = %d, want %d", tt.completed, tt.total, got, tt.want)
		}
	}
}

func TestMarkSectionComplete(t *testing.T) {
	m := testModule(2, 2)
	r := New("u", "m")

	r1, tr, err := MarkSectionComplete(m, r, "s01", t0)
	if err != nil {
		t.Fatalf("MarkSectionComplete: %v", err)
	}
	if !tr.SectionCompleted || tr.ModuleCompleted {
		t.Errorf("transition = %+v", tr)
	}
	if r1.CompletionPercentage != 25 {
		t.Errorf("pct = %d, want 25", r1.CompletionPercentage)
	}
	if len(r.CompletedSections) != 0 {
		t.Error("input record was mutated")
	}

	// Idempotent.
	r2, tr, err := MarkSectionComplete(m, r1, "s01", t0)
	if err != nil {
		t.Fatalf("MarkSectionComplete again: %v", err)
	}
	if tr.SectionCompleted {
		t.Error("second completion should not report a new section")
	}
	if r2.CompletedCount() != 1 || r2.CompletionPercentage != 25 {
		t.Errorf("after repeat: count=%d pct=%d", r2.CompletedCount(), r2.CompletionPercentage)
	}
}

func TestMarkSectionComplete_UnknownSection(t *testing.T) {
	m := testModule(1)
	r := New("u", "m")
	got, _, err := MarkSectionComplete(m, r, "nope", t0)
	if !errors.Is(err, ErrUnknownSection) {
		t.Fatalf("error = %v, want ErrUnknownSection", err)
	}
	if got.CompletedCount() != 0 {
		t.Error("unknown section should not be recorded")
	}
}

func TestModuleCompletion(t *testing.T) {
	m := testModule(1, 1)
	r := New("u", "m")

	r, tr, _ := MarkSectionComplete(m, r, "s01", t0)
	if tr.ModuleCompleted || r.IsCompleted {
		t.Fatal("module should not be complete after 1/2")
	}

	done := t0.Add(time.Hour)
	r, tr, _ = MarkSectionComplete(m, r, "s02", done)
	if !tr.ModuleCompleted {
		t.Error("expected ModuleCompleted transition")
	}
	if !r.IsCompleted || r.CompletionPercentage != 100 {
		t.Errorf("IsCompleted=%v pct=%d", r.IsCompleted, r.CompletionPercentage)
	}
	if r.CompletedAt == nil || !r.CompletedAt.Equal(done) {
		t.Errorf("CompletedAt = %v, want %v", r.CompletedAt, done)
	}

	// A recompute after completion does not fire again or move the stamp.
	r2, tr := Recompute(m, r, done.Add(time.Hour))
	if tr.ModuleCompleted {
		t.Error("ModuleCompleted must fire only once")
	}
	if !r2.CompletedAt.Equal(done) {
		t.Error("CompletedAt moved on recompute")
	}
}

func TestRecompute_StickyCompletion(t *testing.T) {
	m := testModule(2)
	r := New("u", "m")
	r.CompletedSections = []string{"s01"}
	r.IsCompleted = true
	stamp := t0
	r.CompletedAt = &stamp

	got, tr := Recompute(m, r, t0.Add(time.Hour))
	if !got.IsCompleted {
		t.Error("IsCompleted must not revert")
	}
	if got.CompletionPercentage != 50 {
		t.Errorf("pct = %d, want 50", got.CompletionPercentage)
	}
	if tr.ModuleCompleted {
		t.Error("no transition expected for already completed record")
	}
}

func TestRecompute_EmptyModule(t *testing.T) {
	m := &content.Module{ID: "m"}
	got, tr := Recompute(m, New("u", "m"), t0)
	if got.CompletionPercentage != 0 || got.IsCompleted || tr.ModuleCompleted {
		t.Errorf("empty module: %+v %+v", got, tr)
	}
}

func TestReconcile(t *testing.T) {
	m := testModule(2, 1)
	r := New("u", "m")
	r.CompletedSections = []string{"s01", "gone", "s02", "s01"}
	r.CurrentPageIndex = 7

	got := Reconcile(m, r, t0)
	if len(got.CompletedSections) != 2 || got.CompletedSections[0] != "s01" || got.CompletedSections[1] != "s02" {
		t.Errorf("completed = %v, want [s01 s02]", got.CompletedSections)
	}
	if got.CurrentPageIndex != 1 {
		t.Errorf("page index = %d, want 1", got.CurrentPageIndex)
	}
	if got.CompletionPercentage != 67 {
		t.Errorf("pct = %d, want 67", got.CompletionPercentage)
	}
	if len(r.CompletedSections) != 4 {
		t.Error("Reconcile mutated its input")
	}
}

func TestSaveAnswerAndClone(t *testing.T) {
	r := New("u", "m")
	r2 := SaveAnswer(r, "q1", "blue", t0)
	if _, ok := r.Answer("q1"); ok {
		t.Error("SaveAnswer mutated its input")
	}
	if v, _ := r2.Answer("q1"); v != "blue" {
		t.Errorf("answer = %q, want blue", v)
	}
	if !r2.UpdatedAt.Equal(t0) {
		t.Errorf("UpdatedAt = %v", r2.UpdatedAt)
	}

	c := r2.Clone()
	c.Answers["q1"] = "red"
	c.CompletedSections = append(c.CompletedSections, "x")
	if v, _ := r2.Answer("q1"); v != "blue" || r2.Has("x") {
		t.Error("Clone shares state with the original")
	}
}
