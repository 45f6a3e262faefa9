package feedback

import (
	"errors"
	"testing"
)

func TestSectionFeedbackValidate(t *testing.T) {
	yes := true
	base := SectionFeedback{LearnerID: "u", ModuleID: "m", SectionID: "s"}

	tests := []struct {
		name    string
		mutate  func(*SectionFeedback)
		wantErr bool
	}{
		{"helpful only", func(f *SectionFeedback) { f.Helpful = &yes }, false},
		{"clarity only", func(f *SectionFeedback) { f.Clarity = 4 }, false},
		{"comment only", func(f *SectionFeedback) { f.Comments = "nice" }, false},
		{"empty", func(f *SectionFeedback) {}, true},
		{"clarity out of range", func(f *SectionFeedback) { f.Clarity = 6 }, true},
		{"negative difficulty", func(f *SectionFeedback) { f.Difficulty = -1; f.Comments = "x" }, true},
		{"missing section", func(f *SectionFeedback) { f.SectionID = ""; f.Clarity = 3 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := base
			tt.mutate(&f)
			err := f.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("error %v should match ErrInvalid", err)
			}
		})
	}
}

func TestModuleFeedbackValidate(t *testing.T) {
	tests := []struct {
		name    string
		f       ModuleFeedback
		wantErr bool
	}{
		{"rated", ModuleFeedback{LearnerID: "u", ModuleID: "m", Rating: 5}, false},
		{"with difficulty", ModuleFeedback{LearnerID: "u", ModuleID: "m", Rating: 3, Difficulty: 2}, false},
		{"rating required", ModuleFeedback{LearnerID: "u", ModuleID: "m", Text: "great"}, true},
		{"rating too high", ModuleFeedback{LearnerID: "u", ModuleID: "m", Rating: 9}, true},
		{"missing module", ModuleFeedback{LearnerID: "u", Rating: 4}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.f.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
