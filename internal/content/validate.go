package content

import (
	"fmt"
	"strings"
)

// Validate performs structural checks on a module.
// Returns a combined error describing all problems found, or nil if valid.
func Validate(m *Module) error {
	if m == nil {
		return fmt.Errorf("module validation failed: nil module")
	}

	var errs []string
	if strings.TrimSpace(m.ID) == "" {
		errs = append(errs, "module id is empty")
	}

	seen := make(map[string]string)
	for pi, p := range m.Pages {
		for si, s := range p.Sections {
			prefix := fmt.Sprintf("page %d section %d", pi, si)
			if s.ID == "" {
				errs = append(errs, fmt.Sprintf("%s: empty section id", prefix))
			} else {
				if where, dup := seen[s.ID]; dup {
					errs = append(errs, fmt.Sprintf("%s: duplicate section id %q (first used at %s)", prefix, s.ID, where))
				}
				seen[s.ID] = prefix
				prefix = fmt.Sprintf("section %q", s.ID)
			}
			if !s.Type.Known() {
				errs = append(errs, fmt.Sprintf("%s: unknown section type %q", prefix, s.Type))
				continue
			}
			errs = append(errs, validateSection(prefix, s)...)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("module %q validation failed:\n  %s", m.ID, strings.Join(errs, "\n  "))
	}
	return nil
}

func validateSection(prefix string, s Section) []string {
	var errs []string
	switch s.Type {
	case TypeFlashcards:
		if len(s.Cards) == 0 {
			errs = append(errs, fmt.Sprintf("%s: flashcards section has no cards", prefix))
		}
	case TypeQuiz:
		ps := s.Settings.PassingScore
		if ps < 0 || ps > 100 {
			errs = append(errs, fmt.Sprintf("%s: passing score must be in [0, 100], got %d", prefix, ps))
		}
		if s.Settings.TimeLimit < 0 {
			errs = append(errs, fmt.Sprintf("%s: time limit must be >= 0, got %d", prefix, s.Settings.TimeLimit))
		}
		for qi, q := range s.Questions {
			errs = append(errs, validateQuizQuestion(fmt.Sprintf("%s question %d", prefix, qi), q)...)
		}
	case TypeQuestionnaire, TypeDropdowns:
		for qi, q := range s.Questions {
			qp := fmt.Sprintf("%s question %d", prefix, qi)
			switch q.Kind {
			case KindText, KindRadio, KindSelect, "":
			default:
				errs = append(errs, fmt.Sprintf("%s: unknown question kind %q", qp, q.Kind))
			}
			if (q.Kind == KindRadio || q.Kind == KindSelect) && len(q.Options) == 0 {
				errs = append(errs, fmt.Sprintf("%s: %s question has no options", qp, q.Kind))
			}
		}
	}
	return errs
}

func validateQuizQuestion(prefix string, q Question) []string {
	var errs []string
	if q.Points < 0 {
		errs = append(errs, fmt.Sprintf("%s: points must be >= 0, got %d", prefix, q.Points))
	}
	switch q.Kind {
	case KindMultipleChoice:
		idx, ok := q.CorrectIndex()
		if !ok {
			errs = append(errs, fmt.Sprintf("%s: correct answer must be an option index", prefix))
		} else if idx < 0 || idx >= len(q.Options) {
			errs = append(errs, fmt.Sprintf("%s: correct answer %d out of range [0, %d)", prefix, idx, len(q.Options)))
		}
	case KindMultipleSelect:
		for _, idx := range q.CorrectAnswers {
			if idx < 0 || idx >= len(q.Options) {
				errs = append(errs, fmt.Sprintf("%s: correct answer %d out of range [0, %d)", prefix, idx, len(q.Options)))
			}
		}
	case KindTrueFalse:
		if _, ok := q.CorrectTruth(); !ok {
			errs = append(errs, fmt.Sprintf("%s: correct answer must be true or false", prefix))
		}
	case KindFillBlank:
		if strings.TrimSpace(q.CorrectText()) == "" {
			errs = append(errs, fmt.Sprintf("%s: fill-blank question has no correct answer", prefix))
		}
	default:
		errs = append(errs, fmt.Sprintf("%s: unknown question kind %q", prefix, q.Kind))
	}
	return errs
}
