package content

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// SectionType is the content kind of a section.
type SectionType string

const (
	TypeText          SectionType = "text"
	TypePhoto         SectionType = "photo"
	TypeVideo         SectionType = "video"
	TypeChecklist     SectionType = "checklist"
	TypeDropdowns     SectionType = "dropdowns"
	TypeQuestionnaire SectionType = "questionnaire"
	TypeFlashcards    SectionType = "flashcards"
	TypeQuiz          SectionType = "quiz"
	TypeEmbed         SectionType = "embed"
)

// AllSectionTypes returns every supported section type.
func AllSectionTypes() []SectionType {
	return []SectionType{
		TypeText, TypePhoto, TypeVideo, TypeChecklist, TypeDropdowns,
		TypeQuestionnaire, TypeFlashcards, TypeQuiz, TypeEmbed,
	}
}

// Known reports whether t is a supported section type.
func (t SectionType) Known() bool {
	for _, k := range AllSectionTypes() {
		if t == k {
			return true
		}
	}
	return false
}

// QuestionKind identifies how a question is answered.
type QuestionKind string

// Quiz question kinds.
const (
	KindMultipleChoice QuestionKind = "multiple-choice"
	KindMultipleSelect QuestionKind = "multiple-select"
	KindTrueFalse      QuestionKind = "true-false"
	KindFillBlank      QuestionKind = "fill-blank"
)

// Questionnaire and dropdown question kinds.
const (
	KindText   QuestionKind = "text"
	KindRadio  QuestionKind = "radio"
	KindSelect QuestionKind = "select"
)

// Scored reports whether questions of this kind carry a correct answer.
func (k QuestionKind) Scored() bool {
	switch k {
	case KindMultipleChoice, KindMultipleSelect, KindTrueFalse, KindFillBlank:
		return true
	}
	return false
}

// DefaultPassingScore is the quiz pass mark used when a section sets none.
const DefaultPassingScore = 70

// FallbackBody is the body of the synthesized section for a module without
// pages and without a description.
const FallbackBody = "No content available"

// Module is a unit of learning content composed of ordered pages.
type Module struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Pages       []Page `json:"pages"`
}

// Page is an ordered list of sections. Its index in Module.Pages is its
// unlock rank.
type Page struct {
	ID       string    `json:"id"`
	Name     string    `json:"name,omitempty"`
	Sections []Section `json:"sections"`
}

// Section is the smallest content unit. Which payload fields are populated
// depends on Type.
type Section struct {
	ID    string      `json:"id"`
	Type  SectionType `json:"type"`
	Title string      `json:"title,omitempty"`

	// text
	Body string `json:"body,omitempty"`

	// photo, video, embed
	MediaURL string `json:"media_url,omitempty"`
	URL      string `json:"url,omitempty"`
	Caption  string `json:"caption,omitempty"`
	Note     string `json:"note,omitempty"`

	// checklist
	Items []ChecklistItem `json:"items,omitempty"`

	// flashcards
	Cards []Card `json:"cards,omitempty"`

	// quiz, questionnaire, dropdowns
	Description string       `json:"description,omitempty"`
	Questions   []Question   `json:"questions,omitempty"`
	Settings    QuizSettings `json:"settings,omitzero"`
}

// UnmarshalJSON accepts media_path as an alias of media_url.
func (s *Section) UnmarshalJSON(data []byte) error {
	type plain Section
	var aux struct {
		plain
		MediaPath string `json:"media_path"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*s = Section(aux.plain)
	if s.MediaURL == "" {
		s.MediaURL = aux.MediaPath
	}
	return nil
}

// DisplayTitle returns the section title, or a positional fallback.
func (s Section) DisplayTitle(index int) string {
	if strings.TrimSpace(s.Title) != "" {
		return s.Title
	}
	return "Section " + strconv.Itoa(index+1)
}

// TotalPoints sums the points of every question in the section.
func (s Section) TotalPoints() int {
	total := 0
	for _, q := range s.Questions {
		total += q.Points
	}
	return total
}

// AnswerKey returns the key under which the answer to question i is saved:
// the question id, or "<section id>-q<i>" for questions without one.
func (s Section) AnswerKey(i int) string {
	if i >= 0 && i < len(s.Questions) && s.Questions[i].ID != "" {
		return s.Questions[i].ID
	}
	return s.ID + "-q" + strconv.Itoa(i)
}

// ChecklistItem is one line of a checklist section.
type ChecklistItem struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Required bool   `json:"required,omitempty"`
}

// Card is a flashcard.
type Card struct {
	ID    string `json:"id,omitempty"`
	Front string `json:"front"`
	Back  string `json:"back"`
}

// QuizSettings configures a quiz section.
type QuizSettings struct {
	PassingScore       int  `json:"passingScore,omitempty"`
	AllowRetake        bool `json:"allowRetake,omitempty"`
	ShowCorrectAnswers bool `json:"showCorrectAnswers,omitempty"`
	TimeLimit          int  `json:"timeLimit,omitempty"` // minutes, display only
}

// PassingScoreOrDefault returns the configured pass mark. An unset or zero
// value falls back to DefaultPassingScore.
func (qs QuizSettings) PassingScoreOrDefault() int {
	if qs.PassingScore <= 0 {
		return DefaultPassingScore
	}
	return qs.PassingScore
}

// Question is a quiz, questionnaire or dropdown question.
//
// CorrectAnswer holds an option index (multiple-choice), a boolean
// (true-false) or a string (fill-blank). CorrectAnswers holds option
// indices for multiple-select.
type Question struct {
	ID             string       `json:"id,omitempty"`
	Kind           QuestionKind `json:"type"`
	Text           string       `json:"question"`
	Options        []string     `json:"options,omitempty"`
	Required       bool         `json:"required,omitempty"`
	CorrectAnswer  any          `json:"correctAnswer,omitempty"`
	CorrectAnswers []int        `json:"correctAnswers,omitempty"`
	Points         int          `json:"points,omitempty"`
	Explanation    string       `json:"explanation,omitempty"`
}

// UnmarshalJSON accepts the authoring aliases kind (for type) and q / text
// (for question).
func (q *Question) UnmarshalJSON(data []byte) error {
	type plain Question
	var aux struct {
		plain
		AltKind QuestionKind `json:"kind"`
		AltQ    string       `json:"q"`
		AltText string       `json:"text"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*q = Question(aux.plain)
	if q.Kind == "" {
		q.Kind = aux.AltKind
	}
	if q.Text == "" {
		q.Text = aux.AltQ
	}
	if q.Text == "" {
		q.Text = aux.AltText
	}
	return nil
}

// CorrectIndex returns CorrectAnswer as an option index.
func (q Question) CorrectIndex() (int, bool) {
	switch v := q.CorrectAnswer.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v == math.Trunc(v) {
			return int(v), true
		}
	case json.Number:
		n, err := v.Int64()
		if err == nil {
			return int(n), true
		}
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err == nil {
			return n, true
		}
	}
	return 0, false
}

// CorrectTruth returns CorrectAnswer as a boolean. The strings "true" and
// "false" are accepted as well.
func (q Question) CorrectTruth() (bool, bool) {
	switch v := q.CorrectAnswer.(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err == nil {
			return b, true
		}
	}
	return false, false
}

// CorrectText returns CorrectAnswer rendered as a string.
func (q Question) CorrectText() string {
	switch v := q.CorrectAnswer.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
