package quiz

import "github.com/abhisek/stepwise/internal/content"

// ReviewItem is one row of the post-submit answer review.
type ReviewItem struct {
	Index       int
	Question    string
	Given       string
	Answered    bool
	Correct     string
	IsCorrect   bool
	Points      int
	Earned      int
	Explanation string
}

// Review lists every question with the learner's answer and the correct one.
// It is only meaningful once the quiz is submitted; callers decide whether
// to reveal correct answers (QuizSettings.ShowCorrectAnswers).
func (m *Machine) Review() []ReviewItem {
	items := make([]ReviewItem, 0, len(m.section.Questions))
	for i, q := range m.section.Questions {
		a, answered := m.session.Answers[i]
		ok := IsCorrect(q, a, answered)
		item := ReviewItem{
			Index:       i,
			Question:    q.Text,
			Answered:    answered && !a.IsZero(),
			Correct:     FormatCorrect(q),
			IsCorrect:   ok,
			Points:      q.Points,
			Explanation: q.Explanation,
		}
		if answered {
			item.Given = Format(q, a)
		}
		if ok {
			item.Earned = q.Points
		}
		items = append(items, item)
	}
	return items
}

// CurrentQuestion returns the question under the cursor.
func (m *Machine) CurrentQuestion() (content.Question, bool) {
	i := m.session.CurrentQuestion
	if i < 0 || i >= len(m.section.Questions) {
		return content.Question{}, false
	}
	return m.section.Questions[i], true
}

// AnswerFor returns the recorded answer to question idx.
func (m *Machine) AnswerFor(idx int) (Answer, bool) {
	a, ok := m.session.Answers[idx]
	return a, ok
}
