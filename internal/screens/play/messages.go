package play

// closedMsg is sent once the player has drained its writes on exit.
type closedMsg struct {
	Err error
}

// quizSubmittedMsg carries the status line for a submitted quiz.
type quizSubmittedMsg struct {
	SectionID string
	Passed    bool
	Percent   int
}
