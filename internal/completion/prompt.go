package completion

import (
	"math/rand/v2"
	"sync"
)

// DefaultFeedbackProbability is the chance a completed section offers a
// feedback prompt.
const DefaultFeedbackProbability = 0.30

// FeedbackPrompter decides whether to offer a section feedback prompt after a
// completion.
type FeedbackPrompter struct {
	Probability float64
	Rand        func() float64 // returns values in [0, 1)

	mu    sync.Mutex
	given map[string]bool
}

// NewFeedbackPrompter returns a prompter using math/rand/v2.
func NewFeedbackPrompter(probability float64) *FeedbackPrompter {
	return &FeedbackPrompter{Probability: probability, Rand: rand.Float64}
}

// ShouldPrompt reports whether to offer a prompt for sectionID. Sections
// whose feedback is already recorded are never prompted.
func (p *FeedbackPrompter) ShouldPrompt(sectionID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.given[sectionID] {
		return false
	}
	r := p.Rand
	if r == nil {
		r = rand.Float64
	}
	return r() < p.Probability
}

// MarkGiven suppresses further prompts for sectionID.
func (p *FeedbackPrompter) MarkGiven(sectionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.given == nil {
		p.given = make(map[string]bool)
	}
	p.given[sectionID] = true
}

// Given reports whether feedback for sectionID was recorded.
func (p *FeedbackPrompter) Given(sectionID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.given[sectionID]
}
