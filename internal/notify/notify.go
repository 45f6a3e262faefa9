// Package notify delivers player events (completions, feedback prompts,
// write failures) to interested parties.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/abhisek/stepwise/internal/logger"
)

// Kind identifies an event.
type Kind string

const (
	SectionCompleted Kind = "section_completed"
	ModuleCompleted  Kind = "module_completed"
	FeedbackPrompt   Kind = "feedback_prompt"
	WriteFailed      Kind = "write_failed"
)

// Event is a single notification.
type Event struct {
	Kind      Kind
	LearnerID string
	ModuleID  string
	SectionID string // empty for module-level events
	At        time.Time
	Err       error  // WriteFailed only
	Detail    string // e.g. the failed operation
}

// Notifier receives events. Implementations must not block for long; wrap
// slow ones in Async.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, e Event)

func (f Func) Notify(ctx context.Context, e Event) { f(ctx, e) }

// Nop discards events.
type Nop struct{}

func (Nop) Notify(context.Context, Event) {}

// Multi fans an event out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, e Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, e)
		}
	}
}

// Async delivers events to an inner notifier on a background goroutine.
// When the queue is full new events are dropped so the caller never blocks.
type Async struct {
	inner   Notifier
	pending chan asyncJob
	done    chan struct{}

	mu      sync.Mutex
	closed  bool
	dropped int
}

type asyncJob struct {
	ctx context.Context
	e   Event
}

// NewAsync starts the delivery loop with a queue of the given size.
func NewAsync(inner Notifier, queue int) *Async {
	a := &Async{
		inner:   inner,
		pending: make(chan asyncJob, queue),
		done:    make(chan struct{}),
	}
	go a.processLoop()
	return a
}

func (a *Async) Notify(ctx context.Context, e Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		a.dropped++
		return
	}
	select {
	case a.pending <- asyncJob{ctx: context.WithoutCancel(ctx), e: e}:
	default:
		a.dropped++
	}
}

// Dropped returns how many events were discarded.
func (a *Async) Dropped() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}

func (a *Async) processLoop() {
	defer close(a.done)
	for job := range a.pending {
		a.inner.Notify(job.ctx, job.e)
	}
}

// Close stops accepting events and waits for queued ones to be delivered.
func (a *Async) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.pending)
	a.mu.Unlock()
	<-a.done
}

// Logging writes every event to a logger.
type Logging struct {
	Log *logger.Logger
}

func (l Logging) Notify(_ context.Context, e Event) {
	kv := []interface{}{
		"event", string(e.Kind),
		"learner_id", e.LearnerID,
		"module_id", e.ModuleID,
	}
	if e.SectionID != "" {
		kv = append(kv, "section_id", e.SectionID)
	}
	if e.Detail != "" {
		kv = append(kv, "detail", e.Detail)
	}
	if e.Kind == WriteFailed {
		kv = append(kv, "error", e.Err)
		l.Log.Warn("persistence write failed", kv...)
		return
	}
	l.Log.Info("player event", kv...)
}

// EventLog is an append-only event store.
type EventLog interface {
	AppendEvent(ctx context.Context, e Event) error
}

// Audit appends events to an EventLog. Append failures are logged, never
// returned.
type Audit struct {
	Log    EventLog
	Logger *logger.Logger
}

func (a Audit) Notify(ctx context.Context, e Event) {
	if err := a.Log.AppendEvent(ctx, e); err != nil && a.Logger != nil {
		a.Logger.Warn("append audit event", "event", string(e.Kind), "error", err)
	}
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Notify(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfKind returns recorded events of the given kind.
func (r *Recorder) OfKind(k Kind) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// Reset discards recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
