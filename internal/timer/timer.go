// Package timer provides cancellable one-shot timers behind a small
// interface so delayed completions can be driven by wall clock, by a UI
// event loop, or by tests.
package timer

import (
	"sync"
	"sync/atomic"
	"time"
)

// Handle cancels a scheduled callback.
type Handle interface {
	// Stop prevents the callback from running. It reports whether the
	// callback was still pending.
	Stop() bool
}

// Service schedules callbacks.
type Service interface {
	AfterFunc(d time.Duration, f func()) Handle
}

// Real runs callbacks on their own goroutine via time.AfterFunc.
type Real struct{}

// AfterFunc implements Service.
func (Real) AfterFunc(d time.Duration, f func()) Handle {
	return time.AfterFunc(d, f)
}

// Queued delivers due callbacks on a channel instead of running them, so a
// single consumer (such as a UI event loop) can run them in order. Close
// it once the consumer stops reading.
type Queued struct {
	fired     chan func()
	done      chan struct{}
	closeOnce sync.Once
	dropped   atomic.Int64
}

// NewQueued returns a Queued service with the given channel capacity.
func NewQueued(capacity int) *Queued {
	return &Queued{
		fired: make(chan func(), capacity),
		done:  make(chan struct{}),
	}
}

// Close drops callbacks that are due or waiting for channel space. It is
// safe to call more than once.
func (q *Queued) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}

// Fired returns the channel of due callbacks.
func (q *Queued) Fired() <-chan func() {
	return q.fired
}

// AfterFunc implements Service.
func (q *Queued) AfterFunc(d time.Duration, f func()) Handle {
	h := &queuedHandle{}
	h.t = time.AfterFunc(d, func() {
		h.mu.Lock()
		stopped := h.stopped
		h.mu.Unlock()
		if stopped {
			return
		}
		select {
		case q.fired <- h.guard(f):
		case <-q.done:
			q.dropped.Add(1)
		}
	})
	return h
}

type queuedHandle struct {
	mu      sync.Mutex
	t       *time.Timer
	stopped bool
}

func (h *queuedHandle) Stop() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return false
	}
	h.stopped = true
	h.t.Stop()
	return true
}

// guard drops a callback that was stopped after it was queued but before
// the consumer ran it.
func (h *queuedHandle) guard(f func()) func() {
	return func() {
		h.mu.Lock()
		stopped := h.stopped
		h.mu.Unlock()
		if !stopped {
			f()
		}
	}
}

// Manual is a virtual clock for tests. Callbacks run synchronously inside
// Advance in due order.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	seq     int
	pending []*manualHandle
}

// NewManual returns a Manual clock at zero.
func NewManual() *Manual {
	return &Manual{}
}

// AfterFunc implements Service.
func (m *Manual) AfterFunc(d time.Duration, f func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	h := &manualHandle{m: m, due: m.now + d, seq: m.seq, f: f}
	m.pending = append(m.pending, h)
	return h
}

// Pending returns the number of scheduled callbacks not yet run or stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Advance moves the clock forward by d and runs every callback that became
// due, earliest first.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now += d
	now := m.now
	m.mu.Unlock()

	for {
		h := m.popDue(now)
		if h == nil {
			return
		}
		h.f()
	}
}

func (m *Manual) popDue(now time.Duration) *manualHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	best := -1
	for i, h := range m.pending {
		if h.due > now {
			continue
		}
		if best < 0 || h.due < m.pending[best].due || (h.due == m.pending[best].due && h.seq < m.pending[best].seq) {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	h := m.pending[best]
	m.pending = append(m.pending[:best], m.pending[best+1:]...)
	return h
}

type manualHandle struct {
	m   *Manual
	due time.Duration
	seq int
	f   func()
}

func (h *manualHandle) Stop() bool {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	for i, p := range h.m.pending {
		if p == h {
			h.m.pending = append(h.m.pending[:i], h.m.pending[i+1:]...)
			return true
		}
	}
	return false
}
