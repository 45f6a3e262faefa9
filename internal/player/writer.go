package player

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// writeTimeout bounds a single background write.
const writeTimeout = 10 * time.Second

// WriteError reports a failed background persistence write. Local state is
// not rolled back.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

type writeJob struct {
	op    string
	fn    func(ctx context.Context) error
	flush chan struct{}
}

// writer runs persistence writes in order on one background goroutine.
// enqueue blocks only while the queue is full.
type writer struct {
	jobs  chan writeJob
	done  chan struct{}
	onErr func(op string, err error)

	mu     sync.Mutex
	closed bool

	failedMu sync.Mutex
	failed   []writeJob
}

func newWriter(queue int, onErr func(op string, err error)) *writer {
	if queue <= 0 {
		queue = 1
	}
	w := &writer{
		jobs:  make(chan writeJob, queue),
		done:  make(chan struct{}),
		onErr: onErr,
	}
	go w.processLoop()
	return w
}

func (w *writer) processLoop() {
	defer close(w.done)
	for job := range w.jobs {
		if job.flush != nil {
			close(job.flush)
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := job.fn(ctx)
		cancel()
		if err != nil {
			w.failedMu.Lock()
			w.failed = append(w.failed, job)
			w.failedMu.Unlock()
			if w.onErr != nil {
				w.onErr(job.op, err)
			}
		}
	}
}

// enqueue schedules a write. Writes after close are run inline.
func (w *writer) enqueue(op string, fn func(ctx context.Context) error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := fn(ctx); err != nil && w.onErr != nil {
			w.onErr(op, err)
		}
		return
	}
	w.jobs <- writeJob{op: op, fn: fn}
}

// flush waits until every write enqueued before the call has run.
func (w *writer) flush(ctx context.Context) error {
	marker := make(chan struct{})
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	select {
	case w.jobs <- writeJob{flush: marker}:
	case <-ctx.Done():
		w.mu.Unlock()
		return ctx.Err()
	}
	w.mu.Unlock()

	select {
	case <-marker:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// retry re-enqueues failed writes and returns how many were queued.
func (w *writer) retry() int {
	w.failedMu.Lock()
	jobs := w.failed
	w.failed = nil
	w.failedMu.Unlock()
	for _, j := range jobs {
		w.enqueue(j.op, j.fn)
	}
	return len(jobs)
}

// pendingFailures returns the number of failed writes awaiting retry.
func (w *writer) pendingFailures() int {
	w.failedMu.Lock()
	defer w.failedMu.Unlock()
	return len(w.failed)
}

// close drains the queue and stops the goroutine.
func (w *writer) close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.jobs)
	w.mu.Unlock()
	<-w.done
}
