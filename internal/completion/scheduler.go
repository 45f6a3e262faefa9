package completion

import (
	"sync"
	"time"

	"github.com/abhisek/stepwise/internal/timer"
)

// DelayedScheduler keeps at most one pending completion timer per section.
type DelayedScheduler struct {
	timers timer.Service

	mu      sync.Mutex
	seq     uint64
	pending map[string]scheduled
}

type scheduled struct {
	seq    uint64
	handle timer.Handle
}

// NewDelayedScheduler returns a scheduler backed by the given timer service.
func NewDelayedScheduler(timers timer.Service) *DelayedScheduler {
	return &DelayedScheduler{timers: timers, pending: make(map[string]scheduled)}
}

// Schedule arranges for fire(sectionID) to run after delay. A timer already
// pending for the section is replaced.
func (d *DelayedScheduler) Schedule(sectionID string, delay time.Duration, fire func(sectionID string)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if prev, ok := d.pending[sectionID]; ok {
		prev.handle.Stop()
	}
	d.seq++
	seq := d.seq
	h := d.timers.AfterFunc(delay, func() {
		d.mu.Lock()
		cur, ok := d.pending[sectionID]
		if !ok || cur.seq != seq {
			d.mu.Unlock()
			return
		}
		delete(d.pending, sectionID)
		d.mu.Unlock()
		fire(sectionID)
	})
	d.pending[sectionID] = scheduled{seq: seq, handle: h}
}

// Cancel stops the pending timer for sectionID and reports whether one was
// pending.
func (d *DelayedScheduler) Cancel(sectionID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.pending[sectionID]
	if !ok {
		return false
	}
	s.handle.Stop()
	delete(d.pending, sectionID)
	return true
}

// CancelAll stops every pending timer.
func (d *DelayedScheduler) CancelAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, s := range d.pending {
		s.handle.Stop()
		delete(d.pending, id)
	}
}

// IsPending reports whether a timer is pending for sectionID.
func (d *DelayedScheduler) IsPending(sectionID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[sectionID]
	return ok
}
