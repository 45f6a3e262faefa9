package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManual_RunsInDueOrder(t *testing.T) {
	m := NewManual()
	var got []string
	m.AfterFunc(5*time.Second, func() { got = append(got, "five") })
	m.AfterFunc(3*time.Second, func() { got = append(got, "three") })
	m.AfterFunc(3*time.Second, func() { got = append(got, "three-b") })

	m.Advance(2 * time.Second)
	assert.Empty(t, got)
	assert.Equal(t, 3, m.Pending())

	m.Advance(time.Second)
	assert.Equal(t, []string{"three", "three-b"}, got)

	m.Advance(10 * time.Second)
	assert.Equal(t, []string{"three", "three-b", "five"}, got)
	assert.Equal(t, 0, m.Pending())
}

func TestManual_Stop(t *testing.T) {
	m := NewManual()
	fired := false
	h := m.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, h.Stop())
	assert.False(t, h.Stop())
	m.Advance(time.Minute)
	assert.False(t, fired)
}

func TestManual_CallbackSchedulesMore(t *testing.T) {
	m := NewManual()
	count := 0
	m.AfterFunc(time.Second, func() {
		count++
		m.AfterFunc(0, func() { count++ })
	})
	m.Advance(time.Second)
	assert.Equal(t, 2, count)
}

func TestQueued_DeliversOnChannel(t *testing.T) {
	q := NewQueued(4)
	q.AfterFunc(time.Millisecond, func() {})

	select {
	case f := <-q.Fired():
		require.NotNil(t, f)
		f()
	case <-time.After(2 * time.Second):
		t.Fatal("callback was not delivered")
	}
}

func TestQueued_StoppedAfterQueueingIsDropped(t *testing.T) {
	q := NewQueued(4)
	ran := false
	h := q.AfterFunc(time.Millisecond, func() { ran = true })

	var f func()
	select {
	case f = <-q.Fired():
	case <-time.After(2 * time.Second):
		t.Fatal("callback was not delivered")
	}
	assert.True(t, h.Stop())
	f()
	assert.False(t, ran)
}

func TestQueued_CloseReleasesBlockedSends(t *testing.T) {
	q := NewQueued(1)
	q.AfterFunc(time.Millisecond, func() {})
	q.AfterFunc(time.Millisecond, func() {})

	// One callback fills the channel; the other waits for space nobody
	// will make.
	require.Eventually(t, func() bool { return len(q.Fired()) == 1 }, 2*time.Second, time.Millisecond)
	q.Close()
	q.Close()

	require.Eventually(t, func() bool { return q.dropped.Load() == 1 }, 2*time.Second, time.Millisecond)
	assert.Len(t, q.Fired(), 1)

	q.AfterFunc(0, func() {})
	require.Eventually(t, func() bool { return q.dropped.Load() == 2 }, 2*time.Second, time.Millisecond)
}

func TestReal_Stop(t *testing.T) {
	h := Real{}.AfterFunc(time.Hour, func() {})
	assert.True(t, h.Stop())
}
