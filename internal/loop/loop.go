// Package loop is the single-threaded cooperative scheduler the greeting runs
// on. A front end calls Tick once per display refresh from the one goroutine
// that owns all presentation state; timers and frame requests fire from
// inside Tick, never concurrently.
package loop

import (
	"container/heap"
	"time"
)

// FrameID identifies a pending frame request. The zero value never names a
// request.
type FrameID uint64

type frame struct {
	id FrameID
	fn func()
}

type Loop struct {
	now    time.Time
	seq    uint64
	timers timerHeap

	frames      []frame
	dispatching []frame
	lastFrame   FrameID
}

func New(start time.Time) *Loop {
	return &Loop{now: start}
}

// Now is the instant of the timer or tick currently being processed.
func (l *Loop) Now() time.Time { return l.now }

// Timer is a one-shot or periodic callback registered with AfterFunc or
// Every.
type Timer struct {
	loop   *Loop
	due    time.Time
	seq    uint64
	period time.Duration
	fn     func()
	index  int
}

// Stop cancels the timer. It reports whether the timer was still pending.
// Stopping a periodic timer from its own callback prevents it re-arming.
func (t *Timer) Stop() bool {
	if t.fn == nil {
		return false
	}
	t.fn = nil
	if t.index < 0 {
		return false
	}
	heap.Remove(&t.loop.timers, t.index)
	return true
}

// AfterFunc runs fn once, d after Now.
func (l *Loop) AfterFunc(d time.Duration, fn func()) *Timer {
	return l.add(d, 0, fn)
}

// Every runs fn each period, first at Now+period. Re-arming is relative to the
// previous due time so the ticks do not drift.
func (l *Loop) Every(period time.Duration, fn func()) *Timer {
	if period <= 0 {
		panic("loop: non-positive period")
	}
	return l.add(period, period, fn)
}

func (l *Loop) add(d, period time.Duration, fn func()) *Timer {
	if d < 0 {
		d = 0
	}
	l.seq++
	t := &Timer{
		loop:   l,
		due:    l.now.Add(d),
		seq:    l.seq,
		period: period,
		fn:     fn,
		index:  -1,
	}
	heap.Push(&l.timers, t)
	return t
}

// RequestFrame runs fn once on the next Tick. Requests made from inside a
// Tick wait for the following one.
func (l *Loop) RequestFrame(fn func()) FrameID {
	l.lastFrame++
	l.frames = append(l.frames, frame{id: l.lastFrame, fn: fn})
	return l.lastFrame
}

// CancelFrame drops a pending request. Unknown or already run ids are
// ignored.
func (l *Loop) CancelFrame(id FrameID) {
	if id == 0 {
		return
	}
	for i := range l.frames {
		if l.frames[i].id == id {
			l.frames = append(l.frames[:i], l.frames[i+1:]...)
			return
		}
	}
	for i := range l.dispatching {
		if l.dispatching[i].id == id {
			l.dispatching[i].fn = nil
			return
		}
	}
}

// PendingFrames is the number of frame requests waiting for the next Tick.
func (l *Loop) PendingFrames() int { return len(l.frames) }

// PendingTimers is the number of armed timers.
func (l *Loop) PendingTimers() int { return len(l.timers) }

// Tick advances the loop to now. Every timer due at or before now fires in
// due order, ties in registration order, with Now reporting its due time.
// Then the frame requests made before this Tick are dispatched; requests made
// by the timers or frames of this Tick wait for the next one. A now earlier
// than the current instant is treated as the current instant.
func (l *Loop) Tick(now time.Time) {
	if now.Before(l.now) {
		now = l.now
	}
	l.dispatching, l.frames = l.frames, nil

	for len(l.timers) > 0 && !l.timers[0].due.After(now) {
		t := heap.Pop(&l.timers).(*Timer)
		l.now = t.due
		fn := t.fn
		if fn == nil {
			continue
		}
		if t.period == 0 {
			t.fn = nil
		}
		fn()
		if t.period > 0 && t.fn != nil {
			t.due = t.due.Add(t.period)
			heap.Push(&l.timers, t)
		}
	}
	l.now = now

	for i := range l.dispatching {
		if fn := l.dispatching[i].fn; fn != nil {
			l.dispatching[i].fn = nil
			fn()
		}
	}
	l.dispatching = l.dispatching[:0]
}

type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
