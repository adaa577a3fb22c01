// Package schedule provides the virtual clock and the scheduled-event queue
// that replace real timers in the engine core. Time only moves when Advance
// is called, so tests and external drivers can step it deterministically.
package schedule

import (
	"container/heap"
	"log/slog"
	"time"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
)

// Clock is the engine's virtual monotonic clock.
type Clock struct {
	now time.Duration
}

// NewClock starts a clock at zero.
func NewClock() *Clock { return &Clock{} }

// Now returns the current virtual time.
func (c *Clock) Now() time.Duration { return c.now }

// advance moves the clock forward. Negative deltas are ignored; virtual
// time never runs backwards.
func (c *Clock) advance(dt time.Duration) {
	if dt > 0 {
		c.now += dt
	}
}

// Event is a cancellable handle for one scheduled callback. Handles are
// compared by identity, never by value.
type Event struct {
	due      time.Duration
	seq      uint64
	fn       func()
	canceled bool
	index    int
}

// Cancel prevents the event from firing. Safe to call more than once or
// after the event fired.
func (e *Event) Cancel() {
	if e != nil {
		e.canceled = true
	}
}

// Scheduler owns the pending-event queue. It is not safe for concurrent
// use; the engine serializes access the same way it serializes ticks.
type Scheduler struct {
	clock  *Clock
	queue  eventQueue
	nextID uint64
	logger *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger used by the listener error boundary.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a scheduler bound to the given clock.
func New(clock *Clock, opts ...Option) *Scheduler {
	if clock == nil {
		clock = NewClock()
	}
	s := &Scheduler{clock: clock}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Clock returns the scheduler's clock.
func (s *Scheduler) Clock() *Clock { return s.clock }

// After schedules fn to run once d has elapsed on the virtual clock.
// Non-positive delays fire on the next Advance. The returned handle cancels
// the event.
func (s *Scheduler) After(d time.Duration, fn func()) *Event {
	if d < 0 {
		d = 0
	}
	s.nextID++
	ev := &Event{
		due: s.clock.Now() + d,
		seq: s.nextID,
		fn:  fn,
	}
	heap.Push(&s.queue, ev)
	return ev
}

// Advance moves the clock forward by dt and fires every due event in due
// order; events scheduled for the same instant fire in scheduling order.
// Callbacks may schedule further events; those fire in the same Advance if
// already due. Returns the number of events fired.
func (s *Scheduler) Advance(dt time.Duration) int {
	s.clock.advance(dt)
	fired := 0
	for s.queue.Len() > 0 {
		next := s.queue[0]
		if next.due > s.clock.Now() {
			break
		}
		heap.Pop(&s.queue)
		if next.canceled {
			continue
		}
		fired++
		domain.Guard(s.logger, "schedule", next.fn)
	}
	return fired
}

// Pending counts events that are scheduled and not canceled.
func (s *Scheduler) Pending() int {
	n := 0
	for _, ev := range s.queue {
		if !ev.canceled {
			n++
		}
	}
	return n
}

// Reset drops every pending event without firing it. The clock keeps its
// reading.
func (s *Scheduler) Reset() {
	for _, ev := range s.queue {
		ev.canceled = true
	}
	s.queue = s.queue[:0]
}

// eventQueue is a min-heap ordered by due time, then scheduling sequence.
type eventQueue []*Event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].due != q[j].due {
		return q[i].due < q[j].due
	}
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *eventQueue) Push(x any) {
	ev := x.(*Event)
	ev.index = len(*q)
	*q = append(*q, ev)
}

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return ev
}
