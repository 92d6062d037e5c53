package avr

import "container/heap"

// TimerCallback fires when a scheduled cycle-timer matures. It may
// reschedule itself by calling Core.ScheduleTimer again.
type TimerCallback func(c *Core, param uint32)

type timerEntry struct {
	due     uint64
	cb      TimerCallback
	param   uint32
	index   int
	cancelled bool
}

// timerHeap is a container/heap.Interface min-heap ordered by due cycle.
// No example in the retrieved corpus carries a third-party priority-queue
// library, so the cycle-timer heap is one of the few places this module
// reaches for the standard library's container/heap instead (spec §4.F:
// "a small number of concurrently armed timers", which is exactly
// container/heap's sweet spot).
type timerHeap []*timerEntry

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].due < h[j].due }
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *timerHeap) Push(x any) {
	e := x.(*timerEntry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// TimerQueue is the cycle-timer scheduler of spec §4.F: a min-heap of
// (due-cycle, callback, param) triples serviced once per RunMany
// iteration, ahead of the dispatch burst.
type TimerQueue struct {
	h timerHeap
}

func newTimerQueue() TimerQueue {
	q := TimerQueue{}
	heap.Init(&q.h)
	return q
}

// Reset empties the queue (spec §3 Lifecycle: timers do not survive a
// core Reset, unlike peripheral registrations).
func (q *TimerQueue) Reset() {
	q.h = q.h[:0]
}

// ScheduleTimer arms cb to fire at absolute cycle "when" with the given
// param, returning a handle usable with CancelTimer.
func (c *Core) ScheduleTimer(when uint64, cb TimerCallback, param uint32) *timerEntry {
	e := &timerEntry{due: when, cb: cb, param: param}
	heap.Push(&c.CycleTimers.h, e)
	return e
}

// CancelTimer idempotently disarms a previously scheduled timer. Firing a
// cancelled timer is a silent no-op rather than an error (spec §4.F edge
// case: "cancelling a timer that has already fired this tick does
// nothing").
func (c *Core) CancelTimer(handle *timerEntry) {
	if handle == nil {
		return
	}
	handle.cancelled = true
}

// processTimers pops and fires every timer due at or before the core's
// current cycle count, in due-cycle order (ties broken arbitrarily, spec
// §4.F does not require a tiebreak). Each callback runs with the timer
// already removed from the queue, so it may reschedule itself without
// disturbing heap invariants.
func (c *Core) processTimers() {
	for c.CycleTimers.h.Len() > 0 {
		next := c.CycleTimers.h[0]
		if next.due > c.Cycle {
			return
		}
		heap.Pop(&c.CycleTimers.h)
		if next.cancelled {
			continue
		}
		next.cb(c, next.param)
	}
}

// nextTimerDue reports the cycle of the earliest still-armed timer, and
// whether one exists (used by the scheduler to size a dispatch burst so
// it never overruns a pending timer, spec §4.F).
func (c *Core) nextTimerDue() (uint64, bool) {
	for c.CycleTimers.h.Len() > 0 {
		if !c.CycleTimers.h[0].cancelled {
			return c.CycleTimers.h[0].due, true
		}
		// Drop cancelled entries eagerly so a long-cancelled timer can't
		// keep shrinking every burst to zero.
		heap.Pop(&c.CycleTimers.h)
	}
	return 0, false
}
