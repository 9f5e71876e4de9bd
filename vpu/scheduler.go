package vpu

import (
	"container/heap"

	"go.uber.org/zap"
)

// Scheduler provides the asynchronous boundary for stream operators. Time is
// a virtual monotonic int64 clock: it only moves when the owning unit pumps
// it with AdvanceTo/AdvanceBy, and it bears no promised relationship to
// wall-clock time (the unit is milliseconds by convention). Due timers fire
// in (due, scheduling-order) order by enqueueing their task on the owning
// unit.
type Scheduler struct {
	unit     *Unit
	now      int64
	seq      uint64
	timers   timerHeap
	shutdown bool
}

// TimerHandle cancels a scheduled firing. Cancel is idempotent; a timer
// already popped by the pump cannot be un-run.
type TimerHandle struct {
	entry *timerEntry
}

func (h *TimerHandle) Cancel() {
	h.entry.task.Dispose()
}

func (h *TimerHandle) IsCancelled() bool {
	return h.entry.task.IsDisposed()
}

type timerEntry struct {
	due    int64
	seq    uint64
	period int64
	task   *Task
}

type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].due != h[j].due {
		return h[i].due < h[j].due
	}
	return h[i].seq < h[j].seq
}
func (h timerHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)        { *h = append(*h, x.(*timerEntry)) }
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

func NewScheduler(unit *Unit) *Scheduler {
	return &Scheduler{unit: unit}
}

// Now returns the scheduler's current virtual time.
func (s *Scheduler) Now() int64 {
	return s.now
}

// Schedule arranges for work to run once at Now()+delay.
func (s *Scheduler) Schedule(name string, delay int64, work func()) *TimerHandle {
	invariant(delay >= 0, "Schedule passed a negative delay")
	return s.push(name, s.now+delay, 0, work)
}

// ScheduleAtFixedRate arranges for work to run at Now()+period and then
// every period after each firing. Period 0 means one-shot; a negative
// period is invalid.
func (s *Scheduler) ScheduleAtFixedRate(name string, period int64, work func()) *TimerHandle {
	invariant(period >= 0, "ScheduleAtFixedRate passed a negative period")
	return s.push(name, s.now+period, period, work)
}

func (s *Scheduler) push(name string, due, period int64, work func()) *TimerHandle {
	task := NewTask(name, PriorityDefault, work)
	entry := &timerEntry{due: due, seq: s.seq, period: period, task: task}
	s.seq++
	if s.shutdown {
		logger().Warn("timer scheduled after scheduler shutdown", zap.String("task", task.String()))
		task.Dispose()
		return &TimerHandle{entry: entry}
	}
	heap.Push(&s.timers, entry)
	return &TimerHandle{entry: entry}
}

// HasPending reports whether any live timer is waiting to fire.
func (s *Scheduler) HasPending() bool {
	for _, e := range s.timers {
		if !e.task.IsDisposed() {
			return true
		}
	}
	return false
}

// NextDue returns the fire time of the earliest live timer.
func (s *Scheduler) NextDue() (int64, bool) {
	best := int64(0)
	found := false
	for _, e := range s.timers {
		if e.task.IsDisposed() {
			continue
		}
		if !found || e.due < best {
			best = e.due
			found = true
		}
	}
	return best, found
}

// AdvanceTo moves the clock to t, firing every timer due on the way in due
// order. Each firing runs under the owning unit's activation, so timers may
// freely subscribe, emit, cancel and schedule further timers.
func (s *Scheduler) AdvanceTo(t int64) {
	for len(s.timers) > 0 && s.timers[0].due <= t {
		e := heap.Pop(&s.timers).(*timerEntry)
		if e.task.IsDisposed() {
			continue
		}
		if e.due > s.now {
			s.now = e.due
		}
		if e.task.IsIdle() {
			s.unit.Queue(e.task)
		}
		if e.period > 0 && !e.task.IsDisposed() {
			e.due += e.period
			e.seq = s.seq
			s.seq++
			heap.Push(&s.timers, e)
		}
	}
	if t > s.now {
		s.now = t
	}
}

// AdvanceBy moves the clock forward by d.
func (s *Scheduler) AdvanceBy(d int64) {
	invariant(d >= 0, "AdvanceBy passed a negative duration")
	s.AdvanceTo(s.now + d)
}

// Shutdown cancels every timer that has not yet fired. A timer already
// popped by the pump runs to completion.
func (s *Scheduler) Shutdown() {
	dropped := 0
	for _, e := range s.timers {
		if !e.task.IsDisposed() {
			e.task.Dispose()
			dropped++
		}
	}
	if dropped > 0 {
		logger().Debug("scheduler shutdown cancelled pending timers", zap.Int("count", dropped))
	}
	s.timers = nil
	s.shutdown = true
}
