package vpu

import "github.com/delaneyj/streamparty/ring"

const (
	// PriorityHigh is reserved for tasks inserted with QueueFirst.
	PriorityHigh = 0
	// PriorityDefault is where ordinary tasks land.
	PriorityDefault = 1

	defaultPriorityCount   = 2
	defaultInitialCapacity = 8
)

// TaskQueue is a multi-priority FIFO. One ring buffer per priority; dequeue
// scans priorities low index to high and pops the first non-empty buffer, so
// a lower index always drains first.
type TaskQueue struct {
	buffers []*ring.Buffer[*Task]
}

func NewTaskQueue(priorityCount, initialCapacity int) *TaskQueue {
	invariant(priorityCount > 0, "NewTaskQueue passed a non-positive priority count")
	invariant(initialCapacity > 0, "NewTaskQueue passed a non-positive capacity")
	buffers := make([]*ring.Buffer[*Task], priorityCount)
	for i := range buffers {
		buffers[i] = ring.NewBuffer[*Task](initialCapacity)
	}
	return &TaskQueue{buffers: buffers}
}

func NewDefaultTaskQueue() *TaskQueue {
	return NewTaskQueue(defaultPriorityCount, defaultInitialCapacity)
}

func (q *TaskQueue) PriorityCount() int {
	return len(q.buffers)
}

func (q *TaskQueue) Size() int {
	count := 0
	for _, b := range q.buffers {
		count += b.Size()
	}
	return count
}

func (q *TaskQueue) HasTasks() bool {
	for _, b := range q.buffers {
		if !b.IsEmpty() {
			return true
		}
	}
	return false
}

// Queue adds the task at the tail of its priority's buffer. The task must
// not already be queued.
func (q *TaskQueue) Queue(t *Task) {
	q.queueAt(t.priority, t, false)
}

// QueueFirst adds the task at the head of the highest priority buffer so it
// is the next task dequeued.
func (q *TaskQueue) QueueFirst(t *Task) {
	q.queueAt(PriorityHigh, t, true)
}

func (q *TaskQueue) queueAt(priority int, t *Task, first bool) {
	if CheckInvariants() {
		invariant(!q.contains(t), "attempting to queue task "+t.String()+" when already queued")
		invariant(priority >= 0 && priority < len(q.buffers),
			"attempting to queue task "+t.String()+" with an invalid priority")
	}
	t.markAsQueued()
	if first {
		q.buffers[priority].AddFirst(t)
	} else {
		q.buffers[priority].Add(t)
	}
}

// Dequeue pops the head of the first non-empty buffer, highest priority
// first, and marks it executing.
func (q *TaskQueue) Dequeue() (*Task, bool) {
	for _, b := range q.buffers {
		if t, ok := b.Pop(); ok {
			t.markAsExecuting()
			return t, true
		}
	}
	return nil, false
}

// Clear empties every buffer, marking each removed task idle, and returns
// the removed tasks in priority order.
func (q *TaskQueue) Clear() []*Task {
	var removed []*Task
	for _, b := range q.buffers {
		for {
			t, ok := b.Pop()
			if !ok {
				break
			}
			t.markAsIdle()
			removed = append(removed, t)
		}
	}
	return removed
}

// OrderedTasks snapshots the queued tasks in dequeue order, for diagnostics.
func (q *TaskQueue) OrderedTasks() []*Task {
	var out []*Task
	for _, b := range q.buffers {
		out = append(out, b.Snapshot()...)
	}
	return out
}

func (q *TaskQueue) contains(t *Task) bool {
	for _, b := range q.buffers {
		if b.Contains(func(other *Task) bool { return other == t }) {
			return true
		}
	}
	return false
}
