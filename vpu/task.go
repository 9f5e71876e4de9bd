package vpu

import "fmt"

type taskFlags uint8

const (
	tQueued taskFlags = 1 << iota
	tExecuting
	tExecuted
	tDisposed
)

var taskCounter int

// Task is a schedulable unit of work: a runnable body, a priority index and
// a lifecycle state. A task moves idle→queued→executing→idle (or back to
// queued when its body re-queued it), or to disposed from any state via
// Dispose. A task must not sit in two queues at once.
type Task struct {
	name     string
	work     func()
	priority int
	flags    taskFlags
}

func NewTask(name string, priority int, work func()) *Task {
	if NamesEnabled() && name == "" {
		taskCounter++
		name = fmt.Sprintf("task@%d", taskCounter)
	}
	invariant(work != nil, "NewTask passed a nil work function")
	invariant(priority >= 0, "NewTask passed a negative priority")
	return &Task{name: name, work: work, priority: priority}
}

func (t *Task) Name() string {
	return t.name
}

func (t *Task) Priority() int {
	return t.priority
}

func (t *Task) IsIdle() bool {
	return t.flags&(tQueued|tExecuting|tDisposed) == 0
}

func (t *Task) IsQueued() bool {
	return t.flags&tQueued != 0
}

func (t *Task) IsExecuting() bool {
	return t.flags&tExecuting != 0
}

func (t *Task) IsDisposed() bool {
	return t.flags&tDisposed != 0
}

// WasExecuted reports whether the body has run at least once, or the task
// was drained by a runaway purge.
func (t *Task) WasExecuted() bool {
	return t.flags&tExecuted != 0
}

// Dispose cancels the task. Idempotent; a disposed task popped by an
// executor is skipped rather than run.
func (t *Task) Dispose() {
	t.flags = (t.flags &^ (tQueued | tExecuting)) | tDisposed
}

func (t *Task) markAsQueued() {
	invariant(!t.IsQueued(), "task "+t.name+" queued while already queued")
	t.flags = (t.flags &^ tExecuting) | tQueued
}

func (t *Task) markAsExecuting() {
	t.flags = (t.flags &^ tQueued) | tExecuting
}

func (t *Task) markAsIdle() {
	t.flags &^= tQueued | tExecuting
}

func (t *Task) markAsExecuted() {
	t.flags |= tExecuted
}

// run executes the body unless the task was disposed after being queued.
func (t *Task) run() {
	if t.IsDisposed() {
		return
	}
	t.markAsExecuting()
	t.markAsExecuted()
	defer func() {
		if !t.IsQueued() {
			t.markAsIdle()
		}
	}()
	t.work()
}

func (t *Task) String() string {
	if NamesEnabled() {
		return t.name
	}
	return fmt.Sprintf("Task[priority=%d]", t.priority)
}
