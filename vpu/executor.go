package vpu

import (
	"strings"

	"go.uber.org/zap"
)

const DefaultMaxRounds = 100

// Executor drains a task queue in rounds. At the start of a round the queue
// size is recorded and exactly that many tasks run before the queue is
// re-measured, so tasks enqueued mid-round wait for the next round and a
// self-re-enqueueing task cannot monopolize the unit. Exceeding the round
// budget is a runaway: a diagnostic names the still-pending tasks and the
// queue is optionally purged.
type Executor struct {
	queue                   *TaskQueue
	maxRounds               int
	currentRound            int
	remainingInCurrentRound int
}

func NewExecutor(queue *TaskQueue, maxRounds int) *Executor {
	invariant(queue != nil, "NewExecutor passed a nil queue")
	invariant(maxRounds > 0, "NewExecutor passed a non-positive round budget")
	return &Executor{queue: queue, maxRounds: maxRounds}
}

func NewDefaultExecutor() *Executor {
	return NewExecutor(NewDefaultTaskQueue(), DefaultMaxRounds)
}

func (e *Executor) Queue() *TaskQueue {
	return e.queue
}

func (e *Executor) MaxRounds() int {
	return e.maxRounds
}

func (e *Executor) CurrentRound() int {
	return e.currentRound
}

// AreTasksExecuting reports whether a drain is mid-round.
func (e *Executor) AreTasksExecuting() bool {
	return e.currentRound != 0
}

// RunNextTask runs a single task and reports whether there may be more work.
func (e *Executor) RunNextTask() bool {
	if e.remainingInCurrentRound == 0 {
		if !e.queue.HasTasks() {
			e.currentRound = 0
			return false
		}
		if e.currentRound+1 > e.maxRounds {
			e.currentRound = 0
			e.onRunawayDetected()
			return false
		}
		e.currentRound++
		e.remainingInCurrentRound = e.queue.Size()
	}
	e.remainingInCurrentRound--
	t, ok := e.queue.Dequeue()
	if !ok {
		return false
	}
	t.run()
	return true
}

// DrainAllTasks runs tasks until the queue empties or a runaway fires.
func (e *Executor) DrainAllTasks() {
	for e.RunNextTask() {
	}
}

func (e *Executor) onRunawayDetected() {
	pending := e.queue.OrderedTasks()
	names := make([]string, 0, len(pending))
	for _, t := range pending {
		names = append(names, t.String())
	}
	logger().Error("runaway tasks detected",
		zap.Int("maxRounds", e.maxRounds),
		zap.Strings("pending", names))
	if config.PurgeTasksWhenRunawayDetected {
		for _, t := range e.queue.Clear() {
			t.markAsExecuted()
		}
	}
	if CheckInvariants() {
		panic("streamparty: runaway tasks detected, still pending: " + strings.Join(names, ", "))
	}
}
