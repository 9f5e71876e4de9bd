package vpu

import "sync"

// Unit is a processor unit: it owns an executor and is the only place task
// bodies run. While a unit is activated it is observable as the current
// unit, so code running inside a task body can rely on CurrentUnit being
// non-nil and stable. Nesting activations is forbidden.
type Unit struct {
	name      string
	executor  *Executor
	scheduler *Scheduler
}

var (
	currentMu   sync.Mutex
	currentUnit *Unit
)

func NewUnit(name string, executor *Executor) *Unit {
	invariant(executor != nil, "NewUnit passed a nil executor")
	u := &Unit{name: name, executor: executor}
	u.scheduler = NewScheduler(u)
	return u
}

func NewDefaultUnit(name string) *Unit {
	return NewUnit(name, NewDefaultExecutor())
}

func (u *Unit) Name() string {
	return u.name
}

func (u *Unit) Executor() *Executor {
	return u.executor
}

func (u *Unit) Scheduler() *Scheduler {
	return u.scheduler
}

// Queue enqueues the task and activates the unit unless an activation is
// already in progress, in which case the running drain picks the task up in
// a later round.
func (u *Unit) Queue(t *Task) {
	u.executor.Queue().Queue(t)
	u.activateIfIdle()
}

// QueueNext enqueues the task at the front of the queue.
func (u *Unit) QueueNext(t *Task) {
	u.executor.Queue().QueueFirst(t)
	u.activateIfIdle()
}

// Activate makes this unit current, drains its executor, then clears the
// current-unit slot. Task bodies only ever run under an activation.
func (u *Unit) Activate() {
	currentMu.Lock()
	acquired := currentUnit == nil
	if acquired {
		currentUnit = u
	}
	currentMu.Unlock()
	invariant(acquired, "activation of unit "+u.name+" nested inside an active unit")
	if !acquired {
		return
	}
	defer func() {
		currentMu.Lock()
		stillOwned := currentUnit == u
		if stillOwned {
			currentUnit = nil
		}
		currentMu.Unlock()
		invariant(stillOwned, "current unit changed during activation of "+u.name)
	}()
	u.executor.DrainAllTasks()
}

func (u *Unit) activateIfIdle() {
	if CurrentUnit() == nil {
		u.Activate()
	}
}

// CurrentUnit returns the unit whose activation is in progress, or nil.
func CurrentUnit() *Unit {
	currentMu.Lock()
	defer currentMu.Unlock()
	return currentUnit
}
