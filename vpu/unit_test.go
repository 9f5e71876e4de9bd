package vpu_test

import (
	"testing"

	"github.com/delaneyj/streamparty/vpu"
	"github.com/stretchr/testify/assert"
)

// should expose the current unit only while a task body runs
func TestCurrentUnitDuringActivation(t *testing.T) {
	u := vpu.NewDefaultUnit("main")
	var observed *vpu.Unit

	assert.Nil(t, vpu.CurrentUnit())
	u.Queue(vpu.NewTask("probe", vpu.PriorityDefault, func() {
		observed = vpu.CurrentUnit()
	}))

	assert.Equal(t, u, observed)
	assert.Nil(t, vpu.CurrentUnit())
}

// should forbid nested activations
func TestNestedActivationPanics(t *testing.T) {
	u := vpu.NewDefaultUnit("outer")

	assert.Panics(t, func() {
		u.Queue(vpu.NewTask("nest", vpu.PriorityDefault, func() {
			u.Activate()
		}))
	})
}

// should let a task body enqueue more work on the active unit
func TestQueueFromTaskBody(t *testing.T) {
	u := vpu.NewDefaultUnit("main")
	order := []string{}

	u.Queue(vpu.NewTask("a", vpu.PriorityDefault, func() {
		order = append(order, "a")
		u.Queue(vpu.NewTask("b", vpu.PriorityDefault, func() {
			order = append(order, "b")
		}))
	}))

	assert.Equal(t, []string{"a", "b"}, order)
}

// should run QueueNext tasks before previously queued work
func TestQueueNextJumpsTheLine(t *testing.T) {
	u := vpu.NewDefaultUnit("main")
	order := []string{}

	u.Queue(vpu.NewTask("a", vpu.PriorityDefault, func() {
		order = append(order, "a")
		u.Queue(vpu.NewTask("b", vpu.PriorityDefault, func() { order = append(order, "b") }))
		u.QueueNext(vpu.NewTask("urgent", vpu.PriorityDefault, func() { order = append(order, "urgent") }))
	}))

	assert.Equal(t, []string{"a", "urgent", "b"}, order)
}
