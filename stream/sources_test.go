package stream_test

import (
	"errors"
	"testing"

	"github.com/delaneyj/streamparty/stream"
	"github.com/delaneyj/streamparty/vpu"
	"github.com/stretchr/testify/assert"
)

// should complete immediately with no items
func TestEmpty(t *testing.T) {
	r := newRecorder[int]()
	stream.Empty[int]().SubscribeWith(r)

	assert.Equal(t, 1, r.subscribes)
	assert.Empty(t, r.items)
	assert.Equal(t, 1, r.completes)
	assert.Empty(t, r.errs)
}

// should error immediately with the given error
func TestFail(t *testing.T) {
	boom := errors.New("boom")
	r := newRecorder[int]()
	stream.Fail[int](boom).SubscribeWith(r)

	assert.Equal(t, 1, r.subscribes)
	assert.Equal(t, []error{boom}, r.errs)
	assert.Zero(t, r.completes)
}

// should emit the given items in order then complete
func TestOf(t *testing.T) {
	r := newRecorder[int]()
	stream.Of(1, 2, 3).SubscribeWith(r)

	assert.Equal(t, []int{1, 2, 3}, r.items)
	assert.Equal(t, 1, r.completes)
}

// should emit start..start+count-1 then complete
func TestRange(t *testing.T) {
	r := newRecorder[int]()
	stream.Range(42, 5).SubscribeWith(r)

	assert.Equal(t, []int{42, 43, 44, 45, 46}, r.items)
	assert.Equal(t, 1, r.completes)
}

// should stop emitting at the item boundary after a re-entrant cancel
func TestSyncSourceHonorsCancel(t *testing.T) {
	c := &cancelAfter[int]{n: 2}
	stream.Range(0, 100).SubscribeWith(c)

	assert.Equal(t, []int{0, 1}, c.items)
	assert.Zero(t, c.completes)
	assert.Empty(t, c.errs)
}

// should never signal after subscribe
func TestNever(t *testing.T) {
	r := newRecorder[int]()
	stream.Never[int]().SubscribeWith(r)

	assert.Equal(t, 1, r.subscribes)
	assert.Empty(t, r.items)
	assert.Zero(t, r.completes)
	assert.Empty(t, r.errs)
}

// should emit one supplied value then complete
func TestFromFunc(t *testing.T) {
	r := newRecorder[string]()
	stream.FromFunc(func() (string, error) { return "hi", nil }).SubscribeWith(r)

	assert.Equal(t, []string{"hi"}, r.items)
	assert.Equal(t, 1, r.completes)
}

// should turn a supplier error into the terminal error
func TestFromFuncError(t *testing.T) {
	boom := errors.New("supplier failed")
	r := newRecorder[string]()
	stream.FromFunc(func() (string, error) { return "", boom }).SubscribeWith(r)

	assert.Empty(t, r.items)
	assert.Equal(t, []error{boom}, r.errs)
}

// should hand user code an emitter that honors cancellation
func TestCreate(t *testing.T) {
	r := newRecorder[int]()
	s := stream.Create(func(e *stream.Emitter[int]) {
		e.Next(1)
		e.Next(2)
		e.Complete()
		e.Next(3) // dropped, already complete
	})
	s.SubscribeWith(r)

	assert.Equal(t, []int{1, 2}, r.items)
	assert.Equal(t, 1, r.completes)
}

// should report cancellation through the emitter
func TestCreateSeesCancel(t *testing.T) {
	c := &cancelAfter[int]{n: 1}
	var sawCancelled bool
	stream.Create(func(e *stream.Emitter[int]) {
		e.Next(1)
		sawCancelled = e.IsCancelled()
		e.Next(2)
	}).SubscribeWith(c)

	assert.True(t, sawCancelled)
	assert.Equal(t, []int{1}, c.items)
}

// should emit an increasing counter on each period
func TestPeriodic(t *testing.T) {
	prev := stream.SetUnit(vpu.NewDefaultUnit("test"))
	defer stream.SetUnit(prev)

	r := newRecorder[int]()
	stream.Periodic(100).SubscribeWith(r)

	stream.Unit().Scheduler().AdvanceTo(300)
	assert.Equal(t, []int{0, 1, 2}, r.items)
	assert.Zero(t, r.completes)

	r.Cancel()
	stream.Unit().Scheduler().AdvanceTo(1000)
	assert.Equal(t, []int{0, 1, 2}, r.items)
}

// should map the periodic counter through the supplier
func TestGenerate(t *testing.T) {
	prev := stream.SetUnit(vpu.NewDefaultUnit("test"))
	defer stream.SetUnit(prev)

	next := 10
	r := newRecorder[int]()
	stream.Generate(func() int {
		next++
		return next
	}, 50).SubscribeWith(r)

	stream.Unit().Scheduler().AdvanceTo(150)
	assert.Equal(t, []int{11, 12, 13}, r.items)
}
