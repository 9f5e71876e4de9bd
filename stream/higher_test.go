package stream_test

import (
	"errors"
	"testing"

	"github.com/delaneyj/streamparty/stream"
	"github.com/stretchr/testify/assert"
)

// should serialize inner streams one after another
func TestConcat(t *testing.T) {
	r := newRecorder[int]()
	outer := stream.Of(stream.Of(1, 2), stream.Of(3, 4), stream.Of(5))
	stream.Concat(outer).SubscribeWith(r)

	assert.Equal(t, []int{1, 2, 3, 4, 5}, r.items)
	assert.Equal(t, 1, r.completes)
}

// should map then serialize with concatMap
func TestConcatMap(t *testing.T) {
	r := newRecorder[int]()
	stream.ConcatMap(stream.Of(1, 2, 3), func(v int) *stream.Stream[int] {
		return stream.Of(v*10, v*10+1)
	}).SubscribeWith(r)

	assert.Equal(t, []int{10, 11, 20, 21, 30, 31}, r.items)
	assert.Equal(t, 1, r.completes)
}

// should hold back later inners while an earlier one is live
func TestConcatBuffersPendingInners(t *testing.T) {
	first := stream.NewSubject[int]()
	r := newRecorder[int]()
	outer := stream.Of(first.AsStream(), stream.Of(99))
	stream.Concat(outer).SubscribeWith(r)

	first.Next(1)
	assert.Equal(t, []int{1}, r.items)
	assert.Zero(t, r.completes)

	first.Complete()
	assert.Equal(t, []int{1, 99}, r.items)
	assert.Equal(t, 1, r.completes)
}

// should interleave inner streams up to the concurrency limit
func TestMergeInterleaves(t *testing.T) {
	a := stream.NewSubject[string]()
	b := stream.NewSubject[string]()
	r := newRecorder[string]()
	stream.Merge(stream.Of(a.AsStream(), b.AsStream()), 2).SubscribeWith(r)

	a.Next("a1")
	b.Next("b1")
	a.Next("a2")
	a.Complete()
	b.Next("b2")
	b.Complete()

	assert.Equal(t, []string{"a1", "b1", "a2", "b2"}, r.items)
	assert.Equal(t, 1, r.completes)
}

// should queue inner streams beyond the concurrency limit
func TestMergeQueuesBeyondLimit(t *testing.T) {
	a := stream.NewSubject[int]()
	started := []int{}
	r := newRecorder[int]()
	mk := func(id int) *stream.Stream[int] {
		return stream.Create(func(e *stream.Emitter[int]) {
			started = append(started, id)
			if id == 1 {
				// stays open until a completes it via the subject below
				a.AsStream().SubscribeWith(forwarderInto(e))
				return
			}
			e.Next(id * 100)
			e.Complete()
		})
	}
	stream.Merge(stream.Of(mk(1), mk(2)), 1).SubscribeWith(r)

	assert.Equal(t, []int{1}, started)
	a.Complete()
	assert.Equal(t, []int{1, 2}, started)
	assert.Equal(t, []int{200}, r.items)
	assert.Equal(t, 1, r.completes)
}

// forwarderInto adapts an emitter so a subject can drive a Create source.
func forwarderInto[T any](e *stream.Emitter[T]) stream.Subscriber[T] {
	return stream.Forward(e.Next, e.Error, e.Complete)
}

// should cancel everything when any inner errors
func TestMergeInnerErrorCancelsAll(t *testing.T) {
	boom := errors.New("inner boom")
	a := stream.NewSubject[int]()
	b := stream.NewSubject[int]()
	r := newRecorder[int]()
	stream.Merge(stream.Of(a.AsStream(), b.AsStream()), 2).SubscribeWith(r)

	a.Next(1)
	b.Error(boom)
	a.Next(2) // cancelled, must not arrive

	assert.Equal(t, []int{1}, r.items)
	assert.Equal(t, []error{boom}, r.errs)
	assert.Zero(t, r.completes)
}

// should replace the active inner when a new outer item arrives
func TestSwitch(t *testing.T) {
	outer := stream.NewSubject[*stream.Stream[int]]()
	a := stream.NewSubject[int]()
	b := stream.NewSubject[int]()
	r := newRecorder[int]()
	stream.Switch(outer.AsStream()).SubscribeWith(r)

	outer.Next(a.AsStream())
	a.Next(1)
	outer.Next(b.AsStream())
	a.Next(2) // cancelled inner, dropped
	b.Next(3)

	assert.Equal(t, []int{1, 3}, r.items)
}

// should complete only after both outer and active inner complete
func TestSwitchCompletionTieBreak(t *testing.T) {
	outer := stream.NewSubject[*stream.Stream[int]]()
	inner := stream.NewSubject[int]()
	r := newRecorder[int]()
	stream.Switch(outer.AsStream()).SubscribeWith(r)

	outer.Next(inner.AsStream())
	outer.Complete()
	assert.Zero(t, r.completes)

	inner.Next(1)
	inner.Complete()
	assert.Equal(t, []int{1}, r.items)
	assert.Equal(t, 1, r.completes)
}

// should drop outer items while an inner is live
func TestExhaust(t *testing.T) {
	outer := stream.NewSubject[*stream.Stream[int]]()
	a := stream.NewSubject[int]()
	r := newRecorder[int]()
	stream.Exhaust(outer.AsStream()).SubscribeWith(r)

	outer.Next(a.AsStream())
	a.Next(1)
	outer.Next(stream.Of(99)) // dropped: a is still live
	a.Next(2)
	a.Complete()
	outer.Next(stream.Of(7)) // a finished, eligible again
	outer.Complete()

	assert.Equal(t, []int{1, 2, 7}, r.items)
	assert.Equal(t, 1, r.completes)
}

// should propagate a switch inner error and cancel the outer
func TestSwitchInnerError(t *testing.T) {
	boom := errors.New("boom")
	outer := stream.NewSubject[*stream.Stream[int]]()
	r := newRecorder[int]()
	stream.Switch(outer.AsStream()).SubscribeWith(r)

	outer.Next(stream.Fail[int](boom))

	assert.Equal(t, []error{boom}, r.errs)
	assert.True(t, outer.DownstreamCount() == 0)
}

// should map and switch with switchMap
func TestSwitchMap(t *testing.T) {
	r := newRecorder[int]()
	stream.SwitchMap(stream.Of(1, 2), func(v int) *stream.Stream[int] {
		return stream.Of(v * 10)
	}).SubscribeWith(r)

	assert.Equal(t, []int{10, 20}, r.items)
	assert.Equal(t, 1, r.completes)
}
