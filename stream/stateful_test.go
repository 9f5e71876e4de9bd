package stream_test

import (
	"errors"
	"testing"

	"github.com/delaneyj/streamparty/stream"
	"github.com/stretchr/testify/assert"
)

// should hold back everything and replay the final n on completion
func TestLast(t *testing.T) {
	r := newRecorder[int]()
	stream.Range(0, 10).Last(3).SubscribeWith(r)

	assert.Equal(t, []int{7, 8, 9}, r.items)
	assert.Equal(t, 1, r.completes)
}

// should emit fewer than n when the upstream was shorter
func TestLastShortUpstream(t *testing.T) {
	r := newRecorder[int]()
	stream.Of(1, 2).Last(5).SubscribeWith(r)

	assert.Equal(t, []int{1, 2}, r.items)
	assert.Equal(t, 1, r.completes)
}

// should drop the buffer and forward the error
func TestLastDropsBufferOnError(t *testing.T) {
	boom := errors.New("boom")
	r := newRecorder[int]()
	stream.Of(1, 2, 3).
		DoOnComplete(func() { panic(boom) }).
		Last(2).
		SubscribeWith(r)

	assert.Empty(t, r.items)
	assert.Len(t, r.errs, 1)
}

// should group items into slices of n with a partial tail group
func TestBufferByCount(t *testing.T) {
	r := newRecorder[[]int]()
	stream.BufferByCount(stream.Range(0, 7), 3).SubscribeWith(r)

	assert.Equal(t, [][]int{{0, 1, 2}, {3, 4, 5}, {6}}, r.items)
	assert.Equal(t, 1, r.completes)
}

// should group items into sub-streams of n items each
func TestWindowByCount(t *testing.T) {
	windows := [][]int{}
	sink := stream.Forward(
		func(w *stream.Stream[int]) {
			idx := len(windows)
			windows = append(windows, nil)
			w.Subscribe(func(v int) { windows[idx] = append(windows[idx], v) }, nil, nil)
		},
		func(error) {},
		nil,
	)
	stream.WindowByCount(stream.Range(0, 5), 2).SubscribeWith(sink)

	assert.Equal(t, [][]int{{0, 1}, {2, 3}, {4}}, windows)
}

// should complete the open window when the upstream completes
func TestWindowCompletesOpenWindow(t *testing.T) {
	completes := 0
	sink := stream.Forward(
		func(w *stream.Stream[int]) {
			w.Subscribe(nil, nil, func() { completes++ })
		},
		func(error) {},
		nil,
	)
	stream.WindowByCount(stream.Range(0, 3), 2).SubscribeWith(sink)

	assert.Equal(t, 2, completes)
}
