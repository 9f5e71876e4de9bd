package stream_test

import (
	"github.com/delaneyj/streamparty/stream"
)

// recorder captures every signal a stream delivers, in order.
type recorder[T any] struct {
	sub        stream.Subscription
	subscribes int
	items      []T
	errs       []error
	completes  int
}

func newRecorder[T any]() *recorder[T] {
	return &recorder[T]{}
}

func (r *recorder[T]) OnSubscribe(sub stream.Subscription) {
	r.subscribes++
	r.sub = sub
}

func (r *recorder[T]) OnItem(v T) {
	r.items = append(r.items, v)
}

func (r *recorder[T]) OnError(err error) {
	r.errs = append(r.errs, err)
}

func (r *recorder[T]) OnComplete() {
	r.completes++
}

func (r *recorder[T]) Cancel() {
	if r.sub != nil {
		r.sub.Cancel()
	}
}

// cancelAfter cancels its own subscription once it has seen n items.
type cancelAfter[T any] struct {
	recorder[T]
	n int
}

func (c *cancelAfter[T]) OnItem(v T) {
	c.recorder.OnItem(v)
	if len(c.items) == c.n {
		c.Cancel()
	}
}
