package stream

import (
	"strconv"

	"github.com/delaneyj/streamparty/ring"
)

type lastSubscription[T any] struct {
	forwardingSubscription[T]
	buffer *ring.Buffer[T]
	max    int
}

func (l *lastSubscription[T]) OnItem(v T) {
	if l.done {
		return
	}
	if l.buffer.Size() == l.max {
		l.buffer.Pop()
	}
	l.buffer.Add(v)
}

func (l *lastSubscription[T]) OnComplete() {
	if l.done {
		return
	}
	for {
		v, ok := l.buffer.Pop()
		if !ok {
			break
		}
		l.downstream.OnItem(v)
		if l.done {
			return
		}
	}
	l.done = true
	l.downstream.OnComplete()
}

func (l *lastSubscription[T]) OnError(err error) {
	if l.done {
		return
	}
	l.buffer.Clear()
	l.done = true
	l.downstream.OnError(err)
}

// Last holds back everything and replays only the final n items when the
// upstream completes.
func (s *Stream[T]) Last(n int) *Stream[T] {
	apiInvariant(n > 0, "Last passed a non-positive count")
	return newStream(opName("last", strconv.Itoa(n)), func(sub Subscriber[T]) {
		ls := &lastSubscription[T]{buffer: ring.NewBuffer[T](n), max: n}
		ls.downstream = sub
		s.SubscribeWith(ls)
	})
}

type bufferByCountSubscription[T any] struct {
	coreSubscription
	downstream Subscriber[[]T]
	size       int
	pending    []T
}

func (b *bufferByCountSubscription[T]) OnSubscribe(sub Subscription) {
	b.upstream = sub
	b.downstream.OnSubscribe(b)
}

func (b *bufferByCountSubscription[T]) OnItem(v T) {
	if b.done {
		return
	}
	b.pending = append(b.pending, v)
	if len(b.pending) == b.size {
		batch := b.pending
		b.pending = nil
		b.downstream.OnItem(batch)
	}
}

func (b *bufferByCountSubscription[T]) OnError(err error) {
	if b.done {
		return
	}
	b.pending = nil
	b.done = true
	b.downstream.OnError(err)
}

func (b *bufferByCountSubscription[T]) OnComplete() {
	if b.done {
		return
	}
	if len(b.pending) > 0 {
		batch := b.pending
		b.pending = nil
		b.downstream.OnItem(batch)
		if b.done {
			return
		}
	}
	b.done = true
	b.downstream.OnComplete()
}

// BufferByCount groups items into slices of n, emitting any partial group
// on completion.
func BufferByCount[T any](s *Stream[T], n int) *Stream[[]T] {
	apiInvariant(n > 0, "BufferByCount passed a non-positive count")
	return newStream(opName("bufferByCount", strconv.Itoa(n)), func(sub Subscriber[[]T]) {
		s.SubscribeWith(&bufferByCountSubscription[T]{downstream: sub, size: n})
	})
}

type windowByCountSubscription[T any] struct {
	coreSubscription
	downstream Subscriber[*Stream[T]]
	size       int
	window     *Hub[T]
	emitted    int
}

func (w *windowByCountSubscription[T]) OnSubscribe(sub Subscription) {
	w.upstream = sub
	w.downstream.OnSubscribe(w)
}

func (w *windowByCountSubscription[T]) OnItem(v T) {
	if w.done {
		return
	}
	if w.window == nil {
		w.window = NewSubject[T]()
		w.downstream.OnItem(w.window.AsStream())
		if w.done {
			return
		}
	}
	w.window.Next(v)
	w.emitted++
	if w.emitted == w.size {
		w.window.Complete()
		w.window = nil
		w.emitted = 0
	}
}

func (w *windowByCountSubscription[T]) OnError(err error) {
	if w.done {
		return
	}
	if w.window != nil {
		w.window.Error(err)
		w.window = nil
	}
	w.done = true
	w.downstream.OnError(err)
}

func (w *windowByCountSubscription[T]) OnComplete() {
	if w.done {
		return
	}
	if w.window != nil {
		w.window.Complete()
		w.window = nil
	}
	w.done = true
	w.downstream.OnComplete()
}

// WindowByCount groups items into sub-streams of n items each. Each window
// is a hub that is live while it fills.
func WindowByCount[T any](s *Stream[T], n int) *Stream[*Stream[T]] {
	apiInvariant(n > 0, "WindowByCount passed a non-positive count")
	return newStream(opName("windowByCount", strconv.Itoa(n)), func(sub Subscriber[*Stream[T]]) {
		s.SubscribeWith(&windowByCountSubscription[T]{downstream: sub, size: n})
	})
}
