package stream

// resumeSubscription swaps its upstream when an error arrives: the selector
// supplies the replacement stream and the downstream observes one seamless
// sequence with no second OnSubscribe.
type resumeSubscription[T any] struct {
	coreSubscription
	downstream Subscriber[T]
	selector   func(error) *Stream[T]
	attached   bool
}

func (r *resumeSubscription[T]) OnSubscribe(sub Subscription) {
	r.upstream = sub
	if r.attached {
		if r.done {
			sub.Cancel()
		}
		return
	}
	r.attached = true
	r.downstream.OnSubscribe(r)
}

func (r *resumeSubscription[T]) OnItem(v T) {
	if r.done {
		return
	}
	r.downstream.OnItem(v)
}

func (r *resumeSubscription[T]) OnError(err error) {
	if r.done {
		return
	}
	var next *Stream[T]
	selErr := guard(func() { next = r.selector(err) })
	if selErr != nil {
		r.done = true
		r.downstream.OnError(selErr)
		return
	}
	if next == nil {
		// a nil replacement means the selector declined; forward the
		// original error
		r.done = true
		r.downstream.OnError(err)
		return
	}
	r.upstream = nil
	next.SubscribeWith(r)
}

func (r *resumeSubscription[T]) OnComplete() {
	if r.done {
		return
	}
	r.done = true
	r.downstream.OnComplete()
}

// OnErrorResumeWith continues the sequence with selector(err) when the
// upstream errors. Errors from the replacement go through the selector
// again.
func (s *Stream[T]) OnErrorResumeWith(selector func(error) *Stream[T]) *Stream[T] {
	return newStream(opName("onErrorResumeWith"), func(sub Subscriber[T]) {
		s.SubscribeWith(&resumeSubscription[T]{downstream: sub, selector: selector})
	})
}

// RescueThenReturn replaces an upstream error with a single fallback item
// followed by completion.
func (s *Stream[T]) RescueThenReturn(fallback T) *Stream[T] {
	return newStream(opName("rescueThenReturn"), func(sub Subscriber[T]) {
		s.SubscribeWith(&resumeSubscription[T]{
			downstream: sub,
			selector:   func(error) *Stream[T] { return Of(fallback) },
		})
	})
}
