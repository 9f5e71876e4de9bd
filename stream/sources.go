package stream

import (
	"strconv"
)

// sourceSubscription is the producer-side handle: cancel only flips the done
// flag, which every synchronous source checks between emissions.
type sourceSubscription struct {
	done bool
}

func (s *sourceSubscription) Cancel() {
	s.done = true
}

// Empty completes immediately on subscribe.
func Empty[T any]() *Stream[T] {
	return newStream("empty", func(sub Subscriber[T]) {
		s := &sourceSubscription{}
		sub.OnSubscribe(s)
		if !s.done {
			s.done = true
			sub.OnComplete()
		}
	})
}

// Fail errors immediately on subscribe.
func Fail[T any](err error) *Stream[T] {
	apiInvariant(err != nil, "Fail passed a nil error")
	return newStream("fail", func(sub Subscriber[T]) {
		s := &sourceSubscription{}
		sub.OnSubscribe(s)
		if !s.done {
			s.done = true
			sub.OnError(err)
		}
	})
}

// Never subscribes and then does nothing, ever.
func Never[T any]() *Stream[T] {
	return newStream("never", func(sub Subscriber[T]) {
		sub.OnSubscribe(&sourceSubscription{})
	})
}

// Of emits the given items in order then completes.
func Of[T any](items ...T) *Stream[T] {
	return FromSlice(items)
}

// FromSlice emits each element of the slice in order then completes,
// checking the done flag between emissions.
func FromSlice[T any](items []T) *Stream[T] {
	return newStream(opName("fromSlice", strconv.Itoa(len(items))), func(sub Subscriber[T]) {
		s := &sourceSubscription{}
		sub.OnSubscribe(s)
		for _, item := range items {
			if s.done {
				return
			}
			sub.OnItem(item)
		}
		if !s.done {
			s.done = true
			sub.OnComplete()
		}
	})
}

// Range emits the integers start..start+count-1 then completes.
func Range(start, count int) *Stream[int] {
	apiInvariant(count >= 0, "Range passed a negative count")
	return newStream(opName("range", strconv.Itoa(start), strconv.Itoa(count)), func(sub Subscriber[int]) {
		s := &sourceSubscription{}
		sub.OnSubscribe(s)
		for i := 0; i < count; i++ {
			if s.done {
				return
			}
			sub.OnItem(start + i)
		}
		if !s.done {
			s.done = true
			sub.OnComplete()
		}
	})
}

// FromFunc invokes the supplier once, emits its value, then completes; a
// supplier error becomes the terminal error.
func FromFunc[T any](supplier func() (T, error)) *Stream[T] {
	return newStream("fromFunc", func(sub Subscriber[T]) {
		s := &sourceSubscription{}
		sub.OnSubscribe(s)
		if s.done {
			return
		}
		v, err := supplier()
		if s.done {
			return
		}
		if err != nil {
			s.done = true
			sub.OnError(err)
			return
		}
		sub.OnItem(v)
		if s.done {
			return
		}
		s.done = true
		sub.OnComplete()
	})
}

// periodicSubscription owns the scheduler timer behind Periodic.
type periodicSubscription struct {
	done   bool
	handle interface{ Cancel() }
}

func (p *periodicSubscription) Cancel() {
	if p.done {
		return
	}
	p.done = true
	if p.handle != nil {
		p.handle.Cancel()
	}
}

// Periodic emits 0,1,2,... every period on the scheduler clock; it never
// completes and runs until cancelled.
func Periodic(period int64) *Stream[int] {
	apiInvariant(period > 0, "Periodic passed a non-positive period")
	return newStream(opName("periodic", strconv.FormatInt(period, 10)), func(sub Subscriber[int]) {
		s := &periodicSubscription{}
		sub.OnSubscribe(s)
		if s.done {
			return
		}
		counter := 0
		s.handle = sched().ScheduleAtFixedRate(opName("periodic"), period, func() {
			if s.done {
				return
			}
			v := counter
			counter++
			sub.OnItem(v)
		})
	})
}

// Generate emits supplier() every period.
func Generate[T any](supplier func() T, period int64) *Stream[T] {
	return Map(Periodic(period), func(int) T { return supplier() })
}

// Emitter is the handle Create gives user code to drive a subscriber
// directly. Signals after cancel or a terminal are dropped.
type Emitter[T any] struct {
	s   *sourceSubscription
	sub Subscriber[T]
}

func (e *Emitter[T]) Next(v T) {
	if e.s.done {
		return
	}
	e.sub.OnItem(v)
}

func (e *Emitter[T]) Error(err error) {
	if e.s.done {
		return
	}
	e.s.done = true
	e.sub.OnError(err)
}

func (e *Emitter[T]) Complete() {
	if e.s.done {
		return
	}
	e.s.done = true
	e.sub.OnComplete()
}

func (e *Emitter[T]) IsCancelled() bool {
	return e.s.done
}

// Create hands the subscriber to user code wrapped in an Emitter.
func Create[T any](producer func(*Emitter[T])) *Stream[T] {
	return newStream("create", func(sub Subscriber[T]) {
		s := &sourceSubscription{}
		sub.OnSubscribe(s)
		producer(&Emitter[T]{s: s, sub: sub})
	})
}
