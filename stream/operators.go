package stream

import (
	"strconv"

	mapset "github.com/deckarep/golang-set/v2"
)

// Map transforms each item with fn. A panicking fn cancels upstream and
// errors downstream.
func Map[T, R any](s *Stream[T], fn func(T) R) *Stream[R] {
	return MapErr(s, func(v T) (R, error) {
		return fn(v), nil
	})
}

type mapSubscription[T, R any] struct {
	coreSubscription
	downstream Subscriber[R]
	fn         func(T) (R, error)
}

func (m *mapSubscription[T, R]) OnSubscribe(sub Subscription) {
	m.upstream = sub
	m.downstream.OnSubscribe(m)
}

func (m *mapSubscription[T, R]) OnItem(v T) {
	if m.done {
		return
	}
	var out R
	err := guard(func() {
		var mapErr error
		out, mapErr = m.fn(v)
		if mapErr != nil {
			panic(mapErr)
		}
	})
	if err != nil {
		m.done = true
		if m.upstream != nil {
			m.upstream.Cancel()
		}
		m.downstream.OnError(err)
		return
	}
	if m.done {
		return
	}
	m.downstream.OnItem(out)
}

func (m *mapSubscription[T, R]) OnError(err error) {
	if m.done {
		return
	}
	m.done = true
	m.downstream.OnError(err)
}

func (m *mapSubscription[T, R]) OnComplete() {
	if m.done {
		return
	}
	m.done = true
	m.downstream.OnComplete()
}

// MapErr transforms each item with a fallible fn; a returned error cancels
// upstream and becomes the downstream terminal.
func MapErr[T, R any](s *Stream[T], fn func(T) (R, error)) *Stream[R] {
	return newStream(opName("map"), func(sub Subscriber[R]) {
		s.SubscribeWith(&mapSubscription[T, R]{downstream: sub, fn: fn})
	})
}

type filterSubscription[T any] struct {
	forwardingSubscription[T]
	pred func(T) bool
}

func (f *filterSubscription[T]) OnItem(v T) {
	if f.done {
		return
	}
	keep := false
	err := guard(func() { keep = f.pred(v) })
	if err != nil {
		f.errorAndCancelUpstream(err)
		return
	}
	if keep && !f.done {
		f.downstream.OnItem(v)
	}
}

// Filter drops items the predicate rejects.
func (s *Stream[T]) Filter(pred func(T) bool) *Stream[T] {
	return newStream(opName("filter"), func(sub Subscriber[T]) {
		fs := &filterSubscription[T]{pred: pred}
		fs.downstream = sub
		s.SubscribeWith(fs)
	})
}

type takeSubscription[T any] struct {
	forwardingSubscription[T]
	remaining int
}

func (t *takeSubscription[T]) OnItem(v T) {
	if t.done || t.remaining == 0 {
		return
	}
	t.remaining--
	t.downstream.OnItem(v)
	if t.remaining == 0 {
		t.completeAndCancelUpstream()
	}
}

// Take delivers the first n items then completes downstream and cancels
// upstream at the nth item boundary.
func (s *Stream[T]) Take(n int) *Stream[T] {
	apiInvariant(n > 0, "Take passed a non-positive count")
	return newStream(opName("take", strconv.Itoa(n)), func(sub Subscriber[T]) {
		ts := &takeSubscription[T]{remaining: n}
		ts.downstream = sub
		s.SubscribeWith(ts)
	})
}

type takeWhileSubscription[T any] struct {
	forwardingSubscription[T]
	pred func(T) bool
}

func (t *takeWhileSubscription[T]) OnItem(v T) {
	if t.done {
		return
	}
	keep := false
	err := guard(func() { keep = t.pred(v) })
	if err != nil {
		t.errorAndCancelUpstream(err)
		return
	}
	if t.done {
		return
	}
	if !keep {
		t.completeAndCancelUpstream()
		return
	}
	t.downstream.OnItem(v)
}

// TakeWhile delivers items until the predicate first rejects one, then
// completes without delivering it.
func (s *Stream[T]) TakeWhile(pred func(T) bool) *Stream[T] {
	return newStream(opName("takeWhile"), func(sub Subscriber[T]) {
		ts := &takeWhileSubscription[T]{pred: pred}
		ts.downstream = sub
		s.SubscribeWith(ts)
	})
}

type takeUntilSubscription[T any] struct {
	forwardingSubscription[T]
	notifier *notifierSubscription
	attached bool
}

func (t *takeUntilSubscription[T]) OnSubscribe(sub Subscription) {
	t.upstream = sub
	t.attached = true
	t.downstream.OnSubscribe(t)
}

func (t *takeUntilSubscription[T]) Cancel() {
	if t.done {
		return
	}
	t.done = true
	t.notifier.Cancel()
	if t.upstream != nil {
		t.upstream.Cancel()
	}
}

func (t *takeUntilSubscription[T]) OnError(err error) {
	if t.done {
		return
	}
	t.done = true
	t.notifier.Cancel()
	t.downstream.OnError(err)
}

func (t *takeUntilSubscription[T]) OnComplete() {
	if t.done {
		return
	}
	t.done = true
	t.notifier.Cancel()
	t.downstream.OnComplete()
}

// notifierSubscription watches a companion stream and fires a callback on
// its first item; terminals from the notifier are ignored.
type notifierSubscription struct {
	coreSubscription
	onFirst func()
}

func (n *notifierSubscription) OnSubscribe(sub Subscription) {
	n.upstream = sub
	if n.done {
		sub.Cancel()
	}
}

func (n *notifierSubscription) OnItem(struct{}) {
	if n.done {
		return
	}
	n.done = true
	if n.upstream != nil {
		n.upstream.Cancel()
	}
	n.onFirst()
}

func (n *notifierSubscription) OnError(error) {
	n.done = true
}

func (n *notifierSubscription) OnComplete() {
	n.done = true
}

// TakeUntil mirrors the upstream until the notifier emits its first item,
// then completes. A notifier that terminates without emitting never stops
// the stream.
func TakeUntil[T, U any](s *Stream[T], notifier *Stream[U]) *Stream[T] {
	return newStream(opName("takeUntil"), func(sub Subscriber[T]) {
		ts := &takeUntilSubscription[T]{}
		ts.downstream = sub
		ts.notifier = &notifierSubscription{onFirst: func() {
			if ts.attached {
				ts.completeAndCancelUpstream()
				return
			}
			ts.done = true
		}}
		Map(notifier, func(U) struct{} { return struct{}{} }).SubscribeWith(ts.notifier)
		if ts.done {
			// the notifier fired before the upstream even attached
			sub.OnSubscribe(ts)
			sub.OnComplete()
			return
		}
		s.SubscribeWith(ts)
	})
}

type skipUntilSubscription[T any] struct {
	forwardingSubscription[T]
	notifier *notifierSubscription
	open     bool
}

func (sk *skipUntilSubscription[T]) OnSubscribe(sub Subscription) {
	sk.upstream = sub
	sk.downstream.OnSubscribe(sk)
}

func (sk *skipUntilSubscription[T]) OnItem(v T) {
	if sk.done || !sk.open {
		return
	}
	sk.downstream.OnItem(v)
}

func (sk *skipUntilSubscription[T]) Cancel() {
	if sk.done {
		return
	}
	sk.done = true
	sk.notifier.Cancel()
	if sk.upstream != nil {
		sk.upstream.Cancel()
	}
}

func (sk *skipUntilSubscription[T]) OnError(err error) {
	if sk.done {
		return
	}
	sk.done = true
	sk.notifier.Cancel()
	sk.downstream.OnError(err)
}

func (sk *skipUntilSubscription[T]) OnComplete() {
	if sk.done {
		return
	}
	sk.done = true
	sk.notifier.Cancel()
	sk.downstream.OnComplete()
}

// SkipUntil swallows upstream items until the notifier emits its first
// item.
func SkipUntil[T, U any](s *Stream[T], notifier *Stream[U]) *Stream[T] {
	return newStream(opName("skipUntil"), func(sub Subscriber[T]) {
		sk := &skipUntilSubscription[T]{}
		sk.downstream = sub
		sk.notifier = &notifierSubscription{onFirst: func() {
			sk.open = true
		}}
		Map(notifier, func(U) struct{} { return struct{}{} }).SubscribeWith(sk.notifier)
		s.SubscribeWith(sk)
	})
}

type skipSubscription[T any] struct {
	forwardingSubscription[T]
	remaining int
}

func (sk *skipSubscription[T]) OnItem(v T) {
	if sk.done {
		return
	}
	if sk.remaining > 0 {
		sk.remaining--
		return
	}
	sk.downstream.OnItem(v)
}

// Skip swallows the first n items.
func (s *Stream[T]) Skip(n int) *Stream[T] {
	apiInvariant(n >= 0, "Skip passed a negative count")
	return newStream(opName("skip", strconv.Itoa(n)), func(sub Subscriber[T]) {
		sk := &skipSubscription[T]{remaining: n}
		sk.downstream = sub
		s.SubscribeWith(sk)
	})
}

type skipWhileSubscription[T any] struct {
	forwardingSubscription[T]
	pred     func(T) bool
	skipping bool
}

func (sk *skipWhileSubscription[T]) OnItem(v T) {
	if sk.done {
		return
	}
	if sk.skipping {
		drop := false
		err := guard(func() { drop = sk.pred(v) })
		if err != nil {
			sk.errorAndCancelUpstream(err)
			return
		}
		if drop {
			return
		}
		sk.skipping = false
	}
	if !sk.done {
		sk.downstream.OnItem(v)
	}
}

// SkipWhile swallows items until the predicate first rejects one; that item
// and everything after flow through.
func (s *Stream[T]) SkipWhile(pred func(T) bool) *Stream[T] {
	return newStream(opName("skipWhile"), func(sub Subscriber[T]) {
		sk := &skipWhileSubscription[T]{pred: pred, skipping: true}
		sk.downstream = sub
		s.SubscribeWith(sk)
	})
}

type distinctSubscription[T comparable] struct {
	forwardingSubscription[T]
	seen mapset.Set[T]
}

func (d *distinctSubscription[T]) OnItem(v T) {
	if d.done {
		return
	}
	if d.seen.Add(v) {
		d.downstream.OnItem(v)
	}
}

// Distinct drops items already emitted once, by value equality.
func Distinct[T comparable](s *Stream[T]) *Stream[T] {
	return newStream(opName("distinct"), func(sub Subscriber[T]) {
		ds := &distinctSubscription[T]{seen: mapset.NewThreadUnsafeSet[T]()}
		ds.downstream = sub
		s.SubscribeWith(ds)
	})
}

type filterSuccessiveSubscription[T any] struct {
	forwardingSubscription[T]
	pred    func(prev, curr T) bool
	hasPrev bool
	prev    T
}

func (f *filterSuccessiveSubscription[T]) OnItem(v T) {
	if f.done {
		return
	}
	if f.hasPrev {
		keep := false
		err := guard(func() { keep = f.pred(f.prev, v) })
		if err != nil {
			f.errorAndCancelUpstream(err)
			return
		}
		if !keep || f.done {
			return
		}
	}
	f.hasPrev = true
	f.prev = v
	f.downstream.OnItem(v)
}

// FilterSuccessive passes an item only if pred(lastEmitted, item) holds; the
// first item always passes.
func (s *Stream[T]) FilterSuccessive(pred func(prev, curr T) bool) *Stream[T] {
	return newStream(opName("filterSuccessive"), func(sub Subscriber[T]) {
		fs := &filterSuccessiveSubscription[T]{pred: pred}
		fs.downstream = sub
		s.SubscribeWith(fs)
	})
}

type defaultIfEmptySubscription[T any] struct {
	forwardingSubscription[T]
	fallback T
	any      bool
}

func (d *defaultIfEmptySubscription[T]) OnItem(v T) {
	if d.done {
		return
	}
	d.any = true
	d.downstream.OnItem(v)
}

func (d *defaultIfEmptySubscription[T]) OnComplete() {
	if d.done {
		return
	}
	if !d.any {
		d.downstream.OnItem(d.fallback)
		if d.done {
			return
		}
	}
	d.done = true
	d.downstream.OnComplete()
}

// DefaultIfEmpty emits the fallback before completing if no item arrived.
func (s *Stream[T]) DefaultIfEmpty(fallback T) *Stream[T] {
	return newStream(opName("defaultIfEmpty"), func(sub Subscriber[T]) {
		ds := &defaultIfEmptySubscription[T]{fallback: fallback}
		ds.downstream = sub
		s.SubscribeWith(ds)
	})
}

// startWithSubscription fronts the downstream before the upstream exists:
// the prefix is emitted first, then the upstream is attached without a
// second OnSubscribe so the downstream sees one seamless sequence.
type startWithSubscription[T any] struct {
	coreSubscription
	downstream Subscriber[T]
}

func (sw *startWithSubscription[T]) OnSubscribe(sub Subscription) {
	sw.upstream = sub
}

func (sw *startWithSubscription[T]) OnItem(v T) {
	if sw.done {
		return
	}
	sw.downstream.OnItem(v)
}

func (sw *startWithSubscription[T]) OnError(err error) {
	if sw.done {
		return
	}
	sw.done = true
	sw.downstream.OnError(err)
}

func (sw *startWithSubscription[T]) OnComplete() {
	if sw.done {
		return
	}
	sw.done = true
	sw.downstream.OnComplete()
}

// StartWith emits the given items before anything from the upstream.
func (s *Stream[T]) StartWith(items ...T) *Stream[T] {
	return newStream(opName("startWith", strconv.Itoa(len(items))), func(sub Subscriber[T]) {
		sw := &startWithSubscription[T]{downstream: sub}
		sub.OnSubscribe(sw)
		for _, v := range items {
			if sw.done {
				return
			}
			sub.OnItem(v)
		}
		if sw.done {
			return
		}
		s.SubscribeWith(sw)
	})
}

type scanSubscription[T, R any] struct {
	coreSubscription
	downstream Subscriber[R]
	fn         func(acc R, v T) R
	acc        R
}

func (sc *scanSubscription[T, R]) OnSubscribe(sub Subscription) {
	sc.upstream = sub
	sc.downstream.OnSubscribe(sc)
}

func (sc *scanSubscription[T, R]) OnItem(v T) {
	if sc.done {
		return
	}
	err := guard(func() { sc.acc = sc.fn(sc.acc, v) })
	if err != nil {
		sc.done = true
		if sc.upstream != nil {
			sc.upstream.Cancel()
		}
		sc.downstream.OnError(err)
		return
	}
	if sc.done {
		return
	}
	sc.downstream.OnItem(sc.acc)
}

func (sc *scanSubscription[T, R]) OnError(err error) {
	if sc.done {
		return
	}
	sc.done = true
	sc.downstream.OnError(err)
}

func (sc *scanSubscription[T, R]) OnComplete() {
	if sc.done {
		return
	}
	sc.done = true
	sc.downstream.OnComplete()
}

// Scan folds items with fn, emitting each intermediate accumulator.
func Scan[T, R any](s *Stream[T], initial R, fn func(acc R, v T) R) *Stream[R] {
	return newStream(opName("scan"), func(sub Subscriber[R]) {
		s.SubscribeWith(&scanSubscription[T, R]{downstream: sub, fn: fn, acc: initial})
	})
}

// First takes the first item only.
func (s *Stream[T]) First() *Stream[T] {
	return s.Take(1)
}

type ignoreElementsSubscription[T any] struct {
	forwardingSubscription[T]
}

func (ig *ignoreElementsSubscription[T]) OnItem(T) {}

// IgnoreElements swallows every item and forwards only the terminal signal.
func (s *Stream[T]) IgnoreElements() *Stream[T] {
	return newStream(opName("ignoreElements"), func(sub Subscriber[T]) {
		ig := &ignoreElementsSubscription[T]{}
		ig.downstream = sub
		s.SubscribeWith(ig)
	})
}
