package stream

import (
	"strconv"

	"github.com/delaneyj/streamparty/ring"
)

// mergeSubscription runs up to maxConcurrency inner streams at once,
// interleaving their items. Extra inner streams queue in arrival order.
type mergeSubscription[T any] struct {
	coreSubscription
	downstream     Subscriber[T]
	maxConcurrency int
	active         []*mergeInner[T]
	pending        *ring.Buffer[*Stream[T]]
	outerDone      bool
}

func (m *mergeSubscription[T]) OnSubscribe(sub Subscription) {
	m.upstream = sub
	m.downstream.OnSubscribe(m)
}

func (m *mergeSubscription[T]) OnItem(inner *Stream[T]) {
	if m.done {
		return
	}
	if len(m.active) < m.maxConcurrency {
		m.startInner(inner)
	} else {
		m.pending.Add(inner)
	}
}

func (m *mergeSubscription[T]) OnError(err error) {
	m.terminate(err)
}

func (m *mergeSubscription[T]) OnComplete() {
	if m.done {
		return
	}
	m.outerDone = true
	if len(m.active) == 0 && m.pending.IsEmpty() {
		m.done = true
		m.downstream.OnComplete()
	}
}

func (m *mergeSubscription[T]) Cancel() {
	if m.done {
		return
	}
	m.done = true
	if m.upstream != nil {
		m.upstream.Cancel()
	}
	m.cancelInners(nil)
	m.pending.Clear()
}

func (m *mergeSubscription[T]) startInner(inner *Stream[T]) {
	mi := &mergeInner[T]{parent: m}
	m.active = append(m.active, mi)
	inner.SubscribeWith(mi)
}

func (m *mergeSubscription[T]) innerComplete(mi *mergeInner[T]) {
	if m.done {
		return
	}
	m.removeInner(mi)
	if next, ok := m.pending.Pop(); ok {
		m.startInner(next)
		return
	}
	if m.outerDone && len(m.active) == 0 {
		m.done = true
		m.downstream.OnComplete()
	}
}

// terminate handles an error from the outer or any inner: cancel everything
// still live, propagate once.
func (m *mergeSubscription[T]) terminate(err error) {
	if m.done {
		return
	}
	m.done = true
	if m.upstream != nil {
		m.upstream.Cancel()
	}
	m.cancelInners(nil)
	m.pending.Clear()
	m.downstream.OnError(err)
}

func (m *mergeSubscription[T]) terminateFromInner(source *mergeInner[T], err error) {
	if m.done {
		return
	}
	m.done = true
	if m.upstream != nil {
		m.upstream.Cancel()
	}
	m.cancelInners(source)
	m.pending.Clear()
	m.downstream.OnError(err)
}

func (m *mergeSubscription[T]) cancelInners(except *mergeInner[T]) {
	for _, mi := range m.active {
		if mi != except {
			mi.Cancel()
		}
	}
	m.active = nil
}

func (m *mergeSubscription[T]) removeInner(mi *mergeInner[T]) {
	for i, other := range m.active {
		if other == mi {
			m.active = append(m.active[:i], m.active[i+1:]...)
			return
		}
	}
}

type mergeInner[T any] struct {
	coreSubscription
	parent *mergeSubscription[T]
}

func (mi *mergeInner[T]) OnSubscribe(sub Subscription) {
	mi.upstream = sub
	if mi.done {
		sub.Cancel()
	}
}

func (mi *mergeInner[T]) OnItem(v T) {
	if mi.done || mi.parent.done {
		return
	}
	mi.parent.downstream.OnItem(v)
}

func (mi *mergeInner[T]) OnError(err error) {
	if mi.done {
		return
	}
	mi.done = true
	mi.parent.terminateFromInner(mi, err)
}

func (mi *mergeInner[T]) OnComplete() {
	if mi.done {
		return
	}
	mi.done = true
	mi.parent.innerComplete(mi)
}

// Merge subscribes up to maxConcurrency inner streams at once and
// interleaves their items; further inner streams wait in arrival order.
func Merge[T any](s *Stream[*Stream[T]], maxConcurrency int) *Stream[T] {
	apiInvariant(maxConcurrency > 0, "Merge passed a non-positive concurrency")
	return newStream(opName("merge", strconv.Itoa(maxConcurrency)), func(sub Subscriber[T]) {
		s.SubscribeWith(&mergeSubscription[T]{
			downstream:     sub,
			maxConcurrency: maxConcurrency,
			pending:        ring.NewBuffer[*Stream[T]](4),
		})
	})
}

// MergeMap maps each item to a stream and merges up to maxConcurrency of
// them.
func MergeMap[T, R any](s *Stream[T], fn func(T) *Stream[R], maxConcurrency int) *Stream[R] {
	return Merge(Map(s, fn), maxConcurrency)
}

// Concat serializes inner streams: each runs to completion before the next
// starts.
func Concat[T any](s *Stream[*Stream[T]]) *Stream[T] {
	return Merge(s, 1)
}

// ConcatMap maps each item to a stream and concatenates the results.
func ConcatMap[T, R any](s *Stream[T], fn func(T) *Stream[R]) *Stream[R] {
	return MergeMap(s, fn, 1)
}

// switchSubscription keeps at most one inner live; a new outer item cancels
// the previous inner.
type switchSubscription[T any] struct {
	coreSubscription
	downstream Subscriber[T]
	active     *switchInner[T]
	outerDone  bool
}

func (sw *switchSubscription[T]) OnSubscribe(sub Subscription) {
	sw.upstream = sub
	sw.downstream.OnSubscribe(sw)
}

func (sw *switchSubscription[T]) OnItem(inner *Stream[T]) {
	if sw.done {
		return
	}
	if sw.active != nil {
		sw.active.detach()
	}
	si := &switchInner[T]{parent: sw}
	sw.active = si
	inner.SubscribeWith(si)
}

func (sw *switchSubscription[T]) OnError(err error) {
	if sw.done {
		return
	}
	sw.done = true
	if sw.active != nil {
		sw.active.detach()
		sw.active = nil
	}
	sw.downstream.OnError(err)
}

func (sw *switchSubscription[T]) OnComplete() {
	if sw.done {
		return
	}
	sw.outerDone = true
	if sw.active == nil {
		sw.done = true
		sw.downstream.OnComplete()
	}
}

func (sw *switchSubscription[T]) Cancel() {
	if sw.done {
		return
	}
	sw.done = true
	if sw.upstream != nil {
		sw.upstream.Cancel()
	}
	if sw.active != nil {
		sw.active.detach()
		sw.active = nil
	}
}

func (sw *switchSubscription[T]) innerComplete(si *switchInner[T]) {
	if sw.done || sw.active != si {
		return
	}
	sw.active = nil
	if sw.outerDone {
		sw.done = true
		sw.downstream.OnComplete()
	}
}

func (sw *switchSubscription[T]) innerError(si *switchInner[T], err error) {
	if sw.done || sw.active != si {
		return
	}
	sw.active = nil
	sw.done = true
	if sw.upstream != nil {
		sw.upstream.Cancel()
	}
	sw.downstream.OnError(err)
}

type switchInner[T any] struct {
	coreSubscription
	parent *switchSubscription[T]
}

func (si *switchInner[T]) detach() {
	si.Cancel()
}

func (si *switchInner[T]) OnSubscribe(sub Subscription) {
	si.upstream = sub
	if si.done {
		sub.Cancel()
	}
}

func (si *switchInner[T]) OnItem(v T) {
	if si.done || si.parent.done {
		return
	}
	si.parent.downstream.OnItem(v)
}

func (si *switchInner[T]) OnError(err error) {
	if si.done {
		return
	}
	si.done = true
	si.parent.innerError(si, err)
}

func (si *switchInner[T]) OnComplete() {
	if si.done {
		return
	}
	si.done = true
	si.parent.innerComplete(si)
}

// Switch mirrors only the most recent inner stream, cancelling the previous
// one when a new outer item arrives.
func Switch[T any](s *Stream[*Stream[T]]) *Stream[T] {
	return newStream(opName("switch"), func(sub Subscriber[T]) {
		s.SubscribeWith(&switchSubscription[T]{downstream: sub})
	})
}

// SwitchMap maps each item to a stream and switches to it.
func SwitchMap[T, R any](s *Stream[T], fn func(T) *Stream[R]) *Stream[R] {
	return Switch(Map(s, fn))
}

// exhaustSubscription is the mirror of switch: while an inner is live,
// outer items are dropped rather than replacing it.
type exhaustSubscription[T any] struct {
	coreSubscription
	downstream Subscriber[T]
	active     *exhaustInner[T]
	outerDone  bool
}

func (ex *exhaustSubscription[T]) OnSubscribe(sub Subscription) {
	ex.upstream = sub
	ex.downstream.OnSubscribe(ex)
}

func (ex *exhaustSubscription[T]) OnItem(inner *Stream[T]) {
	if ex.done || ex.active != nil {
		return
	}
	ei := &exhaustInner[T]{parent: ex}
	ex.active = ei
	inner.SubscribeWith(ei)
}

func (ex *exhaustSubscription[T]) OnError(err error) {
	if ex.done {
		return
	}
	ex.done = true
	if ex.active != nil {
		ex.active.Cancel()
		ex.active = nil
	}
	ex.downstream.OnError(err)
}

func (ex *exhaustSubscription[T]) OnComplete() {
	if ex.done {
		return
	}
	ex.outerDone = true
	if ex.active == nil {
		ex.done = true
		ex.downstream.OnComplete()
	}
}

func (ex *exhaustSubscription[T]) Cancel() {
	if ex.done {
		return
	}
	ex.done = true
	if ex.upstream != nil {
		ex.upstream.Cancel()
	}
	if ex.active != nil {
		ex.active.Cancel()
		ex.active = nil
	}
}

func (ex *exhaustSubscription[T]) innerComplete(ei *exhaustInner[T]) {
	if ex.done || ex.active != ei {
		return
	}
	ex.active = nil
	if ex.outerDone {
		ex.done = true
		ex.downstream.OnComplete()
	}
}

func (ex *exhaustSubscription[T]) innerError(ei *exhaustInner[T], err error) {
	if ex.done || ex.active != ei {
		return
	}
	ex.active = nil
	ex.done = true
	if ex.upstream != nil {
		ex.upstream.Cancel()
	}
	ex.downstream.OnError(err)
}

type exhaustInner[T any] struct {
	coreSubscription
	parent *exhaustSubscription[T]
}

func (ei *exhaustInner[T]) OnSubscribe(sub Subscription) {
	ei.upstream = sub
	if ei.done {
		sub.Cancel()
	}
}

func (ei *exhaustInner[T]) OnItem(v T) {
	if ei.done || ei.parent.done {
		return
	}
	ei.parent.downstream.OnItem(v)
}

func (ei *exhaustInner[T]) OnError(err error) {
	if ei.done {
		return
	}
	ei.done = true
	ei.parent.innerError(ei, err)
}

func (ei *exhaustInner[T]) OnComplete() {
	if ei.done {
		return
	}
	ei.done = true
	ei.parent.innerComplete(ei)
}

// Exhaust mirrors the first live inner stream and drops outer items that
// arrive while it runs; once it completes the next outer item may start a
// new inner.
func Exhaust[T any](s *Stream[*Stream[T]]) *Stream[T] {
	return newStream(opName("exhaust"), func(sub Subscriber[T]) {
		s.SubscribeWith(&exhaustSubscription[T]{downstream: sub})
	})
}

// ExhaustMap maps each item to a stream, ignoring items that arrive while
// the current mapped stream is live.
func ExhaustMap[T, R any](s *Stream[T], fn func(T) *Stream[R]) *Stream[R] {
	return Exhaust(Map(s, fn))
}
