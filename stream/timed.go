package stream

import (
	"strconv"

	"github.com/delaneyj/streamparty/vpu"
)

type debounceSubscription[T any] struct {
	forwardingSubscription[T]
	selector func(T) int64
	timer    *vpu.TimerHandle
	pending  T
	latched  bool
}

func (d *debounceSubscription[T]) OnSubscribe(sub Subscription) {
	d.upstream = sub
	d.downstream.OnSubscribe(d)
}

func (d *debounceSubscription[T]) OnItem(v T) {
	if d.done {
		return
	}
	var delay int64
	err := guard(func() { delay = d.selector(v) })
	if err != nil {
		d.cancelTimer()
		d.errorAndCancelUpstream(err)
		return
	}
	d.cancelTimer()
	d.pending = v
	d.latched = true
	d.timer = sched().Schedule(opName("debounce"), delay, func() {
		if d.done || !d.latched {
			return
		}
		item := d.pending
		d.latched = false
		d.downstream.OnItem(item)
	})
}

func (d *debounceSubscription[T]) OnError(err error) {
	if d.done {
		return
	}
	d.cancelTimer()
	d.latched = false
	d.done = true
	d.downstream.OnError(err)
}

// OnComplete flushes an undelivered latched item before completing.
func (d *debounceSubscription[T]) OnComplete() {
	if d.done {
		return
	}
	d.cancelTimer()
	if d.latched {
		d.latched = false
		d.downstream.OnItem(d.pending)
		if d.done {
			return
		}
	}
	d.done = true
	d.downstream.OnComplete()
}

func (d *debounceSubscription[T]) Cancel() {
	if d.done {
		return
	}
	d.done = true
	d.cancelTimer()
	if d.upstream != nil {
		d.upstream.Cancel()
	}
}

func (d *debounceSubscription[T]) cancelTimer() {
	if d.timer != nil {
		d.timer.Cancel()
		d.timer = nil
	}
}

// Debounce delays each item by selector(item); an item arriving before the
// previous timer fires replaces it, so only the latest quiet item emits.
func (s *Stream[T]) Debounce(selector func(T) int64) *Stream[T] {
	return newStream(opName("debounce"), func(sub Subscriber[T]) {
		ds := &debounceSubscription[T]{selector: selector}
		ds.downstream = sub
		s.SubscribeWith(ds)
	})
}

type throttleLatestSubscription[T any] struct {
	forwardingSubscription[T]
	period     int64
	timer      *vpu.TimerHandle
	windowOpen bool
	latest     T
	hasLatest  bool
}

func (t *throttleLatestSubscription[T]) OnSubscribe(sub Subscription) {
	t.upstream = sub
	t.downstream.OnSubscribe(t)
}

func (t *throttleLatestSubscription[T]) OnItem(v T) {
	if t.done {
		return
	}
	if t.windowOpen {
		t.latest = v
		t.hasLatest = true
		return
	}
	t.downstream.OnItem(v)
	if t.done {
		return
	}
	t.openWindow()
}

func (t *throttleLatestSubscription[T]) openWindow() {
	t.windowOpen = true
	t.hasLatest = false
	t.timer = sched().Schedule(opName("throttleLatest"), t.period, func() {
		if t.done {
			return
		}
		t.windowOpen = false
		if t.hasLatest {
			item := t.latest
			t.hasLatest = false
			t.downstream.OnItem(item)
			if t.done {
				return
			}
			t.openWindow()
		}
	})
}

func (t *throttleLatestSubscription[T]) OnError(err error) {
	if t.done {
		return
	}
	t.cancelTimer()
	t.done = true
	t.downstream.OnError(err)
}

func (t *throttleLatestSubscription[T]) OnComplete() {
	if t.done {
		return
	}
	t.cancelTimer()
	t.done = true
	t.downstream.OnComplete()
}

func (t *throttleLatestSubscription[T]) Cancel() {
	if t.done {
		return
	}
	t.done = true
	t.cancelTimer()
	if t.upstream != nil {
		t.upstream.Cancel()
	}
}

func (t *throttleLatestSubscription[T]) cancelTimer() {
	if t.timer != nil {
		t.timer.Cancel()
		t.timer = nil
	}
}

// ThrottleLatest emits the first item immediately, then at most one item
// per period: the most recent one to arrive during the window.
func (s *Stream[T]) ThrottleLatest(period int64) *Stream[T] {
	apiInvariant(period > 0, "ThrottleLatest passed a non-positive period")
	return newStream(opName("throttleLatest", strconv.FormatInt(period, 10)), func(sub Subscriber[T]) {
		ts := &throttleLatestSubscription[T]{period: period}
		ts.downstream = sub
		s.SubscribeWith(ts)
	})
}

type sampleSubscription[T any] struct {
	forwardingSubscription[T]
	period int64
	timer  *vpu.TimerHandle
	latest T
	fresh  bool
}

func (sm *sampleSubscription[T]) OnSubscribe(sub Subscription) {
	sm.upstream = sub
	sm.downstream.OnSubscribe(sm)
	if sm.done {
		return
	}
	sm.timer = sched().ScheduleAtFixedRate(opName("sample"), sm.period, func() {
		if sm.done || !sm.fresh {
			return
		}
		sm.fresh = false
		sm.downstream.OnItem(sm.latest)
	})
}

func (sm *sampleSubscription[T]) OnItem(v T) {
	if sm.done {
		return
	}
	sm.latest = v
	sm.fresh = true
}

func (sm *sampleSubscription[T]) OnError(err error) {
	if sm.done {
		return
	}
	sm.cancelTimer()
	sm.done = true
	sm.downstream.OnError(err)
}

func (sm *sampleSubscription[T]) OnComplete() {
	if sm.done {
		return
	}
	sm.cancelTimer()
	sm.done = true
	sm.downstream.OnComplete()
}

func (sm *sampleSubscription[T]) Cancel() {
	if sm.done {
		return
	}
	sm.done = true
	sm.cancelTimer()
	if sm.upstream != nil {
		sm.upstream.Cancel()
	}
}

func (sm *sampleSubscription[T]) cancelTimer() {
	if sm.timer != nil {
		sm.timer.Cancel()
		sm.timer = nil
	}
}

// Sample emits the most recent item, if any arrived, every period.
func (s *Stream[T]) Sample(period int64) *Stream[T] {
	apiInvariant(period > 0, "Sample passed a non-positive period")
	return newStream(opName("sample", strconv.FormatInt(period, 10)), func(sub Subscriber[T]) {
		sm := &sampleSubscription[T]{period: period}
		sm.downstream = sub
		s.SubscribeWith(sm)
	})
}

type delaySubscription[T any] struct {
	forwardingSubscription[T]
	delay int64
}

func (d *delaySubscription[T]) OnSubscribe(sub Subscription) {
	d.upstream = sub
	d.downstream.OnSubscribe(d)
}

func (d *delaySubscription[T]) OnItem(v T) {
	if d.done {
		return
	}
	sched().Schedule(opName("delay"), d.delay, func() {
		if d.done {
			return
		}
		d.downstream.OnItem(v)
	})
}

func (d *delaySubscription[T]) OnError(err error) {
	if d.done {
		return
	}
	// errors jump the queue, matching the upstream terminating at once
	d.done = true
	d.downstream.OnError(err)
}

func (d *delaySubscription[T]) OnComplete() {
	if d.done {
		return
	}
	sched().Schedule(opName("delay"), d.delay, func() {
		if d.done {
			return
		}
		d.done = true
		d.downstream.OnComplete()
	})
}

// Delay shifts items and completion later by delay on the scheduler clock.
// The scheduler fires same-due timers in scheduling order, so item order is
// preserved.
func (s *Stream[T]) Delay(delay int64) *Stream[T] {
	apiInvariant(delay >= 0, "Delay passed a negative delay")
	return newStream(opName("delay", strconv.FormatInt(delay, 10)), func(sub Subscriber[T]) {
		ds := &delaySubscription[T]{delay: delay}
		ds.downstream = sub
		s.SubscribeWith(ds)
	})
}

type observeOnSubscription[T any] struct {
	forwardingSubscription[T]
	unit *vpu.Unit
}

func (o *observeOnSubscription[T]) OnSubscribe(sub Subscription) {
	o.upstream = sub
	o.downstream.OnSubscribe(o)
}

func (o *observeOnSubscription[T]) OnItem(v T) {
	if o.done {
		return
	}
	o.unit.Queue(vpu.NewTask(opName("observeOn"), vpu.PriorityDefault, func() {
		if o.done {
			return
		}
		o.downstream.OnItem(v)
	}))
}

func (o *observeOnSubscription[T]) OnError(err error) {
	if o.done {
		return
	}
	o.unit.Queue(vpu.NewTask(opName("observeOn"), vpu.PriorityDefault, func() {
		if o.done {
			return
		}
		o.done = true
		o.downstream.OnError(err)
	}))
}

func (o *observeOnSubscription[T]) OnComplete() {
	if o.done {
		return
	}
	o.unit.Queue(vpu.NewTask(opName("observeOn"), vpu.PriorityDefault, func() {
		if o.done {
			return
		}
		o.done = true
		o.downstream.OnComplete()
	}))
}

// ObserveOn moves every downstream signal onto the target unit's queue,
// introducing an asynchronous boundary below this stage.
func (s *Stream[T]) ObserveOn(unit *vpu.Unit) *Stream[T] {
	apiInvariant(unit != nil, "ObserveOn passed a nil unit")
	return newStream(opName("observeOn"), func(sub Subscriber[T]) {
		os := &observeOnSubscription[T]{unit: unit}
		os.downstream = sub
		s.SubscribeWith(os)
	})
}

// subscribeOnProxy stands in for the upstream subscription until the
// deferred subscribe task has run.
type subscribeOnProxy[T any] struct {
	coreSubscription
	downstream Subscriber[T]
}

func (p *subscribeOnProxy[T]) OnSubscribe(sub Subscription) {
	p.upstream = sub
	if p.done {
		sub.Cancel()
	}
}

func (p *subscribeOnProxy[T]) OnItem(v T) {
	if p.done {
		return
	}
	p.downstream.OnItem(v)
}

func (p *subscribeOnProxy[T]) OnError(err error) {
	if p.done {
		return
	}
	p.done = true
	p.downstream.OnError(err)
}

func (p *subscribeOnProxy[T]) OnComplete() {
	if p.done {
		return
	}
	p.done = true
	p.downstream.OnComplete()
}

// SubscribeOn performs the upstream subscription inside a task on the
// target unit. The downstream receives its subscription immediately and can
// cancel before the upstream ever starts.
func (s *Stream[T]) SubscribeOn(unit *vpu.Unit) *Stream[T] {
	apiInvariant(unit != nil, "SubscribeOn passed a nil unit")
	return newStream(opName("subscribeOn"), func(sub Subscriber[T]) {
		proxy := &subscribeOnProxy[T]{downstream: sub}
		sub.OnSubscribe(proxy)
		unit.Queue(vpu.NewTask(opName("subscribeOn"), vpu.PriorityDefault, func() {
			if proxy.done {
				return
			}
			s.SubscribeWith(proxy)
		}))
	})
}
