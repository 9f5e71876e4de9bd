package stream

import (
	"strconv"

	"github.com/delaneyj/streamparty/ring"
	"github.com/google/uuid"
)

type hubKind uint8

const (
	kindSubject hubKind = iota
	kindReplay
	kindBehavior
	kindAsync
)

// Hub is a multicast fan-out: items arriving from any upstream (or pushed
// directly via Next) broadcast in registration order to the current
// downstream subscribers. A terminal signal is latched so late subscribers
// observe it immediately. The variants differ only in what they cache for
// late subscribers.
type Hub[T any] struct {
	kind       hubKind
	name       string
	downstream []*hubEntry[T]
	upstreams  []*hubUpstream[T]
	replay     *ring.Buffer[T]
	replayCap  int
	last       T
	hasLast    bool
	terminated bool
	err        error
}

// NewSubject broadcasts items as-is with no caching.
func NewSubject[T any]() *Hub[T] {
	return &Hub[T]{kind: kindSubject, name: opName("subject")}
}

// NewReplaySubject caches the last n items; a new subscriber receives them
// in order before anything live.
func NewReplaySubject[T any](n int) *Hub[T] {
	apiInvariant(n > 0, "NewReplaySubject passed a non-positive count")
	return &Hub[T]{
		kind:      kindReplay,
		name:      opName("replaySubject", strconv.Itoa(n)),
		replay:    ring.NewBuffer[T](n),
		replayCap: n,
	}
}

// NewBehaviorSubject is a replay of one, seeded with an initial value.
func NewBehaviorSubject[T any](initial T) *Hub[T] {
	h := &Hub[T]{
		kind:      kindBehavior,
		name:      opName("behaviorSubject"),
		replay:    ring.NewBuffer[T](1),
		replayCap: 1,
	}
	h.replay.Add(initial)
	return h
}

// NewAsyncSubject holds only the most recent item and emits it, if any,
// only on completion.
func NewAsyncSubject[T any]() *Hub[T] {
	return &Hub[T]{kind: kindAsync, name: opName("asyncSubject")}
}

func (h *Hub[T]) Name() string {
	return h.name
}

func (h *Hub[T]) IsTerminated() bool {
	return h.terminated
}

// DownstreamCount reports the live downstream subscribers.
func (h *Hub[T]) DownstreamCount() int {
	count := 0
	for _, e := range h.downstream {
		if !e.done {
			count++
		}
	}
	return count
}

// Next pushes an item into the hub. Dropped after a terminal.
func (h *Hub[T]) Next(v T) {
	if h.terminated {
		return
	}
	switch h.kind {
	case kindReplay, kindBehavior:
		if h.replay.Size() == h.replayCap {
			h.replay.Pop()
		}
		h.replay.Add(v)
	case kindAsync:
		h.last = v
		h.hasLast = true
		return
	}
	h.broadcastItem(v)
}

// Error latches err and broadcasts it. An async hub discards its held item.
func (h *Hub[T]) Error(err error) {
	apiInvariant(err != nil, "Hub.Error passed a nil error")
	if h.terminated {
		return
	}
	h.terminated = true
	h.err = err
	h.hasLast = false
	for _, e := range h.snapshot() {
		if e.done {
			continue
		}
		e.done = true
		e.sub.OnError(err)
	}
	h.downstream = nil
	h.terminateUpstreams()
}

// Complete latches completion and broadcasts it. An async hub first emits
// its held item.
func (h *Hub[T]) Complete() {
	if h.terminated {
		return
	}
	h.terminated = true
	if h.kind == kindAsync && h.hasLast {
		h.broadcastItem(h.last)
	}
	for _, e := range h.snapshot() {
		if e.done {
			continue
		}
		e.done = true
		e.sub.OnComplete()
	}
	h.downstream = nil
	h.terminateUpstreams()
}

// AsStream exposes the hub as a subscribable stream. A late subscriber (one
// arriving after the terminal) receives the variant's cached items and then
// the latched terminal.
func (h *Hub[T]) AsStream() *Stream[T] {
	return newStream(h.name, func(sub Subscriber[T]) {
		entry := &hubEntry[T]{id: uuid.New(), hub: h, sub: sub}
		sub.OnSubscribe(entry)
		if entry.done {
			return
		}
		if !h.replayTo(entry) {
			return
		}
		if h.terminated {
			entry.done = true
			if h.err != nil {
				sub.OnError(h.err)
			} else {
				sub.OnComplete()
			}
			return
		}
		h.downstream = append(h.downstream, entry)
	})
}

// replayTo delivers the cached backlog; false means the subscriber cancelled
// mid-replay.
func (h *Hub[T]) replayTo(entry *hubEntry[T]) bool {
	switch h.kind {
	case kindReplay, kindBehavior:
		ok := true
		h.replay.ForEach(func(v T) bool {
			if entry.done {
				ok = false
				return false
			}
			entry.sub.OnItem(v)
			return true
		})
		if !ok || entry.done {
			return false
		}
	case kindAsync:
		if h.terminated && h.err == nil && h.hasLast {
			entry.sub.OnItem(h.last)
			if entry.done {
				return false
			}
		}
	}
	return true
}

func (h *Hub[T]) broadcastItem(v T) {
	for _, e := range h.snapshot() {
		if e.done {
			continue
		}
		e.sub.OnItem(v)
	}
}

// snapshot freezes the subscriber list at broadcast start: additions during
// the broadcast see items only from the next one onward, removals are
// honored immediately via the done flag.
func (h *Hub[T]) snapshot() []*hubEntry[T] {
	out := make([]*hubEntry[T], len(h.downstream))
	copy(out, h.downstream)
	return out
}

func (h *Hub[T]) remove(id uuid.UUID) {
	for i, e := range h.downstream {
		if e.id == id {
			h.downstream = append(h.downstream[:i], h.downstream[i+1:]...)
			return
		}
	}
}

func (h *Hub[T]) terminateUpstreams() {
	ups := h.upstreams
	h.upstreams = nil
	for _, u := range ups {
		u.Cancel()
	}
}

// SubscribeTo feeds the hub from an upstream stream. A hub may have any
// number of upstreams; their items interleave in arrival order. The
// returned subscription detaches just that upstream.
func (h *Hub[T]) SubscribeTo(s *Stream[T]) Subscription {
	u := &hubUpstream[T]{hub: h}
	s.SubscribeWith(u)
	return u
}

// hubEntry is one downstream registration, keyed by id; cancelling just
// removes that id from its hub's downstream list.
type hubEntry[T any] struct {
	id   uuid.UUID
	hub  *Hub[T]
	sub  Subscriber[T]
	done bool
}

func (e *hubEntry[T]) Cancel() {
	if e.done {
		return
	}
	e.done = true
	e.hub.remove(e.id)
}

// hubUpstream adapts the hub onto the subscriber contract so it can sit
// downstream of an ordinary stream.
type hubUpstream[T any] struct {
	coreSubscription
	hub *Hub[T]
}

func (u *hubUpstream[T]) OnSubscribe(sub Subscription) {
	u.upstream = sub
	if u.done || u.hub.terminated {
		u.done = true
		sub.Cancel()
		return
	}
	u.hub.upstreams = append(u.hub.upstreams, u)
}

func (u *hubUpstream[T]) OnItem(v T) {
	if u.done {
		return
	}
	u.hub.Next(v)
}

func (u *hubUpstream[T]) OnError(err error) {
	if u.done {
		return
	}
	u.done = true
	u.hub.Error(err)
}

func (u *hubUpstream[T]) OnComplete() {
	if u.done {
		return
	}
	u.done = true
	u.hub.Complete()
}
