package stream

// Connectable pairs a source stream with a hub. Downstream subscribers
// attach to the hub freely; the hub only subscribes to the source when
// Connect is called, and Disconnect cancels that upstream subscription.
type Connectable[T any] struct {
	source *Stream[T]
	hub    *Hub[T]
	conn   *hubUpstream[T]
}

// Publish wraps the source with a plain subject hub.
func Publish[T any](s *Stream[T]) *Connectable[T] {
	return &Connectable[T]{source: s, hub: NewSubject[T]()}
}

// PublishReplay wraps the source with a replay(n) hub.
func PublishReplay[T any](s *Stream[T], n int) *Connectable[T] {
	return &Connectable[T]{source: s, hub: NewReplaySubject[T](n)}
}

// PublishBehavior wraps the source with a behavior hub seeded with initial.
func PublishBehavior[T any](s *Stream[T], initial T) *Connectable[T] {
	return &Connectable[T]{source: s, hub: NewBehaviorSubject(initial)}
}

// PublishLast wraps the source with an async hub: subscribers get only the
// final item, on completion.
func PublishLast[T any](s *Stream[T]) *Connectable[T] {
	return &Connectable[T]{source: s, hub: NewAsyncSubject[T]()}
}

func (c *Connectable[T]) Hub() *Hub[T] {
	return c.hub
}

func (c *Connectable[T]) IsConnected() bool {
	return c.conn != nil && !c.conn.done
}

// Connect subscribes the hub to the source. Idempotent while connected.
func (c *Connectable[T]) Connect() {
	if c.IsConnected() || c.hub.terminated {
		return
	}
	conn := &hubUpstream[T]{hub: c.hub}
	c.conn = conn
	c.source.SubscribeWith(conn)
}

// Disconnect cancels the upstream subscription; the hub and its downstream
// subscribers stay attached.
func (c *Connectable[T]) Disconnect() {
	if c.conn != nil {
		c.conn.Cancel()
		c.conn = nil
	}
}

// AsStream subscribes through to the hub.
func (c *Connectable[T]) AsStream() *Stream[T] {
	return c.hub.AsStream()
}

// RefCount connects on the first downstream subscriber and disconnects when
// the last one leaves: no upstream subscription exists while the downstream
// count is zero.
func (c *Connectable[T]) RefCount() *Stream[T] {
	rc := &refCounter[T]{connectable: c}
	return newStream(opName("refCount"), func(sub Subscriber[T]) {
		rs := &refCountSubscription[T]{rc: rc, downstream: sub}
		c.hub.AsStream().SubscribeWith(rs)
		// connect only after this subscriber is registered on the hub so a
		// synchronously-draining source is not missed
		if !rs.done {
			rs.acquired = true
			rc.acquire()
		}
	})
}

type refCounter[T any] struct {
	connectable *Connectable[T]
	count       int
}

func (rc *refCounter[T]) acquire() {
	rc.count++
	if rc.count == 1 {
		rc.connectable.Connect()
	}
}

func (rc *refCounter[T]) release() {
	if rc.count == 0 {
		return
	}
	rc.count--
	if rc.count == 0 {
		rc.connectable.Disconnect()
	}
}

// refCountSubscription forwards hub signals and folds its lifetime into the
// shared counter: cancel or a terminal both release.
type refCountSubscription[T any] struct {
	coreSubscription
	rc         *refCounter[T]
	downstream Subscriber[T]
	acquired   bool
	released   bool
}

func (r *refCountSubscription[T]) OnSubscribe(sub Subscription) {
	r.upstream = sub
	r.downstream.OnSubscribe(r)
}

func (r *refCountSubscription[T]) OnItem(v T) {
	if r.done {
		return
	}
	r.downstream.OnItem(v)
}

func (r *refCountSubscription[T]) OnError(err error) {
	if r.done {
		return
	}
	r.done = true
	r.release()
	r.downstream.OnError(err)
}

func (r *refCountSubscription[T]) OnComplete() {
	if r.done {
		return
	}
	r.done = true
	r.release()
	r.downstream.OnComplete()
}

func (r *refCountSubscription[T]) Cancel() {
	if r.done {
		return
	}
	r.done = true
	if r.upstream != nil {
		r.upstream.Cancel()
	}
	r.release()
}

func (r *refCountSubscription[T]) release() {
	if !r.acquired || r.released {
		return
	}
	r.released = true
	r.rc.release()
}
