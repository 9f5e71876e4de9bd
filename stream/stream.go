package stream

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Subscription is the cancel capability a stream hands its subscriber.
// Cancellation is idempotent and propagates upstream.
type Subscription interface {
	Cancel()
}

// Subscriber consumes the four lifecycle signals. OnSubscribe is delivered
// exactly once, before anything else; OnError and OnComplete are terminal
// and mutually exclusive; after a terminal signal or after Cancel returns,
// no further signals are delivered.
type Subscriber[T any] interface {
	OnSubscribe(Subscription)
	OnItem(T)
	OnError(error)
	OnComplete()
}

// Stream describes how to produce a sequence of items terminated by a
// complete or error signal. A stream is pure until subscribed and may be
// subscribed any number of times; each subscription is independent except
// for hubs.
type Stream[T any] struct {
	name   string
	source func(Subscriber[T])
}

func newStream[T any](name string, source func(Subscriber[T])) *Stream[T] {
	if !config.NamesEnabled {
		name = ""
	}
	return &Stream[T]{name: name, source: source}
}

// NewStream builds a stream from a raw source function. Most code should
// prefer Create, whose emitter enforces the signal contract; a raw source
// is trusted to follow it (or be caught by the validator).
func NewStream[T any](name string, source func(Subscriber[T])) *Stream[T] {
	apiInvariant(source != nil, "NewStream passed a nil source")
	return newStream(name, source)
}

func (s *Stream[T]) Name() string {
	return s.name
}

// SubscribeWith starts the stream for the given subscriber, wrapping it in
// a lifecycle validator when configured.
func (s *Stream[T]) SubscribeWith(sub Subscriber[T]) {
	apiInvariant(sub != nil, "SubscribeWith passed a nil subscriber")
	if config.ValidateSubscriptions {
		sub = validating(s.name, sub)
	}
	s.source(sub)
}

// Subscribe attaches a callback sink and returns it so the caller can
// cancel. A nil onError leaves errors to the default terminal policy.
func (s *Stream[T]) Subscribe(onItem func(T), onError func(error), onComplete func()) *CallbackSubscriber[T] {
	sink := Forward(onItem, onError, onComplete)
	s.SubscribeWith(sink)
	return sink
}

func opName(op string, args ...string) string {
	if !config.NamesEnabled {
		return ""
	}
	if len(args) == 0 {
		return op
	}
	return op + "(" + strings.Join(args, ",") + ")"
}

// coreSubscription is the per-stage state record every operator subscription
// composes: the done flag and the upstream handle.
type coreSubscription struct {
	done     bool
	upstream Subscription
}

func (c *coreSubscription) isDone() bool {
	return c.done
}

// Cancel marks the stage done and forwards the cancel upstream. Idempotent.
func (c *coreSubscription) Cancel() {
	if c.done {
		return
	}
	c.done = true
	if c.upstream != nil {
		c.upstream.Cancel()
	}
}

// forwardingSubscription adds the downstream sink and default pass-through
// signal handling; operators embed it and override the handlers they care
// about.
type forwardingSubscription[T any] struct {
	coreSubscription
	downstream Subscriber[T]
}

func (f *forwardingSubscription[T]) OnSubscribe(sub Subscription) {
	f.upstream = sub
	f.downstream.OnSubscribe(f)
}

func (f *forwardingSubscription[T]) OnItem(v T) {
	if f.done {
		return
	}
	f.downstream.OnItem(v)
}

func (f *forwardingSubscription[T]) OnError(err error) {
	if f.done {
		return
	}
	f.done = true
	f.downstream.OnError(err)
}

func (f *forwardingSubscription[T]) OnComplete() {
	if f.done {
		return
	}
	f.done = true
	f.downstream.OnComplete()
}

// errorAndCancelUpstream terminates the stage because of a failure in this
// stage (a throwing callback), cancelling upstream before erroring down.
func (f *forwardingSubscription[T]) errorAndCancelUpstream(err error) {
	if f.done {
		return
	}
	f.done = true
	if f.upstream != nil {
		f.upstream.Cancel()
	}
	f.downstream.OnError(err)
}

// completeAndCancelUpstream completes downstream early, cancelling upstream
// first so no further signals arrive.
func (f *forwardingSubscription[T]) completeAndCancelUpstream() {
	if f.done {
		return
	}
	f.done = true
	if f.upstream != nil {
		f.upstream.Cancel()
	}
	f.downstream.OnComplete()
}

// guard runs a user callback, converting a panic into an error.
func guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("callback panicked: %v", r)
			}
		}
	}()
	fn()
	return nil
}

// CallbackSubscriber adapts plain functions to the Subscriber contract and
// doubles as the default terminal sink: an error with no handler raises.
type CallbackSubscriber[T any] struct {
	sub        Subscription
	onItem     func(T)
	onError    func(error)
	onComplete func()
}

func Forward[T any](onItem func(T), onError func(error), onComplete func()) *CallbackSubscriber[T] {
	return &CallbackSubscriber[T]{onItem: onItem, onError: onError, onComplete: onComplete}
}

func (c *CallbackSubscriber[T]) OnSubscribe(sub Subscription) {
	c.sub = sub
}

func (c *CallbackSubscriber[T]) OnItem(v T) {
	if c.onItem != nil {
		c.onItem(v)
	}
}

func (c *CallbackSubscriber[T]) OnError(err error) {
	if c.onError != nil {
		c.onError(err)
		return
	}
	logger().Error("unhandled stream error", zap.Error(err))
	panic(fmt.Sprintf("streamparty: unhandled stream error: %v", err))
}

func (c *CallbackSubscriber[T]) OnComplete() {
	if c.onComplete != nil {
		c.onComplete()
	}
}

// Cancel cancels the underlying subscription, if the stream has attached it
// yet.
func (c *CallbackSubscriber[T]) Cancel() {
	if c.sub != nil {
		c.sub.Cancel()
	}
}
