package stream

import "go.uber.org/zap"

// validatingSubscriber wraps a user sink and enforces the lifecycle
// contract: one OnSubscribe before anything else, at most one terminal,
// nothing after a terminal. Violations panic when invariant checking is on;
// otherwise the offending signal is logged and dropped.
type validatingSubscriber[T any] struct {
	streamName string
	target     Subscriber[T]
	subscribed bool
	terminated bool
}

func validating[T any](streamName string, target Subscriber[T]) Subscriber[T] {
	return &validatingSubscriber[T]{streamName: streamName, target: target}
}

func (v *validatingSubscriber[T]) OnSubscribe(sub Subscription) {
	if !v.check(sub != nil, "OnSubscribe passed a nil subscription") {
		return
	}
	if !v.check(!v.subscribed, "duplicate OnSubscribe") {
		return
	}
	v.subscribed = true
	v.target.OnSubscribe(sub)
}

func (v *validatingSubscriber[T]) OnItem(item T) {
	if !v.check(v.subscribed, "OnItem before OnSubscribe") {
		return
	}
	if !v.check(!v.terminated, "OnItem after terminal signal") {
		return
	}
	v.target.OnItem(item)
}

func (v *validatingSubscriber[T]) OnError(err error) {
	if !v.check(v.subscribed, "OnError before OnSubscribe") {
		return
	}
	if !v.check(!v.terminated, "OnError after terminal signal") {
		return
	}
	if !v.check(err != nil, "OnError passed a nil error") {
		return
	}
	v.terminated = true
	v.target.OnError(err)
}

func (v *validatingSubscriber[T]) OnComplete() {
	if !v.check(v.subscribed, "OnComplete before OnSubscribe") {
		return
	}
	if !v.check(!v.terminated, "OnComplete after terminal signal") {
		return
	}
	v.terminated = true
	v.target.OnComplete()
}

func (v *validatingSubscriber[T]) check(ok bool, msg string) bool {
	if ok {
		return true
	}
	if config.CheckInvariants {
		panic("streamparty: stream '" + v.streamName + "': " + msg)
	}
	logger().Warn("subscription protocol violation",
		zap.String("stream", v.streamName),
		zap.String("violation", msg))
	return false
}
