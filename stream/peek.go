package stream

import "go.uber.org/zap"

// peekCallbacks carries one hook per lifecycle edge. A stage only ever sets
// one of these; stacking peeks composes stages instead.
type peekCallbacks[T any] struct {
	onItem         func(T)
	afterItem      func(T)
	onError        func(error)
	afterError     func(error)
	onComplete     func()
	afterComplete  func()
	onCancel       func()
	onTerminate    func()
	afterTerminate func()
}

// peekSubscription passes every signal through untouched, invoking the
// configured hook on the matching edge. A hook that panics is fatal to the
// stream: upstream is cancelled and the panic becomes the terminal error.
type peekSubscription[T any] struct {
	forwardingSubscription[T]
	cb peekCallbacks[T]
}

func (p *peekSubscription[T]) OnSubscribe(sub Subscription) {
	p.upstream = sub
	p.downstream.OnSubscribe(p)
}

func (p *peekSubscription[T]) OnItem(v T) {
	if p.done {
		return
	}
	if p.cb.onItem != nil {
		if err := guard(func() { p.cb.onItem(v) }); err != nil {
			p.errorAndCancelUpstream(err)
			return
		}
		if p.done {
			return
		}
	}
	p.downstream.OnItem(v)
	if p.done {
		return
	}
	if p.cb.afterItem != nil {
		if err := guard(func() { p.cb.afterItem(v) }); err != nil {
			p.errorAndCancelUpstream(err)
		}
	}
}

func (p *peekSubscription[T]) OnError(err error) {
	if p.done {
		return
	}
	p.runHookBeforeTerminal(func() {
		if p.cb.onError != nil {
			p.cb.onError(err)
		}
	})
	if p.done {
		return
	}
	p.done = true
	p.downstream.OnError(err)
	p.runHookAfterTerminal(func() {
		if p.cb.afterError != nil {
			p.cb.afterError(err)
		}
	})
}

func (p *peekSubscription[T]) OnComplete() {
	if p.done {
		return
	}
	p.runHookBeforeTerminal(func() {
		if p.cb.onComplete != nil {
			p.cb.onComplete()
		}
	})
	if p.done {
		return
	}
	p.done = true
	p.downstream.OnComplete()
	p.runHookAfterTerminal(func() {
		if p.cb.afterComplete != nil {
			p.cb.afterComplete()
		}
	})
}

// Cancel runs the cancel and terminate hooks before propagating upstream.
// Hook failures here have nowhere to go, so they are logged and swallowed.
func (p *peekSubscription[T]) Cancel() {
	if p.done {
		return
	}
	p.done = true
	if p.cb.onCancel != nil {
		p.logHookFailure(guard(p.cb.onCancel))
	}
	if p.cb.onTerminate != nil {
		p.logHookFailure(guard(p.cb.onTerminate))
	}
	if p.upstream != nil {
		p.upstream.Cancel()
	}
	if p.cb.afterTerminate != nil {
		p.logHookFailure(guard(p.cb.afterTerminate))
	}
}

// runHookBeforeTerminal also covers the terminate hook, which fires for
// error, complete and cancel alike.
func (p *peekSubscription[T]) runHookBeforeTerminal(hook func()) {
	if err := guard(hook); err != nil {
		p.errorAndCancelUpstream(err)
		return
	}
	if p.done {
		return
	}
	if p.cb.onTerminate != nil {
		if err := guard(p.cb.onTerminate); err != nil {
			p.errorAndCancelUpstream(err)
		}
	}
}

func (p *peekSubscription[T]) runHookAfterTerminal(hook func()) {
	p.logHookFailure(guard(hook))
	if p.cb.afterTerminate != nil {
		p.logHookFailure(guard(p.cb.afterTerminate))
	}
}

func (p *peekSubscription[T]) logHookFailure(err error) {
	if err != nil {
		logger().Warn("peek hook failed after terminal", zap.Error(err))
	}
}

func peek[T any](s *Stream[T], name string, cb peekCallbacks[T]) *Stream[T] {
	return newStream(opName(name), func(sub Subscriber[T]) {
		ps := &peekSubscription[T]{cb: cb}
		ps.downstream = sub
		s.SubscribeWith(ps)
	})
}
