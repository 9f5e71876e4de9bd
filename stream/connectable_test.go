package stream_test

import (
	"testing"

	"github.com/delaneyj/streamparty/stream"
	"github.com/stretchr/testify/assert"
)

// should not touch the source until connect
func TestConnectableIsLazy(t *testing.T) {
	subscribed := 0
	src := stream.Create(func(e *stream.Emitter[int]) {
		subscribed++
		e.Next(1)
	})

	c := stream.Publish(src)
	r := newRecorder[int]()
	c.AsStream().SubscribeWith(r)
	assert.Zero(t, subscribed)

	c.Connect()
	assert.Equal(t, 1, subscribed)
	assert.Equal(t, []int{1}, r.items)
}

// should share one upstream subscription across subscribers
func TestConnectableShares(t *testing.T) {
	c := stream.Publish(stream.Never[int]())
	a := newRecorder[int]()
	b := newRecorder[int]()
	c.AsStream().SubscribeWith(a)
	c.AsStream().SubscribeWith(b)
	c.Connect()

	c.Hub().Next(5)
	assert.Equal(t, []int{5}, a.items)
	assert.Equal(t, []int{5}, b.items)
}

// should stop the upstream on disconnect without terminating downstream
func TestDisconnect(t *testing.T) {
	cancelled := false
	src := stream.Create(func(e *stream.Emitter[int]) {
		e.Next(1)
	}).DoOnCancel(func() { cancelled = true })

	c := stream.Publish(src)
	r := newRecorder[int]()
	c.AsStream().SubscribeWith(r)
	c.Connect()
	c.Disconnect()

	assert.True(t, cancelled)
	assert.Equal(t, []int{1}, r.items)
	assert.Zero(t, r.completes)
	assert.Empty(t, r.errs)
}

// should connect on the first subscriber and disconnect on the last
func TestRefCount(t *testing.T) {
	connects := 0
	cancels := 0
	src := stream.Create(func(e *stream.Emitter[int]) {
		connects++
	}).DoOnCancel(func() { cancels++ })

	shared := stream.Publish(src).RefCount()

	a := newRecorder[int]()
	shared.SubscribeWith(a)
	assert.Equal(t, 1, connects)

	b := newRecorder[int]()
	shared.SubscribeWith(b)
	assert.Equal(t, 1, connects)

	a.Cancel()
	assert.Zero(t, cancels)
	b.Cancel()
	assert.Equal(t, 1, cancels)
}

// should never hold an upstream subscription with zero downstream subscribers
func TestRefCountInvariant(t *testing.T) {
	c := stream.Publish(stream.Never[int]())
	shared := c.RefCount()

	r := newRecorder[int]()
	shared.SubscribeWith(r)
	assert.True(t, c.IsConnected())

	r.Cancel()
	assert.False(t, c.IsConnected())
}

// should replay the buffer to every late subscriber of publishReplay
func TestPublishReplay(t *testing.T) {
	hubSrc := stream.NewSubject[int]()
	c := stream.PublishReplay(hubSrc.AsStream(), 2)
	c.Connect()

	hubSrc.Next(1)
	hubSrc.Next(2)
	hubSrc.Next(3)

	r := newRecorder[int]()
	c.AsStream().SubscribeWith(r)
	assert.Equal(t, []int{2, 3}, r.items)
}
