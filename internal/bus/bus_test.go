package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"

	coreerrors "github.com/abdoElHodaky/tradsys-core/pkg/errors"
)

func TestPublishDispatchesToMatchingWildcardSubscription(t *testing.T) {
	b := New(nil)
	var got Message
	b.Subscribe(TopicOrderEvents+".*", func(msg Message) { got = msg }, 0)

	err := b.Publish(OrderEventTopic("BTCUSD.SIM"), "payload")

	assert.NoError(t, err)
	assert.Equal(t, "events.order.BTCUSD.SIM", got.Topic)
	assert.Equal(t, "payload", got.Payload)
}

func TestPublishOrdersHandlersByPriorityThenInsertion(t *testing.T) {
	b := New(nil)
	var order []string
	b.Subscribe("events.order.*", func(msg Message) { order = append(order, "low") }, 0)
	b.Subscribe("events.order.*", func(msg Message) { order = append(order, "high") }, 10)
	b.Subscribe("events.order.*", func(msg Message) { order = append(order, "low2") }, 0)

	_ = b.Publish(OrderEventTopic("X"), nil)

	assert.Equal(t, []string{"high", "low", "low2"}, order)
}

func TestPublishRejectsReentrantPublishToSameTopic(t *testing.T) {
	b := New(nil)
	var reentrantErr error
	b.Subscribe("events.order.*", func(msg Message) {
		reentrantErr = b.Publish(msg.Topic, nil)
	}, 0)

	err := b.Publish(OrderEventTopic("X"), nil)

	assert.NoError(t, err)
	assert.True(t, coreerrors.Is(reentrantErr, coreerrors.KindCyclicPublish))
}

func TestPublishAllowsReentrantPublishToDifferentTopic(t *testing.T) {
	b := New(nil)
	var innerErr error
	var innerGot Message
	b.Subscribe("events.position.*", func(msg Message) { innerGot = msg }, 0)
	b.Subscribe("events.order.*", func(msg Message) {
		innerErr = b.Publish(PositionEventTopic("Y"), "inner")
	}, 0)

	err := b.Publish(OrderEventTopic("X"), nil)

	assert.NoError(t, err)
	assert.NoError(t, innerErr)
	assert.Equal(t, "inner", innerGot.Payload)
}

func TestPublishRecoversFromHandlerPanic(t *testing.T) {
	b := New(nil)
	called := false
	b.Subscribe("events.order.*", func(msg Message) { panic("boom") }, 1)
	b.Subscribe("events.order.*", func(msg Message) { called = true }, 0)

	err := b.Publish(OrderEventTopic("X"), nil)

	assert.NoError(t, err)
	assert.True(t, called)
}

func TestMatchTopicSegmentWildcards(t *testing.T) {
	assert.True(t, matchTopic("events.order.*", "events.order.BTCUSD"))
	assert.False(t, matchTopic("events.order.*", "events.position.BTCUSD"))
	assert.True(t, matchTopic("events.ord?r.*", "events.order.BTCUSD"))
	assert.False(t, matchTopic("events.order", "events.order.BTCUSD"))
}

func TestRequestInvokesRegisteredEndpoint(t *testing.T) {
	b := New(nil)
	b.Register("echo", func(req interface{}) (interface{}, error) { return req, nil })

	resp, err := b.Request("echo", "ping")

	assert.NoError(t, err)
	assert.Equal(t, "ping", resp)
}

func TestRequestUnknownEndpointReturnsNotFound(t *testing.T) {
	b := New(nil)
	_, err := b.Request("missing", nil)

	assert.True(t, coreerrors.Is(err, coreerrors.KindNotFound))
}
