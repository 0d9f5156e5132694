package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusFanOut(t *testing.T) {
	bus := NewBus()

	first, unsubFirst := bus.Subscribe()
	second, unsubSecond := bus.Subscribe()
	t.Cleanup(unsubFirst)
	t.Cleanup(unsubSecond)

	bus.Publish(New(TypeSessionCleared, SessionPayload{Reason: "logout", Redirect: "/"}))

	for _, ch := range []<-chan Event{first, second} {
		e := <-ch
		assert.Equal(t, TypeSessionCleared, e.Type)
		assert.NotEmpty(t, e.ID)
		assert.NotEmpty(t, e.Timestamp)
		payload, ok := e.Payload.(SessionPayload)
		require.True(t, ok)
		assert.Equal(t, "/", payload.Redirect)
	}
}

func TestBusUnsubscribeClosesChannelOnce(t *testing.T) {
	bus := NewBus()
	ch, unsubscribe := bus.Subscribe()
	require.Equal(t, 1, bus.Subscribers())

	unsubscribe()
	unsubscribe()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, bus.Subscribers())
}

func TestBusDropsWhenSubscriberIsFull(t *testing.T) {
	bus := NewBus()
	ch, unsubscribe := bus.Subscribe()
	t.Cleanup(unsubscribe)

	for i := 0; i < subscriberBuffer+10; i++ {
		bus.Publish(New(TypeUnauthorized, nil))
	}

	assert.Len(t, ch, subscriberBuffer)
}
