package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishInRegistrationOrder(t *testing.T) {
	bus := NewBus()
	var got []string
	bus.Subscribe(EventOrderSubmitted, func(e Event) error {
		got = append(got, "first:"+e.Payload.(OrderEvent).OrderID)
		return nil
	})
	bus.Subscribe(EventOrderSubmitted, func(e Event) error {
		got = append(got, "second:"+e.Payload.(OrderEvent).OrderID)
		return nil
	})
	bus.Subscribe(EventOrderResolved, func(Event) error {
		got = append(got, "resolved")
		return nil
	})

	bus.Publish(Event{Type: EventOrderSubmitted, Payload: OrderEvent{OrderID: "ord_1"}})
	assert.Equal(t, []string{"first:ord_1", "second:ord_1"}, got)
}

func TestFailingHandlerDoesNotStopDispatch(t *testing.T) {
	bus := NewBus()
	called := false
	bus.Subscribe(EventOrderGaveUp, func(Event) error { return errors.New("boom") })
	bus.Subscribe(EventOrderGaveUp, func(Event) error {
		called = true
		return nil
	})

	bus.Publish(Event{Type: EventOrderGaveUp})
	assert.True(t, called)
}

func TestNilBusDropsEvents(t *testing.T) {
	var bus *Bus
	assert.NotPanics(t, func() { bus.Publish(Event{Type: EventBatchStarted}) })
}
