package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherInvokesSubscribersInOrder(t *testing.T) {
	d := NewInMemoryDispatcher()
	var seen []string
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		seen = append(seen, "first:"+e.TicketID)
		return nil
	})
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		seen = append(seen, "second:"+e.TicketID)
		return nil
	})
	d.Subscribe(EventTicketClosed, func(context.Context, Event) error {
		seen = append(seen, "unrelated")
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: "tic-1"}))
	assert.Equal(t, []string{"first:tic-1", "second:tic-1"}, seen)
}

func TestDispatcherSwallowsHandlerErrors(t *testing.T) {
	d := NewInMemoryDispatcher()
	var called int
	d.Subscribe(EventTicketCancelled, func(context.Context, Event) error {
		called++
		return errors.New("push endpoint down")
	})
	d.Subscribe(EventTicketCancelled, func(context.Context, Event) error {
		called++
		return nil
	})

	// Handler failures never surface to the publisher, and a failing
	// handler does not stop the ones after it.
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCancelled}))
	assert.Equal(t, 2, called)
}

func TestDispatcherNoSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventQuoteSubmitted}))
}
