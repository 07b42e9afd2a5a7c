package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEvent is a minimal event for bus tests.
type testEvent struct {
	BaseEvent
	Message string `json:"message"`
}

func TestBus_PublishSubscribe(t *testing.T) {
	db := setupTestDB(t)
	log := NewEventLog(db)
	bus := NewBus(log, nil)
	defer bus.Close()

	ch := bus.Subscribe("test.created", 10)

	e := &testEvent{BaseEvent: NewBaseEvent("test.created", "req-1"), Message: "hello"}
	err := bus.Publish(context.Background(), e)
	require.NoError(t, err)

	select {
	case received := <-ch:
		assert.Equal(t, "test.created", received.EventType())
		assert.Equal(t, "req-1", received.RequestID())
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestBus_SubscribeAll(t *testing.T) {
	bus := NewBus(nil, nil)
	defer bus.Close()

	ch := bus.SubscribeAll(10)

	e1 := &testEvent{BaseEvent: NewBaseEvent("test.first", "req-1"), Message: "first"}
	e2 := &testEvent{BaseEvent: NewBaseEvent("test.second", "req-2"), Message: "second"}

	require.NoError(t, bus.Publish(context.Background(), e1))
	require.NoError(t, bus.Publish(context.Background(), e2))

	received := make([]Event, 0, 2)
	timeout := time.After(time.Second)
	for i := 0; i < 2; i++ {
		select {
		case e := <-ch:
			received = append(received, e)
		case <-timeout:
			t.Fatal("timeout waiting for events")
		}
	}
	assert.Equal(t, "test.first", received[0].EventType())
	assert.Equal(t, "test.second", received[1].EventType())
}

func TestBus_SubscribeRequestFilters(t *testing.T) {
	bus := NewBus(nil, nil)
	defer bus.Close()

	ch := bus.SubscribeRequest("req-1", 10)

	require.NoError(t, bus.Publish(context.Background(),
		&testEvent{BaseEvent: NewBaseEvent("test.a", "req-1")}))
	require.NoError(t, bus.Publish(context.Background(),
		&testEvent{BaseEvent: NewBaseEvent("test.b", "req-2")}))
	require.NoError(t, bus.Publish(context.Background(),
		&testEvent{BaseEvent: NewBaseEvent("test.c", "req-1")}))

	var got []string
	timeout := time.After(time.Second)
	for i := 0; i < 2; i++ {
		select {
		case e := <-ch:
			got = append(got, e.EventType())
		case <-timeout:
			t.Fatal("timeout waiting for filtered events")
		}
	}
	assert.Equal(t, []string{"test.a", "test.c"}, got)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(nil, nil)
	defer bus.Close()

	ch := bus.Subscribe("test.created", 1)
	bus.Unsubscribe(ch)

	// Channel is closed after unsubscribe.
	_, open := <-ch
	assert.False(t, open)

	// Publishing after unsubscribe does not panic.
	err := bus.Publish(context.Background(),
		&testEvent{BaseEvent: NewBaseEvent("test.created", "req-1")})
	assert.NoError(t, err)
}

func TestBus_PublishAfterClose(t *testing.T) {
	bus := NewBus(nil, nil)
	ch := bus.SubscribeAll(1)
	require.NoError(t, bus.Close())

	_, open := <-ch
	assert.False(t, open)

	err := bus.Publish(context.Background(),
		&testEvent{BaseEvent: NewBaseEvent("test.created", "req-1")})
	assert.NoError(t, err)
}

func TestBus_FullSubscriberDropsEvent(t *testing.T) {
	bus := NewBus(nil, nil)
	defer bus.Close()

	ch := bus.Subscribe("test.created", 1)

	for i := 0; i < 3; i++ {
		require.NoError(t, bus.Publish(context.Background(),
			&testEvent{BaseEvent: NewBaseEvent("test.created", "req-1")}))
	}

	// Only the buffered event is retained.
	<-ch
	select {
	case <-ch:
		t.Fatal("expected overflow events to be dropped")
	default:
	}
}
