package alarmqueue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_EventEmission(t *testing.T) {
	q := NewWithOptions[string](Options{Name: "events"})

	var events []Event
	var mu sync.Mutex
	record := func(event Event) {
		mu.Lock()
		events = append(events, event)
		mu.Unlock()
	}

	q.On(EventSent, record)
	q.On(EventReceived, record)
	q.On(EventDestroyed, record)

	require.NoError(t, q.Send("N1", Normal))
	require.NoError(t, q.Send("A1", Alarm))
	mustReceive(t, q)
	assert.Equal(t, 1, q.Destroy())

	mu.Lock()
	defer mu.Unlock()

	require.Len(t, events, 4)
	assert.Equal(t, Event{Type: EventSent, Queue: "events", Kind: Normal, Size: 1, Alarms: 0}, events[0])
	assert.Equal(t, Event{Type: EventSent, Queue: "events", Kind: Alarm, Size: 2, Alarms: 1}, events[1])
	assert.Equal(t, Event{Type: EventReceived, Queue: "events", Kind: Alarm, Size: 1, Alarms: 0}, events[2])
	assert.Equal(t, Event{Type: EventDestroyed, Queue: "events", Size: 1}, events[3])
}

func TestQueue_EventHandlerMayCallQueue(t *testing.T) {
	q := New[string]()
	defer q.Destroy()

	var sizes []int
	q.On(EventSent, func(event Event) {
		// handlers run after the lock is released
		sizes = append(sizes, q.Size())
	})

	require.NoError(t, q.Send("N1", Normal))
	require.NoError(t, q.Send("N2", Normal))
	assert.Equal(t, []int{1, 2}, sizes)
}

func TestQueue_EventOff(t *testing.T) {
	q := New[string]()
	defer q.Destroy()

	count := 0
	q.On(EventSent, func(event Event) { count++ })

	require.NoError(t, q.Send("N1", Normal))
	assert.Equal(t, 1, count)

	q.Off(EventSent)

	require.NoError(t, q.Send("N2", Normal))
	assert.Equal(t, 1, count, "should not receive events after Off")
}

func TestQueue_NoEventOnRejectedSend(t *testing.T) {
	q := New[string]()
	defer q.Destroy()

	count := 0
	q.On(EventSent, func(event Event) { count++ })

	assert.ErrorIs(t, q.Send("", Normal), ErrInvalidPayload)
	assert.Equal(t, 0, count)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "alarm", Alarm.String())
	assert.Equal(t, "normal", Normal.String())
	assert.Equal(t, "unknown", Kind(0).String())
	assert.True(t, Alarm.Valid())
	assert.False(t, Kind(3).Valid())
}
