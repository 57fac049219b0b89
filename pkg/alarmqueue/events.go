package alarmqueue

import "time"

// Event types emitted by a queue.
const (
	EventSent      = "sent"
	EventReceived  = "received"
	EventDestroyed = "destroyed"
)

// EventHandler is a function that handles queue events
type EventHandler func(event Event)

// Event describes a completed queue operation. Size and Alarms are the
// counters right after the operation; for "destroyed" Size is the number of
// dropped messages.
type Event struct {
	Type   string
	Queue  string
	Kind   Kind
	Size   int
	Alarms int
	Waited time.Duration
}

// On registers an event handler for a specific event type. Handlers run
// synchronously on the goroutine that performed the operation, after the
// queue lock is released.
func (q *Queue[T]) On(eventType string, handler EventHandler) {
	if !q.initialized() {
		return
	}

	q.eventMu.Lock()
	defer q.eventMu.Unlock()

	q.eventHandlers[eventType] = append(q.eventHandlers[eventType], handler)
}

// Off removes all handlers for the event type
func (q *Queue[T]) Off(eventType string) {
	if !q.initialized() {
		return
	}

	q.eventMu.Lock()
	defer q.eventMu.Unlock()

	delete(q.eventHandlers, eventType)
}

func (q *Queue[T]) emit(event Event) {
	q.eventMu.RLock()
	handlers := q.eventHandlers[event.Type]
	q.eventMu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}
