package alarmqueue

import "errors"

var (
	// ErrUninitialized is returned for nil, zero-value or destroyed queues.
	ErrUninitialized = errors.New("alarmqueue: queue is not initialized")
	// ErrInvalidPayload is returned when sending a nil or empty payload.
	ErrInvalidPayload = errors.New("alarmqueue: payload is nil or empty")
	// ErrInvalidKind is returned when sending with a kind other than Alarm or Normal.
	ErrInvalidKind = errors.New("alarmqueue: unknown message kind")
	// ErrResourceExhausted is returned when the normal lane reached its configured limit.
	ErrResourceExhausted = errors.New("alarmqueue: normal lane limit reached")
	// ErrNoMessage is returned by TryReceive when the queue is empty.
	ErrNoMessage = errors.New("alarmqueue: no message available")
)
