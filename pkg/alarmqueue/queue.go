package alarmqueue

import (
	"sync"
	"time"

	"github.com/harun/alarmq/internal/observability"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options configures a queue created with NewWithOptions.
type Options struct {
	// Name labels log lines and metrics. Defaults to "default".
	Name string
	// NormalLimit caps the normal lane. Zero or negative means unbounded.
	NormalLimit int
	// DisableMetrics turns off Prometheus recording.
	DisableMetrics bool
	// Logger overrides the global zerolog logger.
	Logger *zerolog.Logger
}

// Stats is a point-in-time snapshot of a queue.
type Stats struct {
	Size             int    `json:"size" yaml:"size"`
	Alarms           int    `json:"alarms" yaml:"alarms"`
	Normal           int    `json:"normal" yaml:"normal"`
	BlockedSenders   int    `json:"blocked_senders" yaml:"blocked_senders"`
	BlockedReceivers int    `json:"blocked_receivers" yaml:"blocked_receivers"`
	Sent             uint64 `json:"sent" yaml:"sent"`
	Received         uint64 `json:"received" yaml:"received"`
}

// Queue is a monitor guarding one alarm slot and one unbounded normal lane.
// All fields below mu are only touched with mu held.
type Queue[T any] struct {
	mu               sync.Mutex
	messageAvailable *sync.Cond
	alarmSlotFree    *sync.Cond

	alarm    T
	hasAlarm bool
	normal   []T
	size     int

	blockedSenders   int
	blockedReceivers int
	sent             uint64
	received         uint64
	destroyed        bool

	name        string
	normalLimit int
	metrics     bool
	logger      zerolog.Logger

	eventHandlers map[string][]EventHandler
	eventMu       sync.RWMutex
}

// New creates an empty queue with default options.
func New[T any]() *Queue[T] {
	return NewWithOptions[T](Options{})
}

// NewWithOptions creates an empty queue.
func NewWithOptions[T any](opts Options) *Queue[T] {
	name := opts.Name
	if name == "" {
		name = "default"
	}

	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	q := &Queue[T]{
		name:          name,
		normalLimit:   opts.NormalLimit,
		metrics:       !opts.DisableMetrics,
		logger:        logger.With().Str("queue", name).Logger(),
		eventHandlers: make(map[string][]EventHandler),
	}
	q.messageAvailable = sync.NewCond(&q.mu)
	q.alarmSlotFree = sync.NewCond(&q.mu)

	if q.metrics {
		observability.EnsureRegistered()
		observability.SetQueueSize(q.name, 0, 0)
	}

	q.logger.Debug().Int("normalLimit", q.normalLimit).Msg("Queue created")

	return q
}

// initialized reports whether q was built by New. The condition variables are
// assigned once before the queue is published and never change afterwards.
func (q *Queue[T]) initialized() bool {
	return q != nil && q.messageAvailable != nil
}

// Name returns the queue label.
func (q *Queue[T]) Name() string {
	if q == nil {
		return ""
	}
	return q.name
}

// Send queues payload in the lane selected by kind.
//
// Normal messages never block. An alarm message blocks while another alarm is
// pending; once the slot frees exactly one blocked alarm sender proceeds, in no
// particular order.
func (q *Queue[T]) Send(payload T, kind Kind) error {
	if !q.initialized() {
		return ErrUninitialized
	}
	if !validPayload(payload) {
		q.recordRejected(kind, "invalid_payload")
		return ErrInvalidPayload
	}
	if !kind.Valid() {
		q.recordRejected(kind, "invalid_kind")
		return ErrInvalidKind
	}

	q.mu.Lock()
	if q.destroyed {
		q.mu.Unlock()
		return ErrUninitialized
	}

	var (
		waited  time.Duration
		blocked bool
	)
	switch kind {
	case Alarm:
		if q.hasAlarm {
			blocked = true
			waited = q.waitForAlarmSlotLocked()
			if q.destroyed {
				q.mu.Unlock()
				q.waiterReleased("send")
				return ErrUninitialized
			}
		}
		q.alarm = payload
		q.hasAlarm = true
	case Normal:
		if q.normalLimit > 0 && len(q.normal) >= q.normalLimit {
			pending := len(q.normal)
			q.mu.Unlock()
			q.logger.Warn().Int("normal", pending).Msg("Normal lane limit reached")
			q.recordRejected(kind, "exhausted")
			return ErrResourceExhausted
		}
		q.normal = append(q.normal, payload)
	}

	q.size++
	q.sent++
	size, alarms := q.size, q.alarmsLocked()
	q.messageAvailable.Signal()
	q.mu.Unlock()

	if blocked {
		q.waiterReleased("send")
	}
	if q.metrics {
		observability.RecordSend(q.name, kind.String(), size, alarms)
		if waited > 0 {
			observability.RecordWait(q.name, "send", waited)
		}
	}

	q.emit(Event{
		Type:   EventSent,
		Queue:  q.name,
		Kind:   kind,
		Size:   size,
		Alarms: alarms,
		Waited: waited,
	})

	return nil
}

// waitForAlarmSlotLocked blocks until the alarm slot is free or the queue is
// destroyed. Must be called with mu held; mu is held again on return. The
// lock is dropped once to log and record the waiter, so the slot is
// re-checked before waiting. The caller reports the release after unlocking.
func (q *Queue[T]) waitForAlarmSlotLocked() time.Duration {
	start := time.Now()
	q.blockedSenders++
	blocked := q.blockedSenders
	q.mu.Unlock()
	q.waiterBlocked("send", "blockedSenders", blocked, "Alarm slot occupied, sender waiting")
	q.mu.Lock()

	for q.hasAlarm && !q.destroyed {
		q.alarmSlotFree.Wait()
	}

	q.blockedSenders--
	return time.Since(start)
}

// Receive removes and returns the next message, blocking while the queue is
// empty. A pending alarm is always returned before any normal message.
func (q *Queue[T]) Receive() (Message[T], error) {
	if !q.initialized() {
		return Message[T]{}, ErrUninitialized
	}

	q.mu.Lock()
	var (
		waited  time.Duration
		blocked bool
	)
	if q.size == 0 && !q.destroyed {
		blocked = true
		waited = q.waitForMessageLocked()
	}
	if q.destroyed {
		q.mu.Unlock()
		if blocked {
			q.waiterReleased("receive")
		}
		return Message[T]{}, ErrUninitialized
	}

	msg := q.dequeueLocked()
	size, alarms := q.size, q.alarmsLocked()
	q.mu.Unlock()

	if blocked {
		q.waiterReleased("receive")
	}

	q.afterReceive(msg.Kind, size, alarms, waited)
	return msg, nil
}

// TryReceive is the non-blocking variant of Receive. It returns ErrNoMessage
// when both lanes are empty.
func (q *Queue[T]) TryReceive() (Message[T], error) {
	if !q.initialized() {
		return Message[T]{}, ErrUninitialized
	}

	q.mu.Lock()
	if q.destroyed {
		q.mu.Unlock()
		return Message[T]{}, ErrUninitialized
	}
	if q.size == 0 {
		q.mu.Unlock()
		return Message[T]{}, ErrNoMessage
	}

	msg := q.dequeueLocked()
	size, alarms := q.size, q.alarmsLocked()
	q.mu.Unlock()

	q.afterReceive(msg.Kind, size, alarms, 0)
	return msg, nil
}

// waitForMessageLocked blocks until a message is queued or the queue is
// destroyed. Same locking contract as waitForAlarmSlotLocked.
func (q *Queue[T]) waitForMessageLocked() time.Duration {
	start := time.Now()
	q.blockedReceivers++
	blocked := q.blockedReceivers
	q.mu.Unlock()
	q.waiterBlocked("receive", "blockedReceivers", blocked, "Queue empty, receiver waiting")
	q.mu.Lock()

	for q.size == 0 && !q.destroyed {
		q.messageAvailable.Wait()
	}

	q.blockedReceivers--
	return time.Since(start)
}

// waiterBlocked and waiterReleased run without mu held.
func (q *Queue[T]) waiterBlocked(op, field string, count int, msg string) {
	q.logger.Debug().Int(field, count).Msg(msg)
	if q.metrics {
		observability.AddBlockedWaiters(q.name, op, 1)
	}
}

func (q *Queue[T]) waiterReleased(op string) {
	if q.metrics {
		observability.AddBlockedWaiters(q.name, op, -1)
	}
}

// dequeueLocked takes the alarm if present, otherwise the normal head.
// Caller holds mu and has checked size > 0.
func (q *Queue[T]) dequeueLocked() Message[T] {
	var zero T

	if q.hasAlarm {
		msg := Message[T]{Payload: q.alarm, Kind: Alarm}
		q.alarm = zero
		q.hasAlarm = false
		q.size--
		q.received++
		q.alarmSlotFree.Signal()
		return msg
	}

	msg := Message[T]{Payload: q.normal[0], Kind: Normal}
	q.normal[0] = zero
	q.normal = q.normal[1:]
	if len(q.normal) == 0 {
		q.normal = nil
	}
	q.size--
	q.received++
	return msg
}

func (q *Queue[T]) afterReceive(kind Kind, size, alarms int, waited time.Duration) {
	if q.metrics {
		observability.RecordReceive(q.name, kind.String(), size, alarms)
		if waited > 0 {
			observability.RecordWait(q.name, "receive", waited)
		}
	}

	q.emit(Event{
		Type:   EventReceived,
		Queue:  q.name,
		Kind:   kind,
		Size:   size,
		Alarms: alarms,
		Waited: waited,
	})
}

func (q *Queue[T]) alarmsLocked() int {
	if q.hasAlarm {
		return 1
	}
	return 0
}

func (q *Queue[T]) recordRejected(kind Kind, reason string) {
	if q.metrics {
		observability.RecordSendRejected(q.name, kind.String(), reason)
	}
}

// Size returns the number of queued messages, alarm included. It reports 0 for
// an uninitialized or destroyed queue.
func (q *Queue[T]) Size() int {
	if !q.initialized() {
		return 0
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Alarms returns 1 while an alarm message is pending, 0 otherwise.
func (q *Queue[T]) Alarms() int {
	if !q.initialized() {
		return 0
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	return q.alarmsLocked()
}

// Stats returns a consistent snapshot of the queue counters.
func (q *Queue[T]) Stats() Stats {
	if !q.initialized() {
		return Stats{}
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	return Stats{
		Size:             q.size,
		Alarms:           q.alarmsLocked(),
		Normal:           len(q.normal),
		BlockedSenders:   q.blockedSenders,
		BlockedReceivers: q.blockedReceivers,
		Sent:             q.sent,
		Received:         q.received,
	}
}

// Destroy releases the queue's internal state and returns how many messages
// were still queued. Their payloads are dropped, not closed.
//
// The caller must ensure no other operation runs concurrently with or after
// Destroy. Goroutines still blocked in Send or Receive are woken and get
// ErrUninitialized. Calling Destroy twice is a no-op.
func (q *Queue[T]) Destroy() int {
	if !q.initialized() {
		return 0
	}

	q.mu.Lock()
	if q.destroyed {
		q.mu.Unlock()
		return 0
	}

	var zero T
	dropped := q.size
	q.destroyed = true
	q.alarm = zero
	q.hasAlarm = false
	q.normal = nil
	q.size = 0
	q.messageAvailable.Broadcast()
	q.alarmSlotFree.Broadcast()
	q.mu.Unlock()

	q.logger.Debug().Int("dropped", dropped).Msg("Queue destroyed")
	if q.metrics {
		observability.SetQueueSize(q.name, 0, 0)
	}

	q.emit(Event{
		Type:  EventDestroyed,
		Queue: q.name,
		Size:  dropped,
	})

	return dropped
}
