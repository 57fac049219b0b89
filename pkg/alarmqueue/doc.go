// Package alarmqueue provides a two-lane blocking message queue with strict
// alarm-over-normal priority.
//
// Invariants:
//   - At most one alarm message is queued at any time; a second alarm sender
//     blocks until the pending alarm is received.
//   - The normal lane is FIFO and never blocks senders.
//   - Receive always returns the pending alarm before any normal message.
//   - Every accepted message is returned by exactly one receive call.
//
// Payloads are opaque references. The queue holds them between Send and
// Receive and never closes, copies or inspects them beyond rejecting nil and
// empty values.
//
// Usage:
//
//	q := alarmqueue.New[*Job]()
//	defer q.Destroy()
//	_ = q.Send(job, alarmqueue.Alarm)
//	msg, err := q.Receive()
package alarmqueue
