package alarmqueue

import "reflect"

// Kind selects the lane a message travels in.
type Kind int

const (
	// Normal messages are queued FIFO without bound.
	Normal Kind = iota + 1
	// Alarm messages occupy the single alarm slot and preempt normal messages.
	Alarm
)

func (k Kind) String() string {
	switch k {
	case Normal:
		return "normal"
	case Alarm:
		return "alarm"
	default:
		return "unknown"
	}
}

// Valid reports whether k is Alarm or Normal.
func (k Kind) Valid() bool {
	return k == Normal || k == Alarm
}

// Message is a payload handed back by Receive together with its lane.
type Message[T any] struct {
	Payload T
	Kind    Kind
}

// validPayload rejects nil references and empty strings.
func validPayload(v any) bool {
	if v == nil {
		return false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return !rv.IsNil()
	case reflect.String:
		return rv.Len() > 0
	default:
		return true
	}
}
