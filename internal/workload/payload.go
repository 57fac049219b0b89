package workload

import (
	"time"

	"github.com/harun/alarmq/pkg/alarmqueue"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Payload is the message body carried through the queue during a run.
type Payload struct {
	ID       string
	Producer string
	Seq      int
	Kind     alarmqueue.Kind
	SentAt   time.Time

	stop bool
}

func newPayload(producer string, seq int, kind alarmqueue.Kind) *Payload {
	id, err := gonanoid.New()
	if err != nil {
		// the generator only fails when the system entropy source does
		id = producer + "-" + time.Now().Format(time.RFC3339Nano)
	}

	return &Payload{
		ID:       id,
		Producer: producer,
		Seq:      seq,
		Kind:     kind,
		SentAt:   time.Now(),
	}
}

// stopPayload tells one consumer to exit. Stop markers are sent as normal
// messages after every producer has returned, so they queue behind all real
// traffic.
func stopPayload() *Payload {
	return &Payload{ID: "stop", stop: true}
}
