package workload

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/harun/alarmq/pkg/alarmqueue"
	"gopkg.in/yaml.v3"
)

// KindCounts counts messages per lane.
type KindCounts struct {
	Alarm  int `json:"alarm" yaml:"alarm"`
	Normal int `json:"normal" yaml:"normal"`
}

// Total returns alarm plus normal.
func (c KindCounts) Total() int {
	return c.Alarm + c.Normal
}

func (c *KindCounts) add(kind alarmqueue.Kind) {
	if kind == alarmqueue.Alarm {
		c.Alarm++
	} else {
		c.Normal++
	}
}

// Report summarises a workload run.
type Report struct {
	RunID           string           `json:"run_id" yaml:"run_id"`
	Queue           string           `json:"queue" yaml:"queue"`
	Producers       int              `json:"producers" yaml:"producers"`
	Consumers       int              `json:"consumers" yaml:"consumers"`
	Sent            KindCounts       `json:"sent" yaml:"sent"`
	ScheduledAlarms int              `json:"scheduled_alarms" yaml:"scheduled_alarms"`
	Received        KindCounts       `json:"received" yaml:"received"`
	Rejected        int              `json:"rejected" yaml:"rejected"`
	Duplicates      int              `json:"duplicates" yaml:"duplicates"`
	Missing         int              `json:"missing" yaml:"missing"`
	KindMismatches  int              `json:"kind_mismatches" yaml:"kind_mismatches"`
	FIFOViolations  int              `json:"fifo_violations" yaml:"fifo_violations"`
	FIFOChecked     bool             `json:"fifo_checked" yaml:"fifo_checked"`
	Final           alarmqueue.Stats `json:"final" yaml:"final"`
	DurationMs      int64            `json:"duration_ms" yaml:"duration_ms"`
}

// OK reports whether every sent message was received exactly once in its own
// lane and, when checked, normal messages kept per-producer order.
func (r *Report) OK() bool {
	return r.Duplicates == 0 &&
		r.Missing == 0 &&
		r.KindMismatches == 0 &&
		r.FIFOViolations == 0 &&
		r.Sent.Total() == r.Received.Total() &&
		r.Final.Size == 0
}

// Render writes the report as "json" or "yaml".
func (r *Report) Render(w io.Writer, format string) error {
	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format: %s (supported: json, yaml)", format)
	}
}
