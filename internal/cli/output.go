package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/harun/alarmq/internal/workload"
	"gopkg.in/yaml.v3"
)

func encode(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format: %s (supported: text, json, yaml)", format)
	}
}

func passFail(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}

func writeReport(w io.Writer, report *workload.Report, format string) error {
	if format != "text" {
		return report.Render(w, format)
	}

	checked := "not checked"
	if report.FIFOChecked {
		checked = "checked"
	}

	fmt.Fprintf(w, "Run %s on queue %q: %s\n", report.RunID, report.Queue, passFail(report.OK()))
	fmt.Fprintf(w, "  workers:    %d producers, %d consumers\n", report.Producers, report.Consumers)
	fmt.Fprintf(w, "  sent:       %d alarm, %d normal (%d scheduled)\n", report.Sent.Alarm, report.Sent.Normal, report.ScheduledAlarms)
	fmt.Fprintf(w, "  received:   %d alarm, %d normal\n", report.Received.Alarm, report.Received.Normal)
	fmt.Fprintf(w, "  rejected:   %d\n", report.Rejected)
	fmt.Fprintf(w, "  duplicates: %d, missing: %d, kind mismatches: %d\n", report.Duplicates, report.Missing, report.KindMismatches)
	fmt.Fprintf(w, "  fifo:       %d violations (%s)\n", report.FIFOViolations, checked)
	fmt.Fprintf(w, "  duration:   %s\n", formatDuration(time.Duration(report.DurationMs)*time.Millisecond))
	return nil
}

func writeScenarios(w io.Writer, results []*workload.ScenarioResult, format string) error {
	if format != "text" {
		return encode(w, format, results)
	}

	for _, r := range results {
		fmt.Fprintf(w, "Scenario %s: %s ... %s\n", r.Name, r.Description, passFail(r.Passed))
		for _, step := range r.Steps {
			fmt.Fprintf(w, "  %s\n", step)
		}
		if r.Error != "" {
			fmt.Fprintf(w, "  error: %s\n", r.Error)
		}
	}
	return nil
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
