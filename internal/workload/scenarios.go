package workload

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/harun/alarmq/internal/observability"
	"github.com/harun/alarmq/internal/tracing"
	"github.com/harun/alarmq/pkg/alarmqueue"
	"go.opentelemetry.io/otel/attribute"
)

// scenarioTimeout bounds every wait inside a scenario.
const scenarioTimeout = 2 * time.Second

// ErrUnknownScenario is returned for a scenario name that is not registered.
var ErrUnknownScenario = errors.New("unknown scenario")

// ScenarioResult is the outcome of one scripted scenario.
type ScenarioResult struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Passed      bool     `json:"passed" yaml:"passed"`
	Steps       []string `json:"steps" yaml:"steps"`
	Error       string   `json:"error,omitempty" yaml:"error,omitempty"`
}

type scenario struct {
	description string
	run         func(s *script) error
}

var scenarios = map[string]scenario{
	"A": {"alarm then normal are received in send order", scenarioA},
	"B": {"alarm preempts an earlier normal", scenarioB},
	"C": {"second alarm sender blocks until the slot frees", scenarioC},
	"D": {"blocked receiver wakes on send", scenarioD},
}

// ScenarioNames lists the registered scenarios in order.
func ScenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunScenario runs the named scenario against a fresh queue.
func RunScenario(ctx context.Context, name string) (*ScenarioResult, error) {
	name = strings.ToUpper(name)
	sc, ok := scenarios[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (known: %s)", ErrUnknownScenario, name, strings.Join(ScenarioNames(), ", "))
	}

	ctx, span := tracing.StartSpan(ctx, "workload.scenario", attribute.String("scenario", name))
	defer span.End()

	s := &script{
		queue: alarmqueue.NewWithOptions[string](alarmqueue.Options{
			Name:           "scenario-" + name,
			DisableMetrics: true,
		}),
	}
	defer s.queue.Destroy()

	err := sc.run(s)

	result := &ScenarioResult{
		Name:        name,
		Description: sc.description,
		Passed:      err == nil,
		Steps:       s.steps,
	}
	if err != nil {
		result.Error = err.Error()
	}

	span.SetAttributes(attribute.Bool("scenario.passed", result.Passed))
	observability.RecordScenarioAudit(ctx, name, result.Passed, map[string]interface{}{
		"steps": len(result.Steps),
	})

	return result, nil
}

// RunAllScenarios runs every registered scenario.
func RunAllScenarios(ctx context.Context) ([]*ScenarioResult, error) {
	results := make([]*ScenarioResult, 0, len(scenarios))
	for _, name := range ScenarioNames() {
		result, err := RunScenario(ctx, name)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

type script struct {
	queue *alarmqueue.Queue[string]
	steps []string
}

func (s *script) step(format string, args ...interface{}) {
	s.steps = append(s.steps, fmt.Sprintf(format, args...))
}

func (s *script) send(payload string, kind alarmqueue.Kind) error {
	if err := s.queue.Send(payload, kind); err != nil {
		return fmt.Errorf("send %s (%s): %w", payload, kind, err)
	}
	s.step("send %s %s -> size=%d alarms=%d", kind, payload, s.queue.Size(), s.queue.Alarms())
	return nil
}

func (s *script) expect(payload string, kind alarmqueue.Kind) error {
	msg, err := s.queue.TryReceive()
	if err != nil {
		return fmt.Errorf("receive: %w", err)
	}
	return s.check(msg, payload, kind)
}

func (s *script) check(msg alarmqueue.Message[string], payload string, kind alarmqueue.Kind) error {
	s.step("receive %s %s -> size=%d alarms=%d", msg.Kind, msg.Payload, s.queue.Size(), s.queue.Alarms())
	if msg.Payload != payload || msg.Kind != kind {
		return fmt.Errorf("expected %s %s, got %s %s", kind, payload, msg.Kind, msg.Payload)
	}
	return nil
}

func (s *script) expectCounts(size, alarms int) error {
	if got := s.queue.Size(); got != size {
		return fmt.Errorf("expected size %d, got %d", size, got)
	}
	if got := s.queue.Alarms(); got != alarms {
		return fmt.Errorf("expected alarms %d, got %d", alarms, got)
	}
	return nil
}

// waitFor polls cond until it holds or scenarioTimeout passes.
func waitFor(what string, cond func() bool) error {
	deadline := time.Now().Add(scenarioTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
	return nil
}

func scenarioA(s *script) error {
	if err := s.send("A1", alarmqueue.Alarm); err != nil {
		return err
	}
	if err := s.send("N1", alarmqueue.Normal); err != nil {
		return err
	}
	if err := s.expectCounts(2, 1); err != nil {
		return err
	}
	if err := s.expect("A1", alarmqueue.Alarm); err != nil {
		return err
	}
	if err := s.expect("N1", alarmqueue.Normal); err != nil {
		return err
	}
	return s.expectCounts(0, 0)
}

func scenarioB(s *script) error {
	if err := s.send("N1", alarmqueue.Normal); err != nil {
		return err
	}
	if err := s.send("A1", alarmqueue.Alarm); err != nil {
		return err
	}
	if err := s.expect("A1", alarmqueue.Alarm); err != nil {
		return err
	}
	if err := s.expect("N1", alarmqueue.Normal); err != nil {
		return err
	}
	return s.expectCounts(0, 0)
}

func scenarioC(s *script) error {
	if err := s.send("A1", alarmqueue.Alarm); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- s.queue.Send("A2", alarmqueue.Alarm)
	}()

	if err := waitFor("second alarm sender to block", func() bool {
		return s.queue.Stats().BlockedSenders == 1
	}); err != nil {
		return err
	}
	s.step("send alarm A2 blocked -> size=%d alarms=%d", s.queue.Size(), s.queue.Alarms())

	if err := s.expect("A1", alarmqueue.Alarm); err != nil {
		return err
	}

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("blocked alarm send: %w", err)
		}
	case <-time.After(scenarioTimeout):
		return errors.New("blocked alarm sender was not released")
	}
	s.step("send alarm A2 released -> size=%d alarms=%d", s.queue.Size(), s.queue.Alarms())

	if err := s.expect("A2", alarmqueue.Alarm); err != nil {
		return err
	}
	return s.expectCounts(0, 0)
}

func scenarioD(s *script) error {
	type received struct {
		msg alarmqueue.Message[string]
		err error
	}
	done := make(chan received, 1)
	go func() {
		msg, err := s.queue.Receive()
		done <- received{msg, err}
	}()

	if err := waitFor("receiver to block", func() bool {
		return s.queue.Stats().BlockedReceivers == 1
	}); err != nil {
		return err
	}
	s.step("receive blocked on empty queue")

	if err := s.queue.Send("N1", alarmqueue.Normal); err != nil {
		return fmt.Errorf("send N1: %w", err)
	}
	s.step("send normal N1")

	select {
	case r := <-done:
		if r.err != nil {
			return fmt.Errorf("blocked receive: %w", r.err)
		}
		if err := s.check(r.msg, "N1", alarmqueue.Normal); err != nil {
			return err
		}
	case <-time.After(scenarioTimeout):
		return errors.New("blocked receiver was not woken")
	}
	return s.expectCounts(0, 0)
}
