package workload

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/harun/alarmq/internal/config"
	"github.com/harun/alarmq/internal/observability"
	"github.com/harun/alarmq/internal/tracing"
	"github.com/harun/alarmq/pkg/alarmqueue"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"go.opentelemetry.io/otel/attribute"
)

// retryDelay is how long a producer backs off after the normal lane reports
// it is full.
const retryDelay = time.Millisecond

// Scheduler runs scheduled alarm sends. *cron.Cron satisfies it.
type Scheduler interface {
	AddFunc(spec string, cmd func()) (cron.EntryID, error)
	Remove(id cron.EntryID)
	Start()
	Stop() context.Context
}

// Runner executes one workload against a fresh queue.
type Runner struct {
	queueCfg  config.QueueConfig
	cfg       config.WorkloadConfig
	logger    zerolog.Logger
	scheduler Scheduler
	metrics   bool

	queue *alarmqueue.Queue[*Payload]

	mu        sync.Mutex
	sent      map[string]*Payload
	seen      map[string]int
	lastSeq   map[string]int
	report    Report
	scheduled int
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger overrides the global logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithScheduler replaces the cron scheduler used for AlarmSchedule.
func WithScheduler(s Scheduler) Option {
	return func(r *Runner) {
		r.scheduler = s
	}
}

// WithoutMetrics disables Prometheus recording for the run and its queue.
func WithoutMetrics() Option {
	return func(r *Runner) {
		r.metrics = false
	}
}

// NewRunner creates a runner for the given queue and workload settings.
func NewRunner(queueCfg config.QueueConfig, cfg config.WorkloadConfig, opts ...Option) (*Runner, error) {
	if cfg.Producers < 1 {
		return nil, fmt.Errorf("producers must be at least 1, got %d", cfg.Producers)
	}
	if cfg.Consumers < 1 {
		return nil, fmt.Errorf("consumers must be at least 1, got %d", cfg.Consumers)
	}
	if cfg.Messages < 0 {
		return nil, fmt.Errorf("messages must not be negative, got %d", cfg.Messages)
	}
	if cfg.AlarmRatio < 0 || cfg.AlarmRatio > 1 {
		return nil, fmt.Errorf("alarm ratio must be within [0, 1], got %g", cfg.AlarmRatio)
	}

	r := &Runner{
		queueCfg: queueCfg,
		cfg:      cfg,
		logger:   log.Logger,
		metrics:  true,
	}
	for _, opt := range opts {
		opt(r)
	}

	if cfg.AlarmSchedule != "" && r.scheduler == nil {
		r.scheduler = cron.New()
	}

	return r, nil
}

// Run sends every configured message, drains the queue and verifies the
// result. The returned error covers setup failures; verification failures
// are reported through Report.OK.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	ctx = tracing.NewRunContext(ctx, r.queueCfg.Name)
	ctx, span := tracing.StartSpan(ctx, "workload.run",
		attribute.Int("workload.producers", r.cfg.Producers),
		attribute.Int("workload.consumers", r.cfg.Consumers),
		attribute.Int("workload.messages", r.cfg.Messages),
	)
	defer span.End()

	runLogger := tracing.LoggerFromContext(ctx, r.logger)
	queueLogger := r.logger

	r.queue = alarmqueue.NewWithOptions[*Payload](alarmqueue.Options{
		Name:           r.queueCfg.Name,
		NormalLimit:    r.queueCfg.NormalLimit,
		DisableMetrics: !r.metrics,
		Logger:         &queueLogger,
	})
	defer r.queue.Destroy()

	r.sent = make(map[string]*Payload)
	r.seen = make(map[string]int)
	r.lastSeq = make(map[string]int)
	r.scheduled = 0
	r.report = Report{
		RunID:       tracing.GetRunID(ctx),
		Queue:       r.queue.Name(),
		Producers:   r.cfg.Producers,
		Consumers:   r.cfg.Consumers,
		FIFOChecked: r.cfg.Consumers == 1,
	}

	runLogger.Info().
		Int("producers", r.cfg.Producers).
		Int("consumers", r.cfg.Consumers).
		Int("messages", r.cfg.Messages).
		Float64("alarmRatio", r.cfg.AlarmRatio).
		Msg("Workload started")

	scheduled := r.scheduler != nil && r.cfg.AlarmSchedule != ""
	if scheduled {
		id, err := r.scheduler.AddFunc(r.cfg.AlarmSchedule, func() { r.scheduledAlarm(ctx) })
		if err != nil {
			return nil, fmt.Errorf("invalid alarm schedule %q: %w", r.cfg.AlarmSchedule, err)
		}
		defer r.scheduler.Remove(id)
	}

	var consumers conc.WaitGroup
	for i := 0; i < r.cfg.Consumers; i++ {
		workerCtx := tracing.PropagateToWorker(ctx, fmt.Sprintf("consumer-%d", i))
		consumers.Go(func() { r.consume(workerCtx) })
	}

	if scheduled {
		r.scheduler.Start()
	}

	var producers conc.WaitGroup
	for i := 0; i < r.cfg.Producers; i++ {
		workerID := fmt.Sprintf("producer-%d", i)
		workerCtx := tracing.PropagateToWorker(ctx, workerID)
		rng := rand.New(rand.NewSource(r.cfg.Seed + int64(i)))
		producers.Go(func() { r.produce(workerCtx, workerID, rng) })
	}
	producers.Wait()

	if scheduled {
		<-r.scheduler.Stop().Done()
	}

	// Every producer is done, so the stop markers land behind all real
	// traffic in the normal lane and no further alarm can overtake them.
	for i := 0; i < r.cfg.Consumers; i++ {
		r.sendWithRetry(stopPayload(), alarmqueue.Normal)
	}
	consumers.Wait()

	report := r.finish(time.Since(start))

	ok := report.OK()
	if r.metrics {
		observability.RecordWorkloadRun(time.Since(start), ok)
	}
	observability.RecordRunAudit(ctx, report.RunID, ok, map[string]interface{}{
		"sent":     report.Sent.Total(),
		"received": report.Received.Total(),
		"missing":  report.Missing,
	})

	span.SetAttributes(attribute.Bool("workload.ok", ok))
	runLogger.Info().
		Bool("ok", ok).
		Int("sent", report.Sent.Total()).
		Int("received", report.Received.Total()).
		Int64("durationMs", report.DurationMs).
		Msg("Workload finished")

	return report, nil
}

func (r *Runner) produce(ctx context.Context, workerID string, rng *rand.Rand) {
	logger := tracing.LoggerFromContext(ctx, r.logger)
	logger.Debug().Msg("Producer started")

	for seq := 0; seq < r.cfg.Messages; seq++ {
		kind := alarmqueue.Normal
		if rng.Float64() < r.cfg.AlarmRatio {
			kind = alarmqueue.Alarm
		}

		p := newPayload(workerID, seq, kind)
		r.track(p)

		_, span := tracing.StartSpan(ctx, "alarmqueue.send",
			attribute.String("message.kind", kind.String()),
			attribute.String("message.id", p.ID),
		)
		r.sendWithRetry(p, kind)
		span.End()
	}

	logger.Debug().Msg("Producer finished")
}

func (r *Runner) scheduledAlarm(ctx context.Context) {
	r.mu.Lock()
	seq := r.scheduled
	r.scheduled++
	r.mu.Unlock()

	p := newPayload("scheduler", seq, alarmqueue.Alarm)
	r.track(p)

	_, span := tracing.StartSpan(ctx, "alarmqueue.send",
		attribute.String("message.kind", alarmqueue.Alarm.String()),
		attribute.Bool("message.scheduled", true),
	)
	r.sendWithRetry(p, alarmqueue.Alarm)
	span.End()
}

// sendWithRetry retries while the normal lane is at its limit. Any other
// error means the queue went away under the run and is logged.
func (r *Runner) sendWithRetry(p *Payload, kind alarmqueue.Kind) {
	for {
		err := r.queue.Send(p, kind)
		if err == nil {
			return
		}
		if errors.Is(err, alarmqueue.ErrResourceExhausted) {
			r.mu.Lock()
			r.report.Rejected++
			r.mu.Unlock()
			time.Sleep(retryDelay)
			continue
		}
		r.logger.Error().Err(err).Str("id", p.ID).Msg("Send failed")
		return
	}
}

func (r *Runner) track(p *Payload) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sent[p.ID] = p
	r.report.Sent.add(p.Kind)
	if p.Producer == "scheduler" {
		r.report.ScheduledAlarms++
	}
}

func (r *Runner) consume(ctx context.Context) {
	logger := tracing.LoggerFromContext(ctx, r.logger)
	logger.Debug().Msg("Consumer started")

	for {
		msg, err := r.queue.Receive()
		if err != nil {
			logger.Error().Err(err).Msg("Receive failed")
			return
		}
		if msg.Payload.stop {
			logger.Debug().Msg("Consumer finished")
			return
		}
		r.observe(msg)
	}
}

func (r *Runner) observe(msg alarmqueue.Message[*Payload]) {
	p := msg.Payload

	r.mu.Lock()
	defer r.mu.Unlock()

	r.report.Received.add(msg.Kind)
	r.seen[p.ID]++
	if r.seen[p.ID] > 1 {
		r.report.Duplicates++
	}
	if msg.Kind != p.Kind {
		r.report.KindMismatches++
	}

	// Normal messages from one producer must come out in send order. Only
	// meaningful with a single consumer.
	if r.report.FIFOChecked && msg.Kind == alarmqueue.Normal {
		if last, ok := r.lastSeq[p.Producer]; ok && p.Seq <= last {
			r.report.FIFOViolations++
		}
		r.lastSeq[p.Producer] = p.Seq
	}
}

func (r *Runner) finish(elapsed time.Duration) *Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id := range r.sent {
		if r.seen[id] == 0 {
			r.report.Missing++
		}
	}
	r.report.Final = r.queue.Stats()
	r.report.DurationMs = elapsed.Milliseconds()

	report := r.report
	return &report
}
