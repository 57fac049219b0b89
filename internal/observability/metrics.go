package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type moduleMetrics struct {
	queueSize      *prometheus.GaugeVec
	alarmsPending  *prometheus.GaugeVec
	sendTotal      *prometheus.CounterVec
	receiveTotal   *prometheus.CounterVec
	blockedWaiters *prometheus.GaugeVec
	waitDuration   *prometheus.HistogramVec

	workloadRuns     *prometheus.CounterVec
	workloadDuration prometheus.Histogram
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			queueSize: prometheus.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "alarmqueue_size",
					Help: "Current number of queued messages (alarm and normal) by queue.",
				},
				[]string{"queue"},
			),
			alarmsPending: prometheus.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "alarmqueue_alarms",
					Help: "Alarm slot occupancy (1 pending, 0 free) by queue.",
				},
				[]string{"queue"},
			),
			sendTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "alarmqueue_send_total",
					Help: "Total send operations by queue, kind and status.",
				},
				[]string{"queue", "kind", "status"},
			),
			receiveTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "alarmqueue_receive_total",
					Help: "Total received messages by queue and kind.",
				},
				[]string{"queue", "kind"},
			),
			blockedWaiters: prometheus.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "alarmqueue_blocked_waiters",
					Help: "Goroutines currently blocked by queue and operation.",
				},
				[]string{"queue", "op"},
			),
			waitDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "alarmqueue_wait_seconds",
					Help:    "Time spent blocked before an operation could proceed.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"queue", "op"},
			),
			workloadRuns: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "alarmq_workload_runs_total",
					Help: "Total workload runs by verification status.",
				},
				[]string{"status"},
			),
			workloadDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "alarmq_workload_duration_seconds",
					Help:    "Workload run duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
		}

		prometheus.MustRegister(
			m.queueSize,
			m.alarmsPending,
			m.sendTotal,
			m.receiveTotal,
			m.blockedWaiters,
			m.waitDuration,
			m.workloadRuns,
			m.workloadDuration,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

func SetQueueSize(queue string, size, alarms int) {
	m := getMetrics()
	m.queueSize.WithLabelValues(queue).Set(float64(size))
	m.alarmsPending.WithLabelValues(queue).Set(float64(alarms))
}

func RecordSend(queue, kind string, size, alarms int) {
	m := getMetrics()
	m.sendTotal.WithLabelValues(queue, kind, "success").Inc()
	m.queueSize.WithLabelValues(queue).Set(float64(size))
	m.alarmsPending.WithLabelValues(queue).Set(float64(alarms))
}

func RecordSendRejected(queue, kind, reason string) {
	m := getMetrics()
	m.sendTotal.WithLabelValues(queue, kind, reason).Inc()
}

func RecordReceive(queue, kind string, size, alarms int) {
	m := getMetrics()
	m.receiveTotal.WithLabelValues(queue, kind).Inc()
	m.queueSize.WithLabelValues(queue).Set(float64(size))
	m.alarmsPending.WithLabelValues(queue).Set(float64(alarms))
}

// AddBlockedWaiters adjusts the blocked-waiter gauge by delta. Callers
// increment when they start blocking and decrement once released, so
// concurrent updates commute.
func AddBlockedWaiters(queue, op string, delta int) {
	m := getMetrics()
	m.blockedWaiters.WithLabelValues(queue, op).Add(float64(delta))
}

func RecordWait(queue, op string, duration time.Duration) {
	m := getMetrics()
	m.waitDuration.WithLabelValues(queue, op).Observe(duration.Seconds())
}

func RecordWorkloadRun(duration time.Duration, ok bool) {
	m := getMetrics()
	status := "failed"
	if ok {
		status = "ok"
	}
	m.workloadRuns.WithLabelValues(status).Inc()
	m.workloadDuration.Observe(duration.Seconds())
}
