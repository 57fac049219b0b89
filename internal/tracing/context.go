package tracing

import (
	"context"

	"github.com/google/uuid"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// TraceIDKey is the context key for trace ID
	TraceIDKey ContextKey = "trace_id"
	// RunIDKey is the context key for the workload run ID
	RunIDKey ContextKey = "run_id"
	// WorkerIDKey is the context key for the producer/consumer ID
	WorkerIDKey ContextKey = "worker_id"
	// QueueKey is the context key for the queue name
	QueueKey ContextKey = "queue"
)

// TraceContext holds tracing information
type TraceContext struct {
	TraceID  string
	RunID    string
	WorkerID string
	Queue    string
}

// NewTraceID generates a new trace ID
func NewTraceID() string {
	return uuid.New().String()
}

// NewRunID generates a new run ID
func NewRunID() string {
	return uuid.New().String()
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

func WithWorkerID(ctx context.Context, workerID string) context.Context {
	return context.WithValue(ctx, WorkerIDKey, workerID)
}

func WithQueue(ctx context.Context, queue string) context.Context {
	return context.WithValue(ctx, QueueKey, queue)
}

func stringValue(ctx context.Context, key ContextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// GetTraceID retrieves the trace ID from the context
func GetTraceID(ctx context.Context) string {
	return stringValue(ctx, TraceIDKey)
}

// GetRunID retrieves the run ID from the context
func GetRunID(ctx context.Context) string {
	return stringValue(ctx, RunIDKey)
}

// GetWorkerID retrieves the worker ID from the context
func GetWorkerID(ctx context.Context) string {
	return stringValue(ctx, WorkerIDKey)
}

// GetQueue retrieves the queue name from the context
func GetQueue(ctx context.Context) string {
	return stringValue(ctx, QueueKey)
}

// FromContext extracts all tracing information from the context
func FromContext(ctx context.Context) *TraceContext {
	return &TraceContext{
		TraceID:  GetTraceID(ctx),
		RunID:    GetRunID(ctx),
		WorkerID: GetWorkerID(ctx),
		Queue:    GetQueue(ctx),
	}
}

// NewRunContext starts a workload run: a fresh trace ID and run ID bound to
// the queue name.
func NewRunContext(ctx context.Context, queue string) context.Context {
	ctx = WithTraceID(ctx, NewTraceID())
	ctx = WithRunID(ctx, NewRunID())
	return WithQueue(ctx, queue)
}
