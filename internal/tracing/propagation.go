package tracing

import (
	"context"

	"github.com/rs/zerolog"
)

// PropagateToWorker derives a worker context from a run context. The trace
// and run IDs are kept; a missing trace ID is generated.
func PropagateToWorker(ctx context.Context, workerID string) context.Context {
	if GetTraceID(ctx) == "" {
		ctx = WithTraceID(ctx, NewTraceID())
	}
	return WithWorkerID(ctx, workerID)
}

// LoggerFromContext adds tracing context to a zerolog logger
func LoggerFromContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	tc := FromContext(ctx)

	lc := logger.With()
	if tc.TraceID != "" {
		lc = lc.Str("trace_id", tc.TraceID)
	}
	if tc.RunID != "" {
		lc = lc.Str("run_id", tc.RunID)
	}
	if tc.WorkerID != "" {
		lc = lc.Str("worker_id", tc.WorkerID)
	}
	if tc.Queue != "" {
		lc = lc.Str("queue", tc.Queue)
	}

	return lc.Logger()
}
