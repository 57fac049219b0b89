package tracing

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetWorkerID(ctx))

	ctx = NewRunContext(ctx, "alerts")
	assert.NotEmpty(t, GetTraceID(ctx))
	assert.NotEmpty(t, GetRunID(ctx))
	assert.Equal(t, "alerts", GetQueue(ctx))

	worker := PropagateToWorker(ctx, "producer-1")
	assert.Equal(t, GetTraceID(ctx), GetTraceID(worker))
	assert.Equal(t, GetRunID(ctx), GetRunID(worker))
	assert.Equal(t, "producer-1", GetWorkerID(worker))
}

func TestPropagateToWorkerGeneratesTraceID(t *testing.T) {
	ctx := PropagateToWorker(context.Background(), "consumer-0")
	assert.NotEmpty(t, GetTraceID(ctx))
	assert.Equal(t, "consumer-0", GetWorkerID(ctx))
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := WithRunID(context.Background(), "run-1")
	ctx = WithWorkerID(ctx, "producer-2")

	logger := LoggerFromContext(ctx, base)
	logger.Info().Msg("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "producer-2", entry["worker_id"])
	assert.NotContains(t, entry, "trace_id")
}

func TestStartSpan(t *testing.T) {
	require.NoError(t, InitOpenTelemetry("alarmq-test", 1))
	defer func() {
		require.NoError(t, ShutdownOpenTelemetry(context.Background()))
	}()

	ctx, span := StartSpan(nil, "queue.send")
	defer span.End()

	assert.True(t, span.SpanContext().IsValid())
	assert.Equal(t, span.SpanContext().TraceID().String(), GetTraceID(ctx))
}
