package metrics_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config"
	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	inframetrics "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/infrastructure/metrics"
)

// capturingRecorder records every call it receives, in order. An optional
// gate blocks the first call until released so tests can fill the queue
// while the worker is busy.
type capturingRecorder struct {
	mu      sync.Mutex
	calls   []string
	started chan struct{}
	gate    chan struct{}
	gated   bool
}

func (r *capturingRecorder) record(call string) {
	r.mu.Lock()
	gate := !r.gated && r.gate != nil
	r.gated = r.gated || gate
	r.calls = append(r.calls, call)
	r.mu.Unlock()

	if gate {
		close(r.started)
		<-r.gate
	}
}

func (r *capturingRecorder) captured() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *capturingRecorder) RecordExecutionStart(ctx context.Context, execution *model.JobExecution) {
	r.record("execution_start:" + execution.JobName)
}

func (r *capturingRecorder) RecordExecutionEnd(ctx context.Context, execution *model.JobExecution) {
	r.record("execution_end:" + execution.JobName)
}

func (r *capturingRecorder) RecordPartitionStart(ctx context.Context, transactionType string, wave int) {
	r.record("partition_start:" + transactionType)
}

func (r *capturingRecorder) RecordPartitionEnd(ctx context.Context, transactionType string, result *model.PartitionResult) {
	r.record("partition_end:" + transactionType)
}

func (r *capturingRecorder) RecordStaged(ctx context.Context, transactionType string, count int) {
	r.record("staged:" + transactionType)
}

func (r *capturingRecorder) RecordProcessed(ctx context.Context, transactionType string) {
	r.record("processed:" + transactionType)
}

func (r *capturingRecorder) RecordFailed(ctx context.Context, transactionType string, reason string) {
	r.record("failed:" + transactionType + ":" + reason)
}

func (r *capturingRecorder) RecordChunkCommit(ctx context.Context, transactionType string, count int) {
	r.record("chunk_commit:" + transactionType)
}

func (r *capturingRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
	r.record("duration:" + name)
}

func TestAsyncMetricRecorder_DrainsEveryEventOnClose(t *testing.T) {
	sink := &capturingRecorder{}
	recorder := inframetrics.NewAsyncMetricRecorder(16, sink)

	ctx := context.Background()
	execution := model.NewJobExecution("drain-test", "2025-06-01", model.ProcessingModeSimple, model.NewExecutionParameters())

	recorder.RecordExecutionStart(ctx, execution)
	recorder.RecordPartitionStart(ctx, "TX1", 0)
	recorder.RecordStaged(ctx, "TX1", 10)
	recorder.RecordProcessed(ctx, "TX1")
	recorder.RecordFailed(ctx, "TX1", "validation")
	recorder.RecordChunkCommit(ctx, "TX1", 100)
	recorder.RecordPartitionEnd(ctx, "TX1", model.NewPartitionResult(model.TransactionType{Code: "TX1"}))
	recorder.RecordDuration(ctx, "merge_duration", time.Millisecond, nil)
	recorder.RecordExecutionEnd(ctx, execution)

	recorder.Close()

	assert.Equal(t, []string{
		"execution_start:drain-test",
		"partition_start:TX1",
		"staged:TX1",
		"processed:TX1",
		"failed:TX1:validation",
		"chunk_commit:TX1",
		"partition_end:TX1",
		"duration:merge_duration",
		"execution_end:drain-test",
	}, sink.captured())
}

func TestAsyncMetricRecorder_DropsEventsWhenQueueIsFull(t *testing.T) {
	sink := &capturingRecorder{
		started: make(chan struct{}),
		gate:    make(chan struct{}),
	}
	recorder := inframetrics.NewAsyncMetricRecorder(1, sink)

	ctx := context.Background()

	// The worker picks up the first event and blocks inside the sink.
	recorder.RecordProcessed(ctx, "A")
	select {
	case <-sink.started:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never picked up the first event")
	}

	// The second event fills the buffer; the third has nowhere to go.
	recorder.RecordProcessed(ctx, "B")
	recorder.RecordProcessed(ctx, "C")

	close(sink.gate)
	recorder.Close()

	require.Equal(t, []string{"processed:A", "processed:B"}, sink.captured(),
		"the overflowing event is discarded, not queued")
}

func TestNewAsyncMetricRecorderWrapper_ClosesOnLifecycleStop(t *testing.T) {
	sink := &capturingRecorder{}
	lc := &stubLifecycle{}
	cfg := config.NewConfig()

	recorder := inframetrics.NewAsyncMetricRecorderWrapper(lc, cfg, sink)
	recorder.RecordProcessed(context.Background(), "TX1")

	require.Len(t, lc.hooks, 1)
	require.NoError(t, lc.stopAll(context.Background()))

	assert.Equal(t, []string{"processed:TX1"}, sink.captured())
}
