package metrics_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	inframetrics "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/infrastructure/metrics"
)

func TestPrometheusRecorder_CountsRecordOutcomes(t *testing.T) {
	r := inframetrics.NewPrometheusRecorder()
	ctx := context.Background()

	r.RecordStaged(ctx, "TX1", 5)
	r.RecordStaged(ctx, "TX1", 3)
	r.RecordProcessed(ctx, "TX1")
	r.RecordProcessed(ctx, "TX1")
	r.RecordFailed(ctx, "TX1", "validation")
	r.RecordChunkCommit(ctx, "TX1", 100)

	expected := `
# HELP batch_staged_records_total Total source records staged by transaction type.
# TYPE batch_staged_records_total counter
batch_staged_records_total{transaction_type="TX1"} 8
# HELP batch_processed_records_total Total records transformed successfully by transaction type.
# TYPE batch_processed_records_total counter
batch_processed_records_total{transaction_type="TX1"} 2
# HELP batch_failed_records_total Total records rejected by transaction type and reason.
# TYPE batch_failed_records_total counter
batch_failed_records_total{reason="validation",transaction_type="TX1"} 1
# HELP batch_chunk_commit_total Total chunk commits by transaction type.
# TYPE batch_chunk_commit_total counter
batch_chunk_commit_total{transaction_type="TX1"} 1
`
	require.NoError(t, testutil.GatherAndCompare(r.GetRegistry(), strings.NewReader(expected),
		"batch_staged_records_total",
		"batch_processed_records_total",
		"batch_failed_records_total",
		"batch_chunk_commit_total"))
}

func TestPrometheusRecorder_ObservesExecutionLifecycle(t *testing.T) {
	r := inframetrics.NewPrometheusRecorder()
	ctx := context.Background()
	execution := model.NewJobExecution("daily-settlement", "2025-06-01", model.ProcessingModeSimple, model.NewExecutionParameters())

	r.RecordExecutionStart(ctx, execution)
	execution.MarkAsRunning()
	execution.MarkAsCompleted()
	r.RecordExecutionEnd(ctx, execution)

	expected := `
# HELP batch_execution_status_total Total number of batch executions by status.
# TYPE batch_execution_status_total counter
batch_execution_status_total{job_name="daily-settlement",status="STARTED"} 1
batch_execution_status_total{job_name="daily-settlement",status="COMPLETED"} 1
`
	require.NoError(t, testutil.GatherAndCompare(r.GetRegistry(), strings.NewReader(expected),
		"batch_execution_status_total"))

	count, err := testutil.GatherAndCount(r.GetRegistry(), "batch_execution_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "the terminal status observes exactly one duration sample")
}

func TestPrometheusRecorder_SkipsDurationWithoutEndTime(t *testing.T) {
	r := inframetrics.NewPrometheusRecorder()
	execution := model.NewJobExecution("no-end", "2025-06-01", model.ProcessingModeSimple, model.NewExecutionParameters())

	r.RecordExecutionEnd(context.Background(), execution)

	count, err := testutil.GatherAndCount(r.GetRegistry(), "batch_execution_duration_seconds")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPrometheusRecorder_TracksPartitionsAndOperations(t *testing.T) {
	r := inframetrics.NewPrometheusRecorder()
	ctx := context.Background()

	r.RecordPartitionStart(ctx, "TX1", 0)
	r.RecordPartitionStart(ctx, "TX2", 1)
	r.RecordPartitionEnd(ctx, "TX1", model.NewPartitionResult(model.TransactionType{Code: "TX1"}))
	r.RecordDuration(ctx, "merge_duration", 42*time.Millisecond, map[string]string{"job": "daily-settlement"})

	expected := `
# HELP batch_partition_started_total Total partitions dispatched by transaction type and wave.
# TYPE batch_partition_started_total counter
batch_partition_started_total{transaction_type="TX1",wave="0"} 1
batch_partition_started_total{transaction_type="TX2",wave="1"} 1
# HELP batch_partition_completed_total Total partitions finished by transaction type.
# TYPE batch_partition_completed_total counter
batch_partition_completed_total{transaction_type="TX1"} 1
`
	require.NoError(t, testutil.GatherAndCompare(r.GetRegistry(), strings.NewReader(expected),
		"batch_partition_started_total", "batch_partition_completed_total"))

	count, err := testutil.GatherAndCount(r.GetRegistry(), "batch_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
