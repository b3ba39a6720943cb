package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	metrics "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/metrics"
)

// OTelMetricRecorder is an OpenTelemetry Metrics implementation of the
// metrics.MetricRecorder interface. Instruments are exported through the
// MeterProvider the recorder was built with.
type OTelMetricRecorder struct {
	executionDuration  metric.Float64Histogram
	executionStatus    metric.Int64Counter
	partitionStarted   metric.Int64Counter
	partitionCompleted metric.Int64Counter
	stagedRecords      metric.Int64Counter
	processedRecords   metric.Int64Counter
	failedRecords      metric.Int64Counter
	chunkCommits       metric.Int64Counter
	operationDuration  metric.Float64Histogram
}

// NewOTelMetricRecorder creates a recorder whose instruments live on the given
// MeterProvider.
func NewOTelMetricRecorder(provider metric.MeterProvider) (*OTelMetricRecorder, error) {
	meter := provider.Meter(instrumentationName)

	r := &OTelMetricRecorder{}
	var err error

	if r.executionDuration, err = meter.Float64Histogram("batch.execution.duration",
		metric.WithUnit("s"), metric.WithDescription("Duration of batch executions.")); err != nil {
		return nil, fmt.Errorf("failed to create execution duration histogram: %w", err)
	}
	if r.executionStatus, err = meter.Int64Counter("batch.execution.status",
		metric.WithDescription("Batch executions by status.")); err != nil {
		return nil, fmt.Errorf("failed to create execution status counter: %w", err)
	}
	if r.partitionStarted, err = meter.Int64Counter("batch.partition.started",
		metric.WithDescription("Partitions dispatched.")); err != nil {
		return nil, fmt.Errorf("failed to create partition started counter: %w", err)
	}
	if r.partitionCompleted, err = meter.Int64Counter("batch.partition.completed",
		metric.WithDescription("Partitions finished.")); err != nil {
		return nil, fmt.Errorf("failed to create partition completed counter: %w", err)
	}
	if r.stagedRecords, err = meter.Int64Counter("batch.staging.records",
		metric.WithDescription("Source records staged.")); err != nil {
		return nil, fmt.Errorf("failed to create staged records counter: %w", err)
	}
	if r.processedRecords, err = meter.Int64Counter("batch.records.processed",
		metric.WithDescription("Records transformed successfully.")); err != nil {
		return nil, fmt.Errorf("failed to create processed records counter: %w", err)
	}
	if r.failedRecords, err = meter.Int64Counter("batch.records.failed",
		metric.WithDescription("Records rejected by validation.")); err != nil {
		return nil, fmt.Errorf("failed to create failed records counter: %w", err)
	}
	if r.chunkCommits, err = meter.Int64Counter("batch.chunk.commits",
		metric.WithDescription("Chunk commits.")); err != nil {
		return nil, fmt.Errorf("failed to create chunk commit counter: %w", err)
	}
	if r.operationDuration, err = meter.Float64Histogram("batch.operation.duration",
		metric.WithUnit("s"), metric.WithDescription("Duration of named engine operations.")); err != nil {
		return nil, fmt.Errorf("failed to create operation duration histogram: %w", err)
	}

	return r, nil
}

// RecordExecutionStart records the start of a JobExecution.
func (r *OTelMetricRecorder) RecordExecutionStart(ctx context.Context, execution *model.JobExecution) {
	r.executionStatus.Add(ctx, 1, metric.WithAttributes(
		attribute.String("job_name", execution.JobName),
		attribute.String("status", string(execution.Status)),
	))
}

// RecordExecutionEnd records the end of a JobExecution.
func (r *OTelMetricRecorder) RecordExecutionEnd(ctx context.Context, execution *model.JobExecution) {
	if execution.EndTime == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("job_name", execution.JobName),
		attribute.String("status", string(execution.Status)),
	)
	r.executionStatus.Add(ctx, 1, attrs)
	r.executionDuration.Record(ctx, execution.EndTime.Sub(execution.StartTime).Seconds(), attrs)
}

// RecordPartitionStart records the dispatch of one partition.
func (r *OTelMetricRecorder) RecordPartitionStart(ctx context.Context, transactionType string, wave int) {
	r.partitionStarted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("transaction_type", transactionType),
		attribute.Int("wave", wave),
	))
}

// RecordPartitionEnd records the completion of one partition.
func (r *OTelMetricRecorder) RecordPartitionEnd(ctx context.Context, transactionType string, result *model.PartitionResult) {
	r.partitionCompleted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("transaction_type", transactionType),
	))
}

// RecordStaged records staged source rows.
func (r *OTelMetricRecorder) RecordStaged(ctx context.Context, transactionType string, count int) {
	r.stagedRecords.Add(ctx, int64(count), metric.WithAttributes(
		attribute.String("transaction_type", transactionType),
	))
}

// RecordProcessed records one successfully transformed record.
func (r *OTelMetricRecorder) RecordProcessed(ctx context.Context, transactionType string) {
	r.processedRecords.Add(ctx, 1, metric.WithAttributes(
		attribute.String("transaction_type", transactionType),
	))
}

// RecordFailed records one rejected record.
func (r *OTelMetricRecorder) RecordFailed(ctx context.Context, transactionType string, reason string) {
	r.failedRecords.Add(ctx, 1, metric.WithAttributes(
		attribute.String("transaction_type", transactionType),
		attribute.String("reason", reason),
	))
}

// RecordChunkCommit records the completion of one chunk.
func (r *OTelMetricRecorder) RecordChunkCommit(ctx context.Context, transactionType string, count int) {
	r.chunkCommits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("transaction_type", transactionType),
	))
}

// RecordDuration records the execution time of a named operation.
func (r *OTelMetricRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
	attrs := make([]attribute.KeyValue, 0, len(tags)+1)
	attrs = append(attrs, attribute.String("name", name))
	for key, value := range tags {
		attrs = append(attrs, attribute.String(key, value))
	}
	r.operationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

var _ metrics.MetricRecorder = (*OTelMetricRecorder)(nil)
