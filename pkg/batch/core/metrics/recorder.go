package metrics

import (
	"context"
	"time"

	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
)

// Span represents a single operation or unit of work in distributed tracing.
// This interface provides basic methods for managing the lifecycle of a span.
type Span interface {
	// End sets the end time of the current span and finishes the span.
	// Once a span is ended, its data is ready to be exported to the tracing system.
	End()
}

// MetricRecorder is an abstract interface for recording metrics related to batch execution.
//
// This interface provides a standardized way to record metrics for execution,
// partition and record-level events. It facilitates integration with different
// metrics backends (e.g., Prometheus, OpenTelemetry Metrics).
type MetricRecorder interface {
	// RecordExecutionStart records the start of a JobExecution.
	//
	// ctx: The context for the operation.
	// execution: Details of the started JobExecution.
	RecordExecutionStart(ctx context.Context, execution *model.JobExecution)

	// RecordExecutionEnd records the end of a JobExecution.
	//
	// ctx: The context for the operation.
	// execution: Details of the ended JobExecution.
	RecordExecutionEnd(ctx context.Context, execution *model.JobExecution)

	// RecordPartitionStart records the start of one partition of an execution.
	//
	// ctx: The context for the operation.
	// transactionType: The transaction type code of the partition.
	// wave: The index of the wave the partition runs in.
	RecordPartitionStart(ctx context.Context, transactionType string, wave int)

	// RecordPartitionEnd records the end of one partition of an execution.
	//
	// ctx: The context for the operation.
	// transactionType: The transaction type code of the partition.
	// result: The outcome of the partition.
	RecordPartitionEnd(ctx context.Context, transactionType string, result *model.PartitionResult)

	// RecordStaged records the staging of source rows for a transaction type.
	//
	// ctx: The context for the operation.
	// transactionType: The transaction type code the rows belong to.
	// count: The number of rows staged.
	RecordStaged(ctx context.Context, transactionType string, count int)

	// RecordProcessed records the successful transformation of a record.
	//
	// ctx: The context for the operation.
	// transactionType: The transaction type code of the record.
	RecordProcessed(ctx context.Context, transactionType string)

	// RecordFailed records a record rejected by validation.
	//
	// ctx: The context for the operation.
	// transactionType: The transaction type code of the record.
	// reason: A string indicating the reason for the failure (e.g., error type).
	RecordFailed(ctx context.Context, transactionType string, reason string)

	// RecordChunkCommit records the completion of one chunk of records.
	//
	// ctx: The context for the operation.
	// transactionType: The transaction type code the chunk belongs to.
	// count: The number of records in the chunk.
	RecordChunkCommit(ctx context.Context, transactionType string, count int)

	// RecordDuration records the execution time of a specific operation.
	//
	// ctx: The context for the operation.
	// name: The name of the duration to record (e.g., "merge_duration", "db_query_time").
	// duration: The length of the duration to record.
	// tags: A map of additional tags or attributes to associate with the duration.
	//       Example: `{"job": "daily-settlement", "status": "success"}`
	RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string)
}
