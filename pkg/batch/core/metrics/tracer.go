package metrics

import (
	"context"

	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
)

// Tracer is an abstract interface for distributed tracing.
// This interface provides functionality to integrate with tracing systems like OpenTelemetry,
// enabling visualization of execution and partition processing flows.
type Tracer interface {
	// StartExecutionSpan starts a Span for a JobExecution.
	//
	// ctx: The parent context.
	// execution: The JobExecution to be traced.
	//
	// Returns: A context with the new Span set, and a function to end the Span.
	//          It is recommended to call the returned function in a defer statement.
	StartExecutionSpan(ctx context.Context, execution *model.JobExecution) (context.Context, func())

	// StartPartitionSpan starts a Span for the processing of one partition.
	//
	// ctx: The parent context (typically a context with an execution span).
	// execution: The owning JobExecution.
	// transactionType: The transaction type code of the partition.
	//
	// Returns: A context with the new Span set, and a function to end the Span.
	//          It is recommended to call the returned function in a defer statement.
	StartPartitionSpan(ctx context.Context, execution *model.JobExecution, transactionType string) (context.Context, func())

	// RecordError records an error in the current Span.
	//
	// ctx: The context with the current Span.
	// module: The name of the module or component where the error occurred (e.g., "sequencer", "partition").
	// err: The error to record.
	RecordError(ctx context.Context, module string, err error)

	// RecordEvent records an event in the current Span.
	//
	// ctx: The context with the current Span.
	// name: The name of the event (e.g., "wave_start", "staging_purge").
	// attributes: Additional attributes to associate with the event.
	//             Example: `map[string]interface{}{"wave": 2, "types": 3}`
	RecordEvent(ctx context.Context, name string, attributes map[string]interface{})
}
