// Package port defines the core interfaces (ports) for the batch application.
// These interfaces abstract the application's capabilities and dependencies,
// allowing for flexible implementation and testing.
package port

import (
	"context"
	"errors"

	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
)

// Standard errors
var ErrNoMoreRecords = errors.New("no more records to read")

// IdempotencyGuard decides whether an execution keyed by an idempotency key may
// run. Exactly one caller per key wins the right to proceed; a completed key
// replays its stored result and an in-flight or cooling-down key is rejected.
type IdempotencyGuard interface {
	// Begin claims the key for the given execution.
	//
	// Parameters:
	//   ctx: The context for the operation.
	//   key: The idempotency key identifying the business request.
	//   fingerprint: A hash of the request parameters. A repeat of the same key
	//     with a different fingerprint is a conflicting reuse and is rejected.
	//   executionID: The JobExecution claiming the key.
	//
	// Returns:
	//   model.IdempotencyDecision: PROCEED, RETURN_CACHED with the stored result, or CONFLICT.
	//   error: An error if the claim could not be evaluated.
	Begin(ctx context.Context, key, fingerprint, executionID string) (model.IdempotencyDecision, error)

	// Complete settles the key after a successful execution and stores the
	// result payload for replay to later callers of the same key.
	//
	// Parameters:
	//   ctx: The context for the operation.
	//   key: The idempotency key to settle.
	//   result: The serialized execution result to cache.
	//
	// Returns:
	//   error: An error if the record could not be transitioned.
	Complete(ctx context.Context, key string, result []byte) error

	// Fail settles the key after a failed execution. The key becomes claimable
	// again once the retry cooldown has elapsed.
	//
	// Parameters:
	//   ctx: The context for the operation.
	//   key: The idempotency key to settle.
	//   reason: A short description of the failure, kept for diagnostics.
	//
	// Returns:
	//   error: An error if the record could not be transitioned.
	Fail(ctx context.Context, key string, reason string) error
}

// TransactionSequencer turns the transaction types of a job definition into
// ordered execution waves. Types in the same wave have no dependency on each
// other and may run concurrently; a wave only starts after the previous wave
// finished.
type TransactionSequencer interface {
	// BuildWaves computes the wave schedule for the given transaction types.
	//
	// Parameters:
	//   types: The transaction types declared by the job definition.
	//
	// Returns:
	//   []model.ExecutionWave: The waves in execution order. Within a wave,
	//     types are ordered by processing order and then by type code.
	//   error: A configuration error naming the cycle members if the dependency
	//     graph is not acyclic, or naming an unknown dependency reference.
	BuildWaves(types []model.TransactionType) ([]model.ExecutionWave, error)
}

// PartitionProcessor processes all staged records of one transaction type.
// A validation failure routes the failing record into the failed set and the
// partition keeps going; only infrastructure failures abort the partition.
type PartitionProcessor interface {
	// ProcessPartition fetches the ready records of the transaction type in
	// staging sequence order and applies the field mappings to each.
	//
	// Parameters:
	//   ctx: The context for the operation. Cancellation is honored between
	//     records, never in the middle of one.
	//   execution: The owning JobExecution.
	//   txType: The transaction type (partition) to process.
	//   mappings: The field mappings of the type, applied in declaration order.
	//
	// Returns:
	//   *model.PartitionResult: The succeeded and failed records of the partition.
	//   error: An error if the partition could not run at all.
	ProcessPartition(ctx context.Context, execution *model.JobExecution, txType model.TransactionType, mappings []model.FieldMapping) (*model.PartitionResult, error)
}

// ResultMerger assembles partition results into the final output stream in a
// deterministic order that does not depend on which partition finished first.
type ResultMerger interface {
	// Merge orders the succeeded records: waves in execution order, partitions
	// within a wave in the sequencer's order, records within a partition by
	// staging sequence.
	//
	// Parameters:
	//   waves: The wave schedule the execution ran.
	//   results: Partition results keyed by transaction type code.
	//
	// Returns:
	//   []model.OutputRecord: The merged output records.
	//   error: An error if a wave references a type with no result.
	Merge(waves []model.ExecutionWave, results map[string]*model.PartitionResult) ([]model.OutputRecord, error)
}

// HeaderFooterGenerator renders the header and footer lines of an output file
// from the templates of the job definition.
type HeaderFooterGenerator interface {
	// Header renders the header template.
	//
	// Parameters:
	//   vars: The substitution variables available to the template.
	//
	// Returns:
	//   string: The rendered header.
	//   error: A configuration error if the template references a variable
	//     that is not defined.
	Header(vars map[string]string) (string, error)

	// Footer renders the footer template with access to the execution's
	// aggregate summary in addition to the substitution variables.
	//
	// Parameters:
	//   vars: The substitution variables available to the template.
	//   summary: Aggregates over the merged output (record count, control totals).
	//
	// Returns:
	//   string: The rendered footer.
	//   error: A configuration error if the template references a variable
	//     that is not defined.
	Footer(vars map[string]string, summary model.FooterSummary) (string, error)
}

// SourceReader reads raw source rows for one transaction type so they can be
// staged. Implementations restore their position from the staging store when
// an execution is restarted.
type SourceReader interface {
	// Open opens the source for the given selector.
	//
	// Parameters:
	//   ctx: The context for the operation.
	//   selector: The source selection criteria of the transaction type.
	//
	// Returns:
	//   error: An error if the source cannot be opened.
	Open(ctx context.Context, selector model.SourceSelector) error
	// Read reads the next source row. Returns ErrNoMoreRecords when exhausted.
	//
	// Parameters:
	//   ctx: The context for the operation.
	//
	// Returns:
	//   model.Payload: The next source row as field name to value pairs.
	//   error: ErrNoMoreRecords if no more rows are available, or another error if reading fails.
	Read(ctx context.Context) (model.Payload, error)
	// Close closes the source.
	//
	// Parameters:
	//   ctx: The context for the operation.
	//
	// Returns:
	//   error: An error if closing fails.
	Close(ctx context.Context) error
}

// OutputWriter assembles and persists the final output of an execution.
type OutputWriter interface {
	// Open prepares the writer for an execution using the job's output spec.
	//
	// Parameters:
	//   ctx: The context for the operation.
	//   execution: The JobExecution whose output is being written.
	//   spec: The output layout of the job being run.
	//
	// Returns:
	//   error: An error if the output target cannot be prepared.
	Open(ctx context.Context, execution *model.JobExecution, spec model.OutputSpec) error
	// WriteHeader writes the rendered header line.
	WriteHeader(ctx context.Context, header string) error
	// WriteRecords writes merged output records in the order given.
	WriteRecords(ctx context.Context, records []model.OutputRecord) error
	// WriteFooter writes the rendered footer line.
	WriteFooter(ctx context.Context, footer string) error
	// Close finalizes the output and releases resources. Close must be safe to
	// call after a write error.
	Close(ctx context.Context) error
}

// StagingArchiver preserves the staged records of a failed execution in
// long-term storage before they would otherwise age out of the staging table.
type StagingArchiver interface {
	// Archive writes the given staging records to the archive location for the
	// execution.
	//
	// Parameters:
	//   ctx: The context for the operation.
	//   execution: The failed JobExecution being archived.
	//   records: The staged records to preserve.
	//
	// Returns:
	//   error: An error if the archive could not be written.
	Archive(ctx context.Context, execution *model.JobExecution, records []*model.StagingRecord) error
}

// ExecutionListener is an interface for handling execution lifecycle events.
type ExecutionListener interface {
	// BeforeExecution is called just before an execution starts running.
	BeforeExecution(ctx context.Context, execution *model.JobExecution)
	// AfterExecution is called after an execution reaches a terminal status
	// (regardless of success or failure).
	AfterExecution(ctx context.Context, execution *model.JobExecution)
}

// PartitionListener is an interface for handling partition processing events.
type PartitionListener interface {
	// BeforePartition is called just before a partition starts processing.
	BeforePartition(ctx context.Context, execution *model.JobExecution, txType model.TransactionType)
	// AfterPartition is called after a partition finished, with its result.
	AfterPartition(ctx context.Context, execution *model.JobExecution, result *model.PartitionResult)
}

// NotificationListener is a dedicated listener for signaling execution completion.
type NotificationListener interface {
	// OnExecutionCompletion is called after an execution completes (success, failure, stop).
	// execution: Information about the completed JobExecution.
	OnExecutionCompletion(ctx context.Context, execution *model.JobExecution)
}

// Define context key for JobExecution propagation during partition processing.
type contextKey string

const JobExecutionKey contextKey = "jobExecution"

// ContextWithJobExecution stores a JobExecution in the Context.
//
// Parameters:
//   ctx: The context for the operation.
//   je: The JobExecution to store.
//
// Returns:
//   context.Context: A new context with the JobExecution stored.
func ContextWithJobExecution(ctx context.Context, je *model.JobExecution) context.Context {
	return context.WithValue(ctx, JobExecutionKey, je)
}

// JobExecutionFromContext retrieves a JobExecution from the Context. Returns nil if not found.
//
// Parameters:
//   ctx: The context for the operation.
//
// Returns:
//   *model.JobExecution: The retrieved JobExecution, or nil if not found.
func JobExecutionFromContext(ctx context.Context) *model.JobExecution {
	if je, ok := ctx.Value(JobExecutionKey).(*model.JobExecution); ok {
		return je
	}
	return nil
}
