package usecase

import (
	"context"

	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
)

// LaunchResult reports the outcome of submitting a job through the
// idempotency guard. Execution is set only when the outcome is PROCEED;
// CachedResult carries the verbatim payload of a completed prior run when the
// outcome is RETURN_CACHED.
type LaunchResult struct {
	Outcome      model.IdempotencyOutcome
	Execution    *model.JobExecution
	CachedResult []byte
}

// ExecutionLauncher submits a job for asynchronous execution.
type ExecutionLauncher interface {
	// Launch submits the named job under the given idempotency key. An empty
	// key is derived from the job name and business date. The returned error
	// covers the submission itself (unknown job, fingerprint conflict,
	// persistence failure); the outcome of the run is reported through the
	// execution's terminal status.
	Launch(ctx context.Context, jobName, idempotencyKey string, params model.ExecutionParameters) (*LaunchResult, error)
}

// ExecutionOperator performs operations on existing executions.
type ExecutionOperator interface {
	// Stop requests cancellation of a running execution. In-flight partitions
	// finish their current record and stop; the execution settles as STOPPED.
	Stop(ctx context.Context, executionID string) error

	// Restart submits a fresh execution continuing a FAILED or STOPPED one,
	// reusing its idempotency key and parameters. The guard's retry cooldown
	// applies: a restart inside the cooldown window yields a CONFLICT outcome.
	Restart(ctx context.Context, executionID string) (*LaunchResult, error)
}

// ExecutionExplorer queries execution metadata.
type ExecutionExplorer interface {
	// GetExecution retrieves a JobExecution by its ID.
	GetExecution(ctx context.Context, executionID string) (*model.JobExecution, error)

	// GetExecutions retrieves all JobExecutions of a job, most recent first.
	GetExecutions(ctx context.Context, jobName string) ([]*model.JobExecution, error)

	// GetLastExecution retrieves the most recently created JobExecution of a job.
	GetLastExecution(ctx context.Context, jobName string) (*model.JobExecution, error)

	// GetJobNames retrieves the names of all registered job definitions.
	GetJobNames(ctx context.Context) ([]string, error)
}
