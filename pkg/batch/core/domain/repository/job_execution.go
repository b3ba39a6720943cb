package repository

import (
	"context"
	"errors"

	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/exception"
)

// ErrJobExecutionNotFound is the error returned when a JobExecution is not found.
var ErrJobExecutionNotFound = errors.New("job execution not found")

func init() {
	// Register the error type in the registry at startup.
	exception.RegisterErrorType("ErrJobExecutionNotFound", ErrJobExecutionNotFound)
}

type JobExecution interface {
	// SaveJobExecution persists a new JobExecution.
	SaveJobExecution(ctx context.Context, jobExecution *model.JobExecution) error

	// UpdateJobExecution updates the state of an existing JobExecution.
	UpdateJobExecution(ctx context.Context, jobExecution *model.JobExecution) error

	// FindJobExecutionByID finds a JobExecution by its ID.
	FindJobExecutionByID(ctx context.Context, executionID string) (*model.JobExecution, error)

	// FindJobExecutionsByJobName finds all JobExecutions for a job, most recent first.
	FindJobExecutionsByJobName(ctx context.Context, jobName string) ([]*model.JobExecution, error)

	// FindLatestJobExecution finds the most recently created JobExecution for a job.
	FindLatestJobExecution(ctx context.Context, jobName string) (*model.JobExecution, error)
}
